package scoring

import "strings"

var specCleaner = strings.NewReplacer("[", "", "]", "", `"`, "")

// NormalizeText lowercases and trims a free-text answer.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SplitCorrectSpec turns a stored multiple-choice answer key such as
// `["Sarah", "Mike"]` or `Sarah,Mike` into normalized options.
func SplitCorrectSpec(spec string) []string {
	return splitNormalized(specCleaner.Replace(spec), ",")
}

// SplitSelections splits a subject's multiple-choice answer on ';'.
func SplitSelections(answer string) []string {
	return splitNormalized(answer, ";")
}

func splitNormalized(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = NormalizeText(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
