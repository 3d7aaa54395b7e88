package scoring

import "slices"

// IsCorrect scores an answer without the judge.
//
// Multiple choice is a subset test: every selected option must be in the
// answer key, but the subject need not select all of them. A selection with
// no options is therefore accepted.
func IsCorrect(answer string, correct *string, qt QuestionType) bool {
	if correct == nil || *correct == "" {
		return false
	}
	switch qt {
	case QuestionMultipleChoice:
		key := SplitCorrectSpec(*correct)
		for _, sel := range SplitSelections(answer) {
			if !slices.Contains(key, sel) {
				return false
			}
		}
		return true
	case QuestionBoolean, QuestionOpenEnded:
		return NormalizeText(answer) == NormalizeText(*correct)
	}
	return false
}

func ruleScored(qt QuestionType) bool {
	return qt == QuestionBoolean || qt == QuestionMultipleChoice
}
