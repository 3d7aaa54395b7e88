package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "yes", NormalizeText("  YeS \n"))
	assert.Equal(t, []string{"sarah", "mike"}, SplitCorrectSpec(`["Sarah", " Mike "]`))
	assert.Equal(t, []string{"sarah", "mike"}, SplitCorrectSpec(`Sarah,,Mike,`))
	assert.Equal(t, []string{"sarah", "mike"}, SplitSelections(" Sarah ; ;mike;"))
	assert.Empty(t, SplitSelections(" ; "))
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		correct *string
		qt      QuestionType
		want    bool
	}{
		{"boolean match ignores case and space", "  yes ", strp("Yes"), QuestionBoolean, true},
		{"boolean mismatch", "no", strp("Yes"), QuestionBoolean, false},
		{"nil key never correct", "yes", nil, QuestionBoolean, false},
		{"empty key never correct", "", strp(""), QuestionBoolean, false},
		{"open ended falls back to equality", "Because she forgot", strp("because she forgot"), QuestionOpenEnded, true},
		{"mc single option", "Sarah", strp(`["Sarah"]`), QuestionMultipleChoice, true},
		{"mc subset of key", "kitchen", strp(`["Kitchen", "Garden"]`), QuestionMultipleChoice, true},
		{"mc full set", "Garden; Kitchen", strp(`["Kitchen", "Garden"]`), QuestionMultipleChoice, true},
		{"mc one wrong option", "Kitchen;Attic", strp(`["Kitchen", "Garden"]`), QuestionMultipleChoice, false},
		{"mc empty selection is vacuously correct", " ; ", strp(`["Kitchen"]`), QuestionMultipleChoice, true},
		{"mc nil key", "Kitchen", nil, QuestionMultipleChoice, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrect(tt.answer, tt.correct, tt.qt))
		})
	}
}

func TestParseStoryType(t *testing.T) {
	for in, want := range map[string]StoryType{"TARGET": StoryTarget, "faux_pas": StoryTarget, "Control": StoryControl} {
		got, err := ParseStoryType(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStoryType("OTHER")
	assert.Error(t, err)
}

func TestEvaluationWire(t *testing.T) {
	for _, ev := range []Evaluation{Correct, Incorrect, Invalidated, Indeterminate} {
		back, err := EvaluationFromWire(ev.Wire())
		assert.NoError(t, err)
		assert.Equal(t, ev, back)
	}
	assert.Nil(t, Indeterminate.Wire())
	assert.Equal(t, -1, *Invalidated.Wire())

	bad := 3
	_, err := EvaluationFromWire(&bad)
	assert.Error(t, err)
}
