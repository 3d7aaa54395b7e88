package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fauxpas-eval/internal/judge"
)

func evaluate(t *testing.T, m *memStore, j judge.Judge, user int64) FinalScores {
	t.Helper()
	svc := NewService(m, j, testOptions())
	final, _, err := svc.CalculateScores(context.Background(), user)
	require.NoError(t, err)
	return final
}

func TestFinalScores_SingleValidTargetStory(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 7: "Kitchen", 8: "Yes"})

	got := evaluate(t, m, judge.NewMock(), 1)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Detection)
	assert.Equal(t, 2, got.CorrectControlTarget)
	assert.Equal(t, 2, got.MaxControlTarget)
	assert.Equal(t, 1, got.ValidStories)
	assert.Equal(t, 0, got.InvalidStories)
	assert.Equal(t, Ratio{Value: 0, Defined: true}, got.Inappropriateness)
	assert.False(t, got.Partial)
}

func TestFinalScores_FailedControlLeavesRatiosUndefined(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 7: "Kitchen", 8: "No"})

	got := evaluate(t, m, judge.NewMock(), 1)
	assert.Equal(t, 1, got.InvalidStories)
	assert.Equal(t, 0, got.ValidStories)
	assert.Equal(t, 0, got.CorrectControlTarget)
	assert.Equal(t, 2, got.MaxControlTarget)
	for _, r := range []Ratio{got.Detection, got.Inappropriateness, got.Intentions, got.Belief, got.Empathy} {
		assert.False(t, r.Defined)
	}

	b, err := json.Marshal(got)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))
	assert.Nil(t, wire["fauxPasDetectionRatio"])
	assert.Nil(t, wire["empathyRatio"])
	assert.EqualValues(t, 1, wire["invalidStoriesCount"])
}

func TestFinalScores_ControlStoryDeferredCredit(t *testing.T) {
	m := newMemStore()
	m.addStory(2, StoryControl, "Kim helped her mother plant roses.")
	answerAll(m, 1, 2, map[int]string{1: "No", 5: "No", 6: "Yes", 7: "Garden", 8: "Yes"})

	got := evaluate(t, m, judge.NewMock(), 1)
	// Q1 plus the blank Q2, over two correct control answers.
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Detection)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Inappropriateness)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Intentions)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Belief)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Empathy)
	assert.Equal(t, 2, got.CorrectControlControl)
}

func TestFinalScores_ControlStoryAnsweredDependentLosesCredit(t *testing.T) {
	m := newMemStore()
	m.addStory(2, StoryControl, "Kim helped her mother plant roses.")
	answerAll(m, 1, 2, map[int]string{1: "No", 2: "Sarah", 7: "Garden", 8: "Yes"})

	got := evaluate(t, m, judge.NewMock(), 1)
	assert.Equal(t, Ratio{Value: 0.5, Defined: true}, got.Detection)
	ev, _ := m.eval(1, 2, 2)
	assert.Equal(t, Incorrect, ev)
}

func TestFinalScores_MixedStories(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	m.addStory(2, StoryControl, "Kim helped her mother plant roses.")
	m.addStory(3, StoryTarget, "Someone else's story.")
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 3: "good", 4: "bad", 5: "No", 6: "Yes", 7: "Kitchen", 8: "Yes"})
	answerAll(m, 1, 2, map[int]string{1: "No", 5: "Yes", 6: "Yes", 7: "Garden", 8: "Yes"})
	answerAll(m, 1, 3, map[int]string{1: "Yes", 7: "Attic", 8: "Yes"})

	got := evaluate(t, m, judge.NewMock(accept(), reject()), 1)
	assert.Equal(t, 1, got.InvalidStories)
	assert.Equal(t, 2, got.ValidStories)
	assert.Equal(t, 2, got.CorrectControlTarget)
	assert.Equal(t, 4, got.MaxControlTarget)
	assert.Equal(t, 2, got.CorrectControlControl)
	assert.Equal(t, 2, got.MaxControlControl)
	// Target: Q1+Q2, control: Q1+blank Q2, over four correct control answers.
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Detection)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Inappropriateness)
	assert.Equal(t, Ratio{Value: 0.5, Defined: true}, got.Intentions)
	assert.Equal(t, Ratio{Value: 0.5, Defined: true}, got.Belief)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Empathy)
}

func TestComputeFinalScores_NoAnswers(t *testing.T) {
	_, err := NewAggregator(newMemStore(), testOptions()).ComputeFinalScores(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrNoAnswers))
}

func TestComputeFinalScores_ReadsPersistedEvaluationsOnly(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 7: "Kitchen", 8: "Yes"})

	// Never evaluated: every stored evaluation is still undetermined, so
	// the controls do not count as correct.
	got, err := NewAggregator(m, testOptions()).ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.InvalidStories)
	assert.False(t, got.Detection.Defined)
}

func TestComputeFinalScores_SkipsAnswersWithoutStory(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 7: "Kitchen", 8: "Yes"})
	m.questions[991] = Question{ID: 991, StoryID: 99, Order: 1, Type: QuestionBoolean}
	m.answers[answerKey{1, 991}] = &storedAnswer{text: "Yes", eval: Correct}

	got := evaluate(t, m, judge.NewMock(), 1)
	assert.Equal(t, 1, got.ValidStories)
}

func TestComputeFinalScores_FlagsPartialData(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 7: "Kitchen", 8: "Yes"})

	ctx := context.Background()
	opts := testOptions()
	opts.Runs = NewRunTracker()
	runID, err := opts.Runs.BeginRun(ctx, 1)
	require.NoError(t, err)

	got, err := NewAggregator(m, opts).ComputeFinalScores(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Partial)

	require.NoError(t, opts.Runs.EndRun(ctx, runID))
	got, err = NewAggregator(m, opts).ComputeFinalScores(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Partial)
}

func TestComputeFinalScores_SeesRunOfAnotherService(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 3: "rude", 7: "Kitchen", 8: "Yes"})

	// Two services over one store, like the api and worker processes over
	// one database.
	api := NewService(m, judge.NewMock(), testOptions())
	var midRun FinalScores
	j := judgeFunc(func(ctx context.Context, _ judge.Request) (judge.Verdict, error) {
		got, err := api.ComputeFinalScores(ctx, 1)
		assert.NoError(t, err)
		midRun = got
		return judge.Verdict{Score: 1}, nil
	})
	worker := NewService(m, j, testOptions())

	_, _, err := worker.CalculateScores(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, midRun.Partial)

	after, err := api.ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, after.Partial)
}

func TestFinalScores_UnansweredControlsInvalidateStory(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	answerAll(m, 1, 1, map[int]string{1: "Yes", 2: "Sarah", 5: "No", 6: "Yes"})

	got := evaluate(t, m, judge.NewMock(), 1)
	ev, _ := m.eval(1, 1, 1)
	assert.Equal(t, Invalidated, ev)
	assert.Equal(t, 1, got.InvalidStories)
	assert.Equal(t, 0, got.ValidStories)
	assert.Equal(t, 2, got.MaxControlTarget)
	assert.Equal(t, 0, got.CorrectControlTarget)
	for _, r := range []Ratio{got.Detection, got.Inappropriateness, got.Intentions, got.Belief, got.Empathy} {
		assert.False(t, r.Defined)
	}
}

func TestComputeFinalScores_OneMissingControlInvalidatesStory(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	m.setEval(1, 1, 1, "Yes", Correct)
	m.setEval(1, 1, 7, "Kitchen", Correct)

	got, err := NewAggregator(m, testOptions()).ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.InvalidStories)
	assert.Equal(t, 2, got.MaxControlTarget)
	assert.False(t, got.Belief.Defined)
}

func TestComputeFinalScores_InvalidatedRecordInvalidatesStory(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	m.setEval(1, 1, 1, "Yes", Invalidated)
	m.setEval(1, 1, 7, "Kitchen", Correct)
	m.setEval(1, 1, 8, "Yes", Correct)

	got, err := NewAggregator(m, testOptions()).ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.InvalidStories)
	assert.Equal(t, 0, got.CorrectControlTarget)
}

func TestComputeFinalScores_StoryWithoutControlsIsValid(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	delete(m.questions, 17)
	delete(m.questions, 18)
	m.setEval(1, 1, 1, "Yes", Correct)
	m.setEval(1, 1, 5, "No", Correct)

	got, err := NewAggregator(m, testOptions()).ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ValidStories)
	assert.Equal(t, 0, got.MaxControlTarget)
	assert.Equal(t, Ratio{Value: 1, Defined: true}, got.Belief)
	// No correct controls means no detection denominator.
	assert.False(t, got.Detection.Defined)
}

func TestComputeFinalScores_ControlFlagOutsideControlOrdersIgnored(t *testing.T) {
	m := newMemStore()
	m.addStory(1, StoryTarget, story1Text)
	q := m.questions[15]
	q.IsControl = true
	m.setQuestion(q)
	m.setEval(1, 1, 1, "Yes", Correct)
	m.setEval(1, 1, 5, "Yes", Incorrect)
	m.setEval(1, 1, 7, "Kitchen", Correct)
	m.setEval(1, 1, 8, "Yes", Correct)

	got, err := NewAggregator(m, testOptions()).ComputeFinalScores(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ValidStories)
	assert.Equal(t, 2, got.MaxControlTarget)
	assert.Equal(t, 2, got.CorrectControlTarget)
	assert.Equal(t, Ratio{Value: 0.5, Defined: true}, got.Detection)

	// The gate agrees: only Q7 and Q8 decide validity.
	qs, err := m.ListQuestionsForStories(context.Background(), []int64{1})
	require.NoError(t, err)
	recs, err := m.ListAnswersForUser(context.Background(), 1)
	require.NoError(t, err)
	byID := make(map[int64]AnswerRecord, len(recs))
	for _, r := range recs {
		byID[r.QuestionID] = r
	}
	assert.True(t, CheckGate(qs, byID).Valid)
}
