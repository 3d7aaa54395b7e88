package scoring

import "context"

// AnswerReader loads a user's answers joined with their question and story.
type AnswerReader interface {
	ListAnswersForUser(ctx context.Context, userID int64) ([]AnswerRecord, error)
}

// ScoreReader is what aggregation reads.
type ScoreReader interface {
	AnswerReader
	// ListQuestionsForStories returns every authored question of the given
	// stories, answered or not.
	ListQuestionsForStories(ctx context.Context, storyIDs []int64) ([]Question, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	ScoreReader
	// SetEvaluation overwrites the evaluation of an existing answer and
	// returns ErrAnswerNotFound when there is none.
	SetEvaluation(ctx context.Context, userID, questionID int64, ev Evaluation) error
}

// RunRegistry records evaluation runs so that aggregation can tell whether
// a user's evaluations are still being written. Implementations backed by
// shared storage make the flag visible across processes.
type RunRegistry interface {
	BeginRun(ctx context.Context, userID int64) (runID string, err error)
	EndRun(ctx context.Context, runID string) error
	RunInFlight(ctx context.Context, userID int64) (bool, error)
}
