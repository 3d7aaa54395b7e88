// Package judge scores free-text answers by asking an external semantic
// judge whether the answer fits the story and question.
package judge

import "context"

// Request is the payload sent to the judge.
type Request struct {
	Story    string `json:"story"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Verdict is the judge's decision. Score is 1 for an acceptable answer and
// 0 otherwise; Confidence is the model's probability for that score.
type Verdict struct {
	Score      int     `json:"score"`
	Confidence float64 `json:"probability"`
}

// Correct reports whether the judge accepted the answer.
func (v Verdict) Correct() bool { return v.Score == 1 }

// Judge is implemented by every judge backend and decorator.
type Judge interface {
	Judge(ctx context.Context, req Request) (Verdict, error)
}

// Pinger is implemented by backends that expose a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
