package schemas

import (
	"encoding/json"
	"time"
)

type CreateUserRequest struct {
	Username string `json:"username"`
}

type UserOut struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveAnswerRequest mirrors the answer form. A missing answerText is
// stored as an empty answer.
type SaveAnswerRequest struct {
	UserID     int64   `json:"userId"`
	QuestionID int64   `json:"questionId"`
	AnswerText *string `json:"answerText"`
}

type AnswerOut struct {
	QuestionID int64  `json:"questionId"`
	StoryID    int64  `json:"storyId"`
	Order      int    `json:"orderInStory"`
	AnswerText string `json:"answerText"`
	// Evaluation is 1, 0, -1 or null.
	Evaluation *int `json:"evaluation"`
}

type EnqueuedResp struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}

type ReportOut struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"userId"`
	ObjectRef string          `json:"objectRef,omitempty"`
	Partial   bool            `json:"partial"`
	CreatedAt time.Time       `json:"createdAt"`
	Scores    json.RawMessage `json:"scores"`
}
