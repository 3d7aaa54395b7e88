package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// answerRow is one user_answers row joined with its question and story.
// Story columns are NULL when the question has no story.
type answerRow struct {
	UserID        int64          `db:"user_id"`
	QuestionID    int64          `db:"question_id"`
	AnswerText    string         `db:"answer_text"`
	Evaluation    sql.NullInt64  `db:"evaluation"`
	StoryID       sql.NullInt64  `db:"story_id"`
	Order         int            `db:"order_in_story"`
	QuestionType  string         `db:"question_type"`
	IsControl     bool           `db:"is_control"`
	QuestionText  string         `db:"question_text"`
	CorrectAnswer sql.NullString `db:"correct_answer"`
	StoryText     sql.NullString `db:"story_text"`
	StoryType     sql.NullString `db:"story_type"`
}

type questionRow struct {
	ID            int64          `db:"id"`
	StoryID       sql.NullInt64  `db:"story_id"`
	Order         int            `db:"order_in_story"`
	QuestionType  string         `db:"question_type"`
	IsControl     bool           `db:"is_control"`
	QuestionText  string         `db:"question_text"`
	CorrectAnswer sql.NullString `db:"correct_answer"`
}

type Report struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ObjectRef string    `db:"object_ref"`
	Scores    []byte    `db:"scores"`
	Partial   bool      `db:"partial"`
	CreatedAt time.Time `db:"created_at"`
}
