package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"fauxpas-eval/internal/scoring"
)

// Repository is the sqlx-backed scoring.Store. Queries are written with '?'
// placeholders and rebound for the connected driver.
type Repository struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewRepository(db *sqlx.DB, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{db: db, log: log}
}

var _ scoring.Store = (*Repository)(nil)

const answersQuery = `
SELECT ua.user_id, ua.question_id, ua.answer_text, ua.evaluation,
       q.story_id, q.order_in_story, q.question_type, q.is_control,
       q.question_text, q.correct_answer,
       s.story_text, s.story_type
FROM user_answers ua
JOIN questions q ON q.id = ua.question_id
LEFT JOIN stories s ON s.id = q.story_id
WHERE ua.user_id = ?
ORDER BY ua.question_id`

func (r *Repository) ListAnswersForUser(ctx context.Context, userID int64) ([]scoring.AnswerRecord, error) {
	var rows []answerRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(answersQuery), userID); err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	out := make([]scoring.AnswerRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			r.log.Warn("skipping malformed answer row", "user_id", userID, "question_id", row.QuestionID, "err", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (row answerRow) record() (scoring.AnswerRecord, error) {
	q, err := questionRow{
		ID:            row.QuestionID,
		StoryID:       row.StoryID,
		Order:         row.Order,
		QuestionType:  row.QuestionType,
		IsControl:     row.IsControl,
		QuestionText:  row.QuestionText,
		CorrectAnswer: row.CorrectAnswer,
	}.question()
	if err != nil {
		return scoring.AnswerRecord{}, err
	}
	var wire *int
	if row.Evaluation.Valid {
		v := int(row.Evaluation.Int64)
		wire = &v
	}
	ev, err := scoring.EvaluationFromWire(wire)
	if err != nil {
		return scoring.AnswerRecord{}, err
	}
	rec := scoring.AnswerRecord{
		UserID:     row.UserID,
		QuestionID: row.QuestionID,
		AnswerText: row.AnswerText,
		Evaluation: ev,
		Question:   q,
	}
	if row.StoryID.Valid && row.StoryType.Valid {
		st, err := scoring.ParseStoryType(row.StoryType.String)
		if err != nil {
			return scoring.AnswerRecord{}, err
		}
		rec.Story = &scoring.Story{ID: row.StoryID.Int64, Text: row.StoryText.String, Type: st}
	}
	return rec, nil
}

func (row questionRow) question() (scoring.Question, error) {
	qt, err := scoring.ParseQuestionType(row.QuestionType)
	if err != nil {
		return scoring.Question{}, err
	}
	q := scoring.Question{
		ID:        row.ID,
		StoryID:   row.StoryID.Int64,
		Order:     row.Order,
		Type:      qt,
		IsControl: row.IsControl,
		Text:      row.QuestionText,
	}
	if row.CorrectAnswer.Valid {
		s := row.CorrectAnswer.String
		q.CorrectAnswer = &s
	}
	return q, nil
}

func (r *Repository) ListQuestionsForStories(ctx context.Context, storyIDs []int64) ([]scoring.Question, error) {
	if len(storyIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
SELECT id, story_id, order_in_story, question_type, is_control, question_text, correct_answer
FROM questions
WHERE story_id IN (?)
ORDER BY story_id, order_in_story`, storyIDs)
	if err != nil {
		return nil, err
	}
	var rows []questionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	out := make([]scoring.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.question()
		if err != nil {
			r.log.Warn("skipping malformed question row", "question_id", row.ID, "err", err)
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// SetEvaluation updates an existing answer. It never creates one.
func (r *Repository) SetEvaluation(ctx context.Context, userID, questionID int64, ev scoring.Evaluation) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE user_answers SET evaluation = ? WHERE user_id = ? AND question_id = ?`),
		ev.Wire(), userID, questionID)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d question %d: %w", userID, questionID, scoring.ErrAnswerNotFound)
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		r.db.Rebind(`INSERT INTO users (username) VALUES (?) RETURNING id, username, created_at`), username)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// SaveAnswer stores a subject's answer. Re-answering replaces the text and
// keeps any previous evaluation until the next evaluation run.
func (r *Repository) SaveAnswer(ctx context.Context, userID, questionID int64, text string) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`
SELECT (SELECT COUNT(1) FROM users WHERE id = ?) + (SELECT COUNT(1) FROM questions WHERE id = ?)`),
			userID, questionID); err != nil {
			return err
		}
		if n != 2 {
			return fmt.Errorf("user %d or question %d: %w", userID, questionID, ErrNotFound)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO user_answers (user_id, question_id, answer_text) VALUES (?, ?, ?)
ON CONFLICT (user_id, question_id) DO UPDATE SET answer_text = excluded.answer_text`),
			userID, questionID, text)
		return err
	})
}
