package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"fauxpas-eval/internal/scoring"
)

// StorySeed is one authored story with its questions, as found in a
// question-bank JSON file.
type StorySeed struct {
	Number    int            `json:"storyNumber"`
	Type      string         `json:"storyType"`
	Text      string         `json:"storyText"`
	Questions []QuestionSeed `json:"questions"`
}

type QuestionSeed struct {
	Order         int     `json:"order"`
	Text          string  `json:"text"`
	Type          string  `json:"type"`
	CorrectAnswer *string `json:"correctAnswer"`
	IsControl     bool    `json:"isControl"`
}

// DecodeSeeds reads a JSON array of stories and checks every type name.
func DecodeSeeds(r io.Reader) ([]StorySeed, error) {
	var seeds []StorySeed
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("decode seeds: %w", err)
	}
	for i, s := range seeds {
		st, err := scoring.ParseStoryType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("story %d: %w", s.Number, err)
		}
		seeds[i].Type = st.String()
		for j, q := range s.Questions {
			qt, err := scoring.ParseQuestionType(q.Type)
			if err != nil {
				return nil, fmt.Errorf("story %d question %d: %w", s.Number, q.Order, err)
			}
			if q.Order < 1 || q.Order > 8 {
				return nil, fmt.Errorf("story %d: question order %d out of range", s.Number, q.Order)
			}
			seeds[i].Questions[j].Type = qt.String()
		}
	}
	return seeds, nil
}

// ImportStories upserts stories by story number and their questions by
// position, all in one transaction.
func (r *Repository) ImportStories(ctx context.Context, seeds []StorySeed) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, s := range seeds {
			var storyID int64
			err := tx.GetContext(ctx, &storyID, tx.Rebind(`
INSERT INTO stories (story_number, story_text, story_type) VALUES (?, ?, ?)
ON CONFLICT (story_number) DO UPDATE SET story_text = excluded.story_text, story_type = excluded.story_type
RETURNING id`), s.Number, s.Text, s.Type)
			if err != nil {
				return fmt.Errorf("upsert story %d: %w", s.Number, err)
			}
			for _, q := range s.Questions {
				_, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO questions (story_id, order_in_story, question_text, question_type, is_control, correct_answer)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (story_id, order_in_story) DO UPDATE SET
    question_text = excluded.question_text,
    question_type = excluded.question_type,
    is_control = excluded.is_control,
    correct_answer = excluded.correct_answer`),
					storyID, q.Order, q.Text, q.Type, q.IsControl, q.CorrectAnswer)
				if err != nil {
					return fmt.Errorf("upsert story %d question %d: %w", s.Number, q.Order, err)
				}
			}
		}
		return nil
	})
}
