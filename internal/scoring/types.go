package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

type StoryType int

const (
	StoryTarget StoryType = iota + 1
	StoryControl
)

func (t StoryType) String() string {
	switch t {
	case StoryTarget:
		return "TARGET"
	case StoryControl:
		return "CONTROL"
	}
	return fmt.Sprintf("StoryType(%d)", int(t))
}

// ParseStoryType accepts the stored names. FAUX_PAS is the legacy name of
// TARGET and is still found in older datasets.
func ParseStoryType(s string) (StoryType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TARGET", "FAUX_PAS":
		return StoryTarget, nil
	case "CONTROL":
		return StoryControl, nil
	}
	return 0, fmt.Errorf("unknown story type %q", s)
}

type QuestionType int

const (
	QuestionBoolean QuestionType = iota + 1
	QuestionMultipleChoice
	QuestionOpenEnded
)

func (t QuestionType) String() string {
	switch t {
	case QuestionBoolean:
		return "BOOLEAN"
	case QuestionMultipleChoice:
		return "MULTIPLE_CHOICE"
	case QuestionOpenEnded:
		return "OPEN_ENDED"
	}
	return fmt.Sprintf("QuestionType(%d)", int(t))
}

func ParseQuestionType(s string) (QuestionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BOOLEAN":
		return QuestionBoolean, nil
	case "MULTIPLE_CHOICE":
		return QuestionMultipleChoice, nil
	case "OPEN_ENDED":
		return QuestionOpenEnded, nil
	}
	return 0, fmt.Errorf("unknown question type %q", s)
}

// Evaluation is the outcome of scoring one answer. The zero value is
// Indeterminate: nothing has been decided yet, or the judge could not decide.
type Evaluation int

const (
	Indeterminate Evaluation = iota
	Correct
	Incorrect
	Invalidated
)

func (e Evaluation) String() string {
	switch e {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case Invalidated:
		return "invalidated"
	}
	return "indeterminate"
}

// Wire projects the evaluation onto the stored {1, 0, -1, null} encoding.
func (e Evaluation) Wire() *int {
	var v int
	switch e {
	case Correct:
		v = 1
	case Incorrect:
		v = 0
	case Invalidated:
		v = -1
	default:
		return nil
	}
	return &v
}

// EvaluationFromWire is the inverse of Wire.
func EvaluationFromWire(v *int) (Evaluation, error) {
	if v == nil {
		return Indeterminate, nil
	}
	switch *v {
	case 1:
		return Correct, nil
	case 0:
		return Incorrect, nil
	case -1:
		return Invalidated, nil
	}
	return Indeterminate, fmt.Errorf("evaluation %d out of range", *v)
}

func fromBool(ok bool) Evaluation {
	if ok {
		return Correct
	}
	return Incorrect
}

func (e Evaluation) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Wire())
}

func (e *Evaluation) UnmarshalJSON(b []byte) error {
	var v *int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	ev, err := EvaluationFromWire(v)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

type Story struct {
	ID   int64     `json:"id"`
	Text string    `json:"text"`
	Type StoryType `json:"type"`
}

// Question positions within a story.
const (
	OrderDetection = 1
	OrderBelief    = 5
	OrderEmpathy   = 6
	OrderControlA  = 7
	OrderControlB  = 8
)

var dependentOrders = []int{2, 3, 4}

type Question struct {
	ID            int64        `json:"id"`
	StoryID       int64        `json:"story_id"`
	Order         int          `json:"order"`
	Type          QuestionType `json:"type"`
	IsControl     bool         `json:"is_control"`
	Text          string       `json:"text"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"`
}

// AnswerRecord is one stored answer joined with its question and story.
// Story is nil when the story row is missing.
type AnswerRecord struct {
	UserID     int64      `json:"user_id"`
	QuestionID int64      `json:"question_id"`
	AnswerText string     `json:"answer_text"`
	Evaluation Evaluation `json:"evaluation"`
	Question   Question   `json:"question"`
	Story      *Story     `json:"story,omitempty"`
}

// QuestionScore is the engine's decision for one question of one story.
// Answered is false for questions the subject never answered; those are
// reported but not written back.
type QuestionScore struct {
	StoryID    int64      `json:"story_id"`
	QuestionID int64      `json:"question_id"`
	Order      int        `json:"order"`
	Answered   bool       `json:"answered"`
	Evaluation Evaluation `json:"evaluation"`
}

// Ratio is a score that may be undefined when its denominator is zero.
type Ratio struct {
	Value   float64
	Defined bool
}

func ratio(num, den int) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: float64(num) / float64(den), Defined: true}
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var v *float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*r = Ratio{}
		return nil
	}
	*r = Ratio{Value: *v, Defined: true}
	return nil
}

type ComprehensionTally struct {
	CorrectControlTarget  int `json:"correctControlTarget"`
	MaxControlTarget      int `json:"maxControlTarget"`
	CorrectControlControl int `json:"correctControlControl"`
	MaxControlControl     int `json:"maxControlControl"`
}

type FinalScores struct {
	UserID            int64 `json:"userId"`
	Detection         Ratio `json:"fauxPasDetectionRatio"`
	Inappropriateness Ratio `json:"understandingInappropriatenessRatio"`
	Intentions        Ratio `json:"intentionsRatio"`
	Belief            Ratio `json:"beliefRatio"`
	Empathy           Ratio `json:"empathyRatio"`

	ComprehensionTally

	InvalidStories int `json:"invalidStoriesCount"`
	ValidStories   int `json:"validStoriesCount"`

	// Partial is set when an evaluation run for the user was in flight
	// while the scores were computed.
	Partial bool `json:"partial,omitempty"`
}

func (t StoryType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *StoryType) UnmarshalText(b []byte) error {
	v, err := ParseStoryType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t QuestionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *QuestionType) UnmarshalText(b []byte) error {
	v, err := ParseQuestionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
