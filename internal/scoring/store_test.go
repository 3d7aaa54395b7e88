package scoring

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type storedAnswer struct {
	text string
	eval Evaluation
}

type answerKey struct{ user, question int64 }

// memStore is an in-memory Store and RunRegistry for tests. Services built
// over the same memStore see each other's runs, like services sharing a
// database.
type memStore struct {
	mu        sync.Mutex
	stories   map[int64]Story
	questions map[int64]Question
	answers   map[answerKey]*storedAnswer
	runs      map[string]int64
	runSeq    int
	writes    int
	// dropOnWrite makes SetEvaluation behave as if the row vanished.
	dropOnWrite bool
}

func newMemStore() *memStore {
	return &memStore{
		stories:   make(map[int64]Story),
		questions: make(map[int64]Question),
		answers:   make(map[answerKey]*storedAnswer),
		runs:      make(map[string]int64),
	}
}

func strp(s string) *string { return &s }

// addStory authors a standard eight-question story. Question ids are
// storyID*10+order. Q3 and Q4 are open ended and go to the judge.
func (m *memStore) addStory(id int64, typ StoryType, text string) {
	m.stories[id] = Story{ID: id, Text: text, Type: typ}
	detection := "Yes"
	if typ == StoryControl {
		detection = "No"
	}
	qs := []Question{
		{Order: 1, Type: QuestionBoolean, CorrectAnswer: strp(detection)},
		{Order: 2, Type: QuestionMultipleChoice, CorrectAnswer: strp(`["Sarah"]`)},
		{Order: 3, Type: QuestionOpenEnded},
		{Order: 4, Type: QuestionOpenEnded},
		{Order: 5, Type: QuestionBoolean, CorrectAnswer: strp("No")},
		{Order: 6, Type: QuestionBoolean, CorrectAnswer: strp("Yes")},
		{Order: 7, Type: QuestionMultipleChoice, IsControl: true, CorrectAnswer: strp(`["Kitchen", "Garden"]`)},
		{Order: 8, Type: QuestionBoolean, IsControl: true, CorrectAnswer: strp("Yes")},
	}
	for _, q := range qs {
		q.ID = id*10 + int64(q.Order)
		q.StoryID = id
		q.Text = "question"
		m.questions[q.ID] = q
	}
}

func (m *memStore) setQuestion(q Question) { m.questions[q.ID] = q }

func (m *memStore) answer(user, storyID int64, order int, text string) {
	m.answers[answerKey{user, storyID*10 + int64(order)}] = &storedAnswer{text: text}
}

func (m *memStore) eval(user, storyID int64, order int) (Evaluation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[answerKey{user, storyID*10 + int64(order)}]
	if !ok {
		return Indeterminate, false
	}
	return a.eval, true
}

func (m *memStore) ListAnswersForUser(_ context.Context, userID int64) ([]AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AnswerRecord
	for k, a := range m.answers {
		if k.user != userID {
			continue
		}
		q := m.questions[k.question]
		rec := AnswerRecord{UserID: userID, QuestionID: k.question, AnswerText: a.text, Evaluation: a.eval, Question: q}
		if s, ok := m.stories[q.StoryID]; ok {
			rec.Story = &s
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b AnswerRecord) int { return int(a.QuestionID - b.QuestionID) })
	return out, nil
}

func (m *memStore) ListQuestionsForStories(_ context.Context, storyIDs []int64) ([]Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Question
	for _, q := range m.questions {
		if slices.Contains(storyIDs, q.StoryID) {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b Question) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memStore) SetEvaluation(_ context.Context, userID, questionID int64, ev Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[answerKey{userID, questionID}]
	if !ok || m.dropOnWrite {
		return ErrAnswerNotFound
	}
	a.eval = ev
	m.writes++
	return nil
}

func (m *memStore) BeginRun(_ context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runSeq++
	id := fmt.Sprintf("run-%d", m.runSeq)
	m.runs[id] = userID
	return id, nil
}

func (m *memStore) EndRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runID)
	return nil
}

func (m *memStore) RunInFlight(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.runs {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

// setEval stores an answer with a given evaluation, bypassing the engine.
func (m *memStore) setEval(user, storyID int64, order int, text string, ev Evaluation) {
	m.answers[answerKey{user, storyID*10 + int64(order)}] = &storedAnswer{text: text, eval: ev}
}
