package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fauxpas-eval/internal/judge"
)

type phase int

const (
	phasePending phase = iota
	phaseGateChecked
	phaseInvalid
	phaseQ1Scored
	phaseDependentsScored
	phaseIndependentsScored
	phaseDone
)

func (p phase) String() string {
	return [...]string{"PENDING", "GATE_CHECKED", "INVALID", "Q1_SCORED",
		"DEPENDENTS_SCORED", "INDEPENDENTS_SCORED", "DONE"}[p]
}

// next lists the phases reachable from each phase.
var next = map[phase][]phase{
	phasePending:            {phaseGateChecked},
	phaseGateChecked:        {phaseInvalid, phaseQ1Scored},
	phaseQ1Scored:           {phaseDependentsScored},
	phaseDependentsScored:   {phaseIndependentsScored},
	phaseIndependentsScored: {phaseDone},
}

// storyRun scores one story for one user. It is not safe for concurrent use;
// the engine gives every story its own run.
type storyRun struct {
	story     Story
	byOrder   map[int]Question
	questions []Question
	answers   map[int64]AnswerRecord

	judge        judge.Judge
	judgeTimeout time.Duration
	log          *slog.Logger

	phase  phase
	scores []QuestionScore
}

func newStoryRun(story Story, questions []Question, answers map[int64]AnswerRecord, j judge.Judge, judgeTimeout time.Duration, log *slog.Logger) *storyRun {
	byOrder := make(map[int]Question, len(questions))
	for _, q := range questions {
		if _, dup := byOrder[q.Order]; dup {
			log.Warn("duplicate question order in story", "order", q.Order, "question_id", q.ID)
			continue
		}
		byOrder[q.Order] = q
	}
	return &storyRun{
		story:        story,
		byOrder:      byOrder,
		questions:    questions,
		answers:      answers,
		judge:        j,
		judgeTimeout: judgeTimeout,
		log:          log.With("story_id", story.ID),
	}
}

func (r *storyRun) advance(to phase) error {
	for _, p := range next[r.phase] {
		if p == to {
			r.phase = to
			return nil
		}
	}
	return fmt.Errorf("story %d: %s -> %s: %w", r.story.ID, r.phase, to, errInvalidTransition)
}

func (r *storyRun) record(q Question, ev Evaluation) {
	_, answered := r.answers[q.ID]
	r.scores = append(r.scores, QuestionScore{
		StoryID:    r.story.ID,
		QuestionID: q.ID,
		Order:      q.Order,
		Answered:   answered,
		Evaluation: ev,
	})
}

func (r *storyRun) answer(q Question) (AnswerRecord, bool) {
	a, ok := r.answers[q.ID]
	return a, ok
}

// run drives the story from PENDING to DONE or INVALID.
func (r *storyRun) run(ctx context.Context) ([]QuestionScore, error) {
	gate := CheckGate(r.questions, r.answers)
	if err := r.advance(phaseGateChecked); err != nil {
		return nil, err
	}
	if !gate.Valid {
		r.log.Info("story invalidated by control question",
			"question_id", gate.Failed.ID, "order", gate.Failed.Order)
		for _, q := range r.questions {
			r.record(q, Invalidated)
		}
		return r.scores, r.advance(phaseInvalid)
	}

	q1Correct, q1SaidNo := r.scoreDetection(ctx)
	if err := r.advance(phaseQ1Scored); err != nil {
		return nil, err
	}

	r.scoreDependents(ctx, q1Correct, q1SaidNo)
	if err := r.advance(phaseDependentsScored); err != nil {
		return nil, err
	}

	r.scoreIndependents()
	r.rerecordControls()
	if err := r.advance(phaseIndependentsScored); err != nil {
		return nil, err
	}
	return r.scores, r.advance(phaseDone)
}

func (r *storyRun) scoreDetection(ctx context.Context) (correct, saidNo bool) {
	q1, ok := r.byOrder[OrderDetection]
	if !ok {
		r.log.Warn("detection question missing")
		return false, false
	}
	ev := r.scoreByType(ctx, q1)
	r.record(q1, ev)
	a, answered := r.answer(q1)
	return ev == Correct, answered && NormalizeText(a.AnswerText) == "no"
}

func (r *storyRun) scoreDependents(ctx context.Context, q1Correct, q1SaidNo bool) {
	nothingToReport := r.story.Type == StoryControl && q1Correct && q1SaidNo
	for _, order := range dependentOrders {
		q, ok := r.byOrder[order]
		if !ok {
			r.log.Warn("dependent question missing", "order", order)
			continue
		}
		switch {
		case nothingToReport:
			if _, answered := r.answer(q); answered {
				r.record(q, Incorrect)
			} else {
				// Credit for leaving it blank is given at aggregation.
				r.record(q, Indeterminate)
			}
		case q1Correct:
			r.record(q, r.scoreByType(ctx, q))
		default:
			r.record(q, Incorrect)
		}
	}
}

func (r *storyRun) scoreIndependents() {
	for _, order := range []int{OrderBelief, OrderEmpathy} {
		q, ok := r.byOrder[order]
		if !ok {
			r.log.Warn("independent question missing", "order", order)
			continue
		}
		a, answered := r.answer(q)
		switch {
		case !answered:
			r.record(q, Incorrect)
		case ruleScored(q.Type):
			r.record(q, fromBool(IsCorrect(a.AnswerText, q.CorrectAnswer, q.Type)))
		default:
			r.log.Warn("independent question has unexpected type",
				"order", order, "question_id", q.ID, "type", q.Type)
			r.record(q, Indeterminate)
		}
	}
}

func (r *storyRun) rerecordControls() {
	for _, q := range controlQuestions(r.questions) {
		if a, answered := r.answer(q); answered {
			r.record(q, fromBool(IsCorrect(a.AnswerText, q.CorrectAnswer, q.Type)))
		}
	}
}

// scoreByType scores a detection or dependent question. Rule-scored types
// never touch the judge; open-ended answers do unless they are blank.
func (r *storyRun) scoreByType(ctx context.Context, q Question) Evaluation {
	a, answered := r.answer(q)
	switch q.Type {
	case QuestionBoolean, QuestionMultipleChoice:
		if !answered {
			return Incorrect
		}
		return fromBool(IsCorrect(a.AnswerText, q.CorrectAnswer, q.Type))
	case QuestionOpenEnded:
		if !answered || strings.TrimSpace(a.AnswerText) == "" {
			return Incorrect
		}
		if strings.TrimSpace(r.story.Text) == "" {
			r.log.Error("story text missing, cannot call judge", "question_id", q.ID, "order", q.Order)
			return Indeterminate
		}
		return r.askJudge(ctx, q, a)
	}
	r.log.Warn("question has unknown type", "question_id", q.ID, "type", q.Type)
	return Indeterminate
}

func (r *storyRun) askJudge(ctx context.Context, q Question, a AnswerRecord) Evaluation {
	if r.judge == nil {
		r.log.Warn("no judge configured", "question_id", q.ID)
		return Indeterminate
	}
	if r.judgeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.judgeTimeout)
		defer cancel()
	}
	v, err := r.judge.Judge(ctx, judge.Request{
		Story:    r.story.Text,
		Question: q.Text,
		Answer:   a.AnswerText,
	})
	if err != nil {
		r.log.Warn("judge failed, leaving evaluation undetermined",
			"question_id", q.ID, "order", q.Order, "err", err)
		return Indeterminate
	}
	return fromBool(v.Correct())
}
