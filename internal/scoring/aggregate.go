package scoring

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

// Aggregator folds persisted evaluations into FinalScores. It only reads.
type Aggregator struct {
	reader ScoreReader
	opts   Options
}

func NewAggregator(reader ScoreReader, opts Options) *Aggregator {
	return &Aggregator{reader: reader, opts: opts.withDefaults(reader)}
}

type storyAnswers struct {
	story   Story
	byOrder map[int]AnswerRecord
	records []AnswerRecord
}

func (s *storyAnswers) has(order int) bool {
	_, ok := s.byOrder[order]
	return ok
}

func (s *storyAnswers) correct(order int) bool {
	a, ok := s.byOrder[order]
	return ok && a.Evaluation == Correct
}

// ComputeFinalScores aggregates the stored evaluations of userID. It
// returns ErrNoAnswers when the user has no answers at all.
//
// Story validity is derived again from persisted data rather than taken
// from the engine, with the gate's rule: every authored control question
// must have a Correct evaluation. A story holding any Invalidated record is
// invalid as well.
//
// The result is marked Partial when an evaluation run for the user is in
// flight in any process sharing the run registry; its ratios then reflect
// whatever evaluations had been written so far.
func (a *Aggregator) ComputeFinalScores(ctx context.Context, userID int64) (FinalScores, error) {
	ctx, span := tracer.Start(ctx, "scoring.ComputeFinalScores")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))
	log := a.opts.Logger.With("user_id", userID)

	before, err := a.opts.Runs.RunInFlight(ctx, userID)
	if err != nil {
		return FinalScores{}, fmt.Errorf("check runs: %w", err)
	}
	records, err := a.reader.ListAnswersForUser(ctx, userID)
	if err != nil {
		return FinalScores{}, fmt.Errorf("list answers: %w", err)
	}
	if len(records) == 0 {
		return FinalScores{}, fmt.Errorf("user %d: %w", userID, ErrNoAnswers)
	}

	grouped := make(map[int64]*storyAnswers)
	for _, rec := range records {
		if rec.Story == nil {
			log.Warn("answer without story data, skipped", "question_id", rec.QuestionID)
			continue
		}
		sa, ok := grouped[rec.Story.ID]
		if !ok {
			sa = &storyAnswers{story: *rec.Story, byOrder: make(map[int]AnswerRecord)}
			grouped[rec.Story.ID] = sa
		}
		sa.records = append(sa.records, rec)
		if _, dup := sa.byOrder[rec.Question.Order]; !dup {
			sa.byOrder[rec.Question.Order] = rec
		}
	}
	ids := make([]int64, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	controls, err := a.authoredControls(ctx, ids)
	if err != nil {
		return FinalScores{}, err
	}
	after, err := a.opts.Runs.RunInFlight(ctx, userID)
	if err != nil {
		return FinalScores{}, fmt.Errorf("check runs: %w", err)
	}

	out := FinalScores{UserID: userID, Partial: before || after}
	invalid := make(map[int64]bool)

	// Pass 1: control tally.
	for _, id := range ids {
		sa := grouped[id]
		// Controls of this story: authored ones plus any answered one the
		// question listing did not return.
		evals := make(map[int64]*Evaluation)
		for _, q := range controls[id] {
			evals[q.ID] = nil
		}
		failed := false
		for _, rec := range sa.records {
			if rec.Evaluation == Invalidated {
				failed = true
			}
			if isControlQuestion(rec.Question) {
				ev := rec.Evaluation
				evals[rec.QuestionID] = &ev
			}
		}
		correct := 0
		for _, ev := range evals {
			if ev != nil && *ev == Correct {
				correct++
			} else {
				failed = true
			}
		}
		switch sa.story.Type {
		case StoryTarget:
			out.MaxControlTarget += len(evals)
		case StoryControl:
			out.MaxControlControl += len(evals)
		}
		if failed {
			invalid[id] = true
			log.Info("story invalid, control question missing or not correct", "story_id", id)
			continue
		}
		switch sa.story.Type {
		case StoryTarget:
			out.CorrectControlTarget += correct
		case StoryControl:
			out.CorrectControlControl += correct
		}
	}

	// Pass 2: ratio components over valid stories.
	var detection, inappropriateness, intentions, belief, empathy int
	for _, id := range ids {
		if invalid[id] {
			continue
		}
		sa := grouped[id]
		q1 := sa.correct(OrderDetection)
		switch sa.story.Type {
		case StoryTarget:
			if q1 {
				detection++
			}
			if q1 && sa.correct(2) {
				detection++
			}
			if q1 && sa.correct(3) {
				inappropriateness++
			}
			if q1 && sa.correct(4) {
				intentions++
			}
		case StoryControl:
			// Leaving Q2-Q4 blank after a correct "no" earns the credit
			// the engine deferred.
			if q1 {
				detection++
			}
			if q1 && !sa.has(2) {
				detection++
			}
			if q1 && !sa.has(3) {
				inappropriateness++
			}
			if q1 && !sa.has(4) {
				intentions++
			}
		}
		if sa.correct(OrderBelief) {
			belief++
		}
		if sa.correct(OrderEmpathy) {
			empathy++
		}
	}

	out.InvalidStories = len(invalid)
	out.ValidStories = len(grouped) - len(invalid)
	out.Detection = ratio(detection, out.CorrectControlTarget+out.CorrectControlControl)
	out.Inappropriateness = ratio(inappropriateness, out.ValidStories)
	out.Intentions = ratio(intentions, out.ValidStories)
	out.Belief = ratio(belief, out.ValidStories)
	out.Empathy = ratio(empathy, out.ValidStories)
	if out.Partial {
		log.Warn("scores computed while an evaluation run is in flight")
	}
	return out, nil
}

// authoredControls returns the control questions of each story.
func (a *Aggregator) authoredControls(ctx context.Context, storyIDs []int64) (map[int64][]Question, error) {
	out := make(map[int64][]Question, len(storyIDs))
	if len(storyIDs) == 0 {
		return out, nil
	}
	qs, err := a.reader.ListQuestionsForStories(ctx, storyIDs)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for _, q := range controlQuestions(qs) {
		out[q.StoryID] = append(out[q.StoryID], q)
	}
	return out, nil
}
