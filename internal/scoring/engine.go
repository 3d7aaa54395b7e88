// Package scoring evaluates Faux Pas test answers and aggregates them into
// the five ability ratios.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"fauxpas-eval/internal/judge"
)

var tracer = otel.Tracer("fauxpas-eval/scoring")

const (
	defaultMaxConcurrentStories = 4
	defaultJudgeTimeout         = 10 * time.Second
)

// Options configures an Engine or Aggregator.
type Options struct {
	Logger *slog.Logger
	// MaxConcurrentStories bounds how many stories, and therefore judge
	// calls, are in flight for one user.
	MaxConcurrentStories int
	// JudgeTimeout bounds one judge decision, retries included.
	JudgeTimeout time.Duration
	// Runs records evaluation runs in flight. When nil, a store that is
	// itself a RunRegistry is used, else an in-process RunTracker.
	Runs RunRegistry
}

// withDefaults fills unset options. src is the store the engine or
// aggregator reads from.
func (o Options) withDefaults(src any) Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxConcurrentStories <= 0 {
		o.MaxConcurrentStories = defaultMaxConcurrentStories
	}
	if o.JudgeTimeout <= 0 {
		o.JudgeTimeout = defaultJudgeTimeout
	}
	if o.Runs == nil {
		if r, ok := src.(RunRegistry); ok {
			o.Runs = r
		} else {
			o.Runs = NewRunTracker()
		}
	}
	return o
}

// Engine scores every answer of a user and writes the evaluations back.
type Engine struct {
	store Store
	judge judge.Judge
	opts  Options
}

func NewEngine(store Store, j judge.Judge, opts Options) *Engine {
	return &Engine{store: store, judge: j, opts: opts.withDefaults(store)}
}

// RunEvaluation scores all stories the user answered. Stories run
// concurrently; questions within a story run in order. A user without
// answers yields an empty result.
//
// The result lists every authored question of every scored story,
// including unanswered ones. Only answered questions are written back.
func (e *Engine) RunEvaluation(ctx context.Context, userID int64) ([]QuestionScore, error) {
	ctx, span := tracer.Start(ctx, "scoring.RunEvaluation")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	runID, err := e.opts.Runs.BeginRun(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("begin run: %w", err)
	}
	defer func() {
		if err := e.opts.Runs.EndRun(context.WithoutCancel(ctx), runID); err != nil {
			e.opts.Logger.Warn("could not close evaluation run", "user_id", userID, "run_id", runID, "err", err)
		}
	}()

	out, err := e.runEvaluation(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (e *Engine) runEvaluation(ctx context.Context, userID int64) ([]QuestionScore, error) {
	log := e.opts.Logger.With("user_id", userID)

	records, err := e.store.ListAnswersForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(records) == 0 {
		log.Info("no answers to evaluate")
		return []QuestionScore{}, nil
	}

	answers := make(map[int64]AnswerRecord, len(records))
	stories := make(map[int64]Story)
	for _, rec := range records {
		answers[rec.QuestionID] = rec
		if rec.Story == nil {
			log.Warn("answer without story data", "question_id", rec.QuestionID, "story_id", rec.Question.StoryID)
			continue
		}
		stories[rec.Story.ID] = *rec.Story
	}
	storyIDs := make([]int64, 0, len(stories))
	for id := range stories {
		storyIDs = append(storyIDs, id)
	}
	slices.Sort(storyIDs)
	if len(storyIDs) == 0 {
		return []QuestionScore{}, nil
	}

	questions, err := e.store.ListQuestionsForStories(ctx, storyIDs)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byStory := make(map[int64][]Question, len(storyIDs))
	for _, q := range questions {
		byStory[q.StoryID] = append(byStory[q.StoryID], q)
	}

	results := make([][]QuestionScore, len(storyIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrentStories)
	for i, id := range storyIDs {
		qs := byStory[id]
		if len(qs) == 0 {
			log.Warn("story has no questions", "story_id", id)
			continue
		}
		slices.SortFunc(qs, func(a, b Question) int { return a.Order - b.Order })
		g.Go(func() error {
			scores, err := e.scoreStory(gctx, userID, stories[id], qs, answers, log)
			if err != nil {
				return err
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]QuestionScore, 0, len(records))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) scoreStory(ctx context.Context, userID int64, story Story, qs []Question, answers map[int64]AnswerRecord, log *slog.Logger) ([]QuestionScore, error) {
	ctx, span := tracer.Start(ctx, "scoring.story")
	defer span.End()
	span.SetAttributes(attribute.Int64("story_id", story.ID), attribute.String("story_type", story.Type.String()))

	run := newStoryRun(story, qs, answers, e.judge, e.opts.JudgeTimeout, log)
	scores, err := run.run(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range scores {
		if !s.Answered {
			continue
		}
		if err := e.store.SetEvaluation(ctx, userID, s.QuestionID, s.Evaluation); err != nil {
			return nil, fmt.Errorf("store evaluation for question %d: %w", s.QuestionID, err)
		}
	}
	return scores, nil
}
