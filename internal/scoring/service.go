package scoring

import (
	"context"

	"fauxpas-eval/internal/judge"
)

// Service pairs an Engine and an Aggregator that share a RunRegistry.
type Service struct {
	*Engine
	*Aggregator
}

func NewService(store Store, j judge.Judge, opts Options) *Service {
	opts = opts.withDefaults(store)
	return &Service{
		Engine:     NewEngine(store, j, opts),
		Aggregator: NewAggregator(store, opts),
	}
}

// CalculateScores evaluates every answer of userID and then aggregates.
func (s *Service) CalculateScores(ctx context.Context, userID int64) (FinalScores, []QuestionScore, error) {
	scores, err := s.RunEvaluation(ctx, userID)
	if err != nil {
		return FinalScores{}, nil, err
	}
	final, err := s.ComputeFinalScores(ctx, userID)
	if err != nil {
		return FinalScores{}, scores, err
	}
	return final, scores, nil
}
