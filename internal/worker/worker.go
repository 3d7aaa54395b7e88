package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"fauxpas-eval/internal/db"
	"fauxpas-eval/internal/scoring"
)

const TypeEvaluateUser = "evaluate_user"

type evaluatePayload struct {
	UserID int64 `json:"user_id"`
}

// NewEvaluateTask builds the task that evaluates and scores one user.
func NewEvaluateTask(userID int64) (*asynq.Task, error) {
	b, err := json.Marshal(evaluatePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvaluateUser, b, asynq.MaxRetry(0)), nil
}

type Scorer interface {
	CalculateScores(ctx context.Context, userID int64) (scoring.FinalScores, []scoring.QuestionScore, error)
}

type ReportStore interface {
	SaveReport(ctx context.Context, userID int64, objectRef string, scores []byte, partial bool) (db.Report, error)
}

type Archiver interface {
	PutReport(ctx context.Context, userID int64, v any) (string, error)
}

type Server struct {
	Scores  Scorer
	Reports ReportStore
	// Archive is optional; without it reports live only in the database.
	Archive Archiver
	Log     *slog.Logger
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEvaluateUser, s.handleEvaluate)
	return mux
}

func (s *Server) handleEvaluate(ctx context.Context, t *asynq.Task) error {
	var p evaluatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	log := s.Log.With("user_id", p.UserID)
	log.Info("evaluation started")

	final, scores, err := s.Scores.CalculateScores(ctx, p.UserID)
	if errors.Is(err, scoring.ErrNoAnswers) {
		// Nothing to score; don't let asynq retry.
		log.Info("no answers, nothing to score")
		return nil
	}
	if err != nil {
		log.Error("evaluation failed", "err", err)
		return err
	}

	b, err := json.Marshal(final)
	if err != nil {
		return err
	}
	var ref string
	if s.Archive != nil {
		if ref, err = s.Archive.PutReport(ctx, p.UserID, final); err != nil {
			log.Warn("archiving report failed, keeping database copy only", "err", err)
			ref = ""
		}
	}
	rep, err := s.Reports.SaveReport(ctx, p.UserID, ref, b, final.Partial)
	if err != nil {
		return err
	}
	log.Info("evaluation finished", "report_id", rep.ID, "questions", len(scores), "object_ref", ref)
	return nil
}

// Run serves evaluation tasks from redisAddr until the process is signalled.
func Run(redisAddr string, concurrency int, s *Server) error {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: concurrency,
		Logger:      slogAdapter{s.Log},
	})
	return srv.Run(s.mux())
}
