package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"fauxpas-eval/internal/db"
	"fauxpas-eval/internal/schemas"
	"fauxpas-eval/internal/scoring"
	"fauxpas-eval/internal/worker"
)

type Scorer interface {
	CalculateScores(ctx context.Context, userID int64) (scoring.FinalScores, []scoring.QuestionScore, error)
	ComputeFinalScores(ctx context.Context, userID int64) (scoring.FinalScores, error)
}

type Store interface {
	CreateUser(ctx context.Context, username string) (db.User, error)
	SaveAnswer(ctx context.Context, userID, questionID int64, text string) error
	ListAnswersForUser(ctx context.Context, userID int64) ([]scoring.AnswerRecord, error)
	LatestReport(ctx context.Context, userID int64) (db.Report, error)
}

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Scores Scorer
	Store  Store
	Queue  Enqueuer
	DB     Pinger
	Log    *slog.Logger
}

func NewServer(s *Server, addr, token string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(token),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) Routes(token string) http.Handler {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	// Admin/API-token protected
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(token))
		r.Post("/users", s.createUser)
		r.Post("/answers", s.saveAnswer)
		r.Get("/users/{id}/answers", s.listAnswers)
		r.Post("/users/{id}/evaluate", s.enqueueEvaluation)
		r.Post("/users/{id}/calculate-scores", s.calculateScores)
		r.Get("/users/{id}/scores", s.getScores)
		r.Get("/users/{id}/reports/latest", s.latestReport)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps known errors to statuses and hides the rest.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scoring.ErrNoAnswers), errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResp{err.Error()})
	default:
		s.Log.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "request_id", m.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errResp{"internal error"})
	}
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errResp{"invalid user id"})
		return 0, false
	}
	return id, true
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, errResp{"username is required"})
		return
	}
	u, err := s.Store.CreateUser(r.Context(), req.Username)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemas.UserOut{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}

func (s *Server) saveAnswer(w http.ResponseWriter, r *http.Request) {
	var req schemas.SaveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	if req.UserID <= 0 || req.QuestionID <= 0 {
		writeJSON(w, http.StatusBadRequest, errResp{"userId and questionId are required"})
		return
	}
	var text string
	if req.AnswerText != nil {
		text = *req.AnswerText
	}
	if err := s.Store.SaveAnswer(r.Context(), req.UserID, req.QuestionID, text); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemas.AnswerOut{QuestionID: req.QuestionID, AnswerText: text})
}

func (s *Server) listAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	recs, err := s.Store.ListAnswersForUser(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]schemas.AnswerOut, 0, len(recs))
	for _, rec := range recs {
		out = append(out, schemas.AnswerOut{
			QuestionID: rec.QuestionID,
			StoryID:    rec.Question.StoryID,
			Order:      rec.Question.Order,
			AnswerText: rec.AnswerText,
			Evaluation: rec.Evaluation.Wire(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) enqueueEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	task, err := worker.NewEvaluateTask(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	info, err := s.Queue.EnqueueContext(r.Context(), task)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, schemas.EnqueuedResp{TaskID: info.ID, Queue: info.Queue})
}

func (s *Server) calculateScores(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	final, _, err := s.Scores.CalculateScores(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, final)
}

func (s *Server) getScores(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	final, err := s.Scores.ComputeFinalScores(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, final)
}

func (s *Server) latestReport(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	rep, err := s.Store.LatestReport(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.ReportOut{
		ID:        rep.ID,
		UserID:    rep.UserID,
		ObjectRef: rep.ObjectRef,
		Partial:   rep.Partial,
		CreatedAt: rep.CreatedAt,
		Scores:    json.RawMessage(rep.Scores),
	})
}
