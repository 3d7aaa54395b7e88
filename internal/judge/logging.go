package judge

import (
	"context"
	"log/slog"
	"time"
)

type loggingJudge struct {
	inner Judge
	log   *slog.Logger
}

// WithLogging logs every judge call with its latency and outcome.
func WithLogging(j Judge, log *slog.Logger) Judge {
	if log == nil {
		log = slog.Default()
	}
	return &loggingJudge{inner: j, log: log}
}

func (l *loggingJudge) Judge(ctx context.Context, req Request) (Verdict, error) {
	start := time.Now()
	v, err := l.inner.Judge(ctx, req)
	attrs := []any{
		"latency_ms", time.Since(start).Milliseconds(),
		"answer_len", len(req.Answer),
	}
	if err != nil {
		l.log.WarnContext(ctx, "judge call failed", append(attrs, "err", err)...)
		return v, err
	}
	l.log.DebugContext(ctx, "judge call", append(attrs, "score", v.Score, "probability", v.Confidence)...)
	return v, nil
}

func (l *loggingJudge) Ping(ctx context.Context) error {
	if p, ok := l.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
