package judge

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type RetryConfig struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig performs a single attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 1, InitialWait: 200 * time.Millisecond, MaxWait: 2 * time.Second}
}

type retryJudge struct {
	inner Judge
	cfg   RetryConfig
}

// WithRetry retries unavailable judges with exponential backoff. Invalid
// verdicts and context errors are returned at once.
func WithRetry(j Judge, cfg RetryConfig) Judge {
	if cfg.MaxAttempts <= 1 {
		return j
	}
	return &retryJudge{inner: j, cfg: cfg}
}

func (r *retryJudge) Judge(ctx context.Context, req Request) (Verdict, error) {
	eb := backoff.NewExponentialBackOff()
	if r.cfg.InitialWait > 0 {
		eb.InitialInterval = r.cfg.InitialWait
	}
	if r.cfg.MaxWait > 0 {
		eb.MaxInterval = r.cfg.MaxWait
	}
	return backoff.Retry(ctx, func() (Verdict, error) {
		v, err := r.inner.Judge(ctx, req)
		if err == nil {
			return v, nil
		}
		var unavailable *UnavailableError
		if !errors.As(err, &unavailable) {
			return Verdict{}, backoff.Permanent(err)
		}
		return Verdict{}, err
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(uint(r.cfg.MaxAttempts)))
}

func (r *retryJudge) Ping(ctx context.Context) error {
	if p, ok := r.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
