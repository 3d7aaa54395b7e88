package judge

import (
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	Backend       string        `env:"BACKEND" envDefault:"http"`
	URL           string        `env:"URL" envDefault:"http://localhost:8000/evaluate"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"1"`
	InitialWait   time.Duration `env:"INITIAL_WAIT" envDefault:"200ms"`
	MaxWait       time.Duration `env:"MAX_WAIT" envDefault:"2s"`
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
}

// CallBudget is how long one judge decision may take with every attempt
// timing out: MaxAttempts times Timeout plus the worst-case backoff waits.
// Callers that bound a decision with a deadline should use it rather than
// Timeout, which covers a single attempt.
func (c Config) CallBudget() time.Duration {
	attempts := max(c.MaxAttempts, 1)
	// backoff jitters each wait by up to half the capped interval.
	wait := c.MaxWait + c.MaxWait/2
	return time.Duration(attempts)*c.Timeout + time.Duration(attempts-1)*wait
}

// New builds the configured backend wrapped as caller -> retry -> logging -> base.
func New(cfg Config, log *slog.Logger) (Judge, error) {
	var base Judge
	var err error
	switch cfg.Backend {
	case "http", "":
		base, err = NewHTTPJudge(cfg.URL, cfg.Timeout)
	case "openai":
		base, err = NewOpenAIJudge(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown judge backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s judge: %w", cfg.Backend, err)
	}
	return WithRetry(WithLogging(base, log), RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		InitialWait: cfg.InitialWait,
		MaxWait:     cfg.MaxWait,
	}), nil
}
