package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"fauxpas-eval/internal/judge"
	"fauxpas-eval/internal/storage"
)

// Config is shared by the api, worker and fpctl binaries.
type Config struct {
	HTTPAddr          string `env:"HTTP_ADDR" envDefault:":8080"`
	APIToken          string `env:"API_TOKEN"`
	DBDriver          string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL       string `env:"DATABASE_URL"`
	RedisAddr         string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"5"`
	// MaxConcurrentStories bounds judge calls in flight per evaluation run.
	MaxConcurrentStories int    `env:"EVAL_MAX_CONCURRENT_STORIES" envDefault:"4"`
	OTelEndpoint         string `env:"OTEL_ENDPOINT"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`

	Judge   judge.Config   `envPrefix:"JUDGE_"`
	Storage storage.Config `envPrefix:"MINIO_"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	c, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Parse reads the environment without validating it, for callers that
// override fields before use.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.MaxConcurrentStories < 1 {
		errs = append(errs, errors.New("EVAL_MAX_CONCURRENT_STORIES must be at least 1"))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be at least 1"))
	}
	if c.Judge.MaxAttempts < 1 {
		errs = append(errs, errors.New("JUDGE_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Judge.Backend == "openai" && c.Judge.OpenAIKey == "" {
		errs = append(errs, errors.New("JUDGE_OPENAI_API_KEY is required for the openai judge"))
	}
	return errors.Join(errs...)
}
