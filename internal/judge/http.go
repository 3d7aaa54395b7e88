package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("fauxpas-eval/judge")

// maxBody bounds how much of a judge response is read.
const maxBody = 1 << 20

// HTTPJudge talks to the classifier service:
// POST {story, question, answer} -> {score, probability}.
type HTTPJudge struct {
	endpoint  string
	healthURL string
	hc        *http.Client
}

// NewHTTPJudge builds a judge for endpoint. The readiness probe is derived
// from the endpoint by replacing its path with /health.
func NewHTTPJudge(endpoint string, timeout time.Duration) (*HTTPJudge, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse judge url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("judge url %q must be absolute", endpoint)
	}
	health := *u
	health.Path = "/health"
	health.RawQuery = ""
	return &HTTPJudge{
		endpoint:  u.String(),
		healthURL: health.String(),
		hc:        &http.Client{Timeout: timeout},
	}, nil
}

func (j *HTTPJudge) Judge(ctx context.Context, req Request) (Verdict, error) {
	ctx, span := tracer.Start(ctx, "judge.http")
	defer span.End()

	v, err := j.judge(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Verdict{}, err
	}
	span.SetAttributes(attribute.Int("judge.score", v.Score))
	return v, nil
}

func (j *HTTPJudge) judge(ctx context.Context, req Request) (Verdict, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(b))
	if err != nil {
		return Verdict{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := j.hc.Do(hreq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Verdict{}, ctx.Err()
		}
		return Verdict{}, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Verdict{}, &UnavailableError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{}, &UnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(body))}
	}
	return decodeVerdict(body)
}

type healthResp struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Ping checks GET /health and requires status "ok".
func (j *HTTPJudge) Ping(ctx context.Context) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, j.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := j.hc.Do(hreq)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &UnavailableError{StatusCode: resp.StatusCode, Err: errors.New("health check failed")}
	}
	var h healthResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&h); err != nil {
		return &UnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode health: %w", err)}
	}
	if h.Status != "ok" {
		return &UnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("judge status %q, model loaded %t", h.Status, h.ModelLoaded)}
	}
	return nil
}
