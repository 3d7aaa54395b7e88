package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPJudge_Success(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/evaluate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 1, "probability": 0.93}`))
	}))
	defer srv.Close()

	j, err := NewHTTPJudge(srv.URL+"/evaluate", time.Second)
	require.NoError(t, err)

	v, err := j.Judge(context.Background(), Request{Story: "s", Question: "q", Answer: "a"})
	require.NoError(t, err)
	assert.True(t, v.Correct())
	assert.InDelta(t, 0.93, v.Confidence, 1e-9)
	assert.Equal(t, Request{Story: "s", Question: "q", Answer: "a"}, got)
}

func TestHTTPJudge_Non2xxIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	j, err := NewHTTPJudge(srv.URL+"/evaluate", time.Second)
	require.NoError(t, err)

	_, err = j.Judge(context.Background(), Request{Answer: "a"})
	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, http.StatusServiceUnavailable, unavailable.StatusCode)
}

func TestHTTPJudge_RejectsOutOfRangeScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score": 2, "probability": 0.5}`))
	}))
	defer srv.Close()

	j, err := NewHTTPJudge(srv.URL+"/evaluate", time.Second)
	require.NoError(t, err)

	_, err = j.Judge(context.Background(), Request{Answer: "a"})
	var invalid *InvalidResponseError
	assert.True(t, errors.As(err, &invalid))
}

func TestHTTPJudge_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	j, err := NewHTTPJudge(srv.URL+"/evaluate", 50*time.Millisecond)
	require.NoError(t, err)

	_, err = j.Judge(context.Background(), Request{Answer: "a"})
	var unavailable *UnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestHTTPJudge_Ping(t *testing.T) {
	status := "ok"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(healthResp{Status: status, ModelLoaded: status == "ok"})
	}))
	defer srv.Close()

	j, err := NewHTTPJudge(srv.URL+"/evaluate", time.Second)
	require.NoError(t, err)
	require.NoError(t, j.Ping(context.Background()))

	status = "error"
	assert.Error(t, j.Ping(context.Background()))
}

func TestNewHTTPJudge_RequiresAbsoluteURL(t *testing.T) {
	_, err := NewHTTPJudge("/evaluate", time.Second)
	assert.Error(t, err)
}
