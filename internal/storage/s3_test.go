package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3Ref(t *testing.T) {
	b, k, err := parseS3Ref("s3://reports/user-1/a.json")
	require.NoError(t, err)
	assert.Equal(t, "reports", b)
	assert.Equal(t, "user-1/a.json", k)

	for _, bad := range []string{"reports/a.json", "s3://reports", "s3://reports/", "s3:///a.json"} {
		_, _, err := parseS3Ref(bad)
		assert.Error(t, err, bad)
	}
}

// fakeS3 serves path-style PUT and GET for a single bucket.
func fakeS3(t *testing.T) *httptest.Server {
	var mu sync.Mutex
	objects := map[string][]byte{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			objects[r.URL.Path] = b
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			b, ok := objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(b)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestClient_PutAndGetReport(t *testing.T) {
	srv := fakeS3(t)
	defer srv.Close()

	c, err := New(context.Background(), Config{
		Endpoint:  srv.URL,
		Bucket:    "reports",
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	ref, err := c.PutReport(context.Background(), 7, map[string]any{"fauxPasDetectionRatio": 0.5})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://reports/reports/user-7/"))

	var got map[string]json.Number
	require.NoError(t, c.GetJSON(context.Background(), ref, &got))
	assert.Equal(t, json.Number("0.5"), got["fauxPasDetectionRatio"])
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
