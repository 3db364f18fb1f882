package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/teacherlink/webfront/internal/infra/context"
	http_ "github.com/teacherlink/webfront/internal/infra/transport/http"
)

func newClient(t *testing.T, handler http.HandlerFunc) *http_.JSONClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := http_.NewJSONClient(http_.JSONClientConfig{BaseURL: srv.URL + "/"}, srv.Client())
	require.NoError(t, err)

	return client
}

func TestJSONClient_Do(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get(http_.AuthorizationHeader))
		assert.Equal(t, "trace-7", r.Header.Get(http_.TraceIDHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "a@b.test", in["email"])

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t1"})
	})

	ctx := context_.WithTraceID(context.Background(), "trace-7")

	var out struct {
		Token string `json:"token"`
	}

	err := client.Do(ctx, http.MethodPost, "/api/auth/login", "tok", map[string]string{"email": "a@b.test"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "t1", out.Token)
}

func TestJSONClient_OversizedResponse(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"doc":"`))
		_, _ = w.Write([]byte(strings.Repeat("a", 9<<20)))
		_, _ = w.Write([]byte(`"}`))
	})

	var out map[string]string

	err := client.Do(context.Background(), http.MethodGet, "/api/jobs", "", nil, &out)
	require.ErrorContains(t, err, "decode response")
	assert.Empty(t, out["doc"])
}

func TestJSONClient_StatusError(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	})

	err := client.Do(context.Background(), http.MethodGet, "/api/auth/me", "", nil, nil)

	var statusErr *http_.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "token expired", statusErr.Message)
	assert.Equal(t, http.StatusUnauthorized, http_.StatusCode(err))
}

func TestJSONClient_RequestFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := http_.NewJSONClient(http_.JSONClientConfig{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	err = client.Do(context.Background(), http.MethodGet, "/x", "", nil, nil)
	require.ErrorIs(t, err, http_.ErrRequestFailed)
	assert.Equal(t, 0, http_.StatusCode(err))
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestNewJSONClient_RejectsRelativeURL(t *testing.T) {
	t.Parallel()

	_, err := http_.NewJSONClient(http_.JSONClientConfig{BaseURL: "/api"}, nil)
	require.Error(t, err)
}

func TestJSONClient_URL(t *testing.T) {
	t.Parallel()

	client, err := http_.NewJSONClient(http_.JSONClientConfig{BaseURL: "https://api.test/v1/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.test/v1/api/jobs", client.URL("/api/jobs"))
}
