package openrouter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	var gotAuth, gotTitle, gotReferer string
	var gotBody llm.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		gotReferer = r.Header.Get("HTTP-Referer")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"ok\":true} "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Referer: "http://localhost"}, nil)
	out, err := c.Complete(t.Context(), "k1", llm.ChatRequest{
		Model:    "m1",
		Messages: []llm.Message{llm.TextMessage("hi")},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "Bearer k1", gotAuth)
	assert.Equal(t, "BizScan", gotTitle)
	assert.Equal(t, "http://localhost", gotReferer)
	assert.Equal(t, "m1", gotBody.Model)
}

func TestClient_Complete_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.Complete(t.Context(), "k", llm.ChatRequest{Model: "m"})

	require.Error(t, err)
	assert.True(t, llm.IsRateLimited(err))
	assert.True(t, llm.IsTransient(err))
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.Complete(t.Context(), "k", llm.ChatRequest{Model: "m"})

	assert.ErrorIs(t, err, ErrNoChoices)
}
