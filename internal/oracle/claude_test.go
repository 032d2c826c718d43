package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/arbiter/internal/domain"
)

func TestClaudeAnalyze(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "DECISION: DENY_REFUND | "},
				{"type": "text", "text": "CONFIDENCE: 0.9 | JUSTIFICATION: delivered"},
			},
		})
	}))
	defer srv.Close()

	c := NewClaudeClient("test-key", "test-model", srv.URL, 0)
	reply, err := c.Analyze(context.Background(), Request{
		System:    "arbitrate disputes",
		Messages:  []domain.Message{{Role: "user", Content: "claim text"}},
		MaxTokens: 512,
	})
	require.NoError(t, err)

	assert.Equal(t, "DECISION: DENY_REFUND | CONFIDENCE: 0.9 | JUSTIFICATION: delivered", reply)
	assert.Equal(t, "test-model", captured["model"])
	assert.Equal(t, "arbitrate disputes", captured["system"])
	assert.Equal(t, float64(512), captured["max_tokens"])
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
}

func TestClaudeAnalyzeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m", srv.URL, 0)
	_, err := c.Analyze(context.Background(), Request{
		Messages: []domain.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClaudeAnalyzeEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []map[string]any{}})
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m", srv.URL, 0)
	_, err := c.Analyze(context.Background(), Request{
		Messages: []domain.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "empty analysis")
}

func TestMockSequentialReplies(t *testing.T) {
	m := &Mock{Replies: []string{"one", "two"}}

	for _, want := range []string{"one", "two", "two"} {
		got, err := m.Analyze(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, m.Calls)
}
