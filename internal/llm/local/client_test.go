package local

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/llm"
)

func TestCompleteSendsNonStreamingChat(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": {"role": "assistant", "content": "Totalul este 82,23 lei."},
			"prompt_eval_count": 120,
			"eval_count": 14,
			"done": true
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3", 0, zap.NewNop())
	reply, usage, err := c.Complete(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "Cat am de plata?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Totalul este 82,23 lei.", reply)
	assert.Equal(t, 120, usage.PromptTokens)
	assert.Equal(t, 14, usage.CompletionTokens)
	assert.Equal(t, 134, usage.TotalTokens)

	assert.Equal(t, "llama3", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0, zap.NewNop())
	_, _, err := c.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
