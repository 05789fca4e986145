package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 100,
		Timeout:   5 * time.Second,
	})
}

func TestClient_CompleteSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "You spent 420.00 on groceries."}}],
			"usage": {"total_tokens": 87}
		}`))
	})

	comp, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "groceries?"}})
	require.NoError(t, err)
	assert.Equal(t, "You spent 420.00 on groceries.", comp.Text)
	assert.Equal(t, 87, comp.TokenCount)
}

func TestClient_CompleteUpstreamRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusServiceUnavailable, ue.Status)
	assert.Contains(t, ue.Reason, "model overloaded")
}

func TestClient_CompleteEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
}
