package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var captured struct {
		Model    string        `json:"model"`
		Messages []ChatMessage `json:"messages"`
		Stream   bool          `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "the answer"}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	cfg := ChatConfig{BaseURL: server.URL, APIKey: "secret", Model: "chat-model"}
	messages := []ChatMessage{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "question"},
	}

	answer, err := client.Complete(context.Background(), cfg, messages)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "chat-model", captured.Model)
	assert.Equal(t, messages, captured.Messages)
	assert.False(t, captured.Stream)
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: server.URL}, nil)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: server.URL}, nil)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestCompleteUnreachableProvider(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}
