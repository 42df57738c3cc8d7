package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model string      `json:"model"`
	Input interface{} `json:"input"`
}

func newEmbeddingServer(t *testing.T, capture *embeddingRequest, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))

		count := 1
		if inputs, ok := capture.Input.([]interface{}); ok {
			count = len(inputs)
		}
		data := make([]map[string]interface{}, count)
		for i := range data {
			vec := make([]float32, dims)
			vec[0] = float32(i + 1)
			data[i] = map[string]interface{}{"embedding": vec}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func TestEmbedSingleText(t *testing.T) {
	var captured embeddingRequest
	server := newEmbeddingServer(t, &captured, 4)
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	cfg := EmbeddingConfig{BaseURL: server.URL, Model: "test-model"}

	vec, err := client.Embed(context.Background(), cfg, "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "hello", captured.Input)
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: "http://127.0.0.1:1"}, "  \n ")
	assert.Error(t, err)
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var captured embeddingRequest
	server := newEmbeddingServer(t, &captured, 2)
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	cfg := EmbeddingConfig{BaseURL: server.URL, Model: "m", MaxInputChars: 10}

	_, err := client.Embed(context.Background(), cfg, strings.Repeat("a", 100))
	require.NoError(t, err)
	sent, ok := captured.Input.(string)
	require.True(t, ok)
	assert.Len(t, sent, 10)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	var captured embeddingRequest
	server := newEmbeddingServer(t, &captured, 3)
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	cfg := EmbeddingConfig{BaseURL: server.URL, Model: "m"}

	vectors, err := client.EmbedBatch(context.Background(), cfg, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	vectors, err := client.EmbedBatch(context.Background(), EmbeddingConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{1}}},
		})
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.EmbedBatch(context.Background(), EmbeddingConfig{BaseURL: server.URL}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: server.URL}, "text")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestEmbedUnreachableProvider(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: "http://127.0.0.1:1"}, "text")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}
