package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","response":"  [ ]  ","done":true}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL + "/")

	out, err := client.Generate(context.Background(), m.InferenceRequest{
		Model:       "llama3.1:8b",
		Prompt:      "find bugs",
		Temperature: 0.2,
		MaxTokens:   512,
	})
	require.NoError(t, err)

	assert.Equal(t, "[ ]", out)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.Equal(t, "find bugs", got.Prompt)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.2, got.Options.Temperature, 0.0001)
	assert.Equal(t, 512, got.Options.NumPredict)
}

func TestOllamaClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewOllamaClient(server.URL).Generate(context.Background(), m.InferenceRequest{Model: "m"})
	require.ErrorIs(t, err, ErrInferenceStatus)
}

func TestOllamaClient_HonorsDeadline(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOllamaClient(server.URL).Generate(ctx, m.InferenceRequest{Model: "m"})
	require.Error(t, err)
}
