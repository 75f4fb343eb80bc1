package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ErrInferenceStatus is returned when the inference service answers with a non-2xx status.
var ErrInferenceStatus = errors.New("inference service returned non-success status")

// InferenceClient sends one prompt to a text-generation service and returns its raw answer.
// Deadlines come from ctx.
type InferenceClient interface {
	Generate(ctx context.Context, req m.InferenceRequest) (string, error)
}

// DefaultOllamaURL is where a local Ollama daemon listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient talks to the Ollama /api/generate endpoint.
type OllamaClient struct {
	httpc *resty.Client
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient builds a client for the daemon at baseURL.
func NewOllamaClient(baseURL string) *OllamaClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOllamaURL
	}

	httpc := resty.New()
	httpc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	httpc.SetHeader("Content-Type", "application/json")

	return &OllamaClient{httpc: httpc}
}

// Generate posts a non-streaming generate request.
func (c *OllamaClient) Generate(ctx context.Context, req m.InferenceRequest) (string, error) {
	var out ollamaGenerateResponse

	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(ollamaGenerateRequest{
			Model:  req.Model,
			Prompt: req.Prompt,
			Stream: false,
			Options: ollamaOptions{
				Temperature: req.Temperature,
				NumPredict:  req.MaxTokens,
			},
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("call inference service: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%w: %d", ErrInferenceStatus, resp.StatusCode())
	}

	return strings.TrimSpace(out.Response), nil
}
