package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ErrEmptyCompletion is returned when a chat completion carries no text.
var ErrEmptyCompletion = errors.New("no completion received")

// AzureOpenAIClient serves inference requests from an Azure OpenAI deployment.
// The request model is ignored in favour of the deployment.
type AzureOpenAIClient struct {
	client       *azopenai.Client
	deploymentID string
}

// NewAzureOpenAIClient builds a key-authenticated client for one deployment.
func NewAzureOpenAIClient(endpoint, apiKey, deploymentID string) (*AzureOpenAIClient, error) {
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("create azure openai client: %w", err)
	}

	return &AzureOpenAIClient{
		client:       client,
		deploymentID: deploymentID,
	}, nil
}

// Generate sends the prompt as a single user message.
func (c *AzureOpenAIClient) Generate(ctx context.Context, req m.InferenceRequest) (string, error) {
	options := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deploymentID),
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(req.Prompt),
			},
		},
		Temperature: to.Ptr(float32(req.Temperature)),
	}

	if req.MaxTokens > 0 {
		options.MaxTokens = to.Ptr(int32(req.MaxTokens))
	}

	resp, err := c.client.GetChatCompletions(ctx, options, nil)
	if err != nil {
		return "", fmt.Errorf("call azure openai: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(*resp.Choices[0].Message.Content), nil
}
