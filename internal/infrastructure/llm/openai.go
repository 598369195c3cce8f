package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

var _ repository.TunableModel = (*OpenAIModel)(nil)

// OpenAIModel talks to any OpenAI-compatible chat completion endpoint.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	return m.GenerateWithParams(ctx, prompt, entity.DefaultSamplingParams())
}

func (m *OpenAIModel) GenerateWithParams(ctx context.Context, prompt string, params entity.SamplingParams) (string, error) {
	metrics.IncModelRequest(BackendOpenAI, m.model)

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: float32(params.Temperature),
		TopP:        float32(params.TopP),
	})
	if err != nil {
		metrics.IncError("llm", "openai_request")
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.IncError("llm", "parse_response")
		return "", errors.New("invalid response format: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
