package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

const DefaultOllamaURL = "http://127.0.0.1:11434"

var _ repository.TunableModel = (*OllamaModel)(nil)

// OllamaModel runs prompts against a local ollama server.
type OllamaModel struct {
	client *api.Client
	model  string
}

func NewOllamaModel(baseURL, model string, timeout time.Duration) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	hc := &http.Client{Timeout: timeout}
	return &OllamaModel{client: api.NewClient(u, hc), model: model}, nil
}

func (m *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	return m.GenerateWithParams(ctx, prompt, entity.DefaultSamplingParams())
}

func (m *OllamaModel) GenerateWithParams(ctx context.Context, prompt string, params entity.SamplingParams) (string, error) {
	metrics.IncModelRequest(BackendOllama, m.model)

	stream := false
	req := &api.GenerateRequest{
		Model:  m.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"num_predict": params.MaxTokens,
			"temperature": params.Temperature,
			"top_p":       params.TopP,
		},
	}

	var out strings.Builder
	err := m.client.Generate(ctx, req, func(r api.GenerateResponse) error {
		out.WriteString(r.Response)
		return nil
	})
	if err != nil {
		metrics.IncError("llm", "ollama_request")
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}
