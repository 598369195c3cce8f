package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

const DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models"

var _ repository.TunableModel = (*HuggingFaceModel)(nil)

// HuggingFaceModel calls the hosted text-generation inference API.
type HuggingFaceModel struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewHuggingFaceModel(apiKey, baseURL, model string, timeout time.Duration) (*HuggingFaceModel, error) {
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HuggingFaceModel{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (g *HuggingFaceModel) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateWithParams(ctx, prompt, entity.DefaultSamplingParams())
}

func (g *HuggingFaceModel) GenerateWithParams(ctx context.Context, prompt string, params entity.SamplingParams) (string, error) {
	metrics.IncModelRequest(BackendHuggingFace, g.model)

	parameters := map[string]interface{}{
		"max_new_tokens":   params.MaxTokens,
		"top_p":            params.TopP,
		"return_full_text": false,
	}
	if params.Temperature > 0 {
		parameters["temperature"] = params.Temperature
		parameters["do_sample"] = true
	} else {
		parameters["do_sample"] = false
	}
	request := map[string]interface{}{
		"inputs":     prompt,
		"parameters": parameters,
	}

	body, err := g.makeRequest(ctx, request)
	if err != nil {
		metrics.IncError("llm", "make_request")
		return "", fmt.Errorf("failed to make huggingface request: %w", err)
	}

	text, err := parseGeneratedText(body)
	if err != nil {
		metrics.IncError("llm", "parse_response")
		return "", fmt.Errorf("failed to parse huggingface response: %w", err)
	}
	return text, nil
}

func (g *HuggingFaceModel) makeRequest(ctx context.Context, request map[string]interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/"+g.model, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("close body", "err", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("huggingface api error: %d - %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("huggingface api error: %d - %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// parseGeneratedText accepts both the list form the text-generation task
// returns and a bare object.
func parseGeneratedText(body []byte) (string, error) {
	type generation struct {
		GeneratedText *string `json:"generated_text"`
	}

	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 || list[0].GeneratedText == nil {
			return "", fmt.Errorf("invalid response format: no generated_text")
		}
		return *list[0].GeneratedText, nil
	}

	var single generation
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if single.GeneratedText == nil {
		return "", fmt.Errorf("invalid response format: no generated_text")
	}
	return *single.GeneratedText, nil
}
