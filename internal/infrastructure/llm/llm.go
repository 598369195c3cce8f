// Package llm provides the code model backends.
package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"codegen/internal/domain/repository"
)

const (
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
	BackendOllama      = "ollama"
	BackendDummy       = "dummy"

	DefaultModel = "Salesforce/codegen-350M-multi"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend string
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New builds the configured backend. When it cannot be initialized the
// DummyModel is returned instead so generation keeps working; the reason is
// logged.
func New(s Settings, logger *slog.Logger) repository.CodeModel {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := Build(s)
	if err != nil {
		logger.Warn("model backend unavailable, switching to dummy model",
			"backend", s.Backend,
			"model", ModelName(s),
			"err", err,
		)
		return DummyModel{}
	}
	logger.Info("model backend ready", "backend", backendName(s.Backend), "model", ModelName(s))
	return m
}

// Build is New without the dummy substitution. The hosted Hugging Face API
// needs a token; a self-hosted endpoint given by BaseURL may not.
func Build(s Settings) (repository.CodeModel, error) {
	model := ModelName(s)
	switch backendName(s.Backend) {
	case BackendHuggingFace:
		if s.APIKey == "" && s.BaseURL == "" {
			return nil, errors.New("huggingface api token is required (HF_TOKEN or CODEGEN_API_KEY)")
		}
		return NewHuggingFaceModel(s.APIKey, s.BaseURL, model, s.Timeout)
	case BackendOpenAI:
		return NewOpenAIModel(s.APIKey, s.BaseURL, model, s.Timeout)
	case BackendOllama:
		return NewOllamaModel(s.BaseURL, model, s.Timeout)
	case BackendDummy:
		return DummyModel{}, nil
	}
	return nil, fmt.Errorf("unknown model backend %q", s.Backend)
}

// ModelName is the model identifier the backend will use once defaults are
// applied.
func ModelName(s Settings) string {
	if s.Model != "" {
		return s.Model
	}
	switch backendName(s.Backend) {
	case BackendOpenAI:
		return openai.GPT4oMini
	case BackendDummy:
		return BackendDummy
	}
	return DefaultModel
}

func backendName(b string) string {
	b = strings.ToLower(strings.TrimSpace(b))
	if b == "" {
		return BackendHuggingFace
	}
	return b
}
