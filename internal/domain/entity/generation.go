package entity

import (
	"errors"
	"strings"
)

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrModelCall        = errors.New("model call failed")
)

const (
	MsgEmptyAfterSanitization = "Empty after sanitization"
	MsgNoValidation           = "No validation implemented for this language"
	MsgValidPython            = "Valid Python Syntax"
	MsgValidAfterCleanup      = "Valid after light cleanup"
	MsgValidFallback          = "Valid (fallback) Python code"
	MsgFallbackFailed         = "Fallback generation failed to produce valid code"
)

// GenerationRequest is one natural-language request for code.
type GenerationRequest struct {
	Description string   `json:"description"`
	Mode        Mode     `json:"mode"`
	Language    Language `json:"language"`
}

// NewGenerationRequest validates raw user input. Unknown modes become
// ModeFunction; unknown languages are rejected.
func NewGenerationRequest(description, mode, language string) (GenerationRequest, error) {
	if strings.TrimSpace(description) == "" {
		return GenerationRequest{}, ErrEmptyDescription
	}
	lang, err := ParseLanguage(language)
	if err != nil {
		return GenerationRequest{}, err
	}
	m, _ := ParseMode(mode)
	return GenerationRequest{
		Description: description,
		Mode:        m,
		Language:    lang,
	}, nil
}

// SamplingParams are passed to models that accept them.
type SamplingParams struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

func DefaultSamplingParams() SamplingParams {
	return SamplingParams{MaxTokens: 256, Temperature: 0.0, TopP: 1.0}
}

type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// FormatResult carries either the formatted code or, when the
// pretty-printer could not run, the original code plus the reason.
type FormatResult struct {
	Code      string `json:"code"`
	Formatted bool   `json:"formatted"`
	Err       error  `json:"-"`
}

// GenerationResult is what callers get back from one generation.
type GenerationResult struct {
	Prompt        string   `json:"prompt"`
	Language      Language `json:"lang"`
	Mode          Mode     `json:"mode"`
	FormattedCode string   `json:"formatted_code"`
	Valid         bool     `json:"valid"`
	ValidationMsg string   `json:"validation_msg"`
	Fallback      bool     `json:"fallback"`
	Notes         string   `json:"notes,omitempty"`
}
