// Package language holds one profile per supported target language.
package language

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/formatter"
	"codegen/internal/infrastructure/validator"
)

// Profile is the concrete LanguageProfile used by every language; the
// per-language differences live in the validator and formatter it holds.
type Profile struct {
	lang      entity.Language
	formatter repository.CodeFormatter
	validator repository.SyntaxValidator
}

var _ repository.LanguageProfile = (*Profile)(nil)

func (p *Profile) Language() entity.Language {
	return p.lang
}

// BuildPrompt selects the template by mode. SQL, as a language or as a mode,
// always uses the SQL template.
func (p *Profile) BuildPrompt(description string, mode entity.Mode) entity.Prompt {
	if p.lang == entity.LanguageSQL || mode == entity.ModeSQL {
		return entity.SQLPrompt(description)
	}
	switch mode {
	case entity.ModeClass:
		return entity.ClassPrompt(description, p.lang)
	case entity.ModeAPI:
		return entity.APIPrompt(description, p.lang)
	case entity.ModeTest:
		return entity.TestPrompt(description, p.lang)
	default:
		return entity.FunctionPrompt(description, p.lang)
	}
}

func (p *Profile) Format(ctx context.Context, code string) entity.FormatResult {
	return p.formatter.Format(ctx, code)
}

func (p *Profile) Validate(ctx context.Context, code string) entity.ValidationResult {
	return p.validator.Validate(ctx, code)
}

// Registry is read-only after NewRegistry and safe for concurrent use.
type Registry struct {
	profiles map[entity.Language]*Profile
}

// NewRegistry builds a profile for every entity.Languages() value.
// commands maps languages to formatter command lines; a missing or empty
// entry means no pretty-printer for that language.
func NewRegistry(commands map[entity.Language][]string, formatTimeout time.Duration, logger *slog.Logger) (*Registry, error) {
	r := &Registry{profiles: make(map[entity.Language]*Profile, len(entity.Languages()))}
	for _, lang := range entity.Languages() {
		v, err := validatorFor(lang)
		if err != nil {
			return nil, err
		}
		r.profiles[lang] = &Profile{
			lang:      lang,
			formatter: formatter.New(lang, commands[lang], formatTimeout, logger),
			validator: v,
		}
	}
	return r, nil
}

func validatorFor(lang entity.Language) (repository.SyntaxValidator, error) {
	switch lang {
	case entity.LanguagePython:
		return validator.NewPythonValidator(), nil
	case entity.LanguageJavaScript:
		return validator.NewJavaScriptValidator(), nil
	case entity.LanguageSQL:
		return validator.NewSQLValidator(), nil
	case entity.LanguageHTMLCSS:
		return validator.NewHTMLValidator(), nil
	}
	return nil, fmt.Errorf("no validator for %w %q", entity.ErrUnknownLanguage, lang)
}

func (r *Registry) Profile(lang entity.Language) (repository.LanguageProfile, error) {
	p, ok := r.profiles[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownLanguage, lang)
	}
	return p, nil
}
