package repository

import (
	"context"

	"codegen/internal/domain/entity"
)

// LanguageProfile bundles prompt building, formatting and validation for one
// target language.
type LanguageProfile interface {
	Language() entity.Language
	BuildPrompt(description string, mode entity.Mode) entity.Prompt
	// Format never fails: on any pretty-printer problem the input comes back
	// unchanged with FormatResult.Err set.
	Format(ctx context.Context, code string) entity.FormatResult
	Validate(ctx context.Context, code string) entity.ValidationResult
}

// CodeFormatter is a best-effort pretty-printer for one language.
type CodeFormatter interface {
	Format(ctx context.Context, code string) entity.FormatResult
}

// SyntaxValidator checks well-formedness of code. It must not panic or
// return errors: parser failures become an invalid ValidationResult.
type SyntaxValidator interface {
	Validate(ctx context.Context, code string) entity.ValidationResult
}
