package repository

import (
	"context"

	"codegen/internal/domain/entity"
)

// CodeModel maps a prompt to raw generated text.
type CodeModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TunableModel is implemented by models that accept sampling parameters.
// Callers should prefer it and fall back to CodeModel.Generate otherwise.
type TunableModel interface {
	CodeModel
	GenerateWithParams(ctx context.Context, prompt string, params entity.SamplingParams) (string, error)
}
