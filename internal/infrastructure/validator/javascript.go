package validator

import (
	"context"

	"github.com/smacker/go-tree-sitter/javascript"

	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/metrics"
)

type JavaScriptValidator struct{}

func NewJavaScriptValidator() *JavaScriptValidator {
	return &JavaScriptValidator{}
}

func (v *JavaScriptValidator) Validate(ctx context.Context, code string) entity.ValidationResult {
	se, err := checkSyntax(ctx, javascript.GetLanguage(), code)
	if err != nil {
		metrics.IncError("validator", "javascript_parse")
		metrics.IncValidationRun("javascript", false)
		return entity.ValidationResult{Valid: false, Message: err.Error()}
	}
	if se != nil {
		metrics.IncValidationRun("javascript", false)
		return entity.ValidationResult{Valid: false, Message: se.Error()}
	}
	metrics.IncValidationRun("javascript", true)
	return entity.ValidationResult{Valid: true, Message: "Valid JS Syntax"}
}
