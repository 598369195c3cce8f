package validator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"codegen/internal/domain/entity"
)

// SQLValidator and HTMLValidator are advisory: they always report valid and
// only describe what they saw.
type SQLValidator struct{}

func NewSQLValidator() *SQLValidator {
	return &SQLValidator{}
}

func (v *SQLValidator) Validate(_ context.Context, code string) entity.ValidationResult {
	if strings.Contains(code, ";") {
		return entity.ValidationResult{Valid: true, Message: "Basic SQL validation passed"}
	}
	return entity.ValidationResult{Valid: true, Message: "Validation skipped"}
}

type HTMLValidator struct{}

func NewHTMLValidator() *HTMLValidator {
	return &HTMLValidator{}
}

func (v *HTMLValidator) Validate(_ context.Context, code string) entity.ValidationResult {
	z := html.NewTokenizer(strings.NewReader(code))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return entity.ValidationResult{Valid: true, Message: "Validation skipped"}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			return entity.ValidationResult{
				Valid:   true,
				Message: fmt.Sprintf("Valid basic HTML structure (root <%s>)", name),
			}
		}
	}
}
