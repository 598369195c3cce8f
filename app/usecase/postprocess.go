package usecase

import (
	"context"
	"regexp"
	"strings"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
)

// A line made only of dashes, dots or underscores.
var separatorLineRe = regexp.MustCompile(`^[-._]{2,}$`)

// PostProcessResult is the outcome of turning raw model text into code.
type PostProcessResult struct {
	Code    string
	Valid   bool
	Message string
}

// PostProcess sanitizes raw model output and, for Python, validates it,
// attempts one leading-separator repair and formats the valid result. Other
// languages get fence extraction and preamble stripping (ExtractCode) and come
// back marked valid without any check.
func PostProcess(ctx context.Context, raw string, profile repository.LanguageProfile) PostProcessResult {
	python := profile.Language() == entity.LanguagePython
	var code string
	if python {
		code = Sanitize(raw)
	} else {
		code = ExtractCode(raw, profile.Language())
	}
	if code == "" {
		return PostProcessResult{Code: raw, Valid: false, Message: entity.MsgEmptyAfterSanitization}
	}
	if !python {
		return PostProcessResult{Code: code, Valid: true, Message: entity.MsgNoValidation}
	}

	res := profile.Validate(ctx, code)
	if !res.Valid {
		repaired := stripLeadingSeparators(code)
		if repaired != code && repaired != "" {
			if profile.Validate(ctx, repaired).Valid {
				code = repaired
				res = entity.ValidationResult{Valid: true, Message: entity.MsgValidAfterCleanup}
			}
		}
	}
	if !res.Valid {
		return PostProcessResult{Code: code, Valid: false, Message: res.Message}
	}

	formatted := profile.Format(ctx, code)
	return PostProcessResult{Code: formatted.Code, Valid: true, Message: res.Message}
}

func stripLeadingSeparators(code string) string {
	lines := strings.Split(code, "\n")
	for len(lines) > 0 && separatorLineRe.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
