// Package formatter runs external pretty-printers (black, prettier,
// sqlformat) on generated code. Formatting is an optional enhancement:
// every failure path returns the input unchanged.
package formatter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

var ErrUnavailable = errors.New("formatter unavailable")

const DefaultTimeout = 10 * time.Second

// DefaultCommands maps each language to a pretty-printer reading source on
// stdin and writing the result to stdout.
func DefaultCommands() map[entity.Language][]string {
	return map[entity.Language][]string{
		entity.LanguagePython:     {"black", "--quiet", "-"},
		entity.LanguageJavaScript: {"prettier", "--stdin-filepath", "generated.js"},
		entity.LanguageSQL:        {"sqlformat", "--reindent", "--keywords", "upper", "-"},
		entity.LanguageHTMLCSS:    {"prettier", "--stdin-filepath", "generated.html"},
	}
}

// External pipes code through a command with a bounded lifetime.
type External struct {
	lang    entity.Language
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns an External formatter, or Identity when command is empty.
func New(lang entity.Language, command []string, timeout time.Duration, logger *slog.Logger) repository.CodeFormatter {
	if len(command) == 0 {
		return Identity{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &External{
		lang:    lang,
		command: command,
		timeout: timeout,
		logger:  logger,
	}
}

func (f *External) Format(parent context.Context, code string) entity.FormatResult {
	out, err := f.run(parent, code)
	if err != nil {
		result := "failed"
		if errors.Is(err, ErrUnavailable) {
			result = "skipped"
		}
		metrics.IncFormatterRun(string(f.lang), result)
		f.logger.Debug("formatter degraded to passthrough", "language", f.lang, "cmd", f.command[0], "err", err)
		return entity.FormatResult{Code: code, Err: err}
	}
	metrics.IncFormatterRun(string(f.lang), "applied")
	return entity.FormatResult{Code: out, Formatted: true}
}

func (f *External) run(parent context.Context, code string) (string, error) {
	path, err := exec.LookPath(f.command[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, f.command[0], err)
	}

	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, f.command[1:]...)
	cmd.Stdin = strings.NewReader(code)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s canceled or timed out: %w", f.command[0], ctx.Err())
		}
		return "", fmt.Errorf("%s failed: %w: %s", f.command[0], err, strings.TrimSpace(stderr.String()))
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%s produced no output", f.command[0])
	}
	return out, nil
}

// Identity is used for languages without a configured pretty-printer.
type Identity struct{}

func (Identity) Format(_ context.Context, code string) entity.FormatResult {
	return entity.FormatResult{Code: code}
}
