package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/language"
)

func newService(t *testing.T, model *stubModel) *GeneratorService {
	t.Helper()
	reg, err := language.NewRegistry(nil, time.Second, nil)
	require.NoError(t, err)
	return NewGeneratorService(model, reg, entity.DefaultSamplingParams(), time.Second, nil)
}

func request(t *testing.T, desc, mode, lang string) entity.GenerationRequest {
	t.Helper()
	req, err := entity.NewGenerationRequest(desc, mode, lang)
	require.NoError(t, err)
	return req
}

func TestGenerateValidPython(t *testing.T) {
	model := &stubModel{out: "Sure! ```python\ndef add(a, b):\n    return a + b\n``` Hope that helps"}
	svc := newService(t, model)

	res, err := svc.Generate(context.Background(), request(t, "add two numbers", "function", "python"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.False(t, res.Fallback)
	assert.Equal(t, entity.MsgValidPython, res.ValidationMsg)
	assert.Equal(t, "def add(a, b):\n    return a + b", res.FormattedCode)
	assert.Equal(t, "add two numbers", res.Prompt)
	assert.Equal(t, entity.LanguagePython, res.Language)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "add two numbers")
}

func TestGenerateFallsBackOnInvalidPython(t *testing.T) {
	svc := newService(t, &stubModel{out: "this is not code at all (("})

	res, err := svc.Generate(context.Background(), request(t, "Write a Python function that adds two numbers.", "function", "python"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Fallback)
	assert.Equal(t, entity.MsgValidFallback, res.ValidationMsg)
	assert.Equal(t, "def adds(a, b):\n    return a + b\n", res.FormattedCode)
}

func TestGenerateFallsBackOnMisindentedPython(t *testing.T) {
	for _, out := range []string{
		"def add(a, b):\nreturn a + b",
		"def add(a, b):\n    print a + b",
	} {
		svc := newService(t, &stubModel{out: out})

		res, err := svc.Generate(context.Background(), request(t, "Write a Python function that adds two numbers.", "function", "python"))
		require.NoError(t, err)
		assert.True(t, res.Valid, out)
		assert.True(t, res.Fallback, out)
		assert.Equal(t, "def adds(a, b):\n    return a + b\n", res.FormattedCode)
	}
}

func TestGenerateFallsBackOnEmptyPython(t *testing.T) {
	svc := newService(t, &stubModel{out: "```\n```"})

	res, err := svc.Generate(context.Background(), request(t, "a function that takes 3 arguments", "function", "python"))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Contains(t, res.FormattedCode, "(arg1, arg2, arg3)")
}

func TestGenerateSQLIsAdvisory(t *testing.T) {
	svc := newService(t, &stubModel{out: "```sql\nSELECT *\nFROM users;\n```"})

	res, err := svc.Generate(context.Background(), request(t, "all users", "sql", "sql"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.False(t, res.Fallback)
	assert.Equal(t, entity.MsgNoValidation, res.ValidationMsg)
	assert.Equal(t, "SELECT *\nFROM users;", res.FormattedCode)
	assert.Equal(t, "Basic SQL validation passed", res.Notes)
}

func TestGenerateNonPythonEmptyIsInvalid(t *testing.T) {
	svc := newService(t, &stubModel{out: "   "})

	res, err := svc.Generate(context.Background(), request(t, "a button", "function", "javascript"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, res.Fallback)
	assert.Equal(t, entity.MsgEmptyAfterSanitization, res.ValidationMsg)
	assert.Equal(t, "   ", res.FormattedCode)
}

func TestGenerateErrors(t *testing.T) {
	svc := newService(t, &stubModel{err: errors.New("connection refused")})

	_, err := svc.Generate(context.Background(), request(t, "anything", "function", "python"))
	assert.ErrorIs(t, err, entity.ErrModelCall)

	_, err = svc.Generate(context.Background(), entity.GenerationRequest{Description: "  ", Language: entity.LanguagePython})
	assert.ErrorIs(t, err, entity.ErrEmptyDescription)

	_, err = svc.Generate(context.Background(), entity.GenerationRequest{Description: "x", Language: "rust"})
	assert.ErrorIs(t, err, entity.ErrUnknownLanguage)
}

func TestGenerateModelTimeout(t *testing.T) {
	reg, err := language.NewRegistry(nil, time.Second, nil)
	require.NoError(t, err)
	svc := NewGeneratorService(blockingModel{}, reg, entity.DefaultSamplingParams(), 20*time.Millisecond, nil)

	_, err = svc.Generate(context.Background(), request(t, "anything", "function", "python"))
	assert.ErrorIs(t, err, entity.ErrModelCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeneratePrefersTunableModel(t *testing.T) {
	model := &tunableStub{stubModel: stubModel{out: "x = 1"}}
	reg, err := language.NewRegistry(nil, time.Second, nil)
	require.NoError(t, err)
	params := entity.SamplingParams{MaxTokens: 64, Temperature: 0.2, TopP: 0.9}
	svc := NewGeneratorService(model, reg, params, time.Second, nil)

	_, err = svc.Generate(context.Background(), request(t, "one", "function", "python"))
	require.NoError(t, err)
	assert.Equal(t, []entity.SamplingParams{params}, model.params)
}

func TestGenerateFallbackFailure(t *testing.T) {
	never := &fakeProfile{
		lang: entity.LanguagePython,
		validate: func(string) entity.ValidationResult {
			return entity.ValidationResult{Valid: false, Message: "invalid syntax: nope"}
		},
	}
	svc := NewGeneratorService(&stubModel{out: "Here:\nx = (("}, fakeProfiles{entity.LanguagePython: never},
		entity.DefaultSamplingParams(), time.Second, nil)

	res, err := svc.Generate(context.Background(), request(t, "adds", "function", "python"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, res.Fallback)
	assert.Equal(t, entity.MsgFallbackFailed, res.ValidationMsg)
	assert.Equal(t, "x = ((", res.FormattedCode)
	assert.Equal(t, "invalid syntax: nope", res.Notes)
}
