package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/internal/domain/entity"
)

func TestCachedGeneratorReusesResults(t *testing.T) {
	next := &countingGenerator{}
	g := NewCachedGenerator(next, time.Minute, 0)
	defer g.Close()

	req := entity.GenerationRequest{Description: "add", Mode: entity.ModeFunction, Language: entity.LanguagePython}
	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Calls())
	assert.Equal(t, first, second)

	// Callers may mutate what they get back.
	second.FormattedCode = "mutated"
	third, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.FormattedCode, third.FormattedCode)

	req.Mode = entity.ModeClass
	_, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Calls())
	assert.Equal(t, 2, g.Len())
}

func TestCachedGeneratorSkipsErrors(t *testing.T) {
	next := &countingGenerator{err: entity.ErrModelCall}
	g := NewCachedGenerator(next, time.Minute, 0)
	defer g.Close()

	req := entity.GenerationRequest{Description: "add", Mode: entity.ModeFunction, Language: entity.LanguagePython}
	for range 2 {
		_, err := g.Generate(context.Background(), req)
		assert.ErrorIs(t, err, entity.ErrModelCall)
	}
	assert.Equal(t, 2, next.Calls())
	assert.Equal(t, 0, g.Len())
}

func TestCachedGeneratorExpires(t *testing.T) {
	next := &countingGenerator{}
	g := NewCachedGenerator(next, 10*time.Millisecond, 0)
	defer g.Close()

	req := entity.GenerationRequest{Description: "add", Mode: entity.ModeFunction, Language: entity.LanguagePython}
	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	_, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Calls())
}
