package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/internal/domain/entity"
)

func newJob(desc string, created time.Time) *entity.Job {
	job := entity.NewJob(entity.GenerationRequest{Description: desc, Mode: entity.ModeFunction, Language: entity.LanguagePython})
	job.CreatedAt = created
	job.UpdatedAt = created
	return job
}

func TestJobRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, err := NewJobRepo(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first, second := newJob("first", base), newJob("second", base.Add(time.Second))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	assert.Error(t, repo.Create(ctx, first))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Description)
	assert.Equal(t, entity.JobStatusPending, got.Status)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.Nil(t, got.Result)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	require.NoError(t, repo.UpdateStatus(ctx, first.ID, entity.JobStatusRunning))
	pending, err := repo.ListByStatus(ctx, entity.JobStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	first.Complete(&entity.GenerationResult{Prompt: "first", Language: entity.LanguagePython, FormattedCode: "x = 1", Valid: true, ValidationMsg: entity.MsgValidPython})
	require.NoError(t, repo.Update(ctx, first))
	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "x = 1", got.Result.FormattedCode)

	n, err := repo.CountByStatus(ctx, entity.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), entity.ErrJobNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, first.ID, entity.JobStatusFailed), entity.ErrJobNotFound)
	assert.ErrorIs(t, repo.Update(ctx, first), entity.ErrJobNotFound)
}

func TestJobRepoPersistsOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "jobs.db")

	repo, err := NewJobRepo(path)
	require.NoError(t, err)
	job := newJob("kept", time.Now().UTC())
	job.Fail(entity.ErrModelCall)
	require.NoError(t, repo.Create(ctx, job))
	require.NoError(t, repo.Close())

	repo, err = NewJobRepo(path)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, got.Status)
	assert.Equal(t, entity.ErrModelCall.Error(), got.Error)
}
