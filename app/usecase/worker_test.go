package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/internal/domain/entity"
)

func waitForStatus(t *testing.T, svc *JobService, id string, want entity.JobStatus) *entity.Job {
	t.Helper()
	var job *entity.Job
	require.Eventually(t, func() bool {
		j, err := svc.GetJob(context.Background(), id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestWorkerCompletesJobs(t *testing.T) {
	jobs, arts := newMemJobRepo(), newMemArtifactRepo()
	w := NewGenerationWorker(jobs, arts, &countingGenerator{}, time.Hour, time.Second, nil)
	svc := NewJobService(jobs, arts, w, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// The hour-long poll interval means only Wake can trigger this.
	job, err := svc.CreateJob(ctx, entity.GenerationRequest{Description: "add", Mode: entity.ModeFunction, Language: entity.LanguagePython})
	require.NoError(t, err)

	done := waitForStatus(t, svc, job.ID, entity.JobStatusCompleted)
	require.NotNil(t, done.Result)
	assert.True(t, done.Result.Valid)
	assert.Empty(t, done.Error)

	art, err := arts.GetArtifact(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated.py", art.Name)
	assert.Equal(t, done.Result.FormattedCode, art.Content)
}

func TestWorkerRecordsFailures(t *testing.T) {
	jobs, arts := newMemJobRepo(), newMemArtifactRepo()
	w := NewGenerationWorker(jobs, arts, &countingGenerator{err: entity.ErrModelCall}, 10*time.Millisecond, time.Second, nil)
	svc := NewJobService(jobs, arts, nil, nil)

	job, err := svc.CreateJob(context.Background(), entity.GenerationRequest{Description: "add", Mode: entity.ModeFunction, Language: entity.LanguagePython})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	failed := waitForStatus(t, svc, job.ID, entity.JobStatusFailed)
	assert.Nil(t, failed.Result)
	assert.Contains(t, failed.Error, entity.ErrModelCall.Error())

	ids, err := arts.ListArtifacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWorkerWakeDoesNotBlock(t *testing.T) {
	w := NewGenerationWorker(newMemJobRepo(), nil, &countingGenerator{}, time.Hour, time.Second, nil)
	for range 5 {
		w.Wake()
	}
	assert.Len(t, w.wake, 1)
}
