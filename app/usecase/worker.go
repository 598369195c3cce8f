package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultJobTimeout   = 5 * time.Minute
)

var _ Notifier = (*GenerationWorker)(nil)

// GenerationWorker polls the job store for pending jobs and runs them
// through the generator one at a time.
type GenerationWorker struct {
	jobsRepo     repository.JobRepository
	artifactRepo repository.ArtifactRepository
	generator    CodeGenerator

	logger *slog.Logger

	pollInterval time.Duration
	jobTimeout   time.Duration

	// control
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

func NewGenerationWorker(
	jr repository.JobRepository,
	ar repository.ArtifactRepository,
	gen CodeGenerator,
	pollInterval time.Duration,
	jobTimeout time.Duration,
	logger *slog.Logger,
) *GenerationWorker {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationWorker{
		jobsRepo:     jr,
		artifactRepo: ar,
		generator:    gen,
		logger:       logger,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

func (w *GenerationWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		w.logger.Info("GenerationWorker started", "interval", w.pollInterval)

		if err := w.runOnce(ctx); err != nil {
			w.logger.Warn("initial runOnce failed", "err", err)
		}

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("GenerationWorker context canceled")
				return
			case <-w.stop:
				w.logger.Info("GenerationWorker stopped by Stop()")
				return
			case <-ticker.C:
			case <-w.wake:
			}
			if err := w.runOnce(ctx); err != nil {
				w.logger.Warn("runOnce failed", "err", err)
			}
		}
	}()
}

// Stop must be called at most once, after Start.
func (w *GenerationWorker) Stop() {
	close(w.stop)
	<-w.stopped
	w.logger.Info("GenerationWorker fully stopped")
}

// Wake schedules a poll without waiting for the ticker.
func (w *GenerationWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *GenerationWorker) runOnce(ctx context.Context) error {
	jobs, err := w.jobsRepo.ListByStatus(ctx, entity.JobStatusPending)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	w.logger.Debug("found pending jobs", "count", len(jobs))

	for _, job := range jobs {
		select {
		case <-w.stop:
			return nil
		default:
		}
		if err := w.jobsRepo.UpdateStatus(ctx, job.ID, entity.JobStatusRunning); err != nil {
			w.logger.Warn("failed to set job running; skip", "job_id", job.ID, "err", err)
			continue
		}
		metrics.IncJobStatusChange(string(entity.JobStatusPending), string(entity.JobStatusRunning))
		job.UpdateStatus(entity.JobStatusRunning)

		procCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
		func() {
			defer cancel()
			if err := w.processJob(procCtx, job); err != nil {
				w.logger.Error("processJob failed", "job_id", job.ID, "err", err)
			}
		}()
	}

	return nil
}

// processJob generates code for one job, stores the artifact and records
// the final status.
func (w *GenerationWorker) processJob(ctx context.Context, job *entity.Job) error {
	startTime := time.Now()
	defer func() { metrics.ObserveJobDuration(time.Since(startTime)) }()

	w.logger.Info("start processing job", "job_id", job.ID)

	res, err := w.generator.Generate(ctx, job.Request())
	if err != nil {
		job.Fail(err)
		metrics.IncJobStatusChange(string(entity.JobStatusRunning), string(entity.JobStatusFailed))
		if uerr := w.jobsRepo.Update(context.WithoutCancel(ctx), job); uerr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "err", uerr)
		}
		return fmt.Errorf("generate: %w", err)
	}

	if w.artifactRepo != nil {
		path, err := w.artifactRepo.SaveArtifact(ctx, entity.NewArtifact(job.ID, res))
		if err != nil {
			w.logger.Error("save artifact failed", "job_id", job.ID, "err", err)
		} else {
			w.logger.Debug("artifact saved", "job_id", job.ID, "path", path)
		}
	}

	job.Complete(res)
	metrics.IncJobStatusChange(string(entity.JobStatusRunning), string(entity.JobStatusCompleted))
	if err := w.jobsRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	w.logger.Info("job processed",
		"job_id", job.ID,
		"valid", res.Valid,
		"fallback", res.Fallback,
		"duration", time.Since(startTime),
	)
	return nil
}
