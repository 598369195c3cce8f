package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

type JobUsecase interface {
	CreateJob(ctx context.Context, req entity.GenerationRequest) (*entity.Job, error)
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	ListJobs(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	DeleteJob(ctx context.Context, id string) error
	GetArtifact(ctx context.Context, id string) (*entity.Artifact, error)
}

// Notifier is woken after a job is queued so it does not wait for its next
// poll.
type Notifier interface {
	Wake()
}

var _ JobUsecase = (*JobService)(nil)

type JobService struct {
	jobsRepo     repository.JobRepository
	artifactRepo repository.ArtifactRepository
	notifier     Notifier
	logger       *slog.Logger
}

func NewJobService(
	jr repository.JobRepository,
	ar repository.ArtifactRepository,
	n Notifier,
	logger *slog.Logger,
) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		jobsRepo:     jr,
		artifactRepo: ar,
		notifier:     n,
		logger:       logger,
	}
}

func (u *JobService) CreateJob(ctx context.Context, req entity.GenerationRequest) (*entity.Job, error) {
	job := entity.NewJob(req)
	if err := u.jobsRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.IncJobsCreated()
	u.logger.Info("job queued", "job_id", job.ID, "language", job.Language, "mode", job.Mode)

	if u.notifier != nil {
		u.notifier.Wake()
	}
	return job, nil
}

func (u *JobService) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	job, err := u.jobsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
	}
	return job, nil
}

// ListJobs returns every job, or only those in status when it is set.
func (u *JobService) ListJobs(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	if status == "" {
		return u.jobsRepo.List(ctx)
	}
	return u.jobsRepo.ListByStatus(ctx, status)
}

func (u *JobService) DeleteJob(ctx context.Context, id string) error {
	if _, err := u.GetJob(ctx, id); err != nil {
		return err
	}
	if u.artifactRepo != nil {
		if err := u.artifactRepo.DeleteArtifact(ctx, id); err != nil {
			return fmt.Errorf("delete artifact: %w", err)
		}
	}
	if err := u.jobsRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// GetArtifact returns the generated file of a completed job.
func (u *JobService) GetArtifact(ctx context.Context, id string) (*entity.Artifact, error) {
	job, err := u.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != entity.JobStatusCompleted || job.Result == nil {
		return nil, fmt.Errorf("%w: %s is %s", entity.ErrJobNotFinished, id, job.Status)
	}
	if u.artifactRepo != nil {
		art, err := u.artifactRepo.GetArtifact(ctx, id)
		if err == nil {
			return art, nil
		}
		if !errors.Is(err, entity.ErrArtifactNotFound) {
			return nil, fmt.Errorf("read artifact: %w", err)
		}
	}
	// The stored result is authoritative when the file is gone.
	return entity.NewArtifact(job.ID, job.Result), nil
}
