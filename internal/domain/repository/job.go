package repository

import (
	"context"

	"codegen/internal/domain/entity"
)

// JobRepository stores asynchronous generation jobs.
// GetByID returns entity.ErrJobNotFound for unknown ids.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id string) (*entity.Job, error)
	List(ctx context.Context) ([]*entity.Job, error)
	ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status entity.JobStatus) (int, error)
}

// ArtifactRepository persists generated source files.
type ArtifactRepository interface {
	SaveArtifact(ctx context.Context, artifact *entity.Artifact) (string, error)
	GetArtifact(ctx context.Context, jobID string) (*entity.Artifact, error)
	ListArtifacts(ctx context.Context) ([]string, error)
	DeleteArtifact(ctx context.Context, jobID string) error
}
