package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

const metadataFile = "metadata.json"

var _ repository.ArtifactRepository = (*FileRepository)(nil)

// FileRepository keeps one directory per job holding the generated source
// file and a metadata.json describing it.
type FileRepository struct {
	basePath string
}

func (r *FileRepository) GetBasePath() string {
	return r.basePath
}

func NewFileRepository(basePath string) (*FileRepository, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &FileRepository{
		basePath: basePath,
	}, nil
}

type artifactMetadata struct {
	JobID     string          `json:"job_id"`
	Name      string          `json:"name"`
	Language  entity.Language `json:"language"`
	Valid     bool            `json:"valid"`
	Fallback  bool            `json:"fallback"`
	Size      int             `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveArtifact writes the artifact and returns the path of the source file.
func (r *FileRepository) SaveArtifact(ctx context.Context, a *entity.Artifact) (string, error) {
	metrics.IncStoreOp("filesystem", "put")

	dir, err := r.jobDir(a.JobID)
	if err != nil {
		return "", err
	}
	if filepath.Base(a.Name) != a.Name || a.Name == "" || a.Name == metadataFile {
		return "", fmt.Errorf("invalid artifact name %q", a.Name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}

	filePath := filepath.Join(dir, a.Name)
	if err := os.WriteFile(filePath, []byte(a.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", a.Name, err)
	}

	metadata := artifactMetadata{
		JobID:     a.JobID,
		Name:      a.Name,
		Language:  a.Language,
		Valid:     a.Valid,
		Fallback:  a.Fallback,
		Size:      len(a.Content),
		CreatedAt: time.Now().UTC(),
	}
	metadataData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), metadataData, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	return filePath, nil
}

func (r *FileRepository) GetArtifact(ctx context.Context, jobID string) (*entity.Artifact, error) {
	metrics.IncStoreOp("filesystem", "get")

	dir, err := r.jobDir(jobID)
	if err != nil {
		return nil, err
	}
	metadataData, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrArtifactNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata artifactMetadata
	if err := json.Unmarshal(metadataData, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, metadata.Name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrArtifactNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", metadata.Name, err)
	}

	return &entity.Artifact{
		JobID:    jobID,
		Name:     metadata.Name,
		Language: metadata.Language,
		Content:  string(content),
		Valid:    metadata.Valid,
		Fallback: metadata.Fallback,
	}, nil
}

// ListArtifacts returns the ids of jobs with a stored artifact, sorted.
func (r *FileRepository) ListArtifacts(ctx context.Context) ([]string, error) {
	metrics.IncStoreOp("filesystem", "list")

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.basePath, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteArtifact is a no-op for jobs without an artifact.
func (r *FileRepository) DeleteArtifact(ctx context.Context, jobID string) error {
	metrics.IncStoreOp("filesystem", "delete")

	dir, err := r.jobDir(jobID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete job directory: %w", err)
	}
	return nil
}

func (r *FileRepository) jobDir(jobID string) (string, error) {
	if jobID == "" || jobID == "." || jobID == ".." || strings.ContainsAny(jobID, `/\`) {
		return "", errors.New("invalid job id")
	}
	return filepath.Join(r.basePath, jobID), nil
}
