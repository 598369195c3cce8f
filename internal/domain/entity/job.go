package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrJobNotFinished   = errors.New("job not finished")
)

// Job is an asynchronous generation request tracked by the server.
type Job struct {
	ID          string            `json:"id" bson:"id"`
	Description string            `json:"description" bson:"description"`
	Mode        Mode              `json:"mode" bson:"mode"`
	Language    Language          `json:"language" bson:"language"`
	Status      JobStatus         `json:"status" bson:"status"`
	Result      *GenerationResult `json:"result,omitempty" bson:"result,omitempty"`
	Error       string            `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

func NewJob(req GenerationRequest) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New().String(),
		Description: req.Description,
		Mode:        req.Mode,
		Language:    req.Language,
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) Request() GenerationRequest {
	return GenerationRequest{Description: j.Description, Mode: j.Mode, Language: j.Language}
}

func (j *Job) UpdateStatus(status JobStatus) {
	j.Status = status
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) Complete(res *GenerationResult) {
	j.Result = res
	j.Error = ""
	j.UpdateStatus(JobStatusCompleted)
}

func (j *Job) Fail(err error) {
	j.Error = err.Error()
	j.UpdateStatus(JobStatusFailed)
}

func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Artifact is a generated source file persisted for a job.
type Artifact struct {
	JobID    string   `json:"job_id"`
	Name     string   `json:"name"`
	Language Language `json:"language"`
	Content  string   `json:"content"`
	Valid    bool     `json:"valid"`
	Fallback bool     `json:"fallback"`
}

func NewArtifact(jobID string, res *GenerationResult) *Artifact {
	return &Artifact{
		JobID:    jobID,
		Name:     "generated." + res.Language.FileExtension(),
		Language: res.Language,
		Content:  res.FormattedCode,
		Valid:    res.Valid,
		Fallback: res.Fallback,
	}
}
