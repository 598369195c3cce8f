package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
)

type fakeProfile struct {
	lang     entity.Language
	validate func(code string) entity.ValidationResult
	format   func(code string) entity.FormatResult

	mu        sync.Mutex
	validated []string
}

func (p *fakeProfile) Language() entity.Language { return p.lang }

func (p *fakeProfile) BuildPrompt(description string, mode entity.Mode) entity.Prompt {
	return entity.Prompt{ID: string(mode), Text: description}
}

func (p *fakeProfile) Format(_ context.Context, code string) entity.FormatResult {
	if p.format == nil {
		return entity.FormatResult{Code: code}
	}
	return p.format(code)
}

func (p *fakeProfile) Validate(_ context.Context, code string) entity.ValidationResult {
	p.mu.Lock()
	p.validated = append(p.validated, code)
	p.mu.Unlock()
	if p.validate == nil {
		return entity.ValidationResult{Valid: true, Message: "ok"}
	}
	return p.validate(code)
}

type fakeProfiles map[entity.Language]repository.LanguageProfile

func (f fakeProfiles) Profile(lang entity.Language) (repository.LanguageProfile, error) {
	p, ok := f[lang]
	if !ok {
		return nil, entity.ErrUnknownLanguage
	}
	return p, nil
}

type stubModel struct {
	out string
	err error

	mu      sync.Mutex
	prompts []string
}

func (m *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.out, m.err
}

type tunableStub struct {
	stubModel
	params []entity.SamplingParams
}

func (m *tunableStub) GenerateWithParams(ctx context.Context, prompt string, p entity.SamplingParams) (string, error) {
	m.params = append(m.params, p)
	return m.Generate(ctx, prompt)
}

// blockingModel waits for its context to end.
type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type countingGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *countingGenerator) Generate(_ context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &entity.GenerationResult{
		Prompt:        req.Description,
		Language:      req.Language,
		Mode:          req.Mode,
		FormattedCode: "x = " + strings.Repeat("1", g.calls),
		Valid:         true,
	}, nil
}

func (g *countingGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]entity.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]entity.Job{}}
}

func (r *memJobRepo) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	return &j, nil
}

func (r *memJobRepo) List(_ context.Context) ([]*entity.Job, error) {
	return r.filter(func(entity.Job) bool { return true }), nil
}

func (r *memJobRepo) ListByStatus(_ context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	return r.filter(func(j entity.Job) bool { return j.Status == status }), nil
}

func (r *memJobRepo) filter(keep func(entity.Job) bool) []*entity.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Job
	for _, j := range r.jobs {
		if keep(j) {
			j := j
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

func (r *memJobRepo) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return entity.ErrJobNotFound
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) UpdateStatus(_ context.Context, id string, status entity.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return entity.ErrJobNotFound
	}
	j.UpdateStatus(status)
	r.jobs[id] = j
	return nil
}

func (r *memJobRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

func (r *memJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	jobs, _ := r.ListByStatus(ctx, status)
	return len(jobs), nil
}

type memArtifactRepo struct {
	mu    sync.Mutex
	files map[string]entity.Artifact
}

func newMemArtifactRepo() *memArtifactRepo {
	return &memArtifactRepo{files: map[string]entity.Artifact{}}
}

func (r *memArtifactRepo) SaveArtifact(_ context.Context, a *entity.Artifact) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[a.JobID] = *a
	return a.JobID + "/" + a.Name, nil
}

func (r *memArtifactRepo) GetArtifact(_ context.Context, jobID string) (*entity.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.files[jobID]
	if !ok {
		return nil, entity.ErrArtifactNotFound
	}
	return &a, nil
}

func (r *memArtifactRepo) ListArtifacts(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memArtifactRepo) DeleteArtifact(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, jobID)
	return nil
}
