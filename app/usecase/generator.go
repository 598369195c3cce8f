package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

// CodeGenerator turns one request into a generation result.
type CodeGenerator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error)
}

// ProfileProvider resolves the language profile for a request.
type ProfileProvider interface {
	Profile(lang entity.Language) (repository.LanguageProfile, error)
}

var _ CodeGenerator = (*GeneratorService)(nil)

// GeneratorService runs the whole pipeline: prompt, model call, sanitation,
// validation, formatting and the Python fallback.
type GeneratorService struct {
	model        repository.CodeModel
	profiles     ProfileProvider
	params       entity.SamplingParams
	modelTimeout time.Duration
	logger       *slog.Logger
}

func NewGeneratorService(
	model repository.CodeModel,
	profiles ProfileProvider,
	params entity.SamplingParams,
	modelTimeout time.Duration,
	logger *slog.Logger,
) *GeneratorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeneratorService{
		model:        model,
		profiles:     profiles,
		params:       params,
		modelTimeout: modelTimeout,
		logger:       logger,
	}
}

func (s *GeneratorService) Generate(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	start := time.Now()
	if strings.TrimSpace(req.Description) == "" {
		return nil, entity.ErrEmptyDescription
	}
	profile, err := s.profiles.Profile(req.Language)
	if err != nil {
		return nil, err
	}

	prompt := profile.BuildPrompt(req.Description, req.Mode)
	s.logger.Debug("generating", "language", req.Language, "mode", req.Mode, "template", prompt.ID)

	raw, err := s.callModel(ctx, prompt.Text)
	if err != nil {
		metrics.IncError("generator", "model")
		return nil, fmt.Errorf("%w: %w", entity.ErrModelCall, err)
	}

	pp := PostProcess(ctx, raw, profile)
	res := &entity.GenerationResult{
		Prompt:        req.Description,
		Language:      req.Language,
		Mode:          req.Mode,
		FormattedCode: pp.Code,
		Valid:         pp.Valid,
		ValidationMsg: pp.Message,
	}

	switch {
	case req.Language == entity.LanguagePython && !pp.Valid:
		s.logger.Info("model output unusable, synthesizing fallback", "reason", pp.Message)
		res = s.fallback(ctx, req, pp)
	case req.Language != entity.LanguagePython && pp.Valid:
		s.advise(ctx, profile, res)
	}

	outcome := "model"
	if res.Fallback {
		outcome = "fallback"
	} else if !res.Valid {
		outcome = "invalid"
	}
	metrics.IncGeneration(string(req.Language), outcome)
	metrics.ObserveGenerationDuration(string(req.Language), time.Since(start))
	s.logger.Info("generation finished",
		"language", req.Language,
		"mode", req.Mode,
		"valid", res.Valid,
		"fallback", res.Fallback,
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *GeneratorService) callModel(ctx context.Context, prompt string) (string, error) {
	if s.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
	}
	if tm, ok := s.model.(repository.TunableModel); ok {
		return tm.GenerateWithParams(ctx, prompt, s.params)
	}
	return s.model.Generate(ctx, prompt)
}

// fallback replaces unusable Python output with a synthesized function. If
// even that does not validate, the best available model text is returned
// flagged invalid.
func (s *GeneratorService) fallback(ctx context.Context, req entity.GenerationRequest, pp PostProcessResult) *entity.GenerationResult {
	res := &entity.GenerationResult{
		Prompt:   req.Description,
		Language: req.Language,
		Mode:     req.Mode,
	}

	py, err := s.profiles.Profile(entity.LanguagePython)
	if err == nil {
		fn := InferFallback(req.Description)
		code := py.Format(ctx, fn.Source()).Code
		if py.Validate(ctx, code).Valid {
			res.FormattedCode = code
			res.Valid = true
			res.ValidationMsg = entity.MsgValidFallback
			res.Fallback = true
			return res
		}
	}

	res.FormattedCode = pp.Code
	res.Valid = false
	res.ValidationMsg = entity.MsgFallbackFailed
	res.Notes = pp.Message
	return res
}

// advise formats non-Python output and runs the language's advisory check.
// The check never changes Valid; its message lands in Notes.
func (s *GeneratorService) advise(ctx context.Context, profile repository.LanguageProfile, res *entity.GenerationResult) {
	if f := profile.Format(ctx, res.FormattedCode); f.Err == nil {
		res.FormattedCode = f.Code
	}
	res.Notes = profile.Validate(ctx, res.FormattedCode).Message
}
