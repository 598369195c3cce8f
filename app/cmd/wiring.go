package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"codegen/app/config"
	"codegen/app/usecase"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/language"
	"codegen/internal/infrastructure/llm"
	mongorepo "codegen/internal/infrastructure/store/mongodb"
	"codegen/internal/infrastructure/store/sqlite"
)

// newLogger writes JSON to w. The one-shot command stays at warn unless
// verbose is set, so stdout carries nothing but code.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if !verbose && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newServerLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newGenerator(cfg *config.Config, logger *slog.Logger) (*usecase.GeneratorService, error) {
	registry, err := language.NewRegistry(cfg.FormatterCommands(), cfg.Formatter.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("language registry: %w", err)
	}
	model := llm.New(cfg.ModelSettings(), logger)
	return usecase.NewGeneratorService(model, registry, cfg.Sampling, cfg.Model.Timeout, logger), nil
}

// jobStore is the job repository chosen by config plus how to release it.
type jobStore struct {
	repo  repository.JobRepository
	close func(ctx context.Context) error
}

func openJobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*jobStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		client, db, err := mongorepo.Connect(connectCtx, cfg.Store.Mongo.URI, cfg.Store.Mongo.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Store.Mongo.Database)
		return &jobStore{
			repo:  mongorepo.NewMongoJobRepo(db),
			close: func(ctx context.Context) error { return disconnect(ctx, client) },
		}, nil
	case config.StoreSQLite:
		repo, err := sqlite.NewJobRepo(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite job store", "path", cfg.Store.SQLitePath)
		return &jobStore{
			repo:  repo,
			close: func(context.Context) error { return repo.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func disconnect(ctx context.Context, client *mongo.Client) error {
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
