package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"codegen/app/config"
	"codegen/app/usecase"
	"codegen/internal/infrastructure/store/filesystem"
	"codegen/internal/infrastructure/transport"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API with the background job worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, addr, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server host and port")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, addr string, cmd *cobra.Command) error {
	logger, err := newServerLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Repositories
	store, err := openJobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	artifactRepo, err := filesystem.NewFileRepository(cfg.FileRepo.ArtifactDir)
	if err != nil {
		return err
	}

	// Generation
	service, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	var generator usecase.CodeGenerator = service
	var cache *usecase.CachedGenerator
	if cfg.Cache.TTL > 0 {
		cache = usecase.NewCachedGenerator(service, cfg.Cache.TTL, cfg.Cache.Capacity)
		generator = cache
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	worker := usecase.NewGenerationWorker(store.repo, artifactRepo, generator, cfg.Jobs.PollInterval, cfg.Jobs.Timeout, logger)
	worker.Start(workerCtx)

	jobSvc := usecase.NewJobService(store.repo, artifactRepo, worker, logger)

	// Transport
	handler := transport.NewGeneratorHandler(generator, jobSvc, cfg.Server.RequestTimeout, logger)
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	if addr == "" {
		addr = cfg.Addr()
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		logger.Error("http server failed", "err", err)
		runErr = err
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("stopping generation worker")
	cancelWorker()
	worker.Stop()

	if cache != nil {
		cache.Close()
	}

	logger.Info("closing job store")
	if err := store.close(shutdownCtx); err != nil {
		logger.Error("job store close error", "err", err)
	}

	logger.Info("service stopped")
	return runErr
}
