package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	chiTransport "github.com/kailas-cloud/faqdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/version"
)

const serviceName = "faqdex"

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting faqdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus", cfg.Corpus.Path),
		zap.String("generation_backend", cfg.Generation.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Listen before initialization so probes see "not ready" instead of a refused connection.
	health := healthuc.New()
	server := chiTransport.NewServer(health, "FAQ retrieval service", version.Version, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		ServiceName:   serviceName,
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		APIKeys:       cfg.Auth.APIKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Initialization failed", zap.Error(err))
	}
	defer rt.Close()

	server.Attach(chiTransport.Backend{Answers: rt.Answers, Batch: rt.Batch})
	health.MarkReady(rt.HealthComponents())
	logger.Info("Service ready", zap.Int("records", rt.Corpus.Len()))

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		logger.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
