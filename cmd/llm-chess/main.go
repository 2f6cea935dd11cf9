package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-llm-move/internal/config"
	"github.com/park285/cheese-llm-move/internal/httpapi"
	"github.com/park285/cheese-llm-move/internal/movebuilder"
	"github.com/park285/cheese-llm-move/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := movebuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("move service init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("close deps", zap.Error(err))
		}
	}()

	app, err := httpapi.NewApp(httpapi.Deps{
		Moves:           deps.Service,
		Attempts:        deps.Attempts,
		Renderer:        deps.Renderer,
		Logger:          logger.Named("http"),
		RateLimitPerSec: cfg.RateLimitPerSec,
	})
	if err != nil {
		logger.Fatal("http init error", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.ListenAddr()),
			zap.String("model", deps.LLM.Model()),
		)
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
		return
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
