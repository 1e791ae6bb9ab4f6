package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/orgauth/internal/app"
	"github.com/dropDatabas3/orgauth/internal/config"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (vacío = solo env)")
	envFile := flag.String("env-file", ".env", "Archivo .env opcional")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  error loading %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	env := "dev"
	if cfg.IsProd() {
		env = "prod"
	}
	logger.Init(logger.Config{Env: env, Level: cfg.App.LogLevel, ServiceName: "orgauth"})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(logger.ToContext(ctx, lg), cfg, app.Options{})
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	go a.RunJanitor(logger.ToContext(ctx, lg))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("storage", a.Repos.Driver),
			logger.String("version", app.Version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", logger.Err(err))
		}
	case <-ctx.Done():
		lg.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("graceful shutdown failed", logger.Err(err))
	}
	lg.Info("server stopped")
}
