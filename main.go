package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/vademecum-api/config"
	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/handlers"
	"github.com/giygas/vademecum-api/health"
	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/query"
	"github.com/giygas/vademecum-api/scheduler"
	"github.com/giygas/vademecum-api/server"
	"github.com/giygas/vademecum-api/validation"
	"github.com/giygas/vademecum-api/vademecumparser"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	verbose := slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose")
	logging.InitLoggerWithOptions(logging.OptionsFromConfig(cfg, verbose))
	defer logging.DefaultLoggingService.Close()

	validator := validation.NewDataValidator()
	parser := vademecumparser.NewParser(vademecumparser.SourceFromConfig(cfg), validator)
	cache := data.NewCache(parser, validator)

	// Warm the cache. A failure is not fatal: queries report the dataset as
	// unavailable and the next call retries.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.DatasetTimeout)
	if _, err := cache.Load(loadCtx); err != nil {
		logging.Error("Initial dataset load failed", "source", parser.SourceName(), "error", err)
	}
	cancelLoad()

	var sched interfaces.Scheduler
	if cfg.ReloadSchedule != "" {
		s := scheduler.NewScheduler(cache, cache, cfg.ReloadSchedule, cfg.DatasetTimeout)
		if err := s.Start(); err != nil {
			logging.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer s.Stop()
		sched = s
	}

	engine := query.NewEngine(cache)
	checker := health.NewHealthChecker(cache, sched)
	srv := server.NewServer(cfg, handlers.NewHTTPHandler(engine, cache, validator, checker))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}
}
