// Package main is the entry point for foldersync, a one-way periodic folder mirror.
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

	"github.com/CageChen/foldersync/internal/bootstrap"
	"github.com/CageChen/foldersync/internal/config"
	"github.com/CageChen/foldersync/internal/fs"
	"github.com/CageChen/foldersync/internal/handler"
	"github.com/CageChen/foldersync/internal/logging"
	"github.com/CageChen/foldersync/internal/metrics"
	"github.com/CageChen/foldersync/internal/reconciler"
	"github.com/CageChen/foldersync/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	switch {
	case errors.Is(err, config.ErrUsage):
		fmt.Println(config.Usage)
		return
	case errors.Is(err, config.ErrInvalidInterval):
		fmt.Println("Error: Invalid synchronization interval. Please provide a positive integer.")
		return
	case err != nil:
		fmt.Printf("Error: %v\n", err)
		return
	}

	level, _ := logging.ParseLevel(cfg.LogLevel) // validated by config.Load
	logger := logging.New(logging.Options{LogFile: cfg.LogFile, Level: level})

	source := fs.NewLocalFS(cfg.SourceDir)
	replica := fs.NewLocalFS(cfg.ReplicaDir)
	if err := bootstrap.Prepare(os.Stdout, source, replica, cfg.Seed); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	rec := reconciler.New(logger)
	sched := scheduler.New(cfg.Interval, source, replica, rec, logger)
	metrics.RegisterMetrics()
	sched.OnPass(metrics.RecordPass)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" {
		ws := handler.NewWSHandler()
		rec.OnAction(ws.OnAction)
		sched.OnPass(ws.OnPass)
		srv := startStatusServer(cfg.StatusAddr, sched, source, replica, ws, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if path := cfg.GetConfigFilePath(); path != "" {
		logger.Debug().Msgf("Settings file: %s", path)
	}
	logger.Info().Msg("Starting folder synchronization...")
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Msgf("Scheduler stopped: %v", err)
	}
	logger.Info().Msg("Folder synchronization stopped.")
}

func startStatusServer(addr string, sched *scheduler.Scheduler, source, replica fs.FileSystem,
	ws *handler.WSHandler, logger zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(
		handler.NewStatusHandler(sched),
		handler.NewTreeHandler(source, replica),
		ws,
	)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info().Msgf("Status API listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Msgf("Status API failed: %v", err)
		}
	}()
	return srv
}
