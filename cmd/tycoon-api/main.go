package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tycoon/internal/api"
	"tycoon/internal/archive"
	"tycoon/internal/catalog"
	"tycoon/internal/config"
	"tycoon/internal/db"
	"tycoon/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}

	sinks := []game.Sink{archive.NewLogSink(logger)}
	var history archive.History
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.Pool)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg, err := archive.NewPGSink(ctx, pool)
		if err != nil {
			logger.Error("archive init failed", "err", err)
			os.Exit(1)
		}
		logger.Info("archiving day reports", "backend", "postgres", "run_id", pg.RunID())
		sinks = append(sinks, pg)
		history = pg
	case cfg.SQLitePath != "":
		lite, err := archive.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("archive init failed", "err", err)
			os.Exit(1)
		}
		defer lite.Close()
		logger.Info("archiving day reports", "backend", "sqlite", "path", cfg.SQLitePath, "run_id", lite.RunID())
		sinks = append(sinks, lite)
		history = lite
	default:
		logger.Warn("no archive configured, history endpoint disabled")
	}

	gameSvc := game.NewService(game.ServiceConfig{
		Catalog:     cat,
		Sink:        archive.Multi(sinks...),
		MaxSessions: cfg.MaxSessions,
	}, logger)

	server := api.New(cfg, logger, gameSvc, history)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("tycoon api listening", "addr", cfg.Addr, "max_sessions", cfg.MaxSessions)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
