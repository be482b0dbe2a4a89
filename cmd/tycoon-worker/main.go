package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tycoon/internal/archive"
	"tycoon/internal/catalog"
	"tycoon/internal/config"
	"tycoon/internal/db"
	"tycoon/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
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
	if dialect, dsn := archiveTarget(cfg); dsn != "" {
		conn, err := db.Open(ctx, dialect, dsn)
		if err != nil {
			logger.Error("db open failed", "dialect", dialect, "err", err)
			os.Exit(1)
		}
		defer conn.Close()
		sink, err := archive.NewSQLSink(ctx, conn, dialect)
		if err != nil {
			logger.Error("archive init failed", "err", err)
			os.Exit(1)
		}
		logger.Info("archiving day reports", "backend", string(dialect), "run_id", sink.RunID())
		sinks = append(sinks, sink)
	}

	svc := game.NewService(game.ServiceConfig{Catalog: cat, Sink: archive.Multi(sinks...), MaxSessions: 1}, logger)
	info, err := svc.CreateSession(ctx)
	if err != nil {
		logger.Error("session create failed", "err", err)
		os.Exit(1)
	}
	strategy := game.Strategy{
		RestockBelow:    cfg.Strategy.RestockBelow,
		RestockQuantity: cfg.Strategy.RestockQuantity,
		TargetMarkup:    cfg.Strategy.TargetMarkup,
		CashReserve:     cfg.Strategy.CashReserve,
	}

	if cfg.RunOnce {
		if _, err := playDay(ctx, svc, info.ID, strategy, logger); err != nil {
			logger.Error("day failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	var tick <-chan time.Time
	if cfg.TickEvery > 0 {
		ticker := time.NewTicker(cfg.TickEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	logger.Info("worker started", "session_id", info.ID, "days", cfg.Days, "tick_every", cfg.TickEvery.String())
	for day := 0; day < cfg.Days; day++ {
		if tick != nil && day > 0 {
			select {
			case <-ctx.Done():
				logger.Info("worker shutdown")
				return
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			logger.Info("worker shutdown")
			return
		}
		r, err := playDay(ctx, svc, info.ID, strategy, logger)
		if err != nil {
			logger.Error("day failed", "err", err)
			os.Exit(1)
		}
		if r.Bankrupt {
			logger.Warn("went bankrupt, stopping", "day", r.Day, "cash", r.CashAfter)
			break
		}
	}

	st, err := svc.Status(ctx, info.ID)
	if err != nil {
		logger.Error("final status failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker finished", "day", st.Day, "cash", st.Cash, "net_worth", st.NetWorth, "market_share", st.MarketShare)
}

func archiveTarget(cfg config.WorkerConfig) (db.Dialect, string) {
	switch {
	case cfg.DatabaseURL != "":
		return db.DialectPostgres, cfg.DatabaseURL
	case cfg.SQLitePath != "":
		return db.DialectSQLite, cfg.SQLitePath
	default:
		return "", ""
	}
}

// playDay lets the strategy act on the current state, then advances the clock.
func playDay(ctx context.Context, svc *game.Service, sessionID string, st game.Strategy, logger *slog.Logger) (game.DayResult, error) {
	var plan []game.Command
	err := svc.View(ctx, sessionID, func(g *game.GameState) error {
		plan = st.Plan(g)
		return nil
	})
	if err != nil {
		return game.DayResult{}, err
	}
	for _, c := range plan {
		if _, err := svc.Apply(ctx, game.ApplyInput{SessionID: sessionID, Command: c}); err != nil {
			logger.Debug("autoplay command rejected", "action", c.Action, "err", err)
		}
	}
	return svc.AdvanceDay(ctx, sessionID, "")
}
