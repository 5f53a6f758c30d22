package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bockeljd/basement-bets-sub000/config"
	"github.com/bockeljd/basement-bets-sub000/internal/adapters/notify"
	"github.com/bockeljd/basement-bets-sub000/internal/adapters/scores"
	"github.com/bockeljd/basement-bets-sub000/internal/adapters/storage"
	"github.com/bockeljd/basement-bets-sub000/internal/ledger"
	"github.com/bockeljd/basement-bets-sub000/internal/ports"
	"github.com/bockeljd/basement-bets-sub000/internal/reconcile"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one reconciliation pass and exit")
	dryRun := flag.Bool("dry-run", false, "use an empty in-memory score provider instead of the real API")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full report table (default: compact 1-line)")
	auditBet := flag.String("audit", "", "print the audit trail for a bet id and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("ledger starting",
		"config", *configPath,
		"interval", cfg.ReconcileInterval(),
		"dry_run", *dryRun,
		"once", *once,
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	if *auditBet != "" {
		svc := ledger.New(store, cfg.Ledger.ParserVersion)
		entries, err := svc.AuditTrail(context.Background(), *auditBet)
		if err != nil {
			slog.Error("audit trail failed", "err", err, "bet", *auditBet)
			os.Exit(1)
		}
		notifier.PrintAuditTrail(*auditBet, entries)
		return
	}

	var provider ports.ResultProvider
	if *dryRun {
		provider = scores.NewStatic()
	} else {
		provider = scores.NewClient(cfg.Scores.BaseURL, cfg.Scores.APIKey)
	}

	recCfg := reconcile.DefaultConfig()
	recCfg.Interval = cfg.ReconcileInterval()
	recCfg.Workers = cfg.Reconcile.Workers
	recCfg.GradingVersion = cfg.Reconcile.GradingVersion
	recCfg.Filter.SportKey = cfg.Reconcile.SportKey

	cycle := reconcile.New(recCfg, store, store, provider, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		report, err := cycle.RunOnce(ctx, recCfg.Filter)
		if err != nil {
			slog.Error("reconciliation failed", "err", err)
			os.Exit(1)
		}
		if err := notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	if err := cycle.Run(ctx); err != nil {
		slog.Error("reconciler exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("ledger stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
