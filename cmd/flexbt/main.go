package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/flexbt/config"
	"github.com/alejandrodnm/flexbt/internal/adapters/csvio"
	"github.com/alejandrodnm/flexbt/internal/adapters/notify"
	"github.com/alejandrodnm/flexbt/internal/adapters/storage"
	"github.com/alejandrodnm/flexbt/internal/backtest"
	"github.com/alejandrodnm/flexbt/internal/domain"
	"github.com/alejandrodnm/flexbt/internal/ports"
	"github.com/alejandrodnm/flexbt/internal/report"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	input := flag.String("input", "", "input CSV path (overrides config)")
	output := flag.String("output", "", "output CSV path (overrides config)")
	initial := flag.Float64("initial", 0, "initial capital in USD (overrides config)")
	policyArg := flag.String("policy", "", "policy as JSON string or file path (overrides config)")
	table := flag.Bool("table", false, "print full snapshot table + metrics (default: compact 1-line)")
	noStore := flag.Bool("no-store", false, "skip archiving the run to SQLite")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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

	if *input != "" {
		cfg.Backtest.Input = *input
	}
	if *output != "" {
		cfg.Backtest.Output = *output
	}
	if *initial > 0 {
		cfg.Backtest.InitialUSD = *initial
	}

	norm := cfg.Normalizer()
	policy, err := resolvePolicy(*policyArg, cfg, norm)
	if err != nil {
		slog.Error("failed to resolve policy", "err", err)
		os.Exit(1)
	}

	slog.Info("flexbt starting",
		"config", *configPath,
		"input", cfg.Backtest.Input,
		"output", cfg.Backtest.Output,
		"initial", cfg.Backtest.InitialUSD,
		"policy_combinations", len(policy),
	)

	tbl, events, err := csvio.Read(cfg.Backtest.Input)
	if err != nil {
		slog.Error("failed to read input", "err", err)
		os.Exit(1)
	}
	slog.Debug("input loaded", "events", len(events))

	snapshots, err := backtest.RunWithNormalizer(events, policy, cfg.Backtest.InitialUSD, norm)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	if err := csvio.Write(cfg.Backtest.Output, tbl, snapshots); err != nil {
		slog.Error("failed to write output", "err", err)
		os.Exit(1)
	}

	run := buildRunRecord(cfg, policy, snapshots)
	metrics := report.Compute(report.DailyEquity(snapshots))

	var notifier ports.Notifier = notify.NewConsole(*table)
	if err := notifier.Notify(context.Background(), run, snapshots, metrics); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if !*noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Warn("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		} else {
			defer store.Close()
			archiveRun(store, run, snapshots)
		}
	}

	slog.Info("backtest complete",
		"run", run.ID,
		"events", run.Events,
		"switches", run.Switches,
		"final_value", run.FinalValue,
		"output", cfg.Backtest.Output,
	)
}

// resolvePolicy aplica la precedencia: flag -policy (JSON directo o ruta de
// archivo) > policy del config YAML > policy por defecto.
func resolvePolicy(arg string, cfg *config.Config, norm domain.Normalizer) (domain.Policy, error) {
	if arg == "" {
		return cfg.Policy()
	}
	text := arg
	if data, err := os.ReadFile(arg); err == nil {
		text = string(data)
	}
	return domain.ParsePolicyJSON(text, norm)
}

func buildRunRecord(cfg *config.Config, policy domain.Policy, snapshots []domain.Snapshot) domain.RunRecord {
	run := domain.RunRecord{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		Input:          cfg.Backtest.Input,
		InitialCapital: cfg.Backtest.InitialUSD,
		Events:         len(snapshots),
		Switches:       backtest.CountSwitches(snapshots),
	}
	if len(snapshots) > 0 {
		run.FinalValue = snapshots[len(snapshots)-1].TotalValueUSD
	}
	if data, err := json.Marshal(policy); err == nil {
		run.PolicyJSON = string(data)
	}
	return run
}

// archiveRun guarda el run en el storage. Best-effort: un fallo de archivo
// no invalida el backtest, que ya está en el CSV de salida.
func archiveRun(store ports.Storage, run domain.RunRecord, snapshots []domain.Snapshot) {
	if err := store.SaveRun(context.Background(), run, snapshots); err != nil {
		slog.Warn("failed to archive run", "err", err, "run", run.ID)
		return
	}
	slog.Debug("run archived", "run", run.ID)
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
