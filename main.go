package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"oiflow/config"
	"oiflow/internal/history"
	"oiflow/internal/live"
	"oiflow/internal/metrics"
	"oiflow/internal/models"
	"oiflow/internal/store"
	"oiflow/internal/writer"
	"oiflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	overridesPath := flag.String("overrides", "", "Path to manual overrides file (defaults to history.overrides_path)")
	startDate := flag.String("start", "", "First archive day to process, YYYYMMDD (defaults to history.start_date)")
	mode := flag.String("mode", "history", "Run mode: history or latest")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if *startDate != "" {
		if _, err := time.Parse("20060102", *startDate); err != nil {
			log.WithError(err).Error("start date must be YYYYMMDD")
			os.Exit(1)
		}
		cfg.History.StartDate = *startDate
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	runID := uuid.New().String()
	log.WithFields(logger.Fields{
		"service": cfg.Oiflow.Name,
		"version": cfg.Oiflow.Version,
		"run_id":  runID,
		"mode":    *mode,
	}).Info("starting oiflow")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "history":
		if err := runHistory(ctx, cfg, *overridesPath, runID, log); err != nil {
			log.WithError(err).Error("history rebuild failed")
			os.Exit(1)
		}
	case "latest":
		if err := runLatest(ctx, cfg, log); err != nil {
			log.WithError(err).Error("live snapshot failed")
			os.Exit(1)
		}
	default:
		log.WithFields(logger.Fields{"mode": *mode}).Error("unknown run mode")
		os.Exit(2)
	}

	log.Info("oiflow finished")
}

// runHistory rebuilds the full daily series and persists the artifact.
func runHistory(ctx context.Context, cfg *config.Config, overridesPath, runID string, log *logger.Log) error {
	started := time.Now()

	if overridesPath == "" {
		overridesPath = cfg.History.OverridesPath
	}
	var overrides models.OverrideTable
	if overridesPath != "" {
		table, err := config.LoadOverrides(overridesPath)
		if err != nil {
			return err
		}
		overrides = table
		log.WithFields(logger.Fields{"entries": len(overrides), "path": overridesPath}).Info("loaded manual overrides")
	}

	objStore, err := store.NewS3Store(ctx, cfg)
	if err != nil {
		return err
	}

	builder := history.NewBuilder(cfg, objStore, overrides)
	series, stats, err := builder.Run(ctx)
	if err != nil {
		return err
	}

	if err := writer.NewHistoryWriter(cfg).Write(series); err != nil {
		return err
	}

	publisher, err := metrics.NewPublisher(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("metrics publisher unavailable")
	} else if publisher != nil {
		if err := publisher.PublishRun(ctx, runID, stats, time.Since(started)); err != nil {
			log.WithError(err).Warn("failed to publish run metrics")
		}
	}

	logger.LogPerformanceEntry(log.WithComponent("main"), "main", "history_rebuild", time.Since(started), logger.Fields{
		"days": len(series),
	})
	return nil
}

// runLatest prints the venue's current aggregate notional open interest.
func runLatest(ctx context.Context, cfg *config.Config, log *logger.Log) error {
	total, instruments, err := live.NewClient(cfg).TotalOpenInterest(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"total_oi":    total,
		"instruments": instruments,
	}).Info("live open interest")
	fmt.Printf("%.0f\n", total)
	return nil
}
