package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"trade-autopsy/internal/inference"
	"trade-autopsy/internal/inference/inferenceobs"
	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/journal"
	"trade-autopsy/internal/logger"
	"trade-autopsy/internal/metrics"
	"trade-autopsy/internal/ocr"
	"trade-autopsy/internal/store"
	"trade-autopsy/internal/trace"
	"trade-autopsy/internal/types"
)

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig reads path, falling back to ./config.yaml when it exists and
// to built-in defaults otherwise.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeInferer builds the engine with the log and metrics observers
// and wraps it with observability middleware.
func initializeInferer(ctx context.Context, cfg *store.Config, rec *metrics.Recorder, opts ...inference.Option) interfaces.Inferer {
	var obs []interfaces.InferenceObserver
	obs = append(obs, inferenceobs.NewLogObserver(ctx))
	if rec != nil {
		obs = append(obs, rec)
	}

	opts = append(opts, inference.WithObserver(inference.Observers(obs...)))
	return inferenceobs.Wrap(inference.New(cfg, opts...))
}

func initializeMetrics(cfg *store.Config) *metrics.Recorder {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewRecorder(prometheus.NewRegistry())
}

func initializeExtractor(cfg *store.Config) interfaces.TextExtractor {
	return ocr.New(cfg, os.Getenv)
}

func writeMetrics(ctx context.Context, cfg *store.Config, rec *metrics.Recorder, result types.InferenceResult) {
	if rec == nil {
		return
	}
	rec.RecordRun(result)
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn(ctx, "Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
}

// recordRun appends the run to the journal and compresses old day files
func recordRun(ctx context.Context, cfg *store.Config, e journal.Entry) {
	if !cfg.Journal.Enabled {
		return
	}
	j := journal.New(cfg.Journal.Dir)
	if err := j.Append(e); err != nil {
		logger.Warn(ctx, "Failed to append journal entry", "dir", cfg.Journal.Dir, "error", err)
	}
	if err := j.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	}
}
