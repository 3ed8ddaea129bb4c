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

	"trade-autopsy/internal/inference"
	"trade-autopsy/internal/journal"
	"trade-autopsy/internal/logger"
	"trade-autopsy/internal/report"
	"trade-autopsy/internal/trace"
	"trade-autopsy/internal/types"
)

const (
	exitOK            = 0
	exitError         = 1
	exitLowConfidence = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file (default ./config.yaml if present)")
	format := flag.String("format", "", "output format: text, json, or csv (default from config)")
	outputDir := flag.String("output", "", "save the report into this directory (optional)")
	save := flag.Bool("save", false, "save the report into report.output_dir from config")
	ordering := flag.String("ordering", "", "summary ordering: input or timestamp (default from config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file|-> [file...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one input file (or - for stdin) is required")
		flag.Usage()
		return exitError
	}

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = trace.Shutdown(shutdownCtx)
	}()

	runID := uuid.NewString()
	ctx, span := trace.StartSpan(ctx, "autopsy.run")
	defer span.End()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}

	fmtName := cfg.Report.Format
	if *format != "" {
		fmtName = *format
	}
	reportFormat, err := report.ParseFormat(fmtName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	var opts []inference.Option
	if *ordering != "" {
		o := types.Ordering(*ordering)
		if o != types.OrderingInput && o != types.OrderingTimestamp {
			fmt.Fprintf(os.Stderr, "Error: invalid ordering %q\n", *ordering)
			return exitError
		}
		opts = append(opts, inference.WithOrdering(o))
	}

	logger.Info(ctx, "Starting trade autopsy", "run_id", runID, "inputs", flag.NArg())

	blocks, err := loadBlocks(ctx, flag.Args(), os.Stdin, initializeExtractor(cfg))
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to read input", err, "run_id", runID)
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return exitError
	}

	rec := initializeMetrics(cfg)
	inferer := initializeInferer(ctx, cfg, rec, opts...)
	result := inferer.Infer(ctx, blocks)

	rep := &report.Report{
		RunID:     runID,
		Generated: time.Now(),
		Sources:   flag.Args(),
		Result:    result,
	}
	saveDir := *outputDir
	if saveDir == "" && *save {
		saveDir = cfg.Report.OutputDir
	}
	reporter := report.NewReporter(saveDir)
	out, err := reporter.Generate(rep, reportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		return exitError
	}
	fmt.Println(out)

	if saveDir != "" {
		path, err := reporter.Save(rep, reportFormat)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to save report", err, "dir", saveDir)
			fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
			return exitError
		}
		logger.Info(ctx, "Report saved", "path", path)
	}

	platforms := make([]types.Platform, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		platforms = append(platforms, b.Platform)
	}
	recordRun(ctx, cfg, journal.Entry{
		RunID:      runID,
		Sources:    flag.Args(),
		Platforms:  platforms,
		Confidence: result.Confidence,
		TradeCount: len(result.Trades),
		Summary:    result.AccountSummary,
	})
	writeMetrics(ctx, cfg, rec, result)

	if result.Confidence == types.ConfidenceLow {
		return exitLowConfidence
	}
	return exitOK
}
