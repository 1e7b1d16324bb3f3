package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/app"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/dedup"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/export"
	"github.com/joseph-ayodele/bizscan/internal/ingest"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of certificate images (required)")
		out        = flag.String("out", "", "output XLSX path (defaults to <dir>/../bizscan.xlsx)")
		discard    = flag.Bool("discard", false, "drop businesses registered on every platform")
		reviewAll  = flag.Bool("review", false, "run a batch text review before writing the workbook")
		partial    = flag.Bool("partial", false, "write the summary block above the table")
		maxRetries = flag.Int("max-retries", -1, "per-item retry budget (default from env)")
		delay      = flag.Duration("delay", -1, "pause between items (default from env)")
		level      = flag.String("log", "info", "log level")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "bizscan.xlsx")
	}

	logger := app.NewLogger(*level)
	common.LoadDotEnv(logger)
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if *discard {
		cfg.Pipeline.DiscardSaturated = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	images, skipped, stats, err := ingest.ScanDirectory(ctx, *dir, true, ingest.DefaultMaxFileBytes, logger)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	if len(images) == 0 {
		logger.Error("no images found", "dir", *dir, "matched", stats.Matched, "skipped", len(skipped))
		os.Exit(1)
	}

	files := make([]pipeline.File, len(images))
	for i, img := range images {
		files[i] = pipeline.File{Name: img.Name, Data: img.Data}
	}

	comps := app.Build(cfg, logger)
	opts := app.BatchOptions(cfg)
	if *maxRetries >= 0 {
		opts = append(opts, pipeline.WithMaxRetries(*maxRetries))
	}
	if *delay >= 0 {
		opts = append(opts, pipeline.WithItemDelay(*delay))
	}
	opts = append(opts, pipeline.WithObserver(progressPrinter()))

	start := time.Now()
	batch := pipeline.NewOrchestrator(uuid.NewString(), comps.Processor, files, logger, opts...)
	runErr := batch.Run(ctx)
	snap := batch.Snapshot()

	// an interrupted or halted run still writes what it has
	interrupted := runErr != nil || snap.State != constants.BatchDone
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("batch stopped", "state", snap.State, "error", runErr)
	}

	if *reviewAll && len(snap.Records) > 0 && !interrupted {
		res := comps.Reviewer.ReviewBatch(context.Background(), snap.Records)
		merged := dedup.Merge(res.Records, nil)
		snap.Records = merged.Merged
		logger.Info("batch reviewed", "corrections", len(res.Corrections), "duplicates_removed", len(merged.DuplicatesRemoved))
	}

	data, err := render(snap, *partial || interrupted)
	if err != nil {
		logger.Error("failed to render workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("workbook written",
		"path", *out,
		"state", snap.State,
		"records", len(snap.Records),
		"failed", len(snap.Failed),
		"discarded", snap.Discarded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	for _, f := range snap.Failed {
		printError("failed: %s (%d retries): %s\n", f.FileName, f.RetryCount, f.Error)
	}
	if interrupted {
		os.Exit(3)
	}
}

func render(snap entity.Snapshot, partial bool) ([]byte, error) {
	r := export.NewRenderer(nil)
	ctx := context.Background()
	if partial {
		return r.RenderPartial(ctx, snap)
	}
	return r.Render(ctx, snap.Records)
}

// progressPrinter writes a progress line whenever the processed count moves.
func progressPrinter() pipeline.Observer {
	last := -1
	return func(s entity.Snapshot) {
		if s.Progress.Processed == last {
			return
		}
		last = s.Progress.Processed
		printError("[%d/%d] %.0f%% %s\n", s.Progress.Processed, s.Progress.Total, s.Progress.Fraction*100, s.Progress.CurrentFile)
	}
}
