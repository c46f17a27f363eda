package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/config"
	"github.com/ncortes/newsenrich/coordinate"
	"github.com/ncortes/newsenrich/dataset"
	"github.com/ncortes/newsenrich/enrich"
	"github.com/ncortes/newsenrich/extract"
	"github.com/ncortes/newsenrich/fetch"
	"github.com/ncortes/newsenrich/resolver"
)

func handleRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	file := fs.String("file", "", "Workbook to enrich (required)")
	configPath := fs.String("config", "", "Config file path")
	workerID := fs.Int("worker", 0, "Worker id (1-based, requires -workers)")
	workers := fs.Int("workers", 0, "Total worker count")
	start := fs.Int("start", 0, "First data row to process (1-based, single-worker only)")
	limit := fs.Int("limit", 0, "Maximum rows to process (0 = all)")
	noCache := fs.Bool("no-cache", false, "Run without the resolution/content cache")
	noBackup := fs.Bool("no-backup", false, "Skip the pre-run workbook backup")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 && (*workerID < 1 || *workerID > *workers) {
		fmt.Fprintf(os.Stderr, "Error: -worker must be between 1 and %d\n", *workers)
		os.Exit(1)
	}

	// A restarted worker continues on its own partial output, never on the
	// master: checkpoints rewrite the output file whole, so starting from
	// the master would drop every row finished before the interruption.
	sourcePath := *file
	if *workers > 0 {
		outputPath := coordinate.WorkerOutputPath(cfg.WorkDir, *workerID)
		if _, err := os.Stat(outputPath); err == nil {
			sourcePath = outputPath
		}
	}

	wb, err := dataset.Open(sourcePath, cfg.InputSheet, cfg.OutputSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open workbook: %v\n", err)
		os.Exit(1)
	}
	defer wb.Close()

	// Workers write separate partial files; only an in-place run touches
	// the original, so only that case gets a backup.
	if *workers == 0 && !*noBackup {
		backupPath, err := dataset.Backup(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to back up workbook: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Backup: %s\n", backupPath)
	}

	store := openCache(cfg.CachePath, *noCache)
	defer store.Close()

	client := fetch.NewClient(time.Duration(cfg.TimeoutSeconds) * time.Second)
	runner := &enrich.Runner{
		Workbook:      wb,
		Cache:         store,
		Resolver:      resolver.New(store, client),
		Extractor:     extract.New(client, cfg.MinContentChars),
		SaveFrequency: cfg.SaveFrequency,
	}

	first, last := rowRange(*start, *limit, wb.Rows())
	if *workers > 0 {
		assignment, err := coordinate.Partition(wb.Rows(), *workerID, *workers)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		progress, err := coordinate.LoadProgress(cfg.WorkDir, *workerID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if progress != nil && progress.StartRow == assignment.Start && progress.EndRow == assignment.End {
			fmt.Printf("Resuming worker %d from row %d\n", *workerID, progress.LastRow+1)
		} else {
			progress = coordinate.NewProgress(assignment)
		}

		first, last = progress.LastRow+1, assignment.End
		if *limit > 0 && first+*limit < last {
			last = first + *limit
		}
		runner.Progress = progress
		runner.WorkDir = cfg.WorkDir
		runner.OutputPath = coordinate.WorkerOutputPath(cfg.WorkDir, *workerID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := runner.Run(ctx, first, last)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("Interrupted; progress saved.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("✓ Run completed:")
	fmt.Printf("  Rows processed: %d\n", stats.Processed)
	fmt.Printf("  Successful:     %d\n", stats.Succeeded)
	fmt.Printf("  Unresolved:     %d\n", stats.Unresolved)
	fmt.Printf("  No content:     %d\n", stats.NoContent)
	fmt.Printf("  Skipped:        %d\n", stats.Skipped)
	fmt.Printf("  From cache:     %d\n", stats.FromCache)
}

// rowRange converts the 1-based -start flag and the -limit flag into the
// 0-based half-open processing range for a single-worker run.
func rowRange(start, limit, totalRows int) (first, last int) {
	first, last = 0, totalRows
	if start > 0 {
		first = start - 1
	}
	if limit > 0 && first+limit < last {
		last = first + limit
	}
	return first, last
}

// openCache opens the store, degrading to no cache on failure: the run is
// slower but still correct.
func openCache(path string, disabled bool) *cache.Store {
	if disabled {
		return nil
	}
	store, err := cache.Open(path)
	if err != nil {
		log.Printf("WARN: cache unavailable, continuing without it: %v", err)
		return nil
	}
	return store
}
