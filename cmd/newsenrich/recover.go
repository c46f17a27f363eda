package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/config"
	"github.com/ncortes/newsenrich/dataset"
	"github.com/ncortes/newsenrich/enrich"
)

func handleRecover(args []string) {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)
	file := fs.String("file", "", "Workbook to recover into (required)")
	configPath := fs.String("config", "", "Config file path")
	noBackup := fs.Bool("no-backup", false, "Skip the pre-recovery workbook backup")
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

	// Recovery is nothing without the cache, so an unopenable cache is
	// fatal here, unlike in run.
	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	wb, err := dataset.Open(*file, cfg.InputSheet, cfg.OutputSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open workbook: %v\n", err)
		os.Exit(1)
	}
	defer wb.Close()

	if !*noBackup {
		backupPath, err := dataset.Backup(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to back up workbook: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Backup: %s\n", backupPath)
	}

	stats, err := enrich.Recover(wb, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: recovery failed: %v\n", err)
		os.Exit(1)
	}

	if err := wb.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("✓ Recovery completed:")
	fmt.Printf("  Rows recovered:    %d\n", stats.Recovered)
	fmt.Printf("  URL only:          %d\n", stats.Partial)
	fmt.Printf("  Not in cache:      %d\n", stats.Missed)
}
