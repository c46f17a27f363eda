package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ncortes/newsenrich/config"
	"github.com/ncortes/newsenrich/coordinate"
	"github.com/ncortes/newsenrich/dataset"
)

func handleMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	file := fs.String("file", "", "Master workbook (required)")
	configPath := fs.String("config", "", "Config file path")
	workers := fs.Int("workers", 0, "Number of worker outputs to merge (required)")
	noBackup := fs.Bool("no-backup", false, "Skip the pre-merge workbook backup")
	fs.Parse(args)

	if *file == "" || *workers < 1 {
		fmt.Fprintln(os.Stderr, "Error: -file and -workers are required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	master, err := dataset.Open(*file, cfg.InputSheet, cfg.OutputSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open workbook: %v\n", err)
		os.Exit(1)
	}
	defer master.Close()

	if !*noBackup {
		backupPath, err := dataset.Backup(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to back up workbook: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Backup: %s\n", backupPath)
	}

	report, err := coordinate.Merge(master, cfg.WorkDir, cfg.InputSheet, cfg.OutputSheet, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: merge failed: %v\n", err)
		os.Exit(1)
	}

	if err := master.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("✓ Merge completed:")
	fmt.Printf("  Workers merged: %d\n", report.WorkersMerged)
	fmt.Printf("  Rows merged:    %d\n", report.RowsMerged)
	fmt.Printf("  Conflicts:      %d\n", report.Conflicts)
	if len(report.MissingWorkers) > 0 {
		fmt.Printf("  Missing workers: %v\n", report.MissingWorkers)
	}
}
