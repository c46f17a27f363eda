package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ncortes/newsenrich/config"
	"github.com/ncortes/newsenrich/coordinate"
	"github.com/ncortes/newsenrich/dataset"
	"github.com/ncortes/newsenrich/enrich"
)

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	file := fs.String("file", "", "Workbook to inspect (required)")
	configPath := fs.String("config", "", "Config file path")
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

	wb, err := dataset.Open(*file, cfg.InputSheet, cfg.OutputSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open workbook: %v\n", err)
		os.Exit(1)
	}
	defer wb.Close()

	report, err := enrich.Summarize(wb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to summarize workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Workbook: %s\n", wb.Path())
	fmt.Printf("  Rows:    %d\n", report.Rows)
	fmt.Printf("  Pending: %d\n", report.Pending)
	fmt.Println()
	fmt.Println("By status:")
	printSorted(report.ByStatus)
	fmt.Println()
	fmt.Println("By resolution method:")
	printSorted(report.ByMethod)
	fmt.Println()
	fmt.Printf("Total words extracted: %d\n", report.TotalWord)

	printWorkerProgress(cfg.WorkDir)
}

func printWorkerProgress(workDir string) {
	all, err := coordinate.LoadAllProgress(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read progress files: %v\n", err)
		os.Exit(1)
	}
	if len(all) == 0 {
		return
	}

	ids := make([]int, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fmt.Println()
	fmt.Println("Workers:")
	for _, id := range ids {
		p := all[id]
		fmt.Printf("  worker %d: rows %d-%d, last row %d, %d processed, updated %s\n",
			p.WorkerID, p.StartRow, p.EndRow, p.LastRow, p.RowsProcessed,
			p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printSorted(counts map[string]int) {
	if len(counts) == 0 {
		fmt.Println("  (none)")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-22s %d\n", k, counts[k])
	}
}
