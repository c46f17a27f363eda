package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "run":
		handleRun(os.Args[2:])
	case "merge":
		handleMerge(os.Args[2:])
	case "recover":
		handleRecover(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "cache":
		if len(os.Args) < 3 {
			printCacheUsage()
			os.Exit(1)
		}
		handleCacheCommand(os.Args[2], os.Args[3:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("newsenrich - News dataset enrichment pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  newsenrich <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        Enrich a workbook (optionally as one of N workers)")
	fmt.Println("  merge      Merge worker outputs into the master workbook")
	fmt.Println("  recover    Fill unprocessed rows from the cache, no network")
	fmt.Println("  stats      Show enrichment progress for a workbook")
	fmt.Println("  cache      Inspect or clear the resolution/content cache")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  NEWSENRICH_CONFIG  Path to config file (default: ~/.newsenrich/config.yaml)")
}
