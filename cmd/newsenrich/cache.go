package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/config"
)

func handleCacheCommand(action string, args []string) {
	fs := flag.NewFlagSet("cache "+action, flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch action {
	case "info":
		handleCacheInfo(cfg.CachePath)
	case "clear":
		handleCacheClear(cfg.CachePath)
	case "help", "--help", "-h":
		printCacheUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown cache command: %s\n\n", action)
		printCacheUsage()
		os.Exit(1)
	}
}

func handleCacheInfo(path string) {
	store, err := cache.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	resolved, failed, contents, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read cache stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Cache: %s\n", path)
	fmt.Printf("  Resolved URLs:      %d\n", resolved)
	fmt.Printf("  Failed resolutions: %d\n", failed)
	fmt.Printf("  Cached contents:    %d\n", contents)
}

func handleCacheClear(path string) {
	store, err := cache.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to clear cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Cache cleared")
}

func printCacheUsage() {
	fmt.Println("newsenrich cache - Inspect or clear the resolution/content cache")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  newsenrich cache <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  info       Show entry counts")
	fmt.Println("  clear      Remove every cached entry")
	fmt.Println("  help       Show this help message")
}
