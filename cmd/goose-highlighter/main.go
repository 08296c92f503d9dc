package main

import (
	"fmt"
	"os"

	"github.com/gooseworks/highlighter/pkg/config"
	flag "github.com/spf13/pflag"
)

func main() {
	var opts RunOptions
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.StorePath, "store", "", "Path to settings database")
	flag.StringVar(&opts.PagePath, "page", "-", "HTML page to highlight (- for stdin)")
	flag.StringVar(&opts.Host, "host", "", "Hostname the page was loaded from (for exception gating)")
	flag.BoolVar(&opts.Summary, "summary", true, "Print per-word match counts")
	flag.BoolVar(&opts.Render, "render", false, "Print matched text nodes with match markers")
	flag.StringVar(&opts.Navigate, "navigate", "", "Navigate to occurrence, e.g. word or word:2")
	flag.StringVar(&opts.ImportPath, "import", "", "Import word lists from a JSON file before highlighting")
	flag.BoolVar(&opts.Export, "export", false, "Print the stored word lists as JSON and exit")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if configPath != "" {
		if err := os.Setenv("GOOSE_HIGHLIGHT_CONFIG", configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApplication(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("goose-highlighter - highlight configured words in an HTML page")
	fmt.Println()
	fmt.Println("Usage: goose-highlighter [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  GOOSE_HIGHLIGHT_CONFIG    Path to config file")
	fmt.Println("  GOOSE_HIGHLIGHT_STORE     Path to settings database")
	fmt.Println("  GOOSE_HIGHLIGHT_DEBOUNCE  Mutation debounce window (e.g. 300ms)")
	fmt.Println("  GOOSE_HIGHLIGHT_FLASH     Navigation flash duration (e.g. 600ms)")
	fmt.Println("  GOOSE_HIGHLIGHT_DEBUG     Enable debug logging (true/false)")
}
