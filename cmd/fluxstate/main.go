// Package main is the entry point for the fluxstate scenario runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/fluxstate/internal/app"
	"github.com/dshills/fluxstate/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code, ok := parseFlags(args, stdout, stderr)
	if !ok {
		return code
	}
	opts.Output = stdout
	opts.LogOutput = stderr

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// parseFlags returns the options, or ok=false with the exit code to use.
func parseFlags(args []string, stdout, stderr io.Writer) (opts app.Options, code int, ok bool) {
	fs := flag.NewFlagSet("fluxstate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var showVersion bool
	var showHelp bool

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	fs.BoolVar(&opts.Watch, "watch", false, "Re-run the scenario when it or the config file changes")
	fs.BoolVar(&opts.Watch, "w", false, "Re-run on change (shorthand)")
	fs.BoolVar(&opts.TUI, "tui", false, "Show the document in the terminal while steps apply")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "fluxstate - run action scenarios against a JSON document store\n\n")
		fmt.Fprintf(stderr, "Usage: fluxstate [options] scenario.toml\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  fluxstate profile.toml               Run once and print the document\n")
		fmt.Fprintf(stderr, "  fluxstate -w profile.toml            Re-run whenever the file changes\n")
		fmt.Fprintf(stderr, "  fluxstate -tui profile.toml          Watch steps apply in the terminal\n")
		fmt.Fprintf(stderr, "  fluxstate -c fluxstate.toml x.toml   Use a config file\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0, false
		}
		return opts, 2, false
	}

	if showHelp {
		fs.Usage()
		return opts, 0, false
	}

	if showVersion {
		fmt.Fprintf(stdout, "fluxstate %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, 0, false
	}

	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			return opts, 1, false
		}
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, 2, false
	}
	opts.ScenarioPath = fs.Arg(0)

	return opts, 0, true
}
