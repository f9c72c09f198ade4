package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/config"
	"github.com/vsinha/stockpick/pkg/interfaces/cli/commands"
	"github.com/vsinha/stockpick/pkg/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Command line flags
	var (
		input      = flag.String("input", "", "Workbook file, csv directory, spreadsheet ID or dataset key")
		backend    = flag.String("backend", "", "Store backend: workbook, csv, sheets, mysql, mongodb")
		outputDir  = flag.String("output", "", "Output directory or target location (optional)")
		schemaFile = flag.String("schema", "", "YAML file renaming ledger tables and columns")
		format     = flag.String("format", "text", "Summary format: text, json, csv")
		strict     = flag.Bool("strict", false, "Abort the run when any row is invalid")
		verbose    = flag.Bool("verbose", false, "Enable verbose output")
		envFile    = flag.String("env", "", "Environment file (default: .env)")
		watch      = flag.Bool("watch", false, "Poll the inbox instead of running once")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	if *help {
		commands.ShowHelp(os.Stdout)
		return nil
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, *input, *backend, *outputDir, *schemaFile, *strict, *verbose)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	baseLogger, err := logger.New(cfg.Run.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	if *watch {
		inbox := cfg.Watch.Inbox
		if cfg.Store.Input != "" {
			inbox = cfg.Store.Input
		}
		cmd := commands.NewWatchCommand(commands.WatchConfig{
			Inbox:     inbox,
			Schedule:  cfg.Watch.Schedule,
			OutputDir: cfg.Store.OutputDir,
			Extension: app.watchExtension,
			Format:    *format,
			Verbose:   cfg.Run.Verbose,
		}, app.fs, app.orchestrator, os.Stdout, logger.Named(baseLogger, "watch"))
		return cmd.Execute(ctx)
	}

	cmd := commands.NewPickCommand(commands.Config{
		Input:      cfg.Store.Input,
		Backend:    cfg.Store.Backend,
		OutputDir:  cfg.Store.OutputDir,
		SchemaFile: cfg.Store.SchemaFile,
		Format:     *format,
		Strict:     cfg.Run.Strict,
		Verbose:    cfg.Run.Verbose,
	}, app.orchestrator, os.Stdout)

	if err := cmd.Execute(ctx); err != nil {
		baseLogger.Debug("run aborted", zap.Error(err))
		return err
	}
	return nil
}

// applyFlags lets command line flags override the environment
func applyFlags(cfg *config.Config, input, backend, outputDir, schemaFile string, strict, verbose bool) {
	if input != "" {
		cfg.Store.Input = input
	}
	if backend != "" {
		cfg.Store.Backend = backend
	}
	if outputDir != "" {
		cfg.Store.OutputDir = outputDir
	}
	if schemaFile != "" {
		cfg.Store.SchemaFile = schemaFile
	}
	if strict {
		cfg.Run.Strict = true
	}
	if verbose {
		cfg.Run.Verbose = true
	}
}
