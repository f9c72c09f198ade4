package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vsinha/stockpick/pkg/application/dto"
	"github.com/vsinha/stockpick/pkg/application/services/orchestration"
	"github.com/vsinha/stockpick/pkg/interfaces/cli/output"
)

// Runner performs one picking run
type Runner interface {
	Run(ctx context.Context, req orchestration.RunRequest) (*dto.RunSummary, error)
}

// Config holds configuration for the pick command
type Config struct {
	Input      string
	Backend    string
	OutputDir  string
	SchemaFile string
	Format     string
	Strict     bool
	Verbose    bool
	Help       bool
}

// PickCommand runs one picking pass over a stock ledger and reports it
type PickCommand struct {
	config Config
	runner Runner
	out    io.Writer
}

// NewPickCommand creates a new pick command with the given configuration
func NewPickCommand(config Config, runner Runner, out io.Writer) *PickCommand {
	return &PickCommand{
		config: config,
		runner: runner,
		out:    out,
	}
}

// Execute runs the pick command
func (c *PickCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		ShowHelp(c.out)
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader()
	}

	summary, err := c.runner.Run(ctx, orchestration.RunRequest{
		Input:     c.config.Input,
		OutputDir: c.config.OutputDir,
	})
	if err != nil {
		return fmt.Errorf("picking run failed: %w", err)
	}

	if err := output.Generate(c.out, summary, output.Config{
		Format:  c.config.Format,
		Verbose: c.config.Verbose,
	}); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 Picking run complete!")
	}
	return nil
}

// validateInputs validates the command configuration
func (c *PickCommand) validateInputs() error {
	if c.config.Input == "" {
		return fmt.Errorf("must specify -input (workbook, csv directory, spreadsheet ID or dataset key)")
	}
	switch c.config.Format {
	case "", "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	return nil
}

// printHeader prints the command header information
func (c *PickCommand) printHeader() {
	fmt.Fprintf(c.out, "🚀 Stock Picking CLI\n")
	fmt.Fprintf(c.out, "Input: %s (%s)\n", c.config.Input, c.config.Backend)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output location: %s\n", c.config.OutputDir)
	}
	if c.config.SchemaFile != "" {
		fmt.Fprintf(c.out, "Schema file: %s\n", c.config.SchemaFile)
	}
	if c.config.Strict {
		fmt.Fprintf(c.out, "Strict mode: any invalid row aborts the run\n")
	}
	fmt.Fprintln(c.out)
}

// ShowHelp displays the help message
func ShowHelp(w io.Writer) {
	fmt.Fprintf(w, `Stock Picking CLI - allocate open orders against stock lots

USAGE:
    stockpick -input <location> [options]     # Run one picking pass
    stockpick -watch -input <inbox> [options] # Pick every ledger dropped in an inbox

OPTIONS:
    -input <loc>        Workbook file, csv directory, spreadsheet ID or dataset key
    -backend <name>     Store backend: workbook, csv, sheets, mysql, mongodb (default: workbook)
    -output <loc>       Output directory, or target spreadsheet/dataset for sheets, mysql and mongodb
    -schema <file>      YAML file renaming tables and columns
    -format <fmt>       Summary format: text, json, csv (default: text)
    -strict             Abort the run when any row is invalid
    -verbose            Enable verbose output and per-order narration
    -env <file>         Environment file (default: .env)
    -watch              Poll the inbox on WATCH_SCHEDULE instead of running once
    -help               Show this help message

LEDGER TABLES:
    Stock-In-Hand   Sl No, Part Number, Part Description, Qty, Batch/ Case, ...
    New-Order       Part Number, Part Description, Req-Qty, REFERENCE, D/NO, Date, Mail Reference
    Out-stock       picked lines, stamped with the order reference
    Not-Available   Sl No, Part Number, Part Description, Req-Qty, REFERENCE, D/NO, Date, Mail Reference, NA-Qty

    Other tables are carried through unchanged. A run writes all tables to one
    new artifact named <input>_YYYYMMDD_HHMMSS; nothing is written if it fails.

ENVIRONMENT:
    STOCKPICK_BACKEND, STOCKPICK_INPUT, STOCKPICK_OUTPUT_DIR, STOCKPICK_SCHEMA_FILE,
    GOOGLE_SHEETS_CREDENTIALS_PATH, MYSQL_DSN, MONGODB_URI, MONGODB_DB_NAME,
    REDIS_ADDR (run lock), AMQP_URL (events), WEBHOOK_URL, WATCH_INBOX,
    WATCH_SCHEDULE, TRACE_ENABLED

EXAMPLES:
    # Pick a workbook, writing stock_<timestamp>.xlsx next to it
    stockpick -input data/stock.xlsx -verbose

    # Pick a csv export into another directory and print a JSON summary
    stockpick -backend csv -input data/stock -output results/ -format json

    # Pick a Google spreadsheet in place
    stockpick -backend sheets -input 1AbCdEf...

    # Watch an inbox every five minutes
    WATCH_SCHEDULE="@every 5m" stockpick -watch -input inbox/
`)
}
