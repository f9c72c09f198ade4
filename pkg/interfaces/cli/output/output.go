package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/vsinha/stockpick/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format  string
	Verbose bool
}

// Generate writes the run summary to w in the specified format
func Generate(w io.Writer, summary *dto.RunSummary, config Config) error {
	if summary == nil {
		return fmt.Errorf("no run summary to report")
	}

	switch config.Format {
	case "", "text":
		return generateTextOutput(w, summary, config)
	case "json":
		return generateJSONOutput(w, summary)
	case "csv":
		return generateCSVOutput(w, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(w io.Writer, summary *dto.RunSummary, config Config) error {
	p := &printer{w: w}

	p.printf("📊 Picking Run Summary\n")
	p.printf("======================\n\n")

	p.printf("Input:  %s\n", summary.Input)
	p.printf("Output: %s\n", summary.Output)
	if config.Verbose {
		p.printf("Run ID: %s\n", summary.RunID)
		p.printf("Backend: %s\n", summary.Backend)
		p.printf("Duration: %v\n", summary.Duration().Round(time.Millisecond))
	}
	p.printf("\n")

	p.printf("Orders processed: %d\n", summary.Orders)
	if summary.RejectedOrders > 0 {
		p.printf("Orders rejected: %d (still in the demand table)\n", summary.RejectedOrders)
	} else {
		p.printf("Orders rejected: 0\n")
	}
	p.printf("Stock lines rejected: %d\n", summary.RejectedStockLines)
	p.printf("Units picked: %d\n", summary.Picked)
	p.printf("Units backordered: %d\n", summary.Unmet)
	p.printf("Fulfillment records: %d\n", summary.FulfillmentRecords)
	p.printf("Backorder records: %d\n", summary.BackorderRecords)
	p.printf("Depleted stock lines removed: %d\n", summary.DepletedLines)
	p.printf("Stock lines remaining: %d\n\n", summary.RemainingLines)

	if config.Verbose && len(summary.Outcomes) > 0 {
		p.printf("📦 Orders:\n")
		p.printf("%-6s %-18s %-14s %-10s %-10s %-10s\n",
			"Row", "Part Number", "Reference", "Required", "Picked", "Unmet")
		p.printf("%-6s %-18s %-14s %-10s %-10s %-10s\n",
			"------", "------------------", "--------------", "----------", "----------", "----------")
		for _, outcome := range summary.Outcomes {
			p.printf("%-6d %-18s %-14s %-10d %-10d %-10d\n",
				outcome.DemandRow,
				outcome.PartNumber,
				outcome.Reference,
				outcome.Required,
				outcome.Picked,
				outcome.Unmet)
		}
		p.printf("\n")
	}

	if backorders := summary.Backorders(); len(backorders) > 0 {
		p.printf("⚠️  Backorders:\n")
		p.printf("%-18s %-14s %-10s %-10s %-8s\n",
			"Part Number", "Reference", "Required", "Unmet", "Stock")
		p.printf("%-18s %-14s %-10s %-10s %-8s\n",
			"------------------", "--------------", "----------", "----------", "--------")
		for _, outcome := range backorders {
			stock := "partial"
			if outcome.NoStock {
				stock = "none"
			} else if outcome.Picked == 0 {
				stock = "depleted"
			}
			p.printf("%-18s %-14s %-10d %-10d %-8s\n",
				outcome.PartNumber,
				outcome.Reference,
				outcome.Required,
				outcome.Unmet,
				stock)
		}
		p.printf("\n")
	}

	if len(summary.Issues) > 0 {
		p.printf("❗ Skipped rows (left in place for correction):\n")
		for _, issue := range summary.Issues {
			p.printf("  - %v\n", issue)
		}
		p.printf("\n")
	}

	return p.err
}

type jsonOutcome struct {
	Row        int    `json:"row"`
	PartNumber string `json:"part_number"`
	Reference  string `json:"reference"`
	Required   int64  `json:"required"`
	Picked     int64  `json:"picked"`
	Unmet      int64  `json:"unmet"`
	Picks      int    `json:"picks"`
	NoStock    bool   `json:"no_stock,omitempty"`
}

type jsonSummary struct {
	RunID              string        `json:"run_id"`
	Backend            string        `json:"backend"`
	Input              string        `json:"input"`
	Output             string        `json:"output"`
	Started            time.Time     `json:"started_at"`
	Finished           time.Time     `json:"finished_at"`
	DurationMillis     int64         `json:"duration_ms"`
	Orders             int           `json:"orders"`
	RejectedOrders     int           `json:"rejected_orders"`
	RejectedStockLines int           `json:"rejected_stock_lines"`
	FulfillmentRecords int           `json:"fulfillment_records"`
	BackorderRecords   int           `json:"backorder_records"`
	DepletedLines      int           `json:"depleted_lines"`
	RemainingLines     int           `json:"remaining_lines"`
	Picked             int64         `json:"picked"`
	Unmet              int64         `json:"unmet"`
	Outcomes           []jsonOutcome `json:"outcomes"`
	Issues             []string      `json:"issues"`
}

// generateJSONOutput creates JSON output
func generateJSONOutput(w io.Writer, summary *dto.RunSummary) error {
	view := jsonSummary{
		RunID:              summary.RunID,
		Backend:            summary.Backend,
		Input:              summary.Input,
		Output:             summary.Output,
		Started:            summary.Started,
		Finished:           summary.Finished,
		DurationMillis:     summary.Duration().Milliseconds(),
		Orders:             summary.Orders,
		RejectedOrders:     summary.RejectedOrders,
		RejectedStockLines: summary.RejectedStockLines,
		FulfillmentRecords: summary.FulfillmentRecords,
		BackorderRecords:   summary.BackorderRecords,
		DepletedLines:      summary.DepletedLines,
		RemainingLines:     summary.RemainingLines,
		Picked:             int64(summary.Picked),
		Unmet:              int64(summary.Unmet),
		Outcomes:           make([]jsonOutcome, 0, len(summary.Outcomes)),
		Issues:             make([]string, 0, len(summary.Issues)),
	}
	for _, outcome := range summary.Outcomes {
		view.Outcomes = append(view.Outcomes, jsonOutcome{
			Row:        outcome.DemandRow,
			PartNumber: string(outcome.PartNumber),
			Reference:  outcome.Reference,
			Required:   int64(outcome.Required),
			Picked:     int64(outcome.Picked),
			Unmet:      int64(outcome.Unmet),
			Picks:      len(outcome.Picks),
			NoStock:    outcome.NoStock,
		})
	}
	for _, issue := range summary.Issues {
		view.Issues = append(view.Issues, issue.Error())
	}

	jsonData, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// generateCSVOutput writes one record per processed order
func generateCSVOutput(w io.Writer, summary *dto.RunSummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"run_id", "row", "part_number", "reference", "required", "picked", "unmet", "picks"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, outcome := range summary.Outcomes {
		record := []string{
			summary.RunID,
			strconv.Itoa(outcome.DemandRow),
			string(outcome.PartNumber),
			outcome.Reference,
			outcome.Required.String(),
			outcome.Picked.String(),
			outcome.Unmet.String(),
			strconv.Itoa(len(outcome.Picks)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// printer keeps the first write error so the text report reads linearly
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
