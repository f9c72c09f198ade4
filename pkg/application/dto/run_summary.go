package dto

import (
	"time"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// RunSummary describes one completed picking run
type RunSummary struct {
	RunID   string
	Backend string
	Input   string
	Output  string

	Started  time.Time
	Finished time.Time

	Orders             int
	RejectedOrders     int
	RejectedStockLines int
	FulfillmentRecords int
	BackorderRecords   int
	DepletedLines      int
	RemainingLines     int
	Picked             entities.Quantity
	Unmet              entities.Quantity

	Outcomes []OrderOutcome
	// Issues lists the row problems that were skipped, inventory first
	Issues []error
}

// Duration returns the wall time of the run
func (s *RunSummary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Backorders returns the outcomes that left an unmet remainder
func (s *RunSummary) Backorders() []OrderOutcome {
	var out []OrderOutcome
	for _, outcome := range s.Outcomes {
		if outcome.Backordered() {
			out = append(out, outcome)
		}
	}
	return out
}
