package events

import "time"

const (
	RunStartedEvent   = "run.started"
	RunCompletedEvent = "run.completed"
	RunFailedEvent    = "run.failed"

	BackorderRaisedEvent = "backorder.raised"
)

// AllEventTypes lists every event a picking run can emit
func AllEventTypes() []string {
	return []string{RunStartedEvent, RunCompletedEvent, RunFailedEvent, BackorderRaisedEvent}
}

type RunStarted struct {
	RunID   string    `json:"run_id"`
	Input   string    `json:"input"`
	Backend string    `json:"backend"`
	Started time.Time `json:"started_at"`
}

type RunCompleted struct {
	RunID              string    `json:"run_id"`
	Input              string    `json:"input"`
	Output             string    `json:"output"`
	Orders             int       `json:"orders"`
	RejectedOrders     int       `json:"rejected_orders"`
	RejectedStockLines int       `json:"rejected_stock_lines"`
	Picked             int64     `json:"picked"`
	Unmet              int64     `json:"unmet"`
	FulfillmentRecords int       `json:"fulfillment_records"`
	BackorderRecords   int       `json:"backorder_records"`
	DepletedLines      int       `json:"depleted_lines"`
	Completed          time.Time `json:"completed_at"`
}

type RunFailed struct {
	RunID  string `json:"run_id"`
	Input  string `json:"input"`
	Stage  string `json:"stage"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error"`
}

type BackorderRaised struct {
	RunID          string `json:"run_id"`
	PartNumber     string `json:"part_number"`
	Description    string `json:"description"`
	Reference      string `json:"reference"`
	DocumentNumber string `json:"document_number"`
	Required       int64  `json:"required"`
	Unmet          int64  `json:"unmet"`
}
