package entities

// LedgerHeaders keeps the header each ledger table was read with
type LedgerHeaders struct {
	Inventory   []string
	Demand      []string
	Fulfillment []string
	Backorder   []string
}

// Ledger is the typed view of the four ledger tables. A run takes exclusive
// ownership of it: the engine mutates inventory quantities in place, appends
// fulfillment and backorder records and drains the demand queue.
type Ledger struct {
	Inventory   []*InventoryLine
	Demand      []*DemandLine
	Fulfillment []*FulfillmentRecord
	Backorder   []*BackorderRecord
	Headers     LedgerHeaders
}

// Issues collects the validation issues of every rejected line, inventory
// first, in row order
func (l *Ledger) Issues() []error {
	var issues []error
	for _, line := range l.Inventory {
		if line.Issue != nil {
			issues = append(issues, line.Issue)
		}
	}
	for _, order := range l.Demand {
		if order.Issue != nil {
			issues = append(issues, order.Issue)
		}
	}
	return issues
}

// OnHand returns the total eligible quantity per part number
func (l *Ledger) OnHand() map[PartNumber]Quantity {
	totals := make(map[PartNumber]Quantity)
	for _, line := range l.Inventory {
		if line.Issue == nil {
			totals[line.PartNumber] += line.Quantity
		}
	}
	return totals
}
