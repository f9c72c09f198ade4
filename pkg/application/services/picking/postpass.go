package picking

import "github.com/vsinha/stockpick/pkg/domain/entities"

// pruneDepleted drops inventory lines left at zero and returns how many went.
// Rejected lines are kept as they were read.
func pruneDepleted(ledger *entities.Ledger) int {
	kept := ledger.Inventory[:0]
	pruned := 0
	for _, line := range ledger.Inventory {
		if line.Depleted() {
			pruned++
			continue
		}
		kept = append(kept, line)
	}
	for i := len(kept); i < len(ledger.Inventory); i++ {
		ledger.Inventory[i] = nil
	}
	ledger.Inventory = kept
	return pruned
}

// renumber assigns contiguous sequence numbers from 1 to the inventory,
// fulfillment and backorder tables in their current order
func renumber(ledger *entities.Ledger) {
	for i, line := range ledger.Inventory {
		line.SequenceNumber = i + 1
	}
	for i, record := range ledger.Fulfillment {
		record.SequenceNumber = i + 1
	}
	for i, record := range ledger.Backorder {
		record.SequenceNumber = i + 1
	}
}

// drainDemand empties the demand queue of every processed order. Orders that
// failed validation stay behind so they can be corrected and rerun.
func drainDemand(ledger *entities.Ledger) {
	var rejected []*entities.DemandLine
	for _, order := range ledger.Demand {
		if order.Rejected() {
			rejected = append(rejected, order)
		}
	}
	ledger.Demand = rejected
}
