package dto

import (
	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// PickKind classifies how one inventory line served an order
type PickKind int

const (
	// ExactPick consumed the whole line and completed the order
	ExactPick PickKind = iota
	// PartialPick completed the order and left stock on the line
	PartialPick
	// ExhaustPick consumed the whole line without completing the order
	ExhaustPick
)

// String method for PickKind enum
func (k PickKind) String() string {
	switch k {
	case ExactPick:
		return "Exact"
	case PartialPick:
		return "Partial"
	case ExhaustPick:
		return "Exhaust"
	default:
		return "Unknown"
	}
}

// Pick records one draw from an inventory line
type Pick struct {
	// InventoryIndex is the line's position in the pre-run inventory table
	InventoryIndex int
	InventoryRow   int
	Kind           PickKind
	Quantity       entities.Quantity
	LeftOnLine     entities.Quantity
}

// OrderOutcome summarizes the allocation of one demand line
type OrderOutcome struct {
	DemandRow  int
	PartNumber entities.PartNumber
	Reference  string
	Required   entities.Quantity
	Picked     entities.Quantity
	Unmet      entities.Quantity
	Picks      []Pick
	// NoStock is set when no inventory line carried the part at all
	NoStock bool
}

// Backordered reports whether the order left an unmet remainder
func (o OrderOutcome) Backordered() bool {
	return o.Unmet > 0
}

// PickingResult contains the complete output of an allocation pass
type PickingResult struct {
	Ledger   *entities.Ledger
	Outcomes []OrderOutcome
	// Rejected lists the demand lines that were skipped for failing validation
	Rejected       []*entities.DemandLine
	DepletedLines  int
	FulfillmentNew int
	BackorderNew   int
}

// TotalPicked returns the quantity picked across all orders
func (r *PickingResult) TotalPicked() entities.Quantity {
	var total entities.Quantity
	for _, outcome := range r.Outcomes {
		total += outcome.Picked
	}
	return total
}

// TotalUnmet returns the quantity backordered across all orders
func (r *PickingResult) TotalUnmet() entities.Quantity {
	var total entities.Quantity
	for _, outcome := range r.Outcomes {
		total += outcome.Unmet
	}
	return total
}
