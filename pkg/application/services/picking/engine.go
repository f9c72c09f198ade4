package picking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/application/dto"
	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// Engine allocates demand against inventory lines. It holds no state between
// runs; the ledger passed to Allocate is owned by the call for its duration.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new picking engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Allocate processes every valid demand line in table order, drawing from the
// matching inventory lines in table order, then prunes depleted lines,
// renumbers the output tables and drains the demand queue. Orders earlier in
// the table have priority on scarce stock.
//
// The ledger is checked before anything is mutated; on error it is untouched.
func (e *Engine) Allocate(ctx context.Context, ledger *entities.Ledger) (*dto.PickingResult, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if err := checkQuantities(ledger); err != nil {
		return nil, err
	}

	result := &dto.PickingResult{
		Ledger:   ledger,
		Outcomes: make([]dto.OrderOutcome, 0, len(ledger.Demand)),
	}

	fulfillmentBefore := len(ledger.Fulfillment)
	backorderBefore := len(ledger.Backorder)
	index := indexInventory(ledger.Inventory)

	for _, order := range ledger.Demand {
		if order.Rejected() {
			result.Rejected = append(result.Rejected, order)
			e.logger.Warn("order skipped",
				zap.Int("row", order.Row),
				zap.Error(order.Issue),
			)
			continue
		}

		outcome, err := e.allocateOrder(ledger, index, order)
		if err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.FulfillmentNew = len(ledger.Fulfillment) - fulfillmentBefore
	result.BackorderNew = len(ledger.Backorder) - backorderBefore
	result.DepletedLines = pruneDepleted(ledger)
	renumber(ledger)
	drainDemand(ledger)

	e.logger.Info("picking pass completed",
		zap.Int("orders", len(result.Outcomes)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("fulfillment_records", result.FulfillmentNew),
		zap.Int("backorder_records", result.BackorderNew),
		zap.Int("depleted_lines", result.DepletedLines),
		zap.Int64("picked", int64(result.TotalPicked())),
		zap.Int64("unmet", int64(result.TotalUnmet())),
	)

	return result, nil
}

// allocateOrder draws one order's required quantity from the lines listed in
// candidates, in order, and backorders whatever is left
func (e *Engine) allocateOrder(ledger *entities.Ledger, index map[entities.PartNumber][]int, order *entities.DemandLine) (dto.OrderOutcome, error) {
	remaining := order.RequiredQuantity
	candidates := index[order.PartNumber]

	outcome := dto.OrderOutcome{
		DemandRow:  order.Row,
		PartNumber: order.PartNumber,
		Reference:  order.Reference,
		Required:   order.RequiredQuantity,
		NoStock:    len(candidates) == 0,
	}

	log := e.logger.With(
		zap.Int("row", order.Row),
		zap.String("part_number", string(order.PartNumber)),
		zap.String("reference", order.Reference),
		zap.String("document_number", order.DocumentNumber),
	)
	log.Debug("processing order", zap.Int64("required", int64(order.RequiredQuantity)))

	if outcome.NoStock && remaining > 0 {
		log.Debug("no stock found for part")
	}

	for _, pos := range candidates {
		if remaining == 0 {
			break
		}

		line := ledger.Inventory[pos]
		if !line.Eligible() {
			continue
		}

		var kind dto.PickKind
		switch {
		case line.Quantity == remaining:
			kind = dto.ExactPick
		case line.Quantity > remaining:
			kind = dto.PartialPick
		default:
			kind = dto.ExhaustPick
		}
		take := line.Quantity.Min(remaining)

		ledger.Fulfillment = append(ledger.Fulfillment, entities.NewFulfillmentRecord(line, order, take))
		line.Quantity -= take
		remaining -= take
		outcome.Picked += take

		outcome.Picks = append(outcome.Picks, dto.Pick{
			InventoryIndex: pos,
			InventoryRow:   line.Row,
			Kind:           kind,
			Quantity:       take,
			LeftOnLine:     line.Quantity,
		})

		log.Debug("stock line picked",
			zap.Int("stock_row", line.Row),
			zap.Stringer("case", kind),
			zap.Int64("picked", int64(take)),
			zap.Int64("left_on_line", int64(line.Quantity)),
			zap.Int64("still_needed", int64(remaining)),
		)
	}

	if remaining > 0 {
		backorder, err := entities.NewBackorderRecord(order, remaining)
		if err != nil {
			return outcome, fmt.Errorf("order row %d: %w", order.Row, err)
		}
		ledger.Backorder = append(ledger.Backorder, backorder)
		outcome.Unmet = remaining
		log.Debug("quantity not available", zap.Int64("unmet", int64(remaining)))
	}

	log.Debug("order summary",
		zap.Int64("picked", int64(outcome.Picked)),
		zap.Int64("unmet", int64(outcome.Unmet)),
	)

	return outcome, nil
}

// indexInventory lists, per part number, the positions of the inventory lines
// carrying it in table order. Positions stay valid for the whole pass because
// lines are only removed after every order has been processed.
func indexInventory(lines []*entities.InventoryLine) map[entities.PartNumber][]int {
	index := make(map[entities.PartNumber][]int)
	for pos, line := range lines {
		if line.Issue != nil {
			continue
		}
		index[line.PartNumber] = append(index[line.PartNumber], pos)
	}
	return index
}

// checkQuantities rejects a ledger whose valid lines carry negative
// quantities. The codec never produces one; a hand-built ledger might.
func checkQuantities(ledger *entities.Ledger) error {
	for i, line := range ledger.Inventory {
		if line.Issue == nil && line.Quantity < 0 {
			return &entities.InvalidQuantityError{
				Table:  "inventory",
				Row:    rowOf(line.Row, i),
				Column: "quantity",
				Value:  line.Quantity.String(),
				Reason: "cannot be negative",
			}
		}
	}
	for i, order := range ledger.Demand {
		if order.Issue == nil && order.RequiredQuantity < 0 {
			return &entities.InvalidQuantityError{
				Table:  "demand",
				Row:    rowOf(order.Row, i),
				Column: "required quantity",
				Value:  order.RequiredQuantity.String(),
				Reason: "cannot be negative",
			}
		}
	}
	return nil
}

func rowOf(row, pos int) int {
	if row > 0 {
		return row
	}
	return pos + 1
}
