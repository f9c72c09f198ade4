package entities

import "fmt"

// InventoryLine is one lot/batch row of the inventory table. Identity is
// positional for the duration of a run; several lines may share a part number.
type InventoryLine struct {
	SequenceNumber int
	PartNumber     PartNumber
	Description    string
	Quantity       Quantity

	// Row is the 1-based data row the line was read from
	Row int
	// Fields holds every cell of the source row, carried columns included
	Fields Fields
	// Issue is set when the row failed validation; such a line is never
	// picked from and is written back unchanged
	Issue error
}

// NewInventoryLine creates a validated InventoryLine
func NewInventoryLine(sequenceNumber int, partNumber PartNumber, description string, quantity Quantity) (*InventoryLine, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %d", quantity)
	}

	return &InventoryLine{
		SequenceNumber: sequenceNumber,
		PartNumber:     partNumber,
		Description:    description,
		Quantity:       quantity,
	}, nil
}

// Eligible reports whether the line can be picked from
func (l *InventoryLine) Eligible() bool {
	return l.Issue == nil && l.Quantity > 0
}

// Depleted reports whether a valid line has nothing left on it
func (l *InventoryLine) Depleted() bool {
	return l.Issue == nil && l.Quantity == 0
}
