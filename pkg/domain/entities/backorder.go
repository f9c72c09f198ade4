package entities

import "fmt"

// BackorderRecord is the unmet portion of one order
type BackorderRecord struct {
	SequenceNumber   int
	PartNumber       PartNumber
	Description      string
	RequiredQuantity Quantity
	Reference        string
	DocumentNumber   string
	Date             string
	MailReference    string
	UnmetQuantity    Quantity

	// Fields holds the source cells of a historic record
	Fields Fields
	// Historic marks a record read from the input ledger
	Historic bool
}

// NewBackorderRecord creates a validated BackorderRecord for order
func NewBackorderRecord(order *DemandLine, unmet Quantity) (*BackorderRecord, error) {
	if unmet <= 0 {
		return nil, fmt.Errorf("unmet quantity must be positive, got %d", unmet)
	}
	if unmet > order.RequiredQuantity {
		return nil, fmt.Errorf("unmet quantity %d exceeds required quantity %d", unmet, order.RequiredQuantity)
	}

	return &BackorderRecord{
		PartNumber:       order.PartNumber,
		Description:      order.Description,
		RequiredQuantity: order.RequiredQuantity,
		Reference:        order.Reference,
		DocumentNumber:   order.DocumentNumber,
		Date:             order.Date,
		MailReference:    order.MailReference,
		UnmetQuantity:    unmet,
	}, nil
}
