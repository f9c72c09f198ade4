package entities

import "fmt"

// DemandLine is one order row of the demand table
type DemandLine struct {
	PartNumber       PartNumber
	Description      string
	RequiredQuantity Quantity
	Reference        string
	DocumentNumber   string
	Date             string
	MailReference    string

	// Row is the 1-based data row the line was read from
	Row int
	// Fields holds every cell of the source row
	Fields Fields
	// Issue is set when the row failed validation; such an order is not
	// allocated and stays in the demand table
	Issue error
}

// NewDemandLine creates a validated DemandLine
func NewDemandLine(partNumber PartNumber, description string, requiredQuantity Quantity, reference, documentNumber, date, mailReference string) (*DemandLine, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if requiredQuantity < 0 {
		return nil, fmt.Errorf("required quantity cannot be negative, got %d", requiredQuantity)
	}

	return &DemandLine{
		PartNumber:       partNumber,
		Description:      description,
		RequiredQuantity: requiredQuantity,
		Reference:        reference,
		DocumentNumber:   documentNumber,
		Date:             date,
		MailReference:    mailReference,
	}, nil
}

// Rejected reports whether the order failed validation
func (d *DemandLine) Rejected() bool {
	return d.Issue != nil
}
