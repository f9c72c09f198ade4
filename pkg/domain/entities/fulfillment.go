package entities

// FulfillmentRecord is one pick: a copy of the inventory line at the moment of
// consumption with the picked quantity and the order's stamps
type FulfillmentRecord struct {
	SequenceNumber int
	PartNumber     PartNumber
	Description    string
	Quantity       Quantity
	Reference      string
	DocumentNumber string
	Date           string
	MailReference  string
	BatchCase      string

	// Fields holds the copied inventory cells, carried columns included
	Fields Fields
	// Historic marks a record read from the input ledger; its cells are
	// written back verbatim apart from the sequence number
	Historic bool
}

// NewFulfillmentRecord picks quantity from line for order. The batch/case
// stamp is cleared on the record.
func NewFulfillmentRecord(line *InventoryLine, order *DemandLine, quantity Quantity) *FulfillmentRecord {
	return &FulfillmentRecord{
		SequenceNumber: line.SequenceNumber,
		PartNumber:     line.PartNumber,
		Description:    line.Description,
		Quantity:       quantity,
		Reference:      order.Reference,
		DocumentNumber: order.DocumentNumber,
		Date:           order.Date,
		MailReference:  order.MailReference,
		BatchCase:      "",
		Fields:         line.Fields.Clone(),
	}
}
