package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// LedgerCodec converts between the tables of a dataset and the typed ledger
type LedgerCodec struct {
	schema    entities.Schema
	validator *LedgerValidator
}

// NewLedgerCodec creates a codec for schema
func NewLedgerCodec(schema entities.Schema) *LedgerCodec {
	return &LedgerCodec{
		schema:    schema,
		validator: NewLedgerValidator(schema),
	}
}

// Schema returns the schema the codec maps against
func (c *LedgerCodec) Schema() entities.Schema {
	return c.schema
}

// Decode validates the dataset structure and reads the four ledger tables.
// Structural problems are returned as errors; row problems are attached to
// the offending line as its Issue and do not stop decoding.
func (c *LedgerCodec) Decode(ds *entities.Dataset) (*entities.Ledger, error) {
	if err := c.validator.ValidateDataset(ds); err != nil {
		return nil, err
	}

	inventory := c.readTable(ds, c.schema.Tables.Inventory)
	demand := c.readTable(ds, c.schema.Tables.Demand)
	fulfillment := c.readTable(ds, c.schema.Tables.Fulfillment)
	backorder := c.readTable(ds, c.schema.Tables.Backorder)

	ledger := &entities.Ledger{
		Headers: entities.LedgerHeaders{
			Inventory:   copyColumns(inventory.Columns),
			Demand:      copyColumns(demand.Columns),
			Fulfillment: copyColumns(fulfillment.Columns),
			Backorder:   copyColumns(backorder.Columns),
		},
	}

	ledger.Inventory = c.decodeInventory(inventory)
	ledger.Demand = c.decodeDemand(demand)
	ledger.Fulfillment = c.decodeFulfillment(fulfillment)
	ledger.Backorder = c.decodeBackorder(backorder)

	return ledger, nil
}

// readTable returns a validated table with blank and repeated header names
// made distinct; the renamed header is what Encode writes back
func (c *LedgerCodec) readTable(ds *entities.Dataset, name string) *entities.Table {
	table, _ := ds.ReadTable(name)
	return table.WithUniqueColumns()
}

func (c *LedgerCodec) decodeInventory(table *entities.Table) []*entities.InventoryLine {
	cols := c.schema.Columns
	lines := make([]*entities.InventoryLine, 0, table.Len())

	for i := range table.Rows {
		fields := table.Record(i)
		if fields.IsBlank() {
			continue
		}
		row := i + 1

		line := &entities.InventoryLine{
			SequenceNumber: parseSequence(fields.Value(cols.SequenceNumber)),
			PartNumber:     entities.PartNumber(strings.TrimSpace(fields.Value(cols.PartNumber))),
			Description:    fields.Value(cols.Description),
			Row:            row,
			Fields:         fields,
		}

		if line.PartNumber == "" {
			line.Issue = &entities.MissingFieldError{Table: table.Name, Row: row, Column: cols.PartNumber}
		} else if qty, err := parseQuantity(table.Name, row, cols.Quantity, fields.Value(cols.Quantity)); err != nil {
			line.Issue = err
		} else {
			line.Quantity = qty
		}

		lines = append(lines, line)
	}

	return lines
}

func (c *LedgerCodec) decodeDemand(table *entities.Table) []*entities.DemandLine {
	cols := c.schema.Columns
	orders := make([]*entities.DemandLine, 0, table.Len())

	for i := range table.Rows {
		fields := table.Record(i)
		if fields.IsBlank() {
			continue
		}
		row := i + 1

		order := &entities.DemandLine{
			PartNumber:     entities.PartNumber(strings.TrimSpace(fields.Value(cols.PartNumber))),
			Description:    fields.Value(cols.Description),
			Reference:      fields.Value(cols.Reference),
			DocumentNumber: fields.Value(cols.DocumentNumber),
			Date:           fields.Value(cols.Date),
			MailReference:  fields.Value(cols.MailReference),
			Row:            row,
			Fields:         fields,
		}

		if order.PartNumber == "" {
			order.Issue = &entities.MissingFieldError{Table: table.Name, Row: row, Column: cols.PartNumber}
		} else if qty, err := parseQuantity(table.Name, row, cols.RequiredQuantity, fields.Value(cols.RequiredQuantity)); err != nil {
			order.Issue = err
		} else {
			order.RequiredQuantity = qty
		}

		orders = append(orders, order)
	}

	return orders
}

func (c *LedgerCodec) decodeFulfillment(table *entities.Table) []*entities.FulfillmentRecord {
	cols := c.schema.Columns
	records := make([]*entities.FulfillmentRecord, 0, table.Len())

	for i := range table.Rows {
		fields := table.Record(i)
		if fields.IsBlank() {
			continue
		}
		qty, _ := parseQuantity(table.Name, i+1, cols.Quantity, fields.Value(cols.Quantity))
		records = append(records, &entities.FulfillmentRecord{
			SequenceNumber: parseSequence(fields.Value(cols.SequenceNumber)),
			PartNumber:     entities.PartNumber(strings.TrimSpace(fields.Value(cols.PartNumber))),
			Description:    fields.Value(cols.Description),
			Quantity:       qty,
			Reference:      fields.Value(cols.Reference),
			DocumentNumber: fields.Value(cols.DocumentNumber),
			Date:           fields.Value(cols.Date),
			MailReference:  fields.Value(cols.MailReference),
			BatchCase:      fields.Value(cols.BatchCase),
			Fields:         fields,
			Historic:       true,
		})
	}

	return records
}

func (c *LedgerCodec) decodeBackorder(table *entities.Table) []*entities.BackorderRecord {
	cols := c.schema.Columns
	records := make([]*entities.BackorderRecord, 0, table.Len())

	for i := range table.Rows {
		fields := table.Record(i)
		if fields.IsBlank() {
			continue
		}
		required, _ := parseQuantity(table.Name, i+1, cols.RequiredQuantity, fields.Value(cols.RequiredQuantity))
		unmet, _ := parseQuantity(table.Name, i+1, cols.UnmetQuantity, fields.Value(cols.UnmetQuantity))
		records = append(records, &entities.BackorderRecord{
			SequenceNumber:   parseSequence(fields.Value(cols.SequenceNumber)),
			PartNumber:       entities.PartNumber(strings.TrimSpace(fields.Value(cols.PartNumber))),
			Description:      fields.Value(cols.Description),
			RequiredQuantity: required,
			Reference:        fields.Value(cols.Reference),
			DocumentNumber:   fields.Value(cols.DocumentNumber),
			Date:             fields.Value(cols.Date),
			MailReference:    fields.Value(cols.MailReference),
			UnmetQuantity:    unmet,
			Fields:           fields,
			Historic:         true,
		})
	}

	return records
}

// Encode writes the ledger back into the dataset, replacing the four ledger
// tables. Other tables of the dataset are left untouched.
func (c *LedgerCodec) Encode(ledger *entities.Ledger, ds *entities.Dataset) {
	ds.ReplaceTable(c.schema.Tables.Inventory, c.encodeInventory(ledger))
	ds.ReplaceTable(c.schema.Tables.Demand, c.encodeDemand(ledger))
	ds.ReplaceTable(c.schema.Tables.Fulfillment, c.encodeFulfillment(ledger))
	ds.ReplaceTable(c.schema.Tables.Backorder, c.encodeBackorder(ledger))
}

func (c *LedgerCodec) encodeInventory(ledger *entities.Ledger) *entities.Table {
	cols := c.schema.Columns
	table := entities.NewTable(c.schema.Tables.Inventory, ledger.Headers.Inventory)

	for _, line := range ledger.Inventory {
		fields := line.Fields.Clone()
		fields.Set(cols.SequenceNumber, strconv.Itoa(line.SequenceNumber))
		if line.Issue == nil {
			fields.Set(cols.Quantity, line.Quantity.String())
		}
		table.Append(fields)
	}

	return table
}

func (c *LedgerCodec) encodeDemand(ledger *entities.Ledger) *entities.Table {
	table := entities.NewTable(c.schema.Tables.Demand, ledger.Headers.Demand)
	for _, order := range ledger.Demand {
		table.Append(order.Fields)
	}
	return table
}

func (c *LedgerCodec) encodeFulfillment(ledger *entities.Ledger) *entities.Table {
	cols := c.schema.Columns

	canonical := append(copyColumns(ledger.Headers.Inventory), c.schema.StampColumns()...)
	canonical = append(canonical, cols.BatchCase)
	columns := unionColumns(ledger.Headers.Fulfillment, canonical)

	rows := make([]entities.Fields, 0, len(ledger.Fulfillment))
	for _, record := range ledger.Fulfillment {
		fields := record.Fields.Clone()
		fields.Set(cols.SequenceNumber, strconv.Itoa(record.SequenceNumber))
		if !record.Historic {
			fields.Set(cols.PartNumber, string(record.PartNumber))
			fields.Set(cols.Description, record.Description)
			fields.Set(cols.Quantity, record.Quantity.String())
			fields.Set(cols.Reference, record.Reference)
			fields.Set(cols.DocumentNumber, record.DocumentNumber)
			fields.Set(cols.Date, record.Date)
			fields.Set(cols.MailReference, record.MailReference)
			fields.Set(cols.BatchCase, record.BatchCase)
		}
		columns = unionColumns(columns, fields.Keys())
		rows = append(rows, fields)
	}

	table := entities.NewTable(c.schema.Tables.Fulfillment, columns)
	for _, fields := range rows {
		table.Append(fields)
	}
	return table
}

func (c *LedgerCodec) encodeBackorder(ledger *entities.Ledger) *entities.Table {
	cols := c.schema.Columns
	columns := unionColumns(ledger.Headers.Backorder, c.schema.BackorderColumns())

	rows := make([]entities.Fields, 0, len(ledger.Backorder))
	for _, record := range ledger.Backorder {
		fields := record.Fields.Clone()
		fields.Set(cols.SequenceNumber, strconv.Itoa(record.SequenceNumber))
		if !record.Historic {
			fields.Set(cols.PartNumber, string(record.PartNumber))
			fields.Set(cols.Description, record.Description)
			fields.Set(cols.RequiredQuantity, record.RequiredQuantity.String())
			fields.Set(cols.Reference, record.Reference)
			fields.Set(cols.DocumentNumber, record.DocumentNumber)
			fields.Set(cols.Date, record.Date)
			fields.Set(cols.MailReference, record.MailReference)
			fields.Set(cols.UnmetQuantity, record.UnmetQuantity.String())
		}
		columns = unionColumns(columns, fields.Keys())
		rows = append(rows, fields)
	}

	table := entities.NewTable(c.schema.Tables.Backorder, columns)
	for _, fields := range rows {
		table.Append(fields)
	}
	return table
}

// parseQuantity reads a non-negative whole quantity from a cell. Spreadsheet
// renderings such as "10.0", "1e1" or "1,200" are accepted.
func parseQuantity(table string, row int, column, raw string) (entities.Quantity, error) {
	text := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if text == "" {
		return 0, &entities.MissingFieldError{Table: table, Row: row, Column: column}
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, &entities.InvalidQuantityError{Table: table, Row: row, Column: column, Value: raw, Reason: "not a number"}
	}
	if value.IsNegative() {
		return 0, &entities.InvalidQuantityError{Table: table, Row: row, Column: column, Value: raw, Reason: "cannot be negative"}
	}
	if !value.IsInteger() {
		return 0, &entities.InvalidQuantityError{Table: table, Row: row, Column: column, Value: raw, Reason: "must be a whole number"}
	}
	if value.GreaterThan(maxQuantity) {
		return 0, &entities.InvalidQuantityError{Table: table, Row: row, Column: column, Value: raw, Reason: "out of range"}
	}

	return entities.Quantity(value.IntPart()), nil
}

// parseSequence reads a sequence number leniently; the engine renumbers
// every table so an unreadable value is not an error
func parseSequence(raw string) int {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !value.IsInteger() {
		return 0
	}
	return int(value.IntPart())
}

// unionColumns appends the columns of extra that base does not already hold
func unionColumns(base, extra []string) []string {
	columns := copyColumns(base)
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		seen[strings.TrimSpace(column)] = true
	}
	for _, column := range extra {
		key := strings.TrimSpace(column)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		columns = append(columns, column)
	}
	return columns
}

func copyColumns(columns []string) []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}
