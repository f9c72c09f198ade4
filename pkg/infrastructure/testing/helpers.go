package testing

import (
	"strconv"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// Stock describes one inventory row of a fixture
type Stock struct {
	Part        string
	Description string
	Qty         string
	Batch       string
}

// Order describes one demand row of a fixture
type Order struct {
	Part        string
	Description string
	Qty         string
	Reference   string
	Document    string
	Date        string
	Mail        string
}

// S is shorthand for a stock row with a numeric quantity
func S(part string, qty int) Stock {
	return Stock{Part: part, Description: part + " description", Qty: strconv.Itoa(qty)}
}

// O is shorthand for an order row with a numeric quantity
func O(part string, qty int, reference string) Order {
	return Order{
		Part:        part,
		Description: part + " description",
		Qty:         strconv.Itoa(qty),
		Reference:   reference,
		Document:    "DN-" + reference,
		Date:        "2024-03-01",
		Mail:        "mail-" + reference,
	}
}

// InventoryHeader is the stock header used by fixtures; it carries a batch
// column the engine does not interpret
func InventoryHeader() []string {
	c := entities.DefaultSchema().Columns
	return []string{c.SequenceNumber, c.PartNumber, c.Description, c.Quantity, c.BatchCase}
}

// DemandHeader is the order header used by fixtures
func DemandHeader() []string {
	return entities.DefaultSchema().DemandColumns()
}

// InventoryTable builds a stock table in the default schema
func InventoryTable(lines ...Stock) *entities.Table {
	schema := entities.DefaultSchema()
	table := entities.NewTable(schema.Tables.Inventory, InventoryHeader())
	for i, line := range lines {
		table.Rows = append(table.Rows, []string{strconv.Itoa(i + 1), line.Part, line.Description, line.Qty, line.Batch})
	}
	return table
}

// DemandTable builds an order table in the default schema
func DemandTable(orders ...Order) *entities.Table {
	schema := entities.DefaultSchema()
	table := entities.NewTable(schema.Tables.Demand, DemandHeader())
	for _, o := range orders {
		table.Rows = append(table.Rows, []string{o.Part, o.Description, o.Qty, o.Reference, o.Document, o.Date, o.Mail})
	}
	return table
}

// BuildDataset builds a complete stock workbook with empty fulfillment and
// backorder tables
func BuildDataset(stock []Stock, orders []Order) *entities.Dataset {
	schema := entities.DefaultSchema()
	fulfillmentHeader := append(InventoryHeader(), schema.StampColumns()...)
	return entities.NewDataset(
		InventoryTable(stock...),
		DemandTable(orders...),
		entities.NewTable(schema.Tables.Fulfillment, fulfillmentHeader),
		entities.NewTable(schema.Tables.Backorder, schema.BackorderColumns()),
	)
}

// BuildScenario returns the dataset of one of the reference picking scenarios
//
//	exact      one line of 10 against an order of 10
//	partial    one line of 15 against an order of 10
//	exhaust    lines of 4 and 3 against an order of 10
//	no-stock   no line for the ordered part
//	contention one line of 5 against orders of 3 then 4
func BuildScenario(name string) *entities.Dataset {
	switch name {
	case "exact":
		return BuildDataset([]Stock{S("A1", 10)}, []Order{O("A1", 10, "R1")})
	case "partial":
		return BuildDataset([]Stock{S("A1", 15)}, []Order{O("A1", 10, "R1")})
	case "exhaust":
		return BuildDataset([]Stock{S("A1", 4), S("A1", 3)}, []Order{O("A1", 10, "R1")})
	case "no-stock":
		return BuildDataset([]Stock{S("A1", 10)}, []Order{O("Z9", 5, "R1")})
	case "contention":
		return BuildDataset([]Stock{S("A1", 5)}, []Order{O("A1", 3, "R1"), O("A1", 4, "R2")})
	default:
		panic("unknown scenario " + name)
	}
}

// BuildWarehouseDataset builds a larger mixed workbook: several lots per part,
// a carried batch column, a rejected order and an extra sheet
func BuildWarehouseDataset() *entities.Dataset {
	stock := []Stock{
		{Part: "BRG-6204", Description: "Ball bearing 6204", Qty: "40", Batch: "B-17"},
		{Part: "SEAL-22", Description: "Oil seal 22mm", Qty: "12", Batch: "C-03"},
		{Part: "BRG-6204", Description: "Ball bearing 6204", Qty: "25", Batch: "B-19"},
		{Part: "BLT-M8", Description: "Hex bolt M8", Qty: "0", Batch: "A-01"},
		{Part: "BLT-M8", Description: "Hex bolt M8", Qty: "300", Batch: "A-02"},
	}
	orders := []Order{
		O("BRG-6204", 50, "WO-100"),
		O("SEAL-22", 20, "WO-101"),
		{Part: "BLT-M8", Description: "Hex bolt M8", Qty: "ten", Reference: "WO-102"},
		O("BLT-M8", 120, "WO-103"),
		O("GSK-9", 4, "WO-104"),
	}
	ds := BuildDataset(stock, orders)
	notes := entities.NewTable("Notes", []string{"Note"})
	notes.Rows = append(notes.Rows, []string{"cycle count due"})
	ds.ReplaceTable("Notes", notes)
	return ds
}
