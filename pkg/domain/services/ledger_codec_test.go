package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	testhelpers "github.com/vsinha/stockpick/pkg/infrastructure/testing"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    entities.Quantity
		missing bool
		reason  string
	}{
		{raw: "10", want: 10},
		{raw: " 10 ", want: 10},
		{raw: "10.0", want: 10},
		{raw: "1e1", want: 10},
		{raw: "1,200", want: 1200},
		{raw: "0", want: 0},
		{raw: "", missing: true},
		{raw: "   ", missing: true},
		{raw: "-1", reason: "cannot be negative"},
		{raw: "1.5", reason: "must be a whole number"},
		{raw: "ten", reason: "not a number"},
		{raw: "99999999999999999999", reason: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseQuantity("Stock-In-Hand", 3, "Qty", tt.raw)
			switch {
			case tt.missing:
				var missing *entities.MissingFieldError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, 3, missing.Row)
				assert.Equal(t, "Qty", missing.Column)
			case tt.reason != "":
				var invalid *entities.InvalidQuantityError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, tt.reason, invalid.Reason)
				assert.Equal(t, tt.raw, invalid.Value)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLedgerValidator_ValidateDataset(t *testing.T) {
	schema := entities.DefaultSchema()
	validator := NewLedgerValidator(schema)

	require.NoError(t, validator.ValidateDataset(testhelpers.BuildScenario("exact")))

	onlyStock := entities.NewDataset(testhelpers.InventoryTable(testhelpers.S("A1", 1)))
	err := validator.ValidateDataset(onlyStock)
	var missing *entities.MissingTableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"New-Order", "Out-stock", "Not-Available"}, missing.Tables)

	ds := testhelpers.BuildScenario("exact")
	ds.ReplaceTable("New-Order", entities.NewTable("New-Order", []string{"Part Number", "Part Description", "REFERENCE"}))
	err = validator.ValidateDataset(ds)
	var missingColumns *entities.MissingColumnError
	require.True(t, errors.As(err, &missingColumns))
	assert.Equal(t, "New-Order", missingColumns.Table)
	assert.Equal(t, []string{"Req-Qty", "D/NO", "Date", "Mail Reference"}, missingColumns.Columns)

	// fresh output tables without a header are accepted
	ds = testhelpers.BuildScenario("exact")
	ds.ReplaceTable("Out-stock", entities.NewTable("Out-stock", nil))
	ds.ReplaceTable("Not-Available", entities.NewTable("Not-Available", nil))
	assert.NoError(t, validator.ValidateDataset(ds))
}

func TestLedgerCodec_Decode(t *testing.T) {
	ds := testhelpers.BuildWarehouseDataset()
	stock, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	stock.Rows = append(stock.Rows, []string{"", " ", "", "", ""}, []string{"6", "", "Unlabelled", "5", ""})

	ledger, err := NewLedgerCodec(entities.DefaultSchema()).Decode(ds)
	require.NoError(t, err)

	require.Len(t, ledger.Inventory, 6)
	first := ledger.Inventory[0]
	assert.Equal(t, entities.PartNumber("BRG-6204"), first.PartNumber)
	assert.Equal(t, entities.Quantity(40), first.Quantity)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "B-17", first.Fields.Value("Batch/ Case"))

	unlabelled := ledger.Inventory[5]
	assert.Equal(t, 7, unlabelled.Row)
	var missing *entities.MissingFieldError
	require.True(t, errors.As(unlabelled.Issue, &missing))
	assert.Equal(t, "Part Number", missing.Column)

	require.Len(t, ledger.Demand, 5)
	assert.Equal(t, entities.Quantity(50), ledger.Demand[0].RequiredQuantity)
	assert.Equal(t, "DN-WO-100", ledger.Demand[0].DocumentNumber)
	var invalid *entities.InvalidQuantityError
	require.True(t, errors.As(ledger.Demand[2].Issue, &invalid))
	assert.Equal(t, "New-Order", invalid.Table)
	assert.Equal(t, 3, invalid.Row)

	issues := ledger.Issues()
	require.Len(t, issues, 2)
	assert.Same(t, unlabelled.Issue, issues[0])
	assert.Equal(t, testhelpers.DemandHeader(), ledger.Headers.Demand)
}

func TestLedgerCodec_Encode(t *testing.T) {
	schema := entities.DefaultSchema()
	codec := NewLedgerCodec(schema)

	ds := testhelpers.BuildScenario("exhaust")
	fulfillment, err := ds.ReadTable("Out-stock")
	require.NoError(t, err)
	// a historic pick carrying a column the current header lacks
	fulfillment.Columns = append(fulfillment.Columns, "Picker")
	fulfillment.Rows = append(fulfillment.Rows, []string{"9", "OLD-1", "Old part", "2", "", "R0", "DN-R0", "2024-01-01", "mail-R0", "ana"})

	ledger, err := codec.Decode(ds)
	require.NoError(t, err)
	require.Len(t, ledger.Fulfillment, 1)
	assert.True(t, ledger.Fulfillment[0].Historic)

	// pick both lots for the order, backorder the rest
	order := ledger.Demand[0]
	for i, line := range ledger.Inventory {
		ledger.Fulfillment = append(ledger.Fulfillment, entities.NewFulfillmentRecord(line, order, line.Quantity))
		line.Quantity = 0
		ledger.Inventory[i] = line
	}
	backorder, err := entities.NewBackorderRecord(order, 3)
	require.NoError(t, err)
	ledger.Backorder = append(ledger.Backorder, backorder)
	ledger.Inventory = nil
	ledger.Demand = nil
	for i, record := range ledger.Fulfillment {
		record.SequenceNumber = i + 1
	}
	backorder.SequenceNumber = 1

	codec.Encode(ledger, ds)

	stock, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	assert.Empty(t, stock.Rows)
	assert.Equal(t, testhelpers.InventoryHeader(), stock.Columns)

	demand, err := ds.ReadTable("New-Order")
	require.NoError(t, err)
	assert.Empty(t, demand.Rows)
	assert.Equal(t, testhelpers.DemandHeader(), demand.Columns)

	out, err := ds.ReadTable("Out-stock")
	require.NoError(t, err)
	assert.Equal(t, "Picker", out.Columns[len(out.Columns)-1])
	require.Len(t, out.Rows, 3)

	historic := out.Record(0)
	assert.Equal(t, "1", historic.Value("Sl No"))
	assert.Equal(t, "OLD-1", historic.Value("Part Number"))
	assert.Equal(t, "ana", historic.Value("Picker"))

	pick := out.Record(1)
	assert.Equal(t, "2", pick.Value("Sl No"))
	assert.Equal(t, "A1", pick.Value("Part Number"))
	assert.Equal(t, "4", pick.Value("Qty"))
	assert.Equal(t, "R1", pick.Value("REFERENCE"))
	assert.Equal(t, "DN-R1", pick.Value("D/NO"))
	assert.Equal(t, "mail-R1", pick.Value("Mail Reference"))
	assert.Equal(t, "", pick.Value("Batch/ Case"))
	assert.Equal(t, "", pick.Value("Picker"))
	assert.Equal(t, "3", out.Record(2).Value("Qty"))

	na, err := ds.ReadTable("Not-Available")
	require.NoError(t, err)
	assert.Equal(t, schema.BackorderColumns(), na.Columns)
	require.Len(t, na.Rows, 1)
	assert.Equal(t, []string{"1", "A1", "A1 description", "10", "R1", "DN-R1", "2024-03-01", "mail-R1", "3"}, na.Rows[0])
}

func TestLedgerCodec_EncodeFreshOutputTables(t *testing.T) {
	codec := NewLedgerCodec(entities.DefaultSchema())
	ds := testhelpers.BuildScenario("partial")
	ds.ReplaceTable("Out-stock", entities.NewTable("Out-stock", nil))
	ds.ReplaceTable("Not-Available", entities.NewTable("Not-Available", nil))

	ledger, err := codec.Decode(ds)
	require.NoError(t, err)
	codec.Encode(ledger, ds)

	out, err := ds.ReadTable("Out-stock")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Sl No", "Part Number", "Part Description", "Qty", "Batch/ Case",
		"REFERENCE", "D/NO", "Date", "Mail Reference",
	}, out.Columns)

	na, err := ds.ReadTable("Not-Available")
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSchema().BackorderColumns(), na.Columns)
}

func TestUnionColumns(t *testing.T) {
	assert.Equal(t, []string{"A", "B ", "C"}, unionColumns([]string{"A", "B "}, []string{"B", "", "C", "A"}))
	assert.Empty(t, unionColumns(nil, nil))
}

func TestLedgerCodec_CarriesBlankAndRepeatedColumns(t *testing.T) {
	codec := NewLedgerCodec(entities.DefaultSchema())
	ds := testhelpers.BuildScenario("exhaust")

	stock, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	stock.Columns = append(stock.Columns, "", "Note", "Note")
	stock.Rows[0] = append(stock.Rows[0], "shelf-4", "n1", "n2")
	stock.Rows[1] = append(stock.Rows[1], "shelf-9", "n3", "n4")

	ledger, err := codec.Decode(ds)
	require.NoError(t, err)
	require.Len(t, ledger.Inventory, 2)
	assert.Equal(t, "shelf-9", ledger.Inventory[1].Fields.Value("Unnamed: 5"))

	// take one unit from the second lot; both rows are written back
	ledger.Inventory[1].Quantity = 2
	codec.Encode(ledger, ds)

	out, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	assert.Equal(t, append(testhelpers.InventoryHeader(), "Unnamed: 5", "Note", "Note.1"), out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, []string{"1", "A1", "A1 description", "4", "", "shelf-4", "n1", "n2"}, out.Rows[0])
	assert.Equal(t, []string{"2", "A1", "A1 description", "2", "", "shelf-9", "n3", "n4"}, out.Rows[1])
}
