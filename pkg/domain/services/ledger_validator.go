package services

import (
	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// LedgerValidator checks that a dataset has the shape of a stock ledger
type LedgerValidator struct {
	schema entities.Schema
}

// NewLedgerValidator creates a new ledger validator for schema
func NewLedgerValidator(schema entities.Schema) *LedgerValidator {
	return &LedgerValidator{schema: schema}
}

// ValidateDataset performs the structural checks that must pass before any
// allocation: all four tables present, and the inventory and demand headers
// carrying their required columns. Fulfillment and backorder headers may be
// empty; the codec adds their columns on the way out.
func (v *LedgerValidator) ValidateDataset(ds *entities.Dataset) error {
	if missing := ds.Missing(v.schema.RequiredTables()...); len(missing) > 0 {
		return &entities.MissingTableError{Tables: missing}
	}

	checks := []struct {
		table    string
		required []string
	}{
		{v.schema.Tables.Inventory, v.schema.InventoryColumns()},
		{v.schema.Tables.Demand, v.schema.DemandColumns()},
	}

	for _, check := range checks {
		table, err := ds.ReadTable(check.table)
		if err != nil {
			return err
		}
		var absent []string
		for _, column := range check.required {
			if !table.HasColumn(column) {
				absent = append(absent, column)
			}
		}
		if len(absent) > 0 {
			return &entities.MissingColumnError{Table: check.table, Columns: absent}
		}
	}

	return nil
}
