package entities

import "fmt"

// TableNames maps the four logical ledger tables to their physical names
type TableNames struct {
	Inventory   string `yaml:"inventory"`
	Demand      string `yaml:"demand"`
	Fulfillment string `yaml:"fulfillment"`
	Backorder   string `yaml:"backorder"`
}

// ColumnNames maps the logical ledger columns to their physical header names
type ColumnNames struct {
	SequenceNumber   string `yaml:"sequence_number"`
	PartNumber       string `yaml:"part_number"`
	Description      string `yaml:"description"`
	Quantity         string `yaml:"quantity"`
	RequiredQuantity string `yaml:"required_quantity"`
	Reference        string `yaml:"reference"`
	DocumentNumber   string `yaml:"document_number"`
	Date             string `yaml:"date"`
	MailReference    string `yaml:"mail_reference"`
	BatchCase        string `yaml:"batch_case"`
	UnmetQuantity    string `yaml:"unmet_quantity"`
}

// Schema describes where the ledger lives inside a dataset
type Schema struct {
	Tables  TableNames  `yaml:"tables"`
	Columns ColumnNames `yaml:"columns"`
}

// DefaultSchema returns the layout of the master stock workbook
func DefaultSchema() Schema {
	return Schema{
		Tables: TableNames{
			Inventory:   "Stock-In-Hand",
			Demand:      "New-Order",
			Fulfillment: "Out-stock",
			Backorder:   "Not-Available",
		},
		Columns: ColumnNames{
			SequenceNumber:   "Sl No",
			PartNumber:       "Part Number",
			Description:      "Part Description",
			Quantity:         "Qty",
			RequiredQuantity: "Req-Qty",
			Reference:        "REFERENCE",
			DocumentNumber:   "D/NO",
			Date:             "Date",
			MailReference:    "Mail Reference",
			BatchCase:        "Batch/ Case",
			UnmetQuantity:    "NA-Qty",
		},
	}
}

// RequiredTables lists the tables a run needs, in ledger order
func (s Schema) RequiredTables() []string {
	return []string{s.Tables.Inventory, s.Tables.Demand, s.Tables.Fulfillment, s.Tables.Backorder}
}

// InventoryColumns lists the columns an inventory header must carry
func (s Schema) InventoryColumns() []string {
	c := s.Columns
	return []string{c.SequenceNumber, c.PartNumber, c.Description, c.Quantity}
}

// DemandColumns lists the columns a demand header must carry
func (s Schema) DemandColumns() []string {
	c := s.Columns
	return []string{c.PartNumber, c.Description, c.RequiredQuantity, c.Reference, c.DocumentNumber, c.Date, c.MailReference}
}

// StampColumns lists the demand columns stamped onto a fulfillment record
func (s Schema) StampColumns() []string {
	c := s.Columns
	return []string{c.Reference, c.DocumentNumber, c.Date, c.MailReference}
}

// BackorderColumns lists the canonical backorder header
func (s Schema) BackorderColumns() []string {
	c := s.Columns
	return []string{
		c.SequenceNumber, c.PartNumber, c.Description, c.RequiredQuantity,
		c.Reference, c.DocumentNumber, c.Date, c.MailReference, c.UnmetQuantity,
	}
}

// NumericColumns lists the columns that hold integers
func (s Schema) NumericColumns() []string {
	c := s.Columns
	return []string{c.SequenceNumber, c.Quantity, c.RequiredQuantity, c.UnmetQuantity}
}

// DateColumns lists the columns that hold calendar dates
func (s Schema) DateColumns() []string {
	return []string{s.Columns.Date}
}

// Merge overlays the non-empty names of other onto s
func (s Schema) Merge(other Schema) Schema {
	pick := func(base *string, override string) {
		if override != "" {
			*base = override
		}
	}
	pick(&s.Tables.Inventory, other.Tables.Inventory)
	pick(&s.Tables.Demand, other.Tables.Demand)
	pick(&s.Tables.Fulfillment, other.Tables.Fulfillment)
	pick(&s.Tables.Backorder, other.Tables.Backorder)

	pick(&s.Columns.SequenceNumber, other.Columns.SequenceNumber)
	pick(&s.Columns.PartNumber, other.Columns.PartNumber)
	pick(&s.Columns.Description, other.Columns.Description)
	pick(&s.Columns.Quantity, other.Columns.Quantity)
	pick(&s.Columns.RequiredQuantity, other.Columns.RequiredQuantity)
	pick(&s.Columns.Reference, other.Columns.Reference)
	pick(&s.Columns.DocumentNumber, other.Columns.DocumentNumber)
	pick(&s.Columns.Date, other.Columns.Date)
	pick(&s.Columns.MailReference, other.Columns.MailReference)
	pick(&s.Columns.BatchCase, other.Columns.BatchCase)
	pick(&s.Columns.UnmetQuantity, other.Columns.UnmetQuantity)
	return s
}

// Validate checks that every table and column has a name and that the four
// tables are distinct
func (s Schema) Validate() error {
	seen := make(map[string]bool)
	for _, name := range s.RequiredTables() {
		if name == "" {
			return fmt.Errorf("schema: table names cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("schema: table %q is mapped more than once", name)
		}
		seen[name] = true
	}
	c := s.Columns
	for _, column := range []string{
		c.SequenceNumber, c.PartNumber, c.Description, c.Quantity, c.RequiredQuantity,
		c.Reference, c.DocumentNumber, c.Date, c.MailReference, c.BatchCase, c.UnmetQuantity,
	} {
		if column == "" {
			return fmt.Errorf("schema: column names cannot be empty")
		}
	}
	return nil
}
