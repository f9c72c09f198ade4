package entities

import "strconv"

// PartNumber identifies a stocked item. It is not unique per inventory line:
// several lots of the same part share one part number.
type PartNumber string

// Quantity represents an integer quantity of discrete units
type Quantity int64

// String renders the quantity the way it is written back to a table cell
func (q Quantity) String() string {
	return strconv.FormatInt(int64(q), 10)
}

// Min returns the smaller of two quantities
func (q Quantity) Min(other Quantity) Quantity {
	if other < q {
		return other
	}
	return q
}
