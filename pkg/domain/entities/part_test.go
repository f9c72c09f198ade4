package entities

import "testing"

func TestQuantity_String(t *testing.T) {
	if got := Quantity(42).String(); got != "42" {
		t.Errorf("Expected 42, got %s", got)
	}
	if got := Quantity(0).String(); got != "0" {
		t.Errorf("Expected 0, got %s", got)
	}
}

func TestQuantity_Min(t *testing.T) {
	testCases := []struct {
		a, b, want Quantity
	}{
		{3, 5, 3},
		{5, 3, 3},
		{4, 4, 4},
		{0, 9, 0},
	}
	for _, tc := range testCases {
		if got := tc.a.Min(tc.b); got != tc.want {
			t.Errorf("Expected min(%d, %d) = %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}
