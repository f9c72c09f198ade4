// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Callers treat identifiers as opaque strings.
package idgen

import "github.com/google/uuid"

// NewFunc generates run identifiers; tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }
