package db

import "errors"

// Sentinel errors for lookups. Callers use errors.Is to distinguish a key
// that matched nothing from a key that matched more than one row.
var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous")
)
