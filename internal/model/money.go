package model

import "github.com/shopspring/decimal"

// WholeCents reports whether d has no digits past the second decimal place.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
