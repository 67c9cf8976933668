package domain

import "github.com/shopspring/decimal"

// Cents converts a monetary amount to integer minor units. Balance
// comparisons go through this so they are exact at cent precision and never
// touch binary floating point.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// SameCents reports whether two amounts are equal at cent precision.
func SameCents(a, b decimal.Decimal) bool {
	return Cents(a) == Cents(b)
}
