package money

import "github.com/shopspring/decimal"

var centsPerUnit = decimal.NewFromInt(100)

// FromCents converts an integer cent amount into a currency decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsPerUnit)
}

// ToCents converts a currency decimal into integer cents, rounding half up
// to absorb any sub-cent residue from tier arithmetic.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}
