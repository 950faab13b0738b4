package shared

import "github.com/shopspring/decimal"

// MoneyEpsilon is the tolerance used whenever two currency amounts are
// compared for equality. Both the installment allocator and the ledger
// poster use this constant; it must never be redefined per component.
var MoneyEpsilon = decimal.NewFromFloat(0.01)

// AmountsEqual reports whether two amounts are equal within MoneyEpsilon.
func AmountsEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MoneyEpsilon)
}

// ToMinorUnits converts an amount to integer minor units (cents). Stored
// amounts use this form; decimal.Decimal has no BSON representation.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a decimal amount.
func FromMinorUnits(m int64) decimal.Decimal {
	return decimal.NewFromInt(m).Shift(-2)
}
