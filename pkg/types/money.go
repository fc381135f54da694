package types

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits stored for amounts.
const MoneyScale = 2

// maxMoney is the first value that no longer fits numeric(19,2).
var maxMoney = decimal.New(1, 17)

// Money rounds d to the stored scale.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MoneyFits reports whether d is non-negative and fits the storage column.
func MoneyFits(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxMoney)
}
