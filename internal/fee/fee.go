// Package fee derives the disclosed processing fee for a transaction.
package fee

import "github.com/shopspring/decimal"

// rate is the fixed processing-fee percentage applied to every transaction.
var rate = decimal.NewFromFloat(0.03)

// Compute returns the processing fee for a validated positive amount:
// amount * 3%, rounded half-up to 2 decimal places. Computed once, before
// the gateway call, so the disclosed fee never drifts from what was quoted.
func Compute(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
