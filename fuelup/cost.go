/*
cost.go - The cost-derivation invariant

PURPOSE:
  totalCost = gallons × pricePerGallon is the single rule that makes a
  record internally consistent. It lives here as one pure function so the
  derivation is a visible, testable step instead of a side effect of
  persistence callbacks. Stores invoke it on every create and update; no
  other code path may set TotalCost persistently.

PRECISION:
  Multiplication is exact — no rounding at this layer. 15.5 gal at 3.89
  yields 60.295, all three decimal places preserved. Rounding happens only
  where the statistics aggregator's contract demands it (stats.go).
*/
package fuelup

import "github.com/shopspring/decimal"

// DeriveCost returns gallons × pricePerGallon at full precision, or nil if
// either input is absent. It is the single authority for a record's total
// cost.
func DeriveCost(gallons, pricePerGallon *decimal.Decimal) *decimal.Decimal {
	if gallons == nil || pricePerGallon == nil {
		return nil
	}
	cost := gallons.Mul(*pricePerGallon)
	return &cost
}
