/*
stats.go - Aggregate statistics over a user's records

PURPOSE:
  The single canonical definition of the summary statistics. Records are
  loaded through the store and summed by ComputeStatistics; there is no
  SQL aggregate shortcut, so the rounding point is identical for every
  store engine.

DEFINITION:
  count        = number of records
  totalGallons = exact sum of gallons
  totalSpent   = exact sum of totalCost (each already derived by cost.go)
  avgPrice     = sum(pricePerGallon) / count, rounded half-up to 2 decimal
                 places at the very end — an unweighted mean of unit prices,
                 NOT totalSpent/totalGallons.

  An empty record set yields a zero-valued result, never an error.
*/
package fuelup

import "github.com/shopspring/decimal"

// ComputeStatistics sums the given records per the canonical definition.
func ComputeStatistics(records []Record) Statistics {
	if len(records) == 0 {
		return Statistics{
			TotalGallons:          decimal.Zero,
			TotalSpent:            decimal.Zero,
			AveragePricePerGallon: decimal.Zero,
		}
	}

	totalGallons := decimal.Zero
	totalSpent := decimal.Zero
	priceSum := decimal.Zero

	for _, r := range records {
		totalGallons = totalGallons.Add(r.Gallons)
		totalSpent = totalSpent.Add(r.TotalCost)
		priceSum = priceSum.Add(r.PricePerGallon)
	}

	count := int64(len(records))

	// DivRound rounds half away from zero, which is half-up for the
	// positive prices this domain allows.
	avg := priceSum.DivRound(decimal.NewFromInt(count), 2)

	return Statistics{
		Count:                 len(records),
		TotalGallons:          totalGallons,
		TotalSpent:            totalSpent,
		AveragePricePerGallon: avg,
	}
}
