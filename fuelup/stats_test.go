package fuelup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// =============================================================================
// STATISTICS AGGREGATOR TESTS
// =============================================================================

func TestComputeStatistics_TwoRecords(t *testing.T) {
	// GIVEN: Two purchases: 15.5 gal @ 3.89 and 20.0 gal @ 3.95
	// WHEN: Computing statistics
	// THEN: Totals are exact sums; the average price is the unweighted mean
	//       of the per-gallon prices, rounded half-up to two places

	records := []fuelup.Record{
		{Gallons: dec("15.5"), PricePerGallon: dec("3.89"), TotalCost: dec("60.295")},
		{Gallons: dec("20.0"), PricePerGallon: dec("3.95"), TotalCost: dec("79.000")},
	}

	stats := fuelup.ComputeStatistics(records)

	assert.Equal(t, 2, stats.Count)
	assert.True(t, stats.TotalGallons.Equal(dec("35.5")), "got %s", stats.TotalGallons)
	assert.True(t, stats.TotalSpent.Equal(dec("139.295")), "got %s", stats.TotalSpent)
	assert.Equal(t, "3.92", stats.AveragePricePerGallon.StringFixed(2))
}

func TestComputeStatistics_EmptySet(t *testing.T) {
	// A user with no purchases gets zero-valued statistics, not an error.
	stats := fuelup.ComputeStatistics(nil)

	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.TotalGallons.IsZero())
	assert.True(t, stats.TotalSpent.IsZero())
	assert.True(t, stats.AveragePricePerGallon.IsZero())
}

func TestComputeStatistics_SingleRecord(t *testing.T) {
	records := []fuelup.Record{
		{Gallons: dec("10"), PricePerGallon: dec("4.159"), TotalCost: dec("41.59")},
	}

	stats := fuelup.ComputeStatistics(records)

	assert.Equal(t, 1, stats.Count)
	// 4.159 rounds half-up to 4.16 at two places.
	assert.Equal(t, "4.16", stats.AveragePricePerGallon.StringFixed(2))
}

func TestComputeStatistics_AverageIsUnweighted(t *testing.T) {
	// GIVEN: A huge cheap fill and a tiny expensive one
	// WHEN: Computing the average price
	// THEN: Each purchase counts once; gallon volume does not weight it

	records := []fuelup.Record{
		{Gallons: dec("100"), PricePerGallon: dec("3.00"), TotalCost: dec("300")},
		{Gallons: dec("1"), PricePerGallon: dec("5.00"), TotalCost: dec("5")},
	}

	stats := fuelup.ComputeStatistics(records)

	assert.Equal(t, "4.00", stats.AveragePricePerGallon.StringFixed(2))
}

func TestComputeStatistics_RoundingHappensOnceAtTheEnd(t *testing.T) {
	// Three prices whose mean is a repeating decimal: the sum stays exact
	// and only the final division rounds.
	records := []fuelup.Record{
		{Gallons: dec("1"), PricePerGallon: dec("3.33"), TotalCost: dec("3.33")},
		{Gallons: dec("1"), PricePerGallon: dec("3.33"), TotalCost: dec("3.33")},
		{Gallons: dec("1"), PricePerGallon: dec("3.34"), TotalCost: dec("3.34")},
	}

	stats := fuelup.ComputeStatistics(records)

	// (3.33 + 3.33 + 3.34) / 3 = 3.3333... -> 3.33
	assert.Equal(t, "3.33", stats.AveragePricePerGallon.StringFixed(2))
}
