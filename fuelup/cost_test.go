package fuelup_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// COST DERIVATION TESTS
// =============================================================================

func TestDeriveCost_ExactProduct(t *testing.T) {
	// GIVEN: 15.5 gallons at 3.89 per gallon
	// WHEN: Deriving the total cost
	// THEN: The product is exact, three decimal places and all

	gallons := dec("15.5")
	price := dec("3.89")

	cost := fuelup.DeriveCost(&gallons, &price)

	require.NotNil(t, cost)
	assert.True(t, cost.Equal(dec("60.295")), "expected 60.295, got %s", cost)
}

func TestDeriveCost_NoFloatDrift(t *testing.T) {
	// Values that misbehave under float64 multiplication must come out
	// exact under decimal arithmetic.
	gallons := dec("0.1")
	price := dec("0.2")

	cost := fuelup.DeriveCost(&gallons, &price)

	require.NotNil(t, cost)
	assert.Equal(t, "0.02", cost.String())
}

func TestDeriveCost_MissingInput(t *testing.T) {
	// GIVEN: One or both inputs absent
	// WHEN: Deriving the total cost
	// THEN: Derivation yields nothing rather than a zero cost

	gallons := dec("10")

	assert.Nil(t, fuelup.DeriveCost(nil, nil))
	assert.Nil(t, fuelup.DeriveCost(&gallons, nil))
	assert.Nil(t, fuelup.DeriveCost(nil, &gallons))
}

func TestApplyCostInvariant_OverwritesManualValue(t *testing.T) {
	// GIVEN: A record with a hand-set total cost
	// WHEN: The invariant is applied
	// THEN: The manual value is replaced by the derived product

	rec := fuelup.Record{
		Gallons:        dec("20.0"),
		PricePerGallon: dec("3.95"),
		TotalCost:      dec("999.99"),
	}

	rec.ApplyCostInvariant()

	assert.True(t, rec.TotalCost.Equal(dec("79")), "expected 79, got %s", rec.TotalCost)
}

// =============================================================================
// MUTATION MERGE TESTS
// =============================================================================

func TestRecordMutation_Apply_RederivesCost(t *testing.T) {
	// GIVEN: A committed record
	// WHEN: Only the gallons change
	// THEN: The merged record keeps the old price and carries a fresh cost

	current := fuelup.Record{
		ID:             1,
		UserID:         "alice",
		Date:           fuelup.Day(2025, 6, 1),
		Gallons:        dec("15.5"),
		PricePerGallon: dec("3.89"),
		TotalCost:      dec("60.295"),
	}

	newGallons := dec("18.0")
	merged := fuelup.RecordMutation{Gallons: &newGallons}.Apply(current)

	assert.True(t, merged.Gallons.Equal(dec("18.0")))
	assert.True(t, merged.PricePerGallon.Equal(dec("3.89")), "unset field must not change")
	assert.True(t, merged.TotalCost.Equal(dec("70.02")), "expected 70.02, got %s", merged.TotalCost)
}

func TestRecordMutation_Apply_ManualTotalCostDiscarded(t *testing.T) {
	// A mutation may carry a total cost, but the invariant wins on merge.
	current := fuelup.Record{
		UserID:         "alice",
		Date:           fuelup.Day(2025, 6, 1),
		Gallons:        dec("10"),
		PricePerGallon: dec("4.00"),
		TotalCost:      dec("40"),
	}

	bogus := dec("1.23")
	merged := fuelup.RecordMutation{TotalCost: &bogus}.Apply(current)

	assert.True(t, merged.TotalCost.Equal(dec("40")), "manual cost must not survive the merge")
}

func TestRecordMutation_Apply_DateNormalizedToDay(t *testing.T) {
	current := fuelup.Record{
		UserID:         "alice",
		Date:           fuelup.Day(2025, 6, 1),
		Gallons:        dec("10"),
		PricePerGallon: dec("4.00"),
	}

	noon := fuelup.Day(2025, 7, 4).Add(12 * time.Hour)
	merged := fuelup.RecordMutation{Date: &noon}.Apply(current)

	assert.Equal(t, fuelup.Day(2025, 7, 4), merged.Date)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestRecordValidate(t *testing.T) {
	valid := fuelup.Record{
		UserID:         "alice",
		Date:           fuelup.Day(2025, 6, 1),
		Gallons:        dec("15.5"),
		PricePerGallon: dec("3.89"),
	}
	assert.NoError(t, valid.Validate())

	zeroGallons := valid
	zeroGallons.Gallons = dec("0")
	assert.ErrorIs(t, zeroGallons.Validate(), fuelup.ErrValidation)

	negativePrice := valid
	negativePrice.PricePerGallon = dec("-1.50")
	assert.ErrorIs(t, negativePrice.Validate(), fuelup.ErrValidation)

	noOwner := valid
	noOwner.UserID = ""
	assert.ErrorIs(t, noOwner.Validate(), fuelup.ErrValidation)

	noDate := valid
	noDate.Date = time.Time{}
	assert.ErrorIs(t, noDate.Validate(), fuelup.ErrValidation)
}
