package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
	memstore "github.com/tsanders-rh/boat-fuel-tracker/fuelup/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMemory_Create_NormalizesDateToDay(t *testing.T) {
	// GIVEN: A record whose date carries a time-of-day
	// WHEN: Creating it
	// THEN: The stored date is truncated to midnight UTC, so a same-day
	//       range query still finds it on both boundaries

	store := memstore.NewMemory()
	ctx := context.Background()

	stored, err := store.Create(ctx, fuelup.Record{
		UserID:         "alice",
		Date:           fuelup.Day(2025, 6, 1).Add(12 * time.Hour),
		Gallons:        dec("10"),
		PricePerGallon: dec("4.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, fuelup.Day(2025, 6, 1), stored.Date)

	records, err := store.GetByUserInRange(ctx, "alice",
		fuelup.Day(2025, 6, 1), fuelup.Day(2025, 6, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, stored.ID, records[0].ID)
}
