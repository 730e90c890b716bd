package services

import (
	"testing"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSlabCharges_ProgressiveThreeSlabs(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	result, err := CalculateSlabCharges(150, slabs)
	require.NoError(t, err)

	// 60x7.85 + 60x10.00 + 30x12.50 = 471 + 600 + 375
	require.Len(t, result.Breakdown, 3)
	assert.Equal(t, 471.00, result.Breakdown[0].Amount)
	assert.Equal(t, 600.00, result.Breakdown[1].Amount)
	assert.Equal(t, 375.00, result.Breakdown[2].Amount)
	assert.Equal(t, 1446.00, result.EnergyCharge)
	assert.Equal(t, 100.00, result.FixedCharge)
}

func TestCalculateSlabCharges_NoUnitsLostOrDoubleCounted(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	for _, consumption := range []float64{0, 1, 59.5, 60, 61, 120, 121, 150, 1000} {
		result, err := CalculateSlabCharges(consumption, slabs)
		require.NoError(t, err)
		assert.InDelta(t, consumption, result.TotalUnits(), 0.0001,
			"consumption %.2f must be fully distributed across slabs", consumption)
	}
}

func TestCalculateSlabCharges_WithinFirstSlab(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	result, err := CalculateSlabCharges(40, slabs)
	require.NoError(t, err)

	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, 40.0, result.Breakdown[0].Units)
	assert.Equal(t, 314.00, result.Breakdown[0].Amount)
	assert.Equal(t, 314.00, result.EnergyCharge)
}

func TestCalculateSlabCharges_ExactSlabBoundary(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	result, err := CalculateSlabCharges(60, slabs)
	require.NoError(t, err)

	// The second slab starts where consumption ends; it must not appear.
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, 60.0, result.Breakdown[0].Units)
	assert.Equal(t, 471.00, result.EnergyCharge)
}

func TestCalculateSlabCharges_ZeroConsumption(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	result, err := CalculateSlabCharges(0, slabs)
	require.NoError(t, err)

	assert.Empty(t, result.Breakdown)
	assert.Equal(t, 0.00, result.EnergyCharge)
	// Fixed charge applies even when nothing was consumed.
	assert.Equal(t, 100.00, result.FixedCharge)
}

func TestCalculateSlabCharges_NoValidSlabs(t *testing.T) {
	_, err := CalculateSlabCharges(100, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCalculateSlabCharges_NegativeConsumption(t *testing.T) {
	slabs := progressiveSlabs(uuid.New())

	_, err := CalculateSlabCharges(-10, slabs)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidData)
}

func TestCalculateSlabCharges_RoundsHalfUp(t *testing.T) {
	categoryID := uuid.New()
	slabs := []models.TariffSlab{
		{
			ID:               uuid.New(),
			TariffCategoryID: categoryID,
			FromUnit:         0,
			ToUnit:           nil,
			RatePerUnit:      3.335,
			FixedCharge:      0,
			ValidFrom:        date(2024, 1, 1),
		},
	}

	result, err := CalculateSlabCharges(3, slabs)
	require.NoError(t, err)

	// 3 x 3.335 = 10.005, half-up to 10.01.
	assert.Equal(t, 10.01, result.Breakdown[0].Amount)
	assert.Equal(t, 10.01, result.EnergyCharge)
}
