package services

import (
	"fmt"
	"math"

	"billing-service/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SlabResult is the outcome of applying a progressive tariff slab table to a
// consumption quantity.
type SlabResult struct {
	Breakdown    []models.SlabCharge
	EnergyCharge float64
	FixedCharge  float64
}

// CalculateSlabCharges walks the slab table in ascending from_unit order and
// charges each consumed range at its own rate. Slabs are assumed contiguous
// and non-overlapping (tariff administration owns that invariant). The fixed
// charge is a category-level constant carried on every slab row; the first
// valid slab's value is used.
//
// An empty slab table means the tariff category has no configuration for the
// billing date, which is not retryable: ErrInvalidState.
func CalculateSlabCharges(consumption float64, slabs []models.TariffSlab) (*SlabResult, error) {
	if consumption < 0 {
		return nil, fmt.Errorf("consumption must not be negative: %w", models.ErrInvalidData)
	}
	if len(slabs) == 0 {
		return nil, fmt.Errorf("no tariff slabs valid for billing date: %w", models.ErrInvalidState)
	}

	breakdown := make([]models.SlabCharge, 0, len(slabs))
	energy := decimal.Zero

	for _, slab := range slabs {
		if consumption <= slab.FromUnit {
			break
		}

		upper := math.Inf(1)
		if slab.ToUnit != nil {
			upper = *slab.ToUnit
		}

		units := math.Min(consumption, upper) - slab.FromUnit
		if units <= 0 {
			continue
		}

		amount := decimal.NewFromFloat(units).
			Mul(decimal.NewFromFloat(slab.RatePerUnit)).
			Round(2)
		energy = energy.Add(amount)

		amountF, _ := amount.Float64()
		breakdown = append(breakdown, models.SlabCharge{
			SlabID:      slab.ID,
			FromUnit:    slab.FromUnit,
			ToUnit:      slab.ToUnit,
			Units:       units,
			RatePerUnit: slab.RatePerUnit,
			Amount:      amountF,
		})
	}

	energyF, _ := energy.Round(2).Float64()

	return &SlabResult{
		Breakdown:    breakdown,
		EnergyCharge: energyF,
		FixedCharge:  models.RoundMoney(slabs[0].FixedCharge),
	}, nil
}

// TotalUnits sums the units across the breakdown. For a contiguous slab
// table topped by an unbounded slab this equals the consumption exactly.
func (r *SlabResult) TotalUnits() float64 {
	return lo.SumBy(r.Breakdown, func(c models.SlabCharge) float64 { return c.Units })
}
