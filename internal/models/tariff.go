package models

import (
	"time"

	"github.com/google/uuid"
)

// TariffSlab is one progressive tier of a tariff category. Slabs of a
// category are contiguous and non-overlapping, ordered by FromUnit; ToUnit is
// nil for the unbounded top slab. Contiguity is a data integrity precondition
// owned by tariff administration, not enforced here.
type TariffSlab struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TariffCategoryID uuid.UUID  `json:"tariff_category_id" db:"tariff_category_id"`
	FromUnit         float64    `json:"from_unit" db:"from_unit"`
	ToUnit           *float64   `json:"to_unit,omitempty" db:"to_unit"`
	RatePerUnit      float64    `json:"rate_per_unit" db:"rate_per_unit"`
	FixedCharge      float64    `json:"fixed_charge" db:"fixed_charge"`
	ValidFrom        time.Time  `json:"valid_from" db:"valid_from"`
	ValidTo          *time.Time `json:"valid_to,omitempty" db:"valid_to"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// IsValidOn reports whether the slab applies on the given billing date.
func (s TariffSlab) IsValidOn(date time.Time) bool {
	if date.Before(s.ValidFrom) {
		return false
	}
	if s.ValidTo != nil && date.After(*s.ValidTo) {
		return false
	}
	return true
}

type TaxConfig struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TaxName       string     `json:"tax_name" db:"tax_name"`
	RatePercent   float64    `json:"rate_percent" db:"rate_percent"`
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`
	Status        TaxStatus  `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// IsActiveOn reports whether the tax applies on the given billing date.
func (t TaxConfig) IsActiveOn(date time.Time) bool {
	if t.Status != TaxActive {
		return false
	}
	if date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && date.After(*t.EffectiveTo) {
		return false
	}
	return true
}
