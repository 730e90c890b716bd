package models

import (
	"time"

	"github.com/google/uuid"
)

type Bill struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	MeterID            uuid.UUID  `json:"meter_id" db:"meter_id"`
	BillingPeriodStart time.Time  `json:"billing_period_start" db:"billing_period_start"`
	BillingPeriodEnd   time.Time  `json:"billing_period_end" db:"billing_period_end"`
	BillDate           time.Time  `json:"bill_date" db:"bill_date"`
	DueDate            time.Time  `json:"due_date" db:"due_date"`
	TotalImportUnit    float64    `json:"total_import_unit" db:"total_import_unit"`
	TotalExportUnit    float64    `json:"total_export_unit" db:"total_export_unit"`
	EnergyChargeAmount float64    `json:"energy_charge_amount" db:"energy_charge_amount"`
	FixedChargeAmount  float64    `json:"fixed_charge_amount" db:"fixed_charge_amount"`
	SubsidyAmount      float64    `json:"subsidy_amount" db:"subsidy_amount"`
	SolarExportCredit  float64    `json:"solar_export_credit" db:"solar_export_credit"`
	TotalAmount        float64    `json:"total_amount" db:"total_amount"`
	Status             BillStatus `json:"status" db:"status"`
	VoidReason         *string    `json:"void_reason,omitempty" db:"void_reason"`
	VoidedBy           *uuid.UUID `json:"voided_by,omitempty" db:"voided_by"`
	VoidedAt           *time.Time `json:"voided_at,omitempty" db:"voided_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// IsPayable reports whether payments may still be applied to the bill.
func (b Bill) IsPayable() bool {
	return b.Status == BillActive
}

// BillDetail is one row per tariff slab actually consumed. Child of Bill,
// deleted and recreated wholesale on recalculation.
type BillDetail struct {
	ID          uuid.UUID `json:"id" db:"id"`
	BillID      uuid.UUID `json:"bill_id" db:"bill_id"`
	SlabID      uuid.UUID `json:"slab_id" db:"slab_id"`
	FromUnit    float64   `json:"from_unit" db:"from_unit"`
	ToUnit      *float64  `json:"to_unit,omitempty" db:"to_unit"`
	UnitsInSlab float64   `json:"units_in_slab" db:"units_in_slab"`
	RateApplied float64   `json:"rate_applied" db:"rate_applied"`
	Amount      float64   `json:"amount" db:"amount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// BillTax stores the rate and base a tax was applied with; the amount itself
// is always derived so it can never drift from the stored inputs.
type BillTax struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	BillID             uuid.UUID `json:"bill_id" db:"bill_id"`
	TaxID              uuid.UUID `json:"tax_id" db:"tax_id"`
	TaxName            string    `json:"tax_name" db:"tax_name"`
	RatePercentApplied float64   `json:"rate_percent_applied" db:"rate_percent_applied"`
	TaxableBaseAmount  float64   `json:"taxable_base_amount" db:"taxable_base_amount"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Amount derives the tax amount from the applied rate and base.
func (t BillTax) Amount() float64 {
	return RoundMoney(t.TaxableBaseAmount * t.RatePercentApplied / 100)
}

// Payment rows are written by the payments subsystem; the billing engine only
// sums them when guarding a void.
type Payment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BillID    uuid.UUID `json:"bill_id" db:"bill_id"`
	Amount    float64   `json:"amount" db:"amount"`
	PaidAt    time.Time `json:"paid_at" db:"paid_at"`
	Reference *string   `json:"reference,omitempty" db:"reference"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
