package models

import (
	"time"

	"github.com/google/uuid"
)

// SlabCharge is one line of the per-slab breakdown produced by the slab
// calculator.
type SlabCharge struct {
	SlabID      uuid.UUID `json:"slab_id"`
	FromUnit    float64   `json:"from_unit"`
	ToUnit      *float64  `json:"to_unit,omitempty"`
	Units       float64   `json:"units"`
	RatePerUnit float64   `json:"rate_per_unit"`
	Amount      float64   `json:"amount"`
}

// TaxLine is one applicable tax with its computed amount.
type TaxLine struct {
	TaxID       uuid.UUID `json:"tax_id"`
	TaxName     string    `json:"tax_name"`
	RatePercent float64   `json:"rate_percent"`
	Amount      float64   `json:"amount"`
}

// BillCalculation is the pure result of a billing-period calculation. It
// carries no identity and has no persistence side effects; the preview and
// create paths share it.
type BillCalculation struct {
	MeterID            uuid.UUID    `json:"meter_id"`
	CustomerID         uuid.UUID    `json:"customer_id"`
	TariffCategoryID   uuid.UUID    `json:"tariff_category_id"`
	PeriodStart        time.Time    `json:"period_start"`
	PeriodEnd          time.Time    `json:"period_end"`
	TotalImportUnit    float64      `json:"total_import_unit"`
	TotalExportUnit    float64      `json:"total_export_unit"`
	SlabBreakdown      []SlabCharge `json:"slab_breakdown"`
	EnergyChargeAmount float64      `json:"energy_charge_amount"`
	FixedChargeAmount  float64      `json:"fixed_charge_amount"`
	SubsidyAmount      float64      `json:"subsidy_amount"`
	SolarExportCredit  float64      `json:"solar_export_credit"`
	TaxableAmount      float64      `json:"taxable_amount"`
	Taxes              []TaxLine    `json:"taxes"`
	TotalTaxAmount     float64      `json:"total_tax_amount"`
	TotalAmount        float64      `json:"total_amount"`
}

// EligibilityResult is the decision of the billing eligibility evaluator.
type EligibilityResult struct {
	MeterID              uuid.UUID  `json:"meter_id"`
	Eligible             bool       `json:"eligible"`
	Reason               string     `json:"reason"`
	LastBillDate         *time.Time `json:"last_bill_date,omitempty"`
	SuggestedPeriodStart *time.Time `json:"suggested_period_start,omitempty"`
	ReadingCount         int        `json:"reading_count"`
}

// BillWithChildren bundles a bill with its detail and tax rows for read
// responses.
type BillWithChildren struct {
	Bill    Bill         `json:"bill"`
	Details []BillDetail `json:"details"`
	Taxes   []BillTax    `json:"taxes"`
}

// RunFailure records one meter the bulk billing run could not bill.
type RunFailure struct {
	MeterID uuid.UUID `json:"meter_id"`
	Reason  string    `json:"reason"`
}

// RunReport summarizes a bulk billing run. Per-meter failures never abort the
// run; they are collected here instead.
type RunReport struct {
	RunDate        time.Time    `json:"run_date"`
	MetersScanned  int          `json:"meters_scanned"`
	BillsGenerated int          `json:"bills_generated"`
	Skipped        int          `json:"skipped"`
	Failures       []RunFailure `json:"failures"`
}
