package services

import (
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
)

// AdjustmentPolicy computes the two deductions applied to a bill before tax.
// It is the extension point for rule-table based subsidies and negotiated
// solar export rates; swapping the implementation must not touch callers.
type AdjustmentPolicy interface {
	// Subsidy returns the subsidy for the customer on the bill date. The
	// calculation engine caps it at the amount it is subtracted from, so a
	// policy may over-report without producing negative totals.
	Subsidy(customerID uuid.UUID, amountBeforeSubsidy float64, billDate time.Time) (float64, error)

	// SolarCredit returns the credit for exported units. Zero when
	// exportUnits <= 0; never negative.
	SolarCredit(exportUnits float64, utility models.UtilityType, billDate time.Time) (float64, error)
}

// FlatRateAdjustmentPolicy is the current production policy: no subsidy
// table is modeled yet, and solar export is credited at a single configured
// rate per unit.
type FlatRateAdjustmentPolicy struct {
	ExportRatePerUnit float64
}

func NewFlatRateAdjustmentPolicy(exportRatePerUnit float64) *FlatRateAdjustmentPolicy {
	return &FlatRateAdjustmentPolicy{ExportRatePerUnit: exportRatePerUnit}
}

func (p *FlatRateAdjustmentPolicy) Subsidy(customerID uuid.UUID, amountBeforeSubsidy float64, billDate time.Time) (float64, error) {
	// TODO: replace with the subsidy rule table once the scheme catalog is
	// migrated into this service.
	return 0, nil
}

func (p *FlatRateAdjustmentPolicy) SolarCredit(exportUnits float64, utility models.UtilityType, billDate time.Time) (float64, error) {
	if exportUnits <= 0 {
		return 0, nil
	}
	return models.RoundMoney(exportUnits * p.ExportRatePerUnit), nil
}
