package services

import (
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"
)

// BillingRunService scans every billable meter and generates bills for the
// eligible ones. A per-meter failure never aborts the run; it lands in the
// report's failure list instead. Partial success is the contract: one broken
// tariff category must not hold up the rest of the grid.
type BillingRunService struct {
	meters      MeterStore
	eligibility *EligibilityService
	billing     *BillingService
	minDays     int
}

func NewBillingRunService(meters MeterStore, eligibility *EligibilityService, billing *BillingService, minDays int) *BillingRunService {
	return &BillingRunService{
		meters:      meters,
		eligibility: eligibility,
		billing:     billing,
		minDays:     minDays,
	}
}

// Run executes a bulk billing pass as of runDate.
func (s *BillingRunService) Run(runDate time.Time) (*models.RunReport, error) {
	meterIDs, err := s.meters.ListBillableMeterIDs()
	if err != nil {
		return nil, fmt.Errorf("billing run aborted before scanning: %w", err)
	}

	report := &models.RunReport{
		RunDate:       runDate,
		MetersScanned: len(meterIDs),
		Failures:      []models.RunFailure{},
	}

	for _, meterID := range meterIDs {
		eligibility, err := s.eligibility.Evaluate(meterID, runDate, s.minDays)
		if err != nil {
			report.Failures = append(report.Failures, models.RunFailure{
				MeterID: meterID,
				Reason:  err.Error(),
			})
			continue
		}
		if !eligibility.Eligible {
			report.Skipped++
			continue
		}

		if _, err := s.billing.Create(meterID, *eligibility.SuggestedPeriodStart, runDate, nil); err != nil {
			slog.Warn("billing run failed for meter", "meter_id", meterID, "error", err)
			report.Failures = append(report.Failures, models.RunFailure{
				MeterID: meterID,
				Reason:  err.Error(),
			})
			continue
		}
		report.BillsGenerated++
	}

	slog.Info("Billing run completed",
		"run_date", runDate.Format("2006-01-02"),
		"scanned", report.MetersScanned,
		"generated", report.BillsGenerated,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
	)

	return report, nil
}
