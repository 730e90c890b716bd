package services

import (
	"errors"
	"fmt"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
)

// ReasonReady is the reason string of a positive eligibility decision.
const ReasonReady = "Ready for billing"

// EligibilityService decides whether enough time and enough readings exist
// since a meter's last bill to justify generating a new one. Pure decision
// logic: it never writes anything.
type EligibilityService struct {
	meters MeterStore
	bills  BillStore
}

func NewEligibilityService(meters MeterStore, bills BillStore) *EligibilityService {
	return &EligibilityService{meters: meters, bills: bills}
}

// Evaluate checks the meter against the candidate date. A failed precondition
// yields Eligible=false with the reason; only store failures return an error.
func (s *EligibilityService) Evaluate(meterID uuid.UUID, candidateDate time.Time, minDaysBetweenBills int) (*models.EligibilityResult, error) {
	result := &models.EligibilityResult{MeterID: meterID}

	if _, err := s.meters.GetMeterByID(meterID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			result.Reason = "Meter not found"
			return result, nil
		}
		return nil, err
	}

	conn, err := s.meters.GetActiveConnection(meterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			result.Reason = "Meter has no active service connection"
			return result, nil
		}
		return nil, err
	}
	if conn.TariffCategoryID == nil {
		result.Reason = "Service connection has no tariff category assigned"
		return result, nil
	}

	var periodStart time.Time
	lastBill, err := s.bills.GetLatestByMeter(meterID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if lastBill != nil {
		periodStart = lastBill.BillingPeriodEnd
		result.LastBillDate = &lastBill.BillingPeriodEnd

		daysSinceLastBill := int(candidateDate.Sub(lastBill.BillingPeriodEnd).Hours() / 24)
		if daysSinceLastBill < minDaysBetweenBills {
			result.Reason = fmt.Sprintf("Only %d days since last bill, minimum is %d",
				daysSinceLastBill, minDaysBetweenBills)
			return result, nil
		}
	} else {
		// First bill: the meter's very first reading opens the period.
		firstReading, err := s.meters.GetFirstReading(meterID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				result.Reason = "Meter has no readings yet"
				return result, nil
			}
			return nil, err
		}
		periodStart = firstReading.ReadingDate
	}

	result.SuggestedPeriodStart = &periodStart

	readingCount, err := s.meters.CountReadingsInPeriod(meterID, periodStart, candidateDate)
	if err != nil {
		return nil, err
	}
	result.ReadingCount = readingCount
	if readingCount < 2 {
		result.Reason = fmt.Sprintf("Need at least 2 readings since %s, found %d",
			periodStart.Format("2006-01-02"), readingCount)
		return result, nil
	}

	result.Eligible = true
	result.Reason = ReasonReady
	return result, nil
}
