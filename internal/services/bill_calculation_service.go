package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillCalculationService turns a meter's boundary readings for a billing
// period into a fully itemized calculation. It is side-effect free: the
// preview endpoint and the persisting create path share it.
type BillCalculationService struct {
	meters      MeterStore
	tariffs     TariffProvider
	adjustments AdjustmentPolicy
}

func NewBillCalculationService(meters MeterStore, tariffs TariffProvider, adjustments AdjustmentPolicy) *BillCalculationService {
	return &BillCalculationService{
		meters:      meters,
		tariffs:     tariffs,
		adjustments: adjustments,
	}
}

// Calculate runs the whole chain: readings -> consumption -> slab charges ->
// adjustments -> taxes -> total. Every precondition failure aborts
// immediately; there is no partial result.
//
// Tariff slabs and taxes are selected as of the period end, so recalculating
// an old bill reproduces its charges even after the tariff table moved on.
func (s *BillCalculationService) Calculate(meterID uuid.UUID, periodStart, periodEnd time.Time) (*models.BillCalculation, error) {
	meter, err := s.meters.GetMeterByID(meterID)
	if err != nil {
		return nil, err
	}

	conn, err := s.meters.GetActiveConnection(meterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("meter %s has no active service connection: %w", meterID, models.ErrInvalidState)
		}
		return nil, err
	}
	if conn.TariffCategoryID == nil {
		return nil, fmt.Errorf("meter %s connection has no tariff category: %w", meterID, models.ErrInvalidState)
	}

	readings, err := s.meters.GetReadingsInPeriod(meterID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if len(readings) < 2 {
		return nil, fmt.Errorf("need at least 2 readings in period, found %d: %w", len(readings), models.ErrInsufficientData)
	}

	first := readings[0]
	last := readings[len(readings)-1]

	consumption := last.ImportReading - first.ImportReading
	exportUnits := last.ExportReading - first.ExportReading
	if consumption < 0 {
		// A CORRECTED closing reading may legitimately land below the
		// opening one; charge zero units rather than fail the bill.
		if last.Source != models.ReadingSourceCorrected {
			return nil, fmt.Errorf("negative consumption (%.4f) for meter %s between %s and %s: %w",
				consumption, meterID,
				first.ReadingDate.Format(time.RFC3339), last.ReadingDate.Format(time.RFC3339),
				models.ErrInvalidData)
		}
		slog.Warn("corrected reading below period start, billing zero consumption",
			"meter_id", meterID, "consumption", consumption)
		consumption = 0
	}

	slabs, err := s.tariffs.GetSlabsValidOn(*conn.TariffCategoryID, periodEnd)
	if err != nil {
		return nil, err
	}
	slabResult, err := CalculateSlabCharges(consumption, slabs)
	if err != nil {
		return nil, fmt.Errorf("tariff category %s: %w", *conn.TariffCategoryID, err)
	}

	subtotal := decimal.NewFromFloat(slabResult.EnergyCharge).
		Add(decimal.NewFromFloat(slabResult.FixedCharge))
	subtotalF, _ := subtotal.Float64()

	subsidy, err := s.adjustments.Subsidy(conn.CustomerID, subtotalF, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compute subsidy: %w", err)
	}
	// Never let the subsidy exceed what it is subtracted from.
	if subsidy > subtotalF {
		subsidy = subtotalF
	}

	solarCredit, err := s.adjustments.SolarCredit(exportUnits, meter.UtilityType, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compute solar credit: %w", err)
	}

	beforeTax := subtotal.
		Sub(decimal.NewFromFloat(subsidy)).
		Sub(decimal.NewFromFloat(solarCredit))
	if beforeTax.IsNegative() {
		beforeTax = decimal.Zero
	}
	beforeTaxF, _ := beforeTax.Round(2).Float64()

	taxConfigs, err := s.tariffs.GetTaxConfigsActiveOn(periodEnd)
	if err != nil {
		return nil, err
	}
	taxes := CalculateTaxes(beforeTaxF, periodEnd, taxConfigs)
	totalTax := TotalTax(taxes)

	total := models.RoundMoney(beforeTaxF + totalTax)

	slog.Info("Bill calculated",
		"meter_id", meterID,
		"period_start", periodStart.Format("2006-01-02"),
		"period_end", periodEnd.Format("2006-01-02"),
		"consumption", consumption,
		"total_amount", total,
	)

	return &models.BillCalculation{
		MeterID:            meterID,
		CustomerID:         conn.CustomerID,
		TariffCategoryID:   *conn.TariffCategoryID,
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		TotalImportUnit:    consumption,
		TotalExportUnit:    exportUnits,
		SlabBreakdown:      slabResult.Breakdown,
		EnergyChargeAmount: slabResult.EnergyCharge,
		FixedChargeAmount:  slabResult.FixedCharge,
		SubsidyAmount:      models.RoundMoney(subsidy),
		SolarExportCredit:  models.RoundMoney(solarCredit),
		TaxableAmount:      beforeTaxF,
		Taxes:              taxes,
		TotalTaxAmount:     totalTax,
		TotalAmount:        total,
	}, nil
}
