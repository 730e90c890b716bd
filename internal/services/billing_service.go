package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
)

// BillingService owns the Bill lifecycle: create, recalculate, void. All
// writes go through the bill store's single-transaction operations; a failure
// anywhere rolls the whole bill back.
type BillingService struct {
	engine  *BillCalculationService
	bills   BillStore
	tariffs TariffProvider
	dueDays int
	// clock is swappable so tests can pin bill dates.
	clock func() time.Time
}

func NewBillingService(engine *BillCalculationService, bills BillStore, tariffs TariffProvider, dueDays int) *BillingService {
	return &BillingService{
		engine:  engine,
		bills:   bills,
		tariffs: tariffs,
		dueDays: dueDays,
		clock:   time.Now,
	}
}

// Create calculates and persists a bill for the period. (meter, period end)
// is the dedup key: a pre-check rejects obvious duplicates early, and the
// unique index behind CreateWithChildren settles any race two concurrent
// creates might still run into.
func (s *BillingService) Create(meterID uuid.UUID, periodStart, periodEnd time.Time, dueDays *int) (*models.Bill, error) {
	existing, err := s.bills.GetByMeterAndPeriodEnd(meterID, periodEnd)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("bill %s already covers meter %s up to %s: %w",
			existing.ID, meterID, periodEnd.Format(time.RFC3339), models.ErrConflict)
	}

	// Periods must not overlap: a new period starts at or after the latest
	// bill's period end. The dedup index alone would let a shorter period
	// inside an already-billed one through and charge those units twice.
	latest, err := s.bills.GetLatestByMeter(meterID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if latest != nil && periodStart.Before(latest.BillingPeriodEnd) {
		return nil, fmt.Errorf("period starting %s overlaps bill %s ending %s: %w",
			periodStart.Format(time.RFC3339), latest.ID,
			latest.BillingPeriodEnd.Format(time.RFC3339), models.ErrConflict)
	}

	calc, err := s.engine.Calculate(meterID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	billDate := s.clock()
	effectiveDueDays := s.dueDays
	if dueDays != nil {
		effectiveDueDays = *dueDays
	}

	bill := &models.Bill{
		MeterID:            meterID,
		BillingPeriodStart: periodStart,
		BillingPeriodEnd:   periodEnd,
		BillDate:           billDate,
		DueDate:            billDate.AddDate(0, 0, effectiveDueDays),
		TotalImportUnit:    calc.TotalImportUnit,
		TotalExportUnit:    calc.TotalExportUnit,
		EnergyChargeAmount: calc.EnergyChargeAmount,
		FixedChargeAmount:  calc.FixedChargeAmount,
		SubsidyAmount:      calc.SubsidyAmount,
		SolarExportCredit:  calc.SolarExportCredit,
		TotalAmount:        calc.TotalAmount,
		Status:             models.BillActive,
	}

	details := detailsFromBreakdown(calc.SlabBreakdown)
	taxes := s.resolveTaxRows(calc)

	if err := s.bills.CreateWithChildren(bill, details, taxes); err != nil {
		return nil, err
	}

	slog.Info("Bill created",
		"bill_id", bill.ID,
		"meter_id", meterID,
		"period_end", periodEnd.Format("2006-01-02"),
		"total_amount", bill.TotalAmount,
	)

	return bill, nil
}

// Recalculate re-runs the engine over the bill's stored period and replaces
// the charge fields and child rows in one transaction. Identity, meter and
// period never change, so running it twice against unchanged data is a
// no-op the second time.
func (s *BillingService) Recalculate(billID uuid.UUID) (*models.Bill, error) {
	bill, err := s.bills.GetByID(billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == models.BillVoid {
		return nil, fmt.Errorf("bill %s is voided: %w", billID, models.ErrConflict)
	}

	calc, err := s.engine.Calculate(bill.MeterID, bill.BillingPeriodStart, bill.BillingPeriodEnd)
	if err != nil {
		return nil, err
	}

	bill.TotalImportUnit = calc.TotalImportUnit
	bill.TotalExportUnit = calc.TotalExportUnit
	bill.EnergyChargeAmount = calc.EnergyChargeAmount
	bill.FixedChargeAmount = calc.FixedChargeAmount
	bill.SubsidyAmount = calc.SubsidyAmount
	bill.SolarExportCredit = calc.SolarExportCredit
	bill.TotalAmount = calc.TotalAmount

	details := detailsFromBreakdown(calc.SlabBreakdown)
	taxes := s.resolveTaxRows(calc)

	if err := s.bills.ReplaceChildren(bill, details, taxes); err != nil {
		return nil, err
	}

	slog.Info("Bill recalculated", "bill_id", billID, "total_amount", bill.TotalAmount)

	return bill, nil
}

// Void marks the bill VOID with an audit trail. Guarded by a live payment
// sum: anything already paid against the bill blocks the void.
func (s *BillingService) Void(billID uuid.UUID, reason string, actorID uuid.UUID) (*models.Bill, error) {
	bill, err := s.bills.GetByID(billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == models.BillVoid {
		return nil, fmt.Errorf("bill %s is already voided: %w", billID, models.ErrConflict)
	}

	paid, err := s.bills.SumPayments(billID)
	if err != nil {
		return nil, err
	}
	if paid > 0 {
		return nil, fmt.Errorf("bill %s has %.2f in recorded payments: %w", billID, paid, models.ErrConflict)
	}

	if err := s.bills.MarkVoid(billID, reason, actorID); err != nil {
		return nil, err
	}

	slog.Info("Bill voided", "bill_id", billID, "actor_id", actorID, "reason", reason)

	return s.bills.GetByID(billID)
}

// GetBill returns the bill with its detail and tax rows.
func (s *BillingService) GetBill(billID uuid.UUID) (*models.BillWithChildren, error) {
	bill, err := s.bills.GetByID(billID)
	if err != nil {
		return nil, err
	}
	details, err := s.bills.GetDetails(billID)
	if err != nil {
		return nil, err
	}
	taxes, err := s.bills.GetTaxes(billID)
	if err != nil {
		return nil, err
	}
	return &models.BillWithChildren{Bill: *bill, Details: details, Taxes: taxes}, nil
}

func (s *BillingService) ListBillsByMeter(meterID uuid.UUID) ([]models.Bill, error) {
	return s.bills.ListByMeter(meterID)
}

func detailsFromBreakdown(breakdown []models.SlabCharge) []models.BillDetail {
	details := make([]models.BillDetail, 0, len(breakdown))
	for _, charge := range breakdown {
		details = append(details, models.BillDetail{
			SlabID:      charge.SlabID,
			FromUnit:    charge.FromUnit,
			ToUnit:      charge.ToUnit,
			UnitsInSlab: charge.Units,
			RateApplied: charge.RatePerUnit,
			Amount:      charge.Amount,
		})
	}
	return details
}

// resolveTaxRows resolves each calculated tax line back to its active config
// by name before persisting. A line that no longer resolves is skipped and
// logged: an accepted data gap, not a failed bill.
func (s *BillingService) resolveTaxRows(calc *models.BillCalculation) []models.BillTax {
	taxes := make([]models.BillTax, 0, len(calc.Taxes))
	for _, line := range calc.Taxes {
		cfg, err := s.tariffs.GetActiveTaxConfigByName(line.TaxName, calc.PeriodEnd)
		if err != nil {
			slog.Warn("skipping unresolvable tax config",
				"tax_name", line.TaxName,
				"period_end", calc.PeriodEnd.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		taxes = append(taxes, models.BillTax{
			TaxID:              cfg.ID,
			TaxName:            cfg.TaxName,
			RatePercentApplied: line.RatePercent,
			TaxableBaseAmount:  calc.TaxableAmount,
		})
	}
	return taxes
}
