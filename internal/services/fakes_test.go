package services

import (
	"fmt"
	"sort"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
)

// ============================================================================
// IN-MEMORY STORE FAKES
// ============================================================================

type fakeMeterStore struct {
	meters      map[uuid.UUID]*models.Meter
	connections map[uuid.UUID]*models.ServiceConnection
	readings    map[uuid.UUID][]models.MeterReading
}

func newFakeMeterStore() *fakeMeterStore {
	return &fakeMeterStore{
		meters:      make(map[uuid.UUID]*models.Meter),
		connections: make(map[uuid.UUID]*models.ServiceConnection),
		readings:    make(map[uuid.UUID][]models.MeterReading),
	}
}

func (f *fakeMeterStore) GetMeterByID(id uuid.UUID) (*models.Meter, error) {
	meter, ok := f.meters[id]
	if !ok {
		return nil, fmt.Errorf("meter %s: %w", id, models.ErrNotFound)
	}
	return meter, nil
}

func (f *fakeMeterStore) GetActiveConnection(meterID uuid.UUID) (*models.ServiceConnection, error) {
	conn, ok := f.connections[meterID]
	if !ok || conn.Status != models.ConnectionActive {
		return nil, fmt.Errorf("active connection for meter %s: %w", meterID, models.ErrNotFound)
	}
	return conn, nil
}

func (f *fakeMeterStore) GetReadingsInPeriod(meterID uuid.UUID, start, end time.Time) ([]models.MeterReading, error) {
	var result []models.MeterReading
	for _, r := range f.readings[meterID] {
		if !r.ReadingDate.Before(start) && !r.ReadingDate.After(end) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReadingDate.Before(result[j].ReadingDate)
	})
	return result, nil
}

func (f *fakeMeterStore) GetFirstReading(meterID uuid.UUID) (*models.MeterReading, error) {
	readings := f.readings[meterID]
	if len(readings) == 0 {
		return nil, fmt.Errorf("readings for meter %s: %w", meterID, models.ErrNotFound)
	}
	first := readings[0]
	for _, r := range readings[1:] {
		if r.ReadingDate.Before(first.ReadingDate) {
			first = r
		}
	}
	return &first, nil
}

func (f *fakeMeterStore) CountReadingsInPeriod(meterID uuid.UUID, start, end time.Time) (int, error) {
	readings, _ := f.GetReadingsInPeriod(meterID, start, end)
	return len(readings), nil
}

func (f *fakeMeterStore) ListBillableMeterIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for meterID, conn := range f.connections {
		if conn.Status == models.ConnectionActive && conn.TariffCategoryID != nil {
			ids = append(ids, meterID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type fakeTariffStore struct {
	slabs []models.TariffSlab
	taxes []models.TaxConfig
	// failTaxByName simulates a tax config disappearing between calculation
	// and persistence.
	failTaxByName bool
}

func (f *fakeTariffStore) GetSlabsValidOn(categoryID uuid.UUID, date time.Time) ([]models.TariffSlab, error) {
	var result []models.TariffSlab
	for _, s := range f.slabs {
		if s.TariffCategoryID == categoryID && s.IsValidOn(date) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FromUnit < result[j].FromUnit })
	return result, nil
}

func (f *fakeTariffStore) GetTaxConfigsActiveOn(date time.Time) ([]models.TaxConfig, error) {
	var result []models.TaxConfig
	for _, t := range f.taxes {
		if t.IsActiveOn(date) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeTariffStore) GetActiveTaxConfigByName(name string, date time.Time) (*models.TaxConfig, error) {
	if f.failTaxByName {
		return nil, fmt.Errorf("tax config %q: %w", name, models.ErrNotFound)
	}
	for _, t := range f.taxes {
		if t.TaxName == name && t.IsActiveOn(date) {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tax config %q: %w", name, models.ErrNotFound)
}

type fakeBillStore struct {
	bills       map[uuid.UUID]*models.Bill
	details     map[uuid.UUID][]models.BillDetail
	taxes       map[uuid.UUID][]models.BillTax
	payments    map[uuid.UUID]float64
	createCalls int
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{
		bills:    make(map[uuid.UUID]*models.Bill),
		details:  make(map[uuid.UUID][]models.BillDetail),
		taxes:    make(map[uuid.UUID][]models.BillTax),
		payments: make(map[uuid.UUID]float64),
	}
}

func (f *fakeBillStore) GetByID(id uuid.UUID) (*models.Bill, error) {
	bill, ok := f.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", id, models.ErrNotFound)
	}
	copied := *bill
	return &copied, nil
}

func (f *fakeBillStore) GetByMeterAndPeriodEnd(meterID uuid.UUID, periodEnd time.Time) (*models.Bill, error) {
	for _, bill := range f.bills {
		if bill.MeterID == meterID && bill.BillingPeriodEnd.Equal(periodEnd) {
			copied := *bill
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("bill for meter %s: %w", meterID, models.ErrNotFound)
}

func (f *fakeBillStore) GetLatestByMeter(meterID uuid.UUID) (*models.Bill, error) {
	var latest *models.Bill
	for _, bill := range f.bills {
		if bill.MeterID != meterID {
			continue
		}
		if latest == nil || bill.BillingPeriodEnd.After(latest.BillingPeriodEnd) {
			latest = bill
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("bills for meter %s: %w", meterID, models.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeBillStore) ListByMeter(meterID uuid.UUID) ([]models.Bill, error) {
	var bills []models.Bill
	for _, bill := range f.bills {
		if bill.MeterID == meterID {
			bills = append(bills, *bill)
		}
	}
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].BillingPeriodEnd.After(bills[j].BillingPeriodEnd)
	})
	return bills, nil
}

func (f *fakeBillStore) GetDetails(billID uuid.UUID) ([]models.BillDetail, error) {
	return f.details[billID], nil
}

func (f *fakeBillStore) GetTaxes(billID uuid.UUID) ([]models.BillTax, error) {
	return f.taxes[billID], nil
}

func (f *fakeBillStore) CreateWithChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error {
	f.createCalls++
	for _, existing := range f.bills {
		if existing.MeterID == bill.MeterID && existing.BillingPeriodEnd.Equal(bill.BillingPeriodEnd) {
			return fmt.Errorf("bill for meter %s already exists: %w", bill.MeterID, models.ErrConflict)
		}
	}
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	copied := *bill
	f.bills[bill.ID] = &copied
	f.details[bill.ID] = append([]models.BillDetail(nil), details...)
	f.taxes[bill.ID] = append([]models.BillTax(nil), taxes...)
	return nil
}

func (f *fakeBillStore) ReplaceChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error {
	if _, ok := f.bills[bill.ID]; !ok {
		return fmt.Errorf("bill %s: %w", bill.ID, models.ErrNotFound)
	}
	copied := *bill
	f.bills[bill.ID] = &copied
	f.details[bill.ID] = append([]models.BillDetail(nil), details...)
	f.taxes[bill.ID] = append([]models.BillTax(nil), taxes...)
	return nil
}

func (f *fakeBillStore) MarkVoid(billID uuid.UUID, reason string, actorID uuid.UUID) error {
	bill, ok := f.bills[billID]
	if !ok {
		return fmt.Errorf("bill %s: %w", billID, models.ErrNotFound)
	}
	now := time.Now()
	bill.Status = models.BillVoid
	bill.VoidReason = &reason
	bill.VoidedBy = &actorID
	bill.VoidedAt = &now
	return nil
}

func (f *fakeBillStore) SumPayments(billID uuid.UUID) (float64, error) {
	return f.payments[billID], nil
}

// ============================================================================
// SHARED TEST DATA
// ============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

// progressiveSlabs is the household electricity table used across the
// calculator tests: 0-60 @ 7.85, 60-120 @ 10.00, above 120 @ 12.50, fixed
// charge 100.
func progressiveSlabs(categoryID uuid.UUID) []models.TariffSlab {
	validFrom := date(2024, time.January, 1)
	return []models.TariffSlab{
		{
			ID:               uuid.New(),
			TariffCategoryID: categoryID,
			FromUnit:         0,
			ToUnit:           floatPtr(60),
			RatePerUnit:      7.85,
			FixedCharge:      100,
			ValidFrom:        validFrom,
		},
		{
			ID:               uuid.New(),
			TariffCategoryID: categoryID,
			FromUnit:         60,
			ToUnit:           floatPtr(120),
			RatePerUnit:      10.00,
			FixedCharge:      100,
			ValidFrom:        validFrom,
		},
		{
			ID:               uuid.New(),
			TariffCategoryID: categoryID,
			FromUnit:         120,
			ToUnit:           nil,
			RatePerUnit:      12.50,
			FixedCharge:      100,
			ValidFrom:        validFrom,
		},
	}
}

func vatConfig() models.TaxConfig {
	return models.TaxConfig{
		ID:            uuid.New(),
		TaxName:       "VAT",
		RatePercent:   15,
		EffectiveFrom: date(2024, time.January, 1),
		Status:        models.TaxActive,
	}
}
