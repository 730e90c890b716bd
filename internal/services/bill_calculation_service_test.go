package services

import (
	"testing"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdjustmentPolicy returns fixed amounts, letting tests exercise the
// subsidy cap and credit wiring without a real policy.
type stubAdjustmentPolicy struct {
	subsidy    float64
	creditRate float64
}

func (p *stubAdjustmentPolicy) Subsidy(customerID uuid.UUID, amountBeforeSubsidy float64, billDate time.Time) (float64, error) {
	return p.subsidy, nil
}

func (p *stubAdjustmentPolicy) SolarCredit(exportUnits float64, utility models.UtilityType, billDate time.Time) (float64, error) {
	if exportUnits <= 0 {
		return 0, nil
	}
	return models.RoundMoney(exportUnits * p.creditRate), nil
}

type calcFixture struct {
	meters  *fakeMeterStore
	tariffs *fakeTariffStore
	meterID uuid.UUID
	start   time.Time
	end     time.Time
}

// newCalcFixture wires a billable electricity meter with boundary readings
// giving 150 units of consumption over March 2025.
func newCalcFixture(t *testing.T) *calcFixture {
	t.Helper()

	meterID := uuid.New()
	categoryID := uuid.New()

	meters := newFakeMeterStore()
	meters.meters[meterID] = &models.Meter{
		ID:           meterID,
		SerialNumber: "EM-1001",
		UtilityType:  models.UtilityElectricity,
		Status:       "ACTIVE",
	}
	meters.connections[meterID] = &models.ServiceConnection{
		ID:               uuid.New(),
		MeterID:          meterID,
		CustomerID:       uuid.New(),
		TariffCategoryID: &categoryID,
		Status:           models.ConnectionActive,
	}
	meters.readings[meterID] = []models.MeterReading{
		{
			ID:            uuid.New(),
			MeterID:       meterID,
			ReadingDate:   date(2025, time.March, 1),
			ImportReading: 1000,
			ExportReading: 0,
			Source:        models.ReadingSourceManual,
		},
		{
			ID:            uuid.New(),
			MeterID:       meterID,
			ReadingDate:   date(2025, time.March, 31),
			ImportReading: 1150,
			ExportReading: 0,
			Source:        models.ReadingSourceManual,
		},
	}

	tariffs := &fakeTariffStore{
		slabs: progressiveSlabs(categoryID),
		taxes: []models.TaxConfig{vatConfig()},
	}

	return &calcFixture{
		meters:  meters,
		tariffs: tariffs,
		meterID: meterID,
		start:   date(2025, time.March, 1),
		end:     date(2025, time.March, 31),
	}
}

func TestCalculate_FullChain(t *testing.T) {
	fx := newCalcFixture(t)
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	calc, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	require.NoError(t, err)

	assert.Equal(t, 150.0, calc.TotalImportUnit)
	assert.Equal(t, 0.0, calc.TotalExportUnit)
	require.Len(t, calc.SlabBreakdown, 3)
	assert.Equal(t, 1446.00, calc.EnergyChargeAmount)
	assert.Equal(t, 100.00, calc.FixedChargeAmount)
	assert.Equal(t, 0.00, calc.SubsidyAmount)
	assert.Equal(t, 0.00, calc.SolarExportCredit)
	assert.Equal(t, 1546.00, calc.TaxableAmount)
	require.Len(t, calc.Taxes, 1)
	assert.Equal(t, 231.90, calc.Taxes[0].Amount)
	assert.Equal(t, 1777.90, calc.TotalAmount)
}

func TestCalculate_SolarExportCredit(t *testing.T) {
	fx := newCalcFixture(t)
	fx.meters.readings[fx.meterID][1].ExportReading = 20

	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	calc, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	require.NoError(t, err)

	assert.Equal(t, 20.0, calc.TotalExportUnit)
	assert.Equal(t, 140.00, calc.SolarExportCredit)
	// 1546 - 140 = 1406 taxable, VAT 15% = 210.90
	assert.Equal(t, 1406.00, calc.TaxableAmount)
	assert.Equal(t, 210.90, calc.TotalTaxAmount)
	assert.Equal(t, 1616.90, calc.TotalAmount)
}

func TestCalculate_SubsidyCappedAtSubtotal(t *testing.T) {
	fx := newCalcFixture(t)
	engine := NewBillCalculationService(fx.meters, fx.tariffs, &stubAdjustmentPolicy{subsidy: 999999})

	calc, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	require.NoError(t, err)

	assert.Equal(t, 1546.00, calc.SubsidyAmount)
	assert.Equal(t, 0.00, calc.TaxableAmount)
	assert.Equal(t, 0.00, calc.TotalTaxAmount)
	assert.Equal(t, 0.00, calc.TotalAmount)
}

func TestCalculate_MeterNotFound(t *testing.T) {
	fx := newCalcFixture(t)
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(uuid.New(), fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCalculate_NoActiveConnection(t *testing.T) {
	fx := newCalcFixture(t)
	fx.meters.connections[fx.meterID].Status = models.ConnectionDisconnected
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCalculate_NoTariffCategory(t *testing.T) {
	fx := newCalcFixture(t)
	fx.meters.connections[fx.meterID].TariffCategoryID = nil
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCalculate_TooFewReadings(t *testing.T) {
	fx := newCalcFixture(t)
	fx.meters.readings[fx.meterID] = fx.meters.readings[fx.meterID][:1]
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestCalculate_NegativeConsumptionRejected(t *testing.T) {
	fx := newCalcFixture(t)
	// Later reading below the earlier one without a correction flag.
	fx.meters.readings[fx.meterID][1].ImportReading = 900
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrInvalidData)
}

func TestCalculate_CorrectedReadingBillsZeroConsumption(t *testing.T) {
	fx := newCalcFixture(t)
	fx.meters.readings[fx.meterID][1].ImportReading = 900
	fx.meters.readings[fx.meterID][1].Source = models.ReadingSourceCorrected
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	calc, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	require.NoError(t, err)

	assert.Equal(t, 0.0, calc.TotalImportUnit)
	assert.Empty(t, calc.SlabBreakdown)
	assert.Equal(t, 0.00, calc.EnergyChargeAmount)
	// The fixed charge and its tax still apply: 100 + 15% = 115.
	assert.Equal(t, 100.00, calc.FixedChargeAmount)
	assert.Equal(t, 115.00, calc.TotalAmount)
}

func TestCalculate_NoSlabsForCategory(t *testing.T) {
	fx := newCalcFixture(t)
	fx.tariffs.slabs = nil
	engine := NewBillCalculationService(fx.meters, fx.tariffs, NewFlatRateAdjustmentPolicy(7.00))

	_, err := engine.Calculate(fx.meterID, fx.start, fx.end)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
