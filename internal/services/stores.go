package services

import (
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
)

// Narrow store interfaces the billing services depend on. The sqlx
// repositories satisfy them; tests use in-memory fakes.

type MeterStore interface {
	GetMeterByID(id uuid.UUID) (*models.Meter, error)
	GetActiveConnection(meterID uuid.UUID) (*models.ServiceConnection, error)
	GetReadingsInPeriod(meterID uuid.UUID, start, end time.Time) ([]models.MeterReading, error)
	GetFirstReading(meterID uuid.UUID) (*models.MeterReading, error)
	CountReadingsInPeriod(meterID uuid.UUID, start, end time.Time) (int, error)
	ListBillableMeterIDs() ([]uuid.UUID, error)
}

// TariffProvider serves tariff slabs and tax configs. Implemented by the
// tariff repository directly and by the redis-caching TariffService that
// fronts it.
type TariffProvider interface {
	GetSlabsValidOn(categoryID uuid.UUID, date time.Time) ([]models.TariffSlab, error)
	GetTaxConfigsActiveOn(date time.Time) ([]models.TaxConfig, error)
	GetActiveTaxConfigByName(name string, date time.Time) (*models.TaxConfig, error)
}

type BillStore interface {
	GetByID(id uuid.UUID) (*models.Bill, error)
	GetByMeterAndPeriodEnd(meterID uuid.UUID, periodEnd time.Time) (*models.Bill, error)
	GetLatestByMeter(meterID uuid.UUID) (*models.Bill, error)
	ListByMeter(meterID uuid.UUID) ([]models.Bill, error)
	GetDetails(billID uuid.UUID) ([]models.BillDetail, error)
	GetTaxes(billID uuid.UUID) ([]models.BillTax, error)
	CreateWithChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error
	ReplaceChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error
	MarkVoid(billID uuid.UUID, reason string, actorID uuid.UUID) error
	SumPayments(billID uuid.UUID) (float64, error)
}
