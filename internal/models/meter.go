package models

import (
	"time"

	"github.com/google/uuid"
)

type Meter struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	SerialNumber string      `json:"serial_number" db:"serial_number"`
	UtilityType  UtilityType `json:"utility_type" db:"utility_type"`
	Status       string      `json:"status" db:"status"`
	InstalledAt  *time.Time  `json:"installed_at,omitempty" db:"installed_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// ServiceConnection ties a meter to a customer and a tariff category. A meter
// without an ACTIVE connection, or whose connection has no tariff category,
// is not billable.
type ServiceConnection struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	MeterID          uuid.UUID        `json:"meter_id" db:"meter_id"`
	CustomerID       uuid.UUID        `json:"customer_id" db:"customer_id"`
	TariffCategoryID *uuid.UUID       `json:"tariff_category_id,omitempty" db:"tariff_category_id"`
	Status           ConnectionStatus `json:"status" db:"status"`
	ConnectedAt      *time.Time       `json:"connected_at,omitempty" db:"connected_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// MeterReading is an immutable fact recorded by the readings subsystem; the
// billing engine only ever reads it.
type MeterReading struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	MeterID       uuid.UUID     `json:"meter_id" db:"meter_id"`
	ReadingDate   time.Time     `json:"reading_date" db:"reading_date"`
	ImportReading float64       `json:"import_reading" db:"import_reading"`
	ExportReading float64       `json:"export_reading" db:"export_reading"`
	Source        ReadingSource `json:"source" db:"source"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
