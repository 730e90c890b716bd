package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MeterRepository reads meters, service connections and meter readings. All
// of these are owned by other services; the billing engine never writes them.
type MeterRepository struct {
	db *sqlx.DB
}

func NewMeterRepository(db *sqlx.DB) *MeterRepository {
	return &MeterRepository{db: db}
}

func (r *MeterRepository) GetMeterByID(id uuid.UUID) (*models.Meter, error) {
	var meter models.Meter
	query := `
		SELECT id, serial_number, utility_type, status, installed_at, created_at, updated_at
		FROM meter
		WHERE id = $1`

	err := r.db.Get(&meter, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("meter %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meter: %w", err)
	}

	return &meter, nil
}

// GetActiveConnection returns the meter's ACTIVE service connection, or
// ErrNotFound when none exists.
func (r *MeterRepository) GetActiveConnection(meterID uuid.UUID) (*models.ServiceConnection, error) {
	var conn models.ServiceConnection
	query := `
		SELECT id, meter_id, customer_id, tariff_category_id, status, connected_at, created_at, updated_at
		FROM service_connection
		WHERE meter_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.Get(&conn, query, meterID, models.ConnectionActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active connection for meter %s: %w", meterID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active connection: %w", err)
	}

	return &conn, nil
}

// GetReadingsInPeriod returns readings with period start <= date <= period
// end, ordered by reading date ascending.
func (r *MeterRepository) GetReadingsInPeriod(meterID uuid.UUID, start, end time.Time) ([]models.MeterReading, error) {
	var readings []models.MeterReading
	query := `
		SELECT id, meter_id, reading_date, import_reading, export_reading, source, created_at
		FROM meter_reading
		WHERE meter_id = $1 AND reading_date >= $2 AND reading_date <= $3
		ORDER BY reading_date ASC`

	err := r.db.Select(&readings, query, meterID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get readings in period: %w", err)
	}

	return readings, nil
}

// GetFirstReading returns the earliest reading ever recorded for the meter,
// or ErrNotFound when the meter has no readings.
func (r *MeterRepository) GetFirstReading(meterID uuid.UUID) (*models.MeterReading, error) {
	var reading models.MeterReading
	query := `
		SELECT id, meter_id, reading_date, import_reading, export_reading, source, created_at
		FROM meter_reading
		WHERE meter_id = $1
		ORDER BY reading_date ASC
		LIMIT 1`

	err := r.db.Get(&reading, query, meterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("readings for meter %s: %w", meterID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get first reading: %w", err)
	}

	return &reading, nil
}

func (r *MeterRepository) CountReadingsInPeriod(meterID uuid.UUID, start, end time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM meter_reading
		WHERE meter_id = $1 AND reading_date >= $2 AND reading_date <= $3`

	err := r.db.Get(&count, query, meterID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return count, nil
}

// ListBillableMeterIDs returns the ids of meters that have an ACTIVE
// connection with a tariff category assigned. Used by the bulk billing run.
func (r *MeterRepository) ListBillableMeterIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT DISTINCT m.id
		FROM meter m
		JOIN service_connection sc ON sc.meter_id = m.id
		WHERE sc.status = $1 AND sc.tariff_category_id IS NOT NULL
		ORDER BY m.id`

	err := r.db.Select(&ids, query, models.ConnectionActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list billable meters: %w", err)
	}

	return ids, nil
}
