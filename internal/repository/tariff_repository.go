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

type TariffRepository struct {
	db *sqlx.DB
}

func NewTariffRepository(db *sqlx.DB) *TariffRepository {
	return &TariffRepository{db: db}
}

// GetSlabsValidOn returns the category's slabs valid on the billing date,
// ordered by from_unit ascending. An empty result is returned as-is; the
// slab calculator decides whether that is a configuration error.
func (r *TariffRepository) GetSlabsValidOn(categoryID uuid.UUID, date time.Time) ([]models.TariffSlab, error) {
	var slabs []models.TariffSlab
	query := `
		SELECT id, tariff_category_id, from_unit, to_unit, rate_per_unit, fixed_charge,
		       valid_from, valid_to, created_at
		FROM tariff_slab
		WHERE tariff_category_id = $1
		  AND valid_from <= $2
		  AND (valid_to IS NULL OR valid_to >= $2)
		ORDER BY from_unit ASC`

	err := r.db.Select(&slabs, query, categoryID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get tariff slabs: %w", err)
	}

	return slabs, nil
}

// GetTaxConfigsActiveOn returns taxes active on the billing date.
func (r *TariffRepository) GetTaxConfigsActiveOn(date time.Time) ([]models.TaxConfig, error) {
	var configs []models.TaxConfig
	query := `
		SELECT id, tax_name, rate_percent, effective_from, effective_to, status, created_at
		FROM tax_config
		WHERE status = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY tax_name`

	err := r.db.Select(&configs, query, models.TaxActive, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax configs: %w", err)
	}

	return configs, nil
}

// GetActiveTaxConfigByName resolves a tax by name among those active on the
// date. Used when persisting bill tax rows.
func (r *TariffRepository) GetActiveTaxConfigByName(name string, date time.Time) (*models.TaxConfig, error) {
	var config models.TaxConfig
	query := `
		SELECT id, tax_name, rate_percent, effective_from, effective_to, status, created_at
		FROM tax_config
		WHERE tax_name = $1
		  AND status = $2
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		LIMIT 1`

	err := r.db.Get(&config, query, name, models.TaxActive, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tax config %q: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tax config by name: %w", err)
	}

	return &config, nil
}
