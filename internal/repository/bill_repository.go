package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// BillRepository owns the bill, bill_detail, bill_tax tables and the read
// side of payment. Multi-row writes happen inside a single transaction; a
// bill is never persisted partially.
type BillRepository struct {
	db *sqlx.DB
}

func NewBillRepository(db *sqlx.DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) GetByID(id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	query := `
		SELECT id, meter_id, billing_period_start, billing_period_end, bill_date, due_date,
		       total_import_unit, total_export_unit, energy_charge_amount, fixed_charge_amount,
		       subsidy_amount, solar_export_credit, total_amount, status,
		       void_reason, voided_by, voided_at, created_at, updated_at
		FROM bill
		WHERE id = $1`

	err := r.db.Get(&bill, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	return &bill, nil
}

// GetByMeterAndPeriodEnd looks up the dedup key. ErrNotFound means the
// period is free to bill.
func (r *BillRepository) GetByMeterAndPeriodEnd(meterID uuid.UUID, periodEnd time.Time) (*models.Bill, error) {
	var bill models.Bill
	query := `
		SELECT id, meter_id, billing_period_start, billing_period_end, bill_date, due_date,
		       total_import_unit, total_export_unit, energy_charge_amount, fixed_charge_amount,
		       subsidy_amount, solar_export_credit, total_amount, status,
		       void_reason, voided_by, voided_at, created_at, updated_at
		FROM bill
		WHERE meter_id = $1 AND billing_period_end = $2`

	err := r.db.Get(&bill, query, meterID, periodEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill for meter %s ending %s: %w", meterID, periodEnd.Format(time.RFC3339), models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill by period end: %w", err)
	}

	return &bill, nil
}

// GetLatestByMeter returns the meter's most recent bill by period end,
// voided bills included: a voided period still occupies its dedup slot.
func (r *BillRepository) GetLatestByMeter(meterID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	query := `
		SELECT id, meter_id, billing_period_start, billing_period_end, bill_date, due_date,
		       total_import_unit, total_export_unit, energy_charge_amount, fixed_charge_amount,
		       subsidy_amount, solar_export_credit, total_amount, status,
		       void_reason, voided_by, voided_at, created_at, updated_at
		FROM bill
		WHERE meter_id = $1
		ORDER BY billing_period_end DESC
		LIMIT 1`

	err := r.db.Get(&bill, query, meterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bills for meter %s: %w", meterID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest bill: %w", err)
	}

	return &bill, nil
}

func (r *BillRepository) ListByMeter(meterID uuid.UUID) ([]models.Bill, error) {
	var bills []models.Bill
	query := `
		SELECT id, meter_id, billing_period_start, billing_period_end, bill_date, due_date,
		       total_import_unit, total_export_unit, energy_charge_amount, fixed_charge_amount,
		       subsidy_amount, solar_export_credit, total_amount, status,
		       void_reason, voided_by, voided_at, created_at, updated_at
		FROM bill
		WHERE meter_id = $1
		ORDER BY billing_period_end DESC`

	err := r.db.Select(&bills, query, meterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills by meter: %w", err)
	}

	return bills, nil
}

func (r *BillRepository) GetDetails(billID uuid.UUID) ([]models.BillDetail, error) {
	var details []models.BillDetail
	query := `
		SELECT id, bill_id, slab_id, from_unit, to_unit, units_in_slab, rate_applied, amount, created_at
		FROM bill_detail
		WHERE bill_id = $1
		ORDER BY from_unit ASC`

	err := r.db.Select(&details, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill details: %w", err)
	}

	return details, nil
}

func (r *BillRepository) GetTaxes(billID uuid.UUID) ([]models.BillTax, error) {
	var taxes []models.BillTax
	query := `
		SELECT id, bill_id, tax_id, tax_name, rate_percent_applied, taxable_base_amount, created_at
		FROM bill_tax
		WHERE bill_id = $1
		ORDER BY tax_name`

	err := r.db.Select(&taxes, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill taxes: %w", err)
	}

	return taxes, nil
}

// CreateWithChildren inserts the bill and all its detail and tax rows in one
// transaction. A unique-index violation on (meter_id, billing_period_end)
// surfaces as ErrConflict: a concurrent create won the race.
func (r *BillRepository) CreateWithChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	bill.CreatedAt = time.Now()
	bill.UpdatedAt = bill.CreatedAt

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("failed to rollback bill create", "bill_id", bill.ID, "error", rbErr)
			}
		}
	}()

	insertBill := `
		INSERT INTO bill (
			id, meter_id, billing_period_start, billing_period_end, bill_date, due_date,
			total_import_unit, total_export_unit, energy_charge_amount, fixed_charge_amount,
			subsidy_amount, solar_export_credit, total_amount, status, created_at, updated_at
		) VALUES (
			:id, :meter_id, :billing_period_start, :billing_period_end, :bill_date, :due_date,
			:total_import_unit, :total_export_unit, :energy_charge_amount, :fixed_charge_amount,
			:subsidy_amount, :solar_export_credit, :total_amount, :status, :created_at, :updated_at
		)`

	if _, err = tx.NamedExec(insertBill, bill); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = fmt.Errorf("bill for meter %s ending %s already exists: %w",
				bill.MeterID, bill.BillingPeriodEnd.Format(time.RFC3339), models.ErrConflict)
			return err
		}
		err = fmt.Errorf("failed to insert bill: %w", err)
		return err
	}

	if err = insertChildrenTx(tx, bill.ID, details, taxes); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bill create: %w", err)
	}

	return nil
}

// ReplaceChildren updates the bill's charge fields and swaps out all detail
// and tax rows in one transaction. Identity and period columns are never
// touched.
func (r *BillRepository) ReplaceChildren(bill *models.Bill, details []models.BillDetail, taxes []models.BillTax) error {
	bill.UpdatedAt = time.Now()

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("failed to rollback bill recalculation", "bill_id", bill.ID, "error", rbErr)
			}
		}
	}()

	updateBill := `
		UPDATE bill
		SET total_import_unit = :total_import_unit,
			total_export_unit = :total_export_unit,
			energy_charge_amount = :energy_charge_amount,
			fixed_charge_amount = :fixed_charge_amount,
			subsidy_amount = :subsidy_amount,
			solar_export_credit = :solar_export_credit,
			total_amount = :total_amount,
			updated_at = :updated_at
		WHERE id = :id`

	var result sql.Result
	if result, err = tx.NamedExec(updateBill, bill); err != nil {
		err = fmt.Errorf("failed to update bill: %w", err)
		return err
	}
	rowsAffected, raErr := result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("failed to get rows affected: %w", raErr)
		return err
	}
	if rowsAffected == 0 {
		err = fmt.Errorf("bill %s: %w", bill.ID, models.ErrNotFound)
		return err
	}

	if _, err = tx.Exec(`DELETE FROM bill_detail WHERE bill_id = $1`, bill.ID); err != nil {
		err = fmt.Errorf("failed to delete bill details: %w", err)
		return err
	}
	if _, err = tx.Exec(`DELETE FROM bill_tax WHERE bill_id = $1`, bill.ID); err != nil {
		err = fmt.Errorf("failed to delete bill taxes: %w", err)
		return err
	}

	if err = insertChildrenTx(tx, bill.ID, details, taxes); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bill recalculation: %w", err)
	}

	return nil
}

func insertChildrenTx(tx *sqlx.Tx, billID uuid.UUID, details []models.BillDetail, taxes []models.BillTax) error {
	insertDetail := `
		INSERT INTO bill_detail (id, bill_id, slab_id, from_unit, to_unit, units_in_slab, rate_applied, amount, created_at)
		VALUES (:id, :bill_id, :slab_id, :from_unit, :to_unit, :units_in_slab, :rate_applied, :amount, :created_at)`

	for i := range details {
		details[i].ID = uuid.New()
		details[i].BillID = billID
		details[i].CreatedAt = time.Now()
		if _, err := tx.NamedExec(insertDetail, details[i]); err != nil {
			return fmt.Errorf("failed to insert bill detail: %w", err)
		}
	}

	insertTax := `
		INSERT INTO bill_tax (id, bill_id, tax_id, tax_name, rate_percent_applied, taxable_base_amount, created_at)
		VALUES (:id, :bill_id, :tax_id, :tax_name, :rate_percent_applied, :taxable_base_amount, :created_at)`

	for i := range taxes {
		taxes[i].ID = uuid.New()
		taxes[i].BillID = billID
		taxes[i].CreatedAt = time.Now()
		if _, err := tx.NamedExec(insertTax, taxes[i]); err != nil {
			return fmt.Errorf("failed to insert bill tax: %w", err)
		}
	}

	return nil
}

// MarkVoid flips the bill to VOID with the audit fields set. The payment
// guard belongs to the service layer; this is just the write.
func (r *BillRepository) MarkVoid(billID uuid.UUID, reason string, actorID uuid.UUID) error {
	query := `
		UPDATE bill
		SET status = $2, void_reason = $3, voided_by = $4, voided_at = $5, updated_at = $5
		WHERE id = $1`

	result, err := r.db.Exec(query, billID, models.BillVoid, reason, actorID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to void bill: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bill %s: %w", billID, models.ErrNotFound)
	}

	return nil
}

// SumPayments totals all payments recorded against the bill. Always summed
// live; a cached paid flag could go stale.
func (r *BillRepository) SumPayments(billID uuid.UUID) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payment WHERE bill_id = $1`

	err := r.db.Get(&total, query, billID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}

	return total, nil
}
