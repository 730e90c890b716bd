package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalculateBillRequest previews a bill without persisting anything.
type CalculateBillRequest struct {
	MeterID     uuid.UUID `json:"meter_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func (r CalculateBillRequest) Validate() error {
	if r.MeterID == uuid.Nil {
		return fmt.Errorf("meter_id is required")
	}
	if r.PeriodStart.IsZero() || r.PeriodEnd.IsZero() {
		return fmt.Errorf("period_start and period_end are required")
	}
	if !r.PeriodEnd.After(r.PeriodStart) {
		return fmt.Errorf("period_end must be after period_start")
	}
	return nil
}

type CreateBillRequest struct {
	MeterID     uuid.UUID `json:"meter_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	DueDays     *int      `json:"due_days,omitempty"`
}

func (r CreateBillRequest) Validate() error {
	if r.MeterID == uuid.Nil {
		return fmt.Errorf("meter_id is required")
	}
	if r.PeriodStart.IsZero() || r.PeriodEnd.IsZero() {
		return fmt.Errorf("period_start and period_end are required")
	}
	if !r.PeriodEnd.After(r.PeriodStart) {
		return fmt.Errorf("period_end must be after period_start")
	}
	if r.DueDays != nil && *r.DueDays <= 0 {
		return fmt.Errorf("due_days must be positive")
	}
	return nil
}

type VoidBillRequest struct {
	Reason  string    `json:"reason"`
	ActorID uuid.UUID `json:"actor_id"`
}

func (r VoidBillRequest) Validate() error {
	if len(r.Reason) < 3 {
		return fmt.Errorf("reason must be at least 3 characters")
	}
	if r.ActorID == uuid.Nil {
		return fmt.Errorf("actor_id is required")
	}
	return nil
}

// GenerateBillOptions are the per-event knobs carried on a reading-created
// event or a manual generate call. Zero values mean "use defaults", which the
// trigger resolves against config.
type GenerateBillOptions struct {
	AutoGenerateBill    *bool `json:"auto_generate_bill,omitempty"`
	MinDaysBetweenBills *int  `json:"min_days_between_bills,omitempty"`
	DueDaysFromBillDate *int  `json:"due_days_from_bill_date,omitempty"`
}

func (o GenerateBillOptions) Validate() error {
	if o.MinDaysBetweenBills != nil && *o.MinDaysBetweenBills < 0 {
		return fmt.Errorf("min_days_between_bills must not be negative")
	}
	if o.DueDaysFromBillDate != nil && *o.DueDaysFromBillDate <= 0 {
		return fmt.Errorf("due_days_from_bill_date must be positive")
	}
	return nil
}

type GenerateBillRequest struct {
	ReadingDate time.Time           `json:"reading_date"`
	Options     GenerateBillOptions `json:"options"`
}

func (r GenerateBillRequest) Validate() error {
	if r.ReadingDate.IsZero() {
		return fmt.Errorf("reading_date is required")
	}
	return r.Options.Validate()
}
