package services

import (
	"context"
	"fmt"
	"log/slog"

	"billing-service/internal/config"
	"billing-service/internal/models"
)

// TriggerState is the state of one auto-generation run. Terminal states are
// not persisted anywhere; every reading event is evaluated fresh against
// current data, which makes retries naturally idempotent (the bill dedup key
// catches actual duplicates).
type TriggerState string

const (
	TriggerIdle       TriggerState = "IDLE"
	TriggerEvaluating TriggerState = "EVALUATING"
	TriggerSkipped    TriggerState = "SKIPPED"
	TriggerGenerating TriggerState = "GENERATING"
	TriggerGenerated  TriggerState = "GENERATED"
	TriggerFailed     TriggerState = "FAILED"
)

// TriggerResult reports how a single trigger run ended. It never carries an
// error out of the trigger: failures end in TriggerFailed with the reason
// recorded, because a billing failure must never fail the reading ingestion
// that caused it.
type TriggerResult struct {
	State  TriggerState `json:"state"`
	Reason string       `json:"reason"`
	Bill   *models.Bill `json:"bill,omitempty"`
}

// BillPublisher notifies downstream consumers about generated bills. The
// trigger treats publish failures as non-fatal.
type BillPublisher interface {
	PublishBillGenerated(ctx context.Context, bill *models.Bill) error
}

// AutoBillTrigger reacts to recorded meter readings: it evaluates billing
// eligibility and, when eligible, generates the bill.
type AutoBillTrigger struct {
	eligibility *EligibilityService
	billing     *BillingService
	publisher   BillPublisher
	defaults    config.BillingConfig
}

// NewAutoBillTrigger builds the trigger. publisher may be nil when no event
// transport is wired (tests, one-shot tools).
func NewAutoBillTrigger(eligibility *EligibilityService, billing *BillingService, publisher BillPublisher, defaults config.BillingConfig) *AutoBillTrigger {
	return &AutoBillTrigger{
		eligibility: eligibility,
		billing:     billing,
		publisher:   publisher,
		defaults:    defaults,
	}
}

// HandleReadingRecorded runs the eligibility check for the reading's meter
// and generates a bill when warranted. All failures are swallowed into the
// result after logging.
func (t *AutoBillTrigger) HandleReadingRecorded(ctx context.Context, reading models.MeterReading, opts models.GenerateBillOptions) (result TriggerResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during auto bill generation",
				"meter_id", reading.MeterID, "panic", r)
			result = TriggerResult{State: TriggerFailed, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if opts.AutoGenerateBill != nil && !*opts.AutoGenerateBill {
		slog.Info("auto bill generation opted out", "meter_id", reading.MeterID)
		return TriggerResult{State: TriggerSkipped, Reason: "auto generation disabled by options"}
	}

	minDays := t.defaults.MinDaysBetweenBills
	if opts.MinDaysBetweenBills != nil {
		minDays = *opts.MinDaysBetweenBills
	}

	eligibility, err := t.eligibility.Evaluate(reading.MeterID, reading.ReadingDate, minDays)
	if err != nil {
		slog.Error("eligibility evaluation failed",
			"meter_id", reading.MeterID, "error", err)
		return TriggerResult{State: TriggerFailed, Reason: err.Error()}
	}
	if !eligibility.Eligible {
		slog.Info("meter not eligible for billing",
			"meter_id", reading.MeterID, "reason", eligibility.Reason)
		return TriggerResult{State: TriggerSkipped, Reason: eligibility.Reason}
	}

	bill, err := t.billing.Create(reading.MeterID, *eligibility.SuggestedPeriodStart, reading.ReadingDate, opts.DueDaysFromBillDate)
	if err != nil {
		slog.Error("auto bill generation failed",
			"meter_id", reading.MeterID, "error", err)
		return TriggerResult{State: TriggerFailed, Reason: err.Error()}
	}

	if t.publisher != nil {
		if err := t.publisher.PublishBillGenerated(ctx, bill); err != nil {
			slog.Warn("failed to publish bill generated event",
				"bill_id", bill.ID, "error", err)
		}
	}

	slog.Info("bill auto-generated",
		"bill_id", bill.ID,
		"meter_id", reading.MeterID,
		"total_amount", bill.TotalAmount,
	)

	return TriggerResult{State: TriggerGenerated, Reason: ReasonReady, Bill: bill}
}
