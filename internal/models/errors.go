package models

import "errors"

// Billing error taxonomy. Services wrap these with fmt.Errorf("...: %w", ...)
// and callers classify with errors.Is; the HTTP layer maps them to statuses.
var (
	// ErrNotFound: meter, bill or tariff category does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: no active connection, no tariff category assigned, or
	// no tariff slabs valid for the billing date.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientData: fewer than two readings inside the billing period.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidData: readings imply negative consumption.
	ErrInvalidData = errors.New("invalid data")
	// ErrConflict: duplicate bill for the period, or void attempted on a
	// bill that already has payments.
	ErrConflict = errors.New("conflict")
)
