// Package payment defines the external payment collaborator.
//
// The worker must assume Process is not idempotent from the outside: it may
// or may not charge, so it is called at most once per committed transition.
// That guarantee comes from the conditional CREATED → PAYMENT_PENDING
// advance, not from anything in this package.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the business outcome of a payment attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Result is what a completed (non-erroring) payment call reports.
// FAILED is a business outcome, not an error.
type Result struct {
	Status Status
}

// TransientError marks a failure worth retrying — the provider was
// unreachable or timed out and the charge state is unknown.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("payment provider unavailable: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// Service processes payments. Implementations must return a Result for every
// settled attempt and a *TransientError when the outcome is unknown.
type Service interface {
	Process(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (Result, error)
}
