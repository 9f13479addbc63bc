package payment

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockProvider simulates a payment provider for local runs and tests.
// Outcomes are drawn per call: first a transient-error roll, then a
// success/failure roll. Both rates are probabilities in [0, 1].
type MockProvider struct {
	SuccessRate   float64
	TransientRate float64
}

var errProviderDown = errors.New("simulated provider outage")

// Process draws a random outcome. It never charges anything.
func (m *MockProvider) Process(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if rand.Float64() < m.TransientRate {
		return Result{}, &TransientError{Cause: errProviderDown}
	}

	status := StatusFailed
	if rand.Float64() < m.SuccessRate {
		status = StatusSuccess
	}

	slog.Info("payment processed",
		"component", "payment",
		"order_id", orderID,
		"amount", amount,
		"status", status,
	)
	return Result{Status: status}, nil
}
