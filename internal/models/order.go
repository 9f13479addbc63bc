package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the lifecycle position of an Order.
type State string

const (
	StateCreated        State = "CREATED"
	StatePaymentPending State = "PAYMENT_PENDING"
	StatePaid           State = "PAID"
	StateFailed         State = "FAILED"
)

// Validation errors returned by NewOrder. The API layer maps these to 400.
var (
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")
	ErrInvalidUserID = errors.New("user id must be a valid UUID")
)

// maxAmount bounds the platform decimal width (NUMERIC(14,2) in Postgres).
var maxAmount = decimal.New(1, 12)

type Order struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	State     State           `json:"state"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewOrder validates the inputs and returns a fresh aggregate in CREATED
// with version 0. Timestamps are assigned by the database on insert.
func NewOrder(userID uuid.UUID, amount decimal.Decimal) (*Order, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if !amount.IsPositive() || amount.Exponent() < -2 || amount.GreaterThanOrEqual(maxAmount) {
		return nil, ErrInvalidAmount
	}
	return &Order{
		ID:      uuid.New(),
		UserID:  userID,
		Amount:  amount,
		State:   StateCreated,
		Version: 0,
	}, nil
}

// Terminal reports whether no further transitions are permitted from s.
func (s State) Terminal() bool {
	return s == StatePaid || s == StateFailed
}

// CanTransition reports whether s → next is a permitted edge of the order
// state machine: CREATED → PAYMENT_PENDING → PAID|FAILED.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateCreated:
		return next == StatePaymentPending
	case StatePaymentPending:
		return next == StatePaid || next == StateFailed
	default:
		return false
	}
}
