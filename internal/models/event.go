package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types carried on the order-events topic.
const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
	EventOrderFailed  = "OrderFailed"
)

// AggregateOrder is the only aggregate type this pipeline emits.
const AggregateOrder = "order"

// OutboxRecord is one pending (or published) outbound event. The payload is
// deliberately opaque here — the outbox does not know event schemas. Typed
// payloads exist only at the producing and consuming edges.
type OutboxRecord struct {
	ID            int64           `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Published     bool            `json:"published"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewOutboxRecord builds an unpublished record with a fresh event id.
func NewOutboxRecord(aggregateID uuid.UUID, eventType string, payload any) (*OutboxRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxRecord{
		EventID:       uuid.New(),
		AggregateType: AggregateOrder,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}

// Envelope is the authoritative wire format on the order-events topic.
// Field names are part of the contract — do not rename.
type Envelope struct {
	EventID       uuid.UUID       `json:"eventId"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Envelope returns the wire form of the record.
func (r *OutboxRecord) Envelope() *Envelope {
	return &Envelope{
		EventID:       r.EventID,
		EventType:     r.EventType,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		Payload:       r.Payload,
		CreatedAt:     r.CreatedAt,
	}
}

// OrderCreatedPayload is the typed form of an OrderCreated payload.
type OrderCreatedPayload struct {
	OrderID uuid.UUID       `json:"orderId"`
	UserID  uuid.UUID       `json:"userId"`
	Amount  decimal.Decimal `json:"amount"`
}

// OrderResultPayload is the typed form of OrderPaid / OrderFailed payloads.
type OrderResultPayload struct {
	OrderID uuid.UUID `json:"orderId"`
}

// DeadLetterRecord is a poison event that exhausted its retries.
type DeadLetterRecord struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	Reason      string          `json:"reason"`
	FailedAt    time.Time       `json:"failed_at"`
}
