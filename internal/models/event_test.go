package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The envelope field names are the wire contract for the order-events topic.
func TestEnvelopeWireFormat(t *testing.T) {
	rec, err := NewOutboxRecord(uuid.New(), EventOrderCreated, OrderCreatedPayload{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
		Amount:  decimal.RequireFromString("42.50"),
	})
	require.NoError(t, err)
	rec.CreatedAt = time.Now().UTC()

	raw, err := json.Marshal(rec.Envelope())
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, field := range []string{"eventId", "eventType", "aggregateType", "aggregateId", "payload", "createdAt"} {
		assert.Contains(t, m, field)
	}
	assert.JSONEq(t, `"OrderCreated"`, string(m["eventType"]))
	assert.JSONEq(t, `"order"`, string(m["aggregateType"]))
}

func TestNewOutboxRecord(t *testing.T) {
	aggID := uuid.New()
	rec, err := NewOutboxRecord(aggID, EventOrderPaid, OrderResultPayload{OrderID: aggID})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.EventID)
	assert.Equal(t, AggregateOrder, rec.AggregateType)
	assert.Equal(t, aggID, rec.AggregateID)
	assert.False(t, rec.Published)
	assert.Nil(t, rec.PublishedAt)

	var p OrderResultPayload
	require.NoError(t, json.Unmarshal(rec.Payload, &p))
	assert.Equal(t, aggID, p.OrderID)
}

// Fresh event ids per record back the outbox uniqueness constraint.
func TestOutboxRecordEventIDsDistinct(t *testing.T) {
	aggID := uuid.New()
	a, err := NewOutboxRecord(aggID, EventOrderPaid, OrderResultPayload{OrderID: aggID})
	require.NoError(t, err)
	b, err := NewOutboxRecord(aggID, EventOrderPaid, OrderResultPayload{OrderID: aggID})
	require.NoError(t, err)
	assert.NotEqual(t, a.EventID, b.EventID)
}
