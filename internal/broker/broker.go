// Package broker wraps Kafka for the order-events topic.
//
// The relay publishes envelope messages keyed by aggregate id; the worker
// consumes them in the payment-group consumer group.
//
// Delivery guarantees:
//   - Producer waits for acks from all replicas before reporting success.
//   - Messages with the same key hash to the same partition, so consumers
//     see per-aggregate events in publication order.
//   - The consumer fetches and commits explicitly — an offset is committed
//     only after the handler has returned, never mid-processing.
package broker

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicOrderEvents carries every order lifecycle event.
const TopicOrderEvents = "order-events"

// GroupPayment is the payment worker's consumer group.
const GroupPayment = "payment-group"

// Publisher owns the Kafka writer for the relay side (publish only).
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a synchronous producer for the order-events topic.
func NewPublisher(addr string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:  kafka.TCP(addr),
			Topic: TopicOrderEvents,
			// Hash balancer: same key → same partition, the ordering
			// contract the worker relies on.
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Publish sends one message keyed by the aggregate id and blocks until the
// broker acknowledges it. The caller marks the outbox row only after this
// returns nil.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Close flushes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message is one fetched broker record awaiting an explicit commit.
type Message struct {
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64

	raw kafka.Message
}

// Consumer owns the Kafka reader for the worker side (consume only).
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer joins the consumer group on the order-events topic.
func NewConsumer(addr, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  []string{addr},
			GroupID:  groupID,
			Topic:    TopicOrderEvents,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Fetch blocks until the next message is available or ctx is cancelled.
// The message stays uncommitted until Commit is called.
func (c *Consumer) Fetch(ctx context.Context) (*Message, error) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		raw:       m,
	}, nil
}

// Commit advances the group offset past msg. Called exactly once per
// delivery, after the handler has returned — success, skip, or DLQ alike.
func (c *Consumer) Commit(ctx context.Context, msg *Message) error {
	return c.reader.CommitMessages(ctx, msg.raw)
}

// Close leaves the group and releases the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
