package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated    = "order.created"
	TypePaymentCaptured = "payment.captured"
	TypePaymentRefunded = "payment.refunded"
)

type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OwnerKey    string    `json:"owner_key"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher streams order/payment events to Kafka when brokers are configured.
// With no brokers it is a no-op, so local runs need no Kafka at all.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokersCSV, topic string) *Publisher {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 || topic == "" {
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

// Publish is fire-and-forget: failures are logged and dropped, never
// propagated to the operation that emitted the event.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) {
	if !p.Enabled() {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal %s: %v", ev.Type, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish %s for order %s: %v", ev.Type, ev.OrderID, err)
	}
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
