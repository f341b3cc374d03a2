package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"supermart/internal/domain"
)

const TypePaymentCompleted = "payment.completed"

// PaymentCompleted is the message emitted once per completed checkout.
type PaymentCompleted struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	UserID    string    `json:"user_id"`
	Method    string    `json:"method"`
	Total     string    `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPaymentCompleted(p domain.Payment) PaymentCompleted {
	return PaymentCompleted{
		Type:      TypePaymentCompleted,
		PaymentID: p.ID,
		UserID:    p.UserID,
		Method:    p.Method,
		Total:     p.Total.StringFixed(2),
		CreatedAt: p.CreatedAt.UTC(),
	}
}

type Publisher interface {
	PublishPayment(ctx context.Context, p domain.Payment) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured, otherwise Nop.
func New(brokersCSV, topic string) Publisher {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafka(brokers, topic)
}

func splitBrokers(csv string) []string {
	out := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

type Nop struct{}

func (Nop) PublishPayment(context.Context, domain.Payment) error { return nil }
func (Nop) Close() error                                         { return nil }

// messageWriter is the subset of *kafka.Writer we use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Kafka struct {
	w messageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

// PublishPayment keys messages by user so one shopper's payments stay ordered.
func (k *Kafka) PublishPayment(ctx context.Context, p domain.Payment) error {
	data, err := json.Marshal(NewPaymentCompleted(p))
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{Key: []byte(p.UserID), Value: data, Time: time.Now().UTC()})
}

func (k *Kafka) Close() error { return k.w.Close() }
