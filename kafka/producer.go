package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pricing-service/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes cart and checkout events, keyed by user id so a user's
// events stay ordered within a partition.
type Producer struct {
	cartWriter     MessageWriter
	checkoutWriter MessageWriter
}

// NewProducer creates writers for the cart and checkout topics on brokers,
// a comma-separated broker list.
func NewProducer(brokers, cartTopic, checkoutTopic string) *Producer {
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return NewProducerWithWriters(newWriter(cartTopic), newWriter(checkoutTopic))
}

// NewProducerWithWriters wires explicit writers; used by tests.
func NewProducerWithWriters(cartWriter, checkoutWriter MessageWriter) *Producer {
	return &Producer{cartWriter: cartWriter, checkoutWriter: checkoutWriter}
}

// PublishCartEvent sends a committed cart notification.
func (p *Producer) PublishCartEvent(ctx context.Context, event models.CartEvent) error {
	return write(ctx, p.cartWriter, event.UserID, event)
}

// PublishCheckout sends a checkout.requested event.
func (p *Producer) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	return write(ctx, p.checkoutWriter, event.UserID, event)
}

// Close flushes and closes both writers.
func (p *Producer) Close() error {
	errCart := p.cartWriter.Close()
	errCheckout := p.checkoutWriter.Close()
	if errCart != nil {
		return errCart
	}
	return errCheckout
}

func write(ctx context.Context, w MessageWriter, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}
