// Package events publishes order lifecycle events to Kafka for the
// out-of-scope notification and analytics consumers.
package events

import (
	"context"
	"time"

	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"

	"github.com/vitrina/storefront/internal/domain/order"
)

const (
	typeOrderPlaced        = "order.placed"
	typeOrderStatusChanged = "order.status_changed"
)

// Kafka publishes order events to a single topic, keyed by shop so one
// shop's events stay ordered within a partition.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a publisher writing to the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

var _ order.Publisher = (*Kafka)(nil)

// OrderPlaced emits an order.placed event.
func (k *Kafka) OrderPlaced(ctx context.Context, o *order.Order) error {
	return k.publish(ctx, o.ShopID, encodeOrderEvent(typeOrderPlaced, o, ""))
}

// OrderStatusChanged emits an order.status_changed event carrying both the
// previous and the new status.
func (k *Kafka) OrderStatusChanged(ctx context.Context, o *order.Order, previous order.Status) error {
	return k.publish(ctx, o.ShopID, encodeOrderEvent(typeOrderStatusChanged, o, previous))
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

func (k *Kafka) publish(ctx context.Context, key string, payload []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	})
}

// encodeOrderEvent builds the event payload. Totals are encoded as strings:
// decimal amounts must survive consumers that would otherwise read them into
// floats.
func encodeOrderEvent(eventType string, o *order.Order, previous order.Status) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(eventType) })
		e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("shopId", func(e *jx.Encoder) { e.Str(o.ShopID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		if previous != "" {
			e.Field("previousStatus", func(e *jx.Encoder) { e.Str(string(previous)) })
		}
		e.Field("totalAmount", func(e *jx.Encoder) { e.Str(o.TotalAmount.String()) })
		e.Field("discountAmount", func(e *jx.Encoder) { e.Str(o.DiscountAmount.String()) })
		if o.CouponCode != "" {
			e.Field("couponCode", func(e *jx.Encoder) { e.Str(o.CouponCode) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
	return e.Bytes()
}
