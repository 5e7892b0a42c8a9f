package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// 訂單生命週期事件，給下游 (通知、數據) 消費，這裡只負責發
const (
	EventOrderPlaced    = "order.placed"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderReturned  = "order.returned"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     uint      `json:"userId"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurredAt"`
}

type IOrderEventProducer interface {
	Publish(ctx context.Context, eventType string, order *model.Order) error
	Close() error
}

type OrderEventProducer struct {
	writer *kafka.Writer
}

func NewOrderEventProducer(brokers []string, topic string, logger zerolog.Logger) *OrderEventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}
	return &OrderEventProducer{writer: writer}
}

// Publish 同步發送，以 userID 作為 key 保持同一用戶的事件有序
func (p *OrderEventProducer) Publish(ctx context.Context, eventType string, order *model.Order) error {
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		Amount:     order.Amount.String(),
		OccurredAt: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", order.UserID)),
		Value: value,
	})
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}

var _ IOrderEventProducer = (*OrderEventProducer)(nil)
