package service

import (
	"context"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/pkg/kafka"
	"github.com/ds124wfegd/innonet-bff/pkg/queue"
)

// QueueAdapter публикует события индикатора в RabbitMQ
type QueueAdapter struct {
	queue queue.Publisher
}

func NewQueueAdapter(q queue.Publisher) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

func (a *QueueAdapter) Publish(ctx context.Context, ev *entity.IndicatorEvent) error {
	if a.queue == nil {
		return nil
	}
	return a.queue.Publish(ctx, RoutingKey(ev), ev)
}

// RoutingKey is "indicator.<kind>", plus ".<status>" for mutation events.
func RoutingKey(ev *entity.IndicatorEvent) string {
	key := "indicator." + string(ev.Kind)
	if ev.Status != "" {
		key += "." + string(ev.Status)
	}
	return key
}

// KafkaAdapter публикует события индикатора в Kafka, ключ - id сессии
type KafkaAdapter struct {
	producer kafka.Producer
}

func NewKafkaAdapter(p kafka.Producer) *KafkaAdapter {
	return &KafkaAdapter{producer: p}
}

func (a *KafkaAdapter) Publish(ctx context.Context, ev *entity.IndicatorEvent) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.SendMessage(ctx, ev.SessionID, ev)
}
