// Package messaging 提供领域事件到 Kafka 的发布实现
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/orderexec/pkg/mq"
)

// Topic 订单执行事件主题
const Topic = "order-execution.events"

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// KafkaEventPublisher 将领域事件发布到 Kafka，以订单 ID 作为分区键
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

func NewKafkaEventPublisher(producer *mq.KafkaProducer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: Topic}
}

func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	return p.send(ctx, event.OrderID, "order.created", event)
}

func (p *KafkaEventPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	return p.send(ctx, event.OrderID, "order.cancelled", event)
}

func (p *KafkaEventPublisher) PublishOrderExecuted(ctx context.Context, event domain.OrderExecutedEvent) error {
	return p.send(ctx, event.OrderID, "order.executed", event)
}

func (p *KafkaEventPublisher) send(ctx context.Context, orderID uint64, eventType string, payload any) error {
	key := strconv.FormatUint(orderID, 10)
	return p.producer.SendMessage(ctx, p.topic, key, envelope{
		Type:    eventType,
		Payload: payload,
	})
}
