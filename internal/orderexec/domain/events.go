package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID    uint64    `json:"order_id"`
	Owner      string    `json:"owner"`
	Kind       OrderKind `json:"kind"`
	AccountRef string    `json:"account_ref"`
	TokenIn    string    `json:"token_in"`
	TokenOut   string    `json:"token_out"`
	OccurredOn time.Time `json:"occurred_on"`
}

// OrderCancelledEvent 订单取消事件
type OrderCancelledEvent struct {
	OrderID    uint64    `json:"order_id"`
	Owner      string    `json:"owner"`
	Kind       OrderKind `json:"kind"`
	OccurredOn time.Time `json:"occurred_on"`
}

// OrderExecutedEvent 订单执行事件，携带触发执行的执行人身份
type OrderExecutedEvent struct {
	OrderID        uint64          `json:"order_id"`
	Executor       string          `json:"executor"`
	Kind           OrderKind       `json:"kind"`
	AmountIn       decimal.Decimal `json:"amount_in"`
	MinAmountOut   decimal.Decimal `json:"min_amount_out"`
	ExecutionsLeft int             `json:"executions_left"`
	OccurredOn     time.Time       `json:"occurred_on"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	PublishOrderCancelled(ctx context.Context, event OrderCancelledEvent) error
	PublishOrderExecuted(ctx context.Context, event OrderExecutedEvent) error
}
