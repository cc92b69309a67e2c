// Package domain 包含订单执行服务的领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCallerNotBorrower = errors.New("caller is not the credit account borrower")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrNoExecutionsLeft  = errors.New("no executions left")
	ErrNotTimeYet        = errors.New("next execution time not reached")
	ErrOrderExpired      = errors.New("order expired")
	ErrNotTriggered      = errors.New("trigger price not reached")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrBorrowerChanged   = errors.New("credit account borrower changed")
	ErrNothingToSell     = errors.New("nothing to sell")
)

// OrderKind 订单类型
type OrderKind string

const (
	// OrderKindLimitSell 一次性限价卖单
	OrderKindLimitSell OrderKind = "LIMIT_SELL"
	// OrderKindDCABuy 定期定额买单
	OrderKindDCABuy OrderKind = "DCA_BUY"
)

// Order 挂单实体
// 代表账户持有人针对外部信贷账户登记的一条待执行指令。
// Owner、账户引用与代币对在创建后不可变；执行只会推进 DCA 的计数与排程。
type Order struct {
	// 订单 ID，由单调递增分配器分配，永不复用
	ID uint64 `json:"id"`
	// 订单类型
	Kind OrderKind `json:"kind"`
	// 有权提交/取消该订单的账户控制人
	Owner string `json:"owner"`
	// 外部信贷管理器引用
	ManagerRef string `json:"manager_ref"`
	// 外部信贷账户引用
	AccountRef string `json:"account_ref"`
	// 卖出腿资产
	TokenIn string `json:"token_in"`
	// 买入腿资产
	TokenOut string `json:"token_out"`

	// 限价单：固定卖出数量（受可用余额约束）
	AmountIn decimal.Decimal `json:"amount_in"`
	// 限价单：可接受的最低兑换率
	LimitPrice decimal.Decimal `json:"limit_price"`
	// 限价单：触发价，0 表示始终可执行
	TriggerPrice decimal.Decimal `json:"trigger_price"`
	// 限价单：过期时间，零值表示不过期
	Deadline time.Time `json:"deadline"`

	// DCA：每期申请卖出数量（受可用余额约束）
	AmountPerInterval decimal.Decimal `json:"amount_per_interval"`
	// DCA：两次执行之间的最小间隔
	Interval time.Duration `json:"interval"`
	// DCA：下一次允许执行的最早时间
	NextExecutionTime time.Time `json:"next_execution_time"`
	// DCA：原始执行次数
	TotalExecutions int `json:"total_executions"`
	// DCA：剩余执行次数，0 表示已耗尽
	ExecutionsLeft int `json:"executions_left"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLimitSellOrder 创建限价卖单
func NewLimitSellOrder(owner, managerRef, accountRef, tokenIn, tokenOut string, amountIn, limitPrice, triggerPrice decimal.Decimal, deadline time.Time) *Order {
	now := time.Now()
	return &Order{
		Kind:         OrderKindLimitSell,
		Owner:        owner,
		ManagerRef:   managerRef,
		AccountRef:   accountRef,
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountIn:     amountIn,
		LimitPrice:   limitPrice,
		TriggerPrice: triggerPrice,
		Deadline:     deadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewDCABuyOrder 创建定投买单
func NewDCABuyOrder(owner, managerRef, accountRef, tokenIn, tokenOut string, amountPerInterval decimal.Decimal, interval time.Duration, executions int, firstExecution time.Time) *Order {
	now := time.Now()
	return &Order{
		Kind:              OrderKindDCABuy,
		Owner:             owner,
		ManagerRef:        managerRef,
		AccountRef:        accountRef,
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountPerInterval: amountPerInterval,
		Interval:          interval,
		NextExecutionTime: firstExecution,
		TotalExecutions:   executions,
		ExecutionsLeft:    executions,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Exists 订单槽位是否存在；已取消/已耗尽的订单读出来是全零记录
func (o *Order) Exists() bool {
	return o != nil && o.AccountRef != ""
}

// RequestedAmount 本次执行申请卖出的数量
func (o *Order) RequestedAmount() decimal.Decimal {
	if o.Kind == OrderKindDCABuy {
		return o.AmountPerInterval
	}
	return o.AmountIn
}

// RecordExecution 登记一次成功执行：计数减一、排程推进一个间隔
func (o *Order) RecordExecution() {
	o.ExecutionsLeft--
	o.NextExecutionTime = o.NextExecutionTime.Add(o.Interval)
	o.UpdatedAt = time.Now()
}

// Exhausted DCA 订单是否已耗尽
func (o *Order) Exhausted() bool {
	return o.Kind == OrderKindDCABuy && o.ExecutionsLeft <= 0
}
