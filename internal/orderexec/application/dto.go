package application

import (
	"time"

	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
)

// OrderDTO 订单视图对象；不存在的订单映射为全零视图
type OrderDTO struct {
	ID         uint64 `json:"id"`
	Kind       string `json:"kind"`
	Owner      string `json:"owner"`
	ManagerRef string `json:"manager_ref"`
	AccountRef string `json:"account_ref"`
	TokenIn    string `json:"token_in"`
	TokenOut   string `json:"token_out"`

	AmountIn     string `json:"amount_in"`
	LimitPrice   string `json:"limit_price"`
	TriggerPrice string `json:"trigger_price"`
	Deadline     string `json:"deadline,omitempty"`

	AmountPerInterval string `json:"amount_per_interval"`
	IntervalSeconds   int64  `json:"interval_seconds"`
	NextExecutionTime string `json:"next_execution_time,omitempty"`
	TotalExecutions   int    `json:"total_executions"`
	ExecutionsLeft    int    `json:"executions_left"`

	CreatedAt string `json:"created_at,omitempty"`
}

// ToOrderDTO 领域实体到视图对象的映射；nil 映射为全零视图
func ToOrderDTO(o *domain.Order) *OrderDTO {
	if o == nil {
		return &OrderDTO{
			AmountIn:          "0",
			LimitPrice:        "0",
			TriggerPrice:      "0",
			AmountPerInterval: "0",
		}
	}
	return &OrderDTO{
		ID:                o.ID,
		Kind:              string(o.Kind),
		Owner:             o.Owner,
		ManagerRef:        o.ManagerRef,
		AccountRef:        o.AccountRef,
		TokenIn:           o.TokenIn,
		TokenOut:          o.TokenOut,
		AmountIn:          o.AmountIn.String(),
		LimitPrice:        o.LimitPrice.String(),
		TriggerPrice:      o.TriggerPrice.String(),
		Deadline:          formatTime(o.Deadline),
		AmountPerInterval: o.AmountPerInterval.String(),
		IntervalSeconds:   int64(o.Interval / time.Second),
		NextExecutionTime: formatTime(o.NextExecutionTime),
		TotalExecutions:   o.TotalExecutions,
		ExecutionsLeft:    o.ExecutionsLeft,
		CreatedAt:         formatTime(o.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
