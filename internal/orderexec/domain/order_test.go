package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrder_Exists(t *testing.T) {
	tests := []struct {
		name  string
		order *Order
		want  bool
	}{
		{"nil order", nil, false},
		{"zero record", &Order{}, false},
		{"live order", &Order{AccountRef: testAccount}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.order.Exists(); got != tt.want {
				t.Errorf("Order.Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_RecordExecution(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	order := NewDCABuyOrder(testOwner, testManager, testAccount, testTokenIn, testTokenOut,
		decimal.NewFromInt(1000), time.Hour, 3, start)

	for i := 1; i <= 3; i++ {
		order.RecordExecution()
		if order.ExecutionsLeft != 3-i {
			t.Fatalf("after %d executions ExecutionsLeft = %d, want %d", i, order.ExecutionsLeft, 3-i)
		}
		if want := start.Add(time.Duration(i) * time.Hour); !order.NextExecutionTime.Equal(want) {
			t.Fatalf("after %d executions NextExecutionTime = %v, want %v", i, order.NextExecutionTime, want)
		}
	}
	if !order.Exhausted() {
		t.Error("order should be exhausted after all executions")
	}
}

func TestOrder_RequestedAmount(t *testing.T) {
	limit := NewLimitSellOrder(testOwner, testManager, testAccount, testTokenIn, testTokenOut,
		decimal.NewFromInt(500), decimal.NewFromInt(2), decimal.Zero, time.Time{})
	if !limit.RequestedAmount().Equal(decimal.NewFromInt(500)) {
		t.Errorf("limit RequestedAmount = %s, want 500", limit.RequestedAmount())
	}

	dca := NewDCABuyOrder(testOwner, testManager, testAccount, testTokenIn, testTokenOut,
		decimal.NewFromInt(250), time.Hour, 4, time.Now())
	if !dca.RequestedAmount().Equal(decimal.NewFromInt(250)) {
		t.Errorf("dca RequestedAmount = %s, want 250", dca.RequestedAmount())
	}
	if dca.ExecutionsLeft != 4 || dca.TotalExecutions != 4 {
		t.Errorf("new dca counters = %d/%d, want 4/4", dca.ExecutionsLeft, dca.TotalExecutions)
	}
}
