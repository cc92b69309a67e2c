package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// dustReserve 账户中始终保留的一个最小计量单位，避免余额被完全抽干
var dustReserve = decimal.NewFromInt(1)

// ExecutionQuote 一次执行的定量结果
type ExecutionQuote struct {
	// 实际卖出数量，不超过可用余额减一
	AmountIn decimal.Decimal
	// 执行人至少须交付的买入腿数量
	MinAmountOut decimal.Decimal
	// 本次执行采用的单位兑换率
	Rate decimal.Decimal
}

// EligibilityEngine 执行资格与定量引擎。
// 按固定顺序跑检查，首个失败项中止并返回对应错误，不触碰任何状态。
type EligibilityEngine struct {
	manager CreditManager
	vault   AssetVault
	guard   *AuthGuard
}

func NewEligibilityEngine(manager CreditManager, vault AssetVault, guard *AuthGuard) *EligibilityEngine {
	return &EligibilityEngine{manager: manager, vault: vault, guard: guard}
}

// Evaluate 针对刚从仓储读出的订单判定是否可执行并计算成交数量。
// order 允许是空记录（槽位不存在时按全零记录处理）。
func (e *EligibilityEngine) Evaluate(ctx context.Context, order *Order, now time.Time) (*ExecutionQuote, error) {
	if !order.Exists() {
		return nil, ErrOrderCancelled
	}

	if order.Kind == OrderKindDCABuy {
		if order.ExecutionsLeft == 0 {
			return nil, ErrNoExecutionsLeft
		}
		if now.Before(order.NextExecutionTime) {
			return nil, ErrNotTimeYet
		}
	} else {
		if !order.Deadline.IsZero() && now.After(order.Deadline) {
			return nil, ErrOrderExpired
		}
		if order.TokenIn == order.TokenOut || order.AmountIn.IsZero() {
			return nil, ErrInvalidOrder
		}
	}

	if err := e.guard.VerifyStillOwned(ctx, order); err != nil {
		return nil, err
	}

	oracle, err := e.manager.PriceOracleOf(ctx, order.ManagerRef)
	if err != nil {
		return nil, err
	}
	unit, err := e.oneUnit(ctx, order.TokenIn)
	if err != nil {
		return nil, err
	}

	// 触发条件：价格回落到触发价及以下才放行
	if order.Kind == OrderKindLimitSell && !order.TriggerPrice.IsZero() {
		rate, err := oracle.Convert(ctx, unit, order.TokenIn, order.TokenOut)
		if err != nil {
			return nil, err
		}
		if rate.GreaterThan(order.TriggerPrice) {
			return nil, ErrNotTriggered
		}
	}

	balance, err := e.vault.BalanceOf(ctx, order.TokenIn, order.AccountRef)
	if err != nil {
		return nil, err
	}
	if balance.LessThanOrEqual(dustReserve) {
		return nil, ErrNothingToSell
	}

	// 实卖数量收缩到可用余额，而不是失败；余额始终保留一个最小单位
	amountIn := decimal.Min(order.RequestedAmount(), balance.Sub(dustReserve))

	// 汇率独立于触发检查重新查询
	rate, err := oracle.Convert(ctx, unit, order.TokenIn, order.TokenOut)
	if err != nil {
		return nil, err
	}
	minAmountOut := amountIn.Mul(rate).Div(unit).Floor()

	return &ExecutionQuote{
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
		Rate:         rate,
	}, nil
}

// oneUnit 输入资产的一个整单位（10^decimals 个最小计量单位）
func (e *EligibilityEngine) oneUnit(ctx context.Context, token string) (decimal.Decimal, error) {
	decimals, err := e.vault.Decimals(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(1, decimals), nil
}
