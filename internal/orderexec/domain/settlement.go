package domain

import (
	"context"
	"errors"
)

// SettlementService 两腿结算编排器。
// 先把买入腿资产从执行人拉进过渡托管，再向账户门面提交
// 「存入抵押 + 提取给执行人」的两步原子批量指令。
type SettlementService struct {
	manager CreditManager
	vault   AssetVault
}

func NewSettlementService(manager CreditManager, vault AssetVault) *SettlementService {
	return &SettlementService{manager: manager, vault: vault}
}

// Settle 按定量结果完成两腿价值交换。
// 执行人未授权足额买入腿资产时在拉取一步即失败；拉取之后任何一步失败
// 都把已拉取的资产原额退还执行人，保证对执行人不产生部分生效。
func (s *SettlementService) Settle(ctx context.Context, order *Order, executor string, quote *ExecutionQuote) error {
	if err := s.vault.PullFrom(ctx, order.TokenOut, executor, quote.MinAmountOut); err != nil {
		return err
	}

	if err := s.exchange(ctx, order, executor, quote); err != nil {
		if refundErr := s.vault.PushTo(ctx, order.TokenOut, executor, quote.MinAmountOut); refundErr != nil {
			return errors.Join(err, refundErr)
		}
		return err
	}
	return nil
}

func (s *SettlementService) exchange(ctx context.Context, order *Order, executor string, quote *ExecutionQuote) error {
	// 多授权一个最小单位以容忍取整，不回收
	if err := s.vault.Approve(ctx, order.TokenOut, order.ManagerRef, quote.MinAmountOut.Add(dustReserve)); err != nil {
		return err
	}

	facade, err := s.manager.FacadeOf(ctx, order.ManagerRef)
	if err != nil {
		return err
	}

	calls := []FacadeCall{
		CollateralDeposit{Token: order.TokenOut, Amount: quote.MinAmountOut},
		CollateralWithdraw{Token: order.TokenIn, Amount: quote.AmountIn, Recipient: executor},
	}
	return facade.ExecuteBatch(ctx, order.AccountRef, calls)
}
