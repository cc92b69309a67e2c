package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreditManager 外部信贷管理器
type CreditManager interface {
	// ControllerOf 查询账户当前的登记控制人
	ControllerOf(ctx context.Context, account string) (string, error)
	// FacadeOf 查询管理器对应的账户门面
	FacadeOf(ctx context.Context, manager string) (AccountFacade, error)
	// PriceOracleOf 查询管理器对应的价格预言机
	PriceOracleOf(ctx context.Context, manager string) (PriceOracle, error)
}

// PriceOracle 价格预言机，按当前汇率做即期换算
type PriceOracle interface {
	Convert(ctx context.Context, amount decimal.Decimal, tokenFrom, tokenTo string) (decimal.Decimal, error)
}

// FacadeCall 账户门面批量指令中的一步
type FacadeCall interface {
	facadeCall()
}

// CollateralDeposit 存入资产作为新抵押品
type CollateralDeposit struct {
	Token  string
	Amount decimal.Decimal
}

// CollateralWithdraw 从账户提取资产给指定接收人
type CollateralWithdraw struct {
	Token     string
	Amount    decimal.Decimal
	Recipient string
}

func (CollateralDeposit) facadeCall()  {}
func (CollateralWithdraw) facadeCall() {}

// AccountFacade 账户门面：对指定账户原子地应用一组有序指令。
// 外部协议保证整批指令要么全部生效要么全部不生效。
type AccountFacade interface {
	ExecuteBatch(ctx context.Context, account string, calls []FacadeCall) error
}

// AssetVault 资产转移原语：基于事先授权的拉取式转账
type AssetVault interface {
	// BalanceOf 查询持有人的资产余额（最小计量单位）
	BalanceOf(ctx context.Context, token, holder string) (decimal.Decimal, error)
	// Decimals 查询资产精度
	Decimals(ctx context.Context, token string) (int32, error)
	// PullFrom 从来源方拉取资产到本服务的过渡托管；来源方须已授权不低于该数额
	PullFrom(ctx context.Context, token, from string, amount decimal.Decimal) error
	// PushTo 把过渡托管中的资产转给接收人
	PushTo(ctx context.Context, token, to string, amount decimal.Decimal) error
	// Approve 授予支出方对指定数额的转移权
	Approve(ctx context.Context, token, spender string, amount decimal.Decimal) error
}
