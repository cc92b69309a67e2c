package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
)

const (
	testOwner    = "0xOWNER"
	testExecutor = "0xEXECUTOR"
	testManager  = "manager-1"
	testAccount  = "credit-account-1"
	testTokenIn  = "WETH"
	testTokenOut = "USDC"
)

type fakeOracle struct {
	rates map[string]decimal.Decimal
}

func (o *fakeOracle) Convert(ctx context.Context, amount decimal.Decimal, tokenFrom, tokenTo string) (decimal.Decimal, error) {
	rate := o.rates[tokenFrom+":"+tokenTo]
	unit := decimal.New(1, 6)
	return amount.Mul(rate).Div(unit).Floor(), nil
}

type fakeFacade struct {
	batches [][]domain.FacadeCall
	err     error
}

func (f *fakeFacade) ExecuteBatch(ctx context.Context, account string, calls []domain.FacadeCall) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, calls)
	return nil
}

type fakeVault struct {
	balances map[string]decimal.Decimal
	pullErr  error
}

func (v *fakeVault) setBalance(token, holder string, amount int64) {
	if v.balances == nil {
		v.balances = make(map[string]decimal.Decimal)
	}
	v.balances[token+":"+holder] = decimal.NewFromInt(amount)
}

func (v *fakeVault) BalanceOf(ctx context.Context, token, holder string) (decimal.Decimal, error) {
	return v.balances[token+":"+holder], nil
}

func (v *fakeVault) Decimals(ctx context.Context, token string) (int32, error) {
	return 6, nil
}

func (v *fakeVault) PullFrom(ctx context.Context, token, from string, amount decimal.Decimal) error {
	return v.pullErr
}

func (v *fakeVault) PushTo(ctx context.Context, token, to string, amount decimal.Decimal) error {
	return nil
}

func (v *fakeVault) Approve(ctx context.Context, token, spender string, amount decimal.Decimal) error {
	return nil
}

type fakeManager struct {
	controllers map[string]string
	facade      *fakeFacade
	oracle      *fakeOracle
}

func (m *fakeManager) ControllerOf(ctx context.Context, account string) (string, error) {
	return m.controllers[account], nil
}

func (m *fakeManager) FacadeOf(ctx context.Context, manager string) (domain.AccountFacade, error) {
	return m.facade, nil
}

func (m *fakeManager) PriceOracleOf(ctx context.Context, manager string) (domain.PriceOracle, error) {
	return m.oracle, nil
}

type recordingPublisher struct {
	created   []domain.OrderCreatedEvent
	cancelled []domain.OrderCancelledEvent
	executed  []domain.OrderExecutedEvent
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *recordingPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	p.cancelled = append(p.cancelled, event)
	return nil
}

func (p *recordingPublisher) PublishOrderExecuted(ctx context.Context, event domain.OrderExecutedEvent) error {
	p.executed = append(p.executed, event)
	return nil
}
