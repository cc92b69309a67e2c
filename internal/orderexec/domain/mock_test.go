package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// fakeOracle 以固定的单位汇率表换算
type fakeOracle struct {
	// rates[from][to] = 每一整单位 from 可换得的 to 数量
	rates map[string]map[string]decimal.Decimal
}

func (o *fakeOracle) Convert(ctx context.Context, amount decimal.Decimal, tokenFrom, tokenTo string) (decimal.Decimal, error) {
	rate, ok := o.rates[tokenFrom][tokenTo]
	if !ok {
		return decimal.Zero, errors.New("no rate")
	}
	unit := decimal.New(1, 6)
	return amount.Mul(rate).Div(unit), nil
}

type recordedPull struct {
	token, from string
	amount      decimal.Decimal
}

type recordedApprove struct {
	token, spender string
	amount         decimal.Decimal
}

type recordedPush struct {
	token, to string
	amount    decimal.Decimal
}

// fakeVault 记录全部转移与授权调用
type fakeVault struct {
	balances map[string]map[string]decimal.Decimal // token -> holder -> balance
	decimals map[string]int32

	pulls      []recordedPull
	approvals  []recordedApprove
	pushes     []recordedPush
	pullErr    error
	approveErr error
	pushErr    error
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		balances: map[string]map[string]decimal.Decimal{},
		decimals: map[string]int32{},
	}
}

func (v *fakeVault) setBalance(token, holder string, balance int64) {
	if v.balances[token] == nil {
		v.balances[token] = map[string]decimal.Decimal{}
	}
	v.balances[token][holder] = decimal.NewFromInt(balance)
}

func (v *fakeVault) BalanceOf(ctx context.Context, token, holder string) (decimal.Decimal, error) {
	return v.balances[token][holder], nil
}

func (v *fakeVault) Decimals(ctx context.Context, token string) (int32, error) {
	if d, ok := v.decimals[token]; ok {
		return d, nil
	}
	return 6, nil
}

func (v *fakeVault) PullFrom(ctx context.Context, token, from string, amount decimal.Decimal) error {
	if v.pullErr != nil {
		return v.pullErr
	}
	v.pulls = append(v.pulls, recordedPull{token: token, from: from, amount: amount})
	return nil
}

func (v *fakeVault) PushTo(ctx context.Context, token, to string, amount decimal.Decimal) error {
	if v.pushErr != nil {
		return v.pushErr
	}
	v.pushes = append(v.pushes, recordedPush{token: token, to: to, amount: amount})
	return nil
}

func (v *fakeVault) Approve(ctx context.Context, token, spender string, amount decimal.Decimal) error {
	if v.approveErr != nil {
		return v.approveErr
	}
	v.approvals = append(v.approvals, recordedApprove{token: token, spender: spender, amount: amount})
	return nil
}

// fakeFacade 记录提交的批量指令
type fakeFacade struct {
	account string
	batches [][]FacadeCall
	err     error
}

func (f *fakeFacade) ExecuteBatch(ctx context.Context, account string, calls []FacadeCall) error {
	if f.err != nil {
		return f.err
	}
	f.account = account
	f.batches = append(f.batches, calls)
	return nil
}

// fakeManager 固定的控制人登记表
type fakeManager struct {
	controllers map[string]string
	facade      *fakeFacade
	oracle      *fakeOracle
}

func (m *fakeManager) ControllerOf(ctx context.Context, account string) (string, error) {
	controller, ok := m.controllers[account]
	if !ok {
		return "", errors.New("unknown account")
	}
	return controller, nil
}

func (m *fakeManager) FacadeOf(ctx context.Context, manager string) (AccountFacade, error) {
	return m.facade, nil
}

func (m *fakeManager) PriceOracleOf(ctx context.Context, manager string) (PriceOracle, error) {
	return m.oracle, nil
}
