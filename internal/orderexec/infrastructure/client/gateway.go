// Package client 实现借贷协议网关的 HTTP 客户端，
// 对上提供 CreditManager / PriceOracle / AccountFacade / AssetVault 四个领域接口。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
)

// Config 网关客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

// Gateway 借贷协议网关客户端。
// 网关把链上/外部协议的查询与交易封装成同步 HTTP 接口，
// 门面批量指令由网关保证原子性：要么整批生效，要么整批失败。
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

func (g *Gateway) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var gwErr gatewayError
		if err := json.NewDecoder(resp.Body).Decode(&gwErr); err != nil || gwErr.Message == "" {
			return fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		return &gwErr
	}

	if respBody != nil {
		return json.NewDecoder(resp.Body).Decode(respBody)
	}
	return nil
}

// ControllerOf 查询账户当前登记的控制人
func (g *Gateway) ControllerOf(ctx context.Context, account string) (string, error) {
	var out struct {
		Controller string `json:"controller"`
	}
	path := fmt.Sprintf("/v1/accounts/%s/controller", account)
	if err := g.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Controller, nil
}

// FacadeOf 返回管理器对应的账户门面；网关按管理器路由，客户端本身即门面
func (g *Gateway) FacadeOf(ctx context.Context, manager string) (domain.AccountFacade, error) {
	return &managerFacade{gateway: g, manager: manager}, nil
}

// PriceOracleOf 返回管理器对应的价格预言机
func (g *Gateway) PriceOracleOf(ctx context.Context, manager string) (domain.PriceOracle, error) {
	return &managerOracle{gateway: g, manager: manager}, nil
}

type managerOracle struct {
	gateway *Gateway
	manager string
}

func (o *managerOracle) Convert(ctx context.Context, amount decimal.Decimal, tokenFrom, tokenTo string) (decimal.Decimal, error) {
	req := struct {
		Amount    string `json:"amount"`
		TokenFrom string `json:"token_from"`
		TokenTo   string `json:"token_to"`
	}{Amount: amount.String(), TokenFrom: tokenFrom, TokenTo: tokenTo}

	var out struct {
		Amount string `json:"amount"`
	}
	path := fmt.Sprintf("/v1/managers/%s/oracle/convert", o.manager)
	if err := o.gateway.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(out.Amount)
}

type facadeStep struct {
	Op        string `json:"op"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient,omitempty"`
}

type managerFacade struct {
	gateway *Gateway
	manager string
}

// ExecuteBatch 对指定账户原子地应用一组有序指令
func (f *managerFacade) ExecuteBatch(ctx context.Context, account string, calls []domain.FacadeCall) error {
	steps := make([]facadeStep, 0, len(calls))
	for _, call := range calls {
		switch c := call.(type) {
		case domain.CollateralDeposit:
			steps = append(steps, facadeStep{Op: "deposit", Token: c.Token, Amount: c.Amount.String()})
		case domain.CollateralWithdraw:
			steps = append(steps, facadeStep{Op: "withdraw", Token: c.Token, Amount: c.Amount.String(), Recipient: c.Recipient})
		default:
			return fmt.Errorf("unsupported facade call %T", call)
		}
	}

	req := struct {
		Account string       `json:"account"`
		Steps   []facadeStep `json:"steps"`
	}{Account: account, Steps: steps}

	path := fmt.Sprintf("/v1/managers/%s/facade/batch", f.manager)
	return f.gateway.do(ctx, http.MethodPost, path, req, nil)
}

// BalanceOf 查询持有人的资产余额
func (g *Gateway) BalanceOf(ctx context.Context, token, holder string) (decimal.Decimal, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	path := fmt.Sprintf("/v1/tokens/%s/balance/%s", token, holder)
	if err := g.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(out.Balance)
}

// Decimals 查询资产精度
func (g *Gateway) Decimals(ctx context.Context, token string) (int32, error) {
	var out struct {
		Decimals int32 `json:"decimals"`
	}
	path := fmt.Sprintf("/v1/tokens/%s/decimals", token)
	if err := g.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Decimals, nil
}

// PullFrom 从来源方拉取资产到本服务的过渡托管
func (g *Gateway) PullFrom(ctx context.Context, token, from string, amount decimal.Decimal) error {
	req := struct {
		Token  string `json:"token"`
		From   string `json:"from"`
		Amount string `json:"amount"`
	}{Token: token, From: from, Amount: amount.String()}
	return g.do(ctx, http.MethodPost, "/v1/transfers/pull", req, nil)
}

// PushTo 把过渡托管中的资产转给接收人
func (g *Gateway) PushTo(ctx context.Context, token, to string, amount decimal.Decimal) error {
	req := struct {
		Token  string `json:"token"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}{Token: token, To: to, Amount: amount.String()}
	return g.do(ctx, http.MethodPost, "/v1/transfers/push", req, nil)
}

// Approve 授予支出方对指定数额的转移权
func (g *Gateway) Approve(ctx context.Context, token, spender string, amount decimal.Decimal) error {
	req := struct {
		Token   string `json:"token"`
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}{Token: token, Spender: spender, Amount: amount.String()}
	return g.do(ctx, http.MethodPost, "/v1/transfers/approve", req, nil)
}
