package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/orderexec/internal/orderexec/infrastructure/persistence/memory"
	"github.com/wyfcoding/orderexec/pkg/metrics"
)

type testEnv struct {
	svc    *OrderExecutionService
	repo   *memory.OrderRepository
	vault  *fakeVault
	events *recordingPublisher
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	vault := &fakeVault{}
	manager := &fakeManager{
		controllers: map[string]string{testAccount: testOwner},
		facade:      &fakeFacade{},
		oracle:      &fakeOracle{rates: map[string]decimal.Decimal{testTokenIn + ":" + testTokenOut: decimal.NewFromInt(2_000_000)}},
	}
	repo := memory.NewOrderRepository()
	events := &recordingPublisher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewOrderExecutionService(repo, memory.UnitOfWork{}, manager, vault, events, metrics.New("test"), logger)

	env := &testEnv{svc: svc, repo: repo, vault: vault, events: events, now: time.Now()}
	svc.now = func() time.Time { return env.now }
	return env
}

func limitCommand() SubmitLimitOrderCommand {
	return SubmitLimitOrderCommand{
		Caller:     testOwner,
		Owner:      testOwner,
		ManagerRef: testManager,
		AccountRef: testAccount,
		TokenIn:    testTokenIn,
		TokenOut:   testTokenOut,
		AmountIn:   decimal.NewFromInt(100_000),
		LimitPrice: decimal.NewFromInt(1_900_000),
	}
}

func dcaCommand(first time.Time) SubmitDCAOrderCommand {
	return SubmitDCAOrderCommand{
		Caller:            testOwner,
		Owner:             testOwner,
		ManagerRef:        testManager,
		AccountRef:        testAccount,
		TokenIn:           testTokenIn,
		TokenOut:          testTokenOut,
		AmountPerInterval: decimal.NewFromInt(50_000),
		Interval:          time.Hour,
		Executions:        3,
		FirstExecution:    first,
	}
}

func TestSubmit_AllocatesMonotonicIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.SubmitLimitOrder(ctx, limitCommand())
	if err != nil {
		t.Fatalf("SubmitLimitOrder() error: %v", err)
	}
	second, err := env.svc.SubmitDCAOrder(ctx, dcaCommand(env.now))
	if err != nil {
		t.Fatalf("SubmitDCAOrder() error: %v", err)
	}

	if first != 0 || second != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", first, second)
	}
	if len(env.events.created) != 2 {
		t.Errorf("created events = %d, want 2", len(env.events.created))
	}
}

func TestSubmit_RejectsNonOwnerCaller(t *testing.T) {
	env := newTestEnv(t)

	cmd := limitCommand()
	cmd.Caller = "0xINTRUDER"
	if _, err := env.svc.SubmitLimitOrder(context.Background(), cmd); !errors.Is(err, domain.ErrCallerNotBorrower) {
		t.Errorf("SubmitLimitOrder() error = %v, want %v", err, domain.ErrCallerNotBorrower)
	}
}

func TestSubmitDCA_RejectsDegenerateSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd := dcaCommand(env.now)
	cmd.Executions = 0
	if _, err := env.svc.SubmitDCAOrder(ctx, cmd); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("zero executions: error = %v, want %v", err, domain.ErrInvalidOrder)
	}

	cmd = dcaCommand(env.now)
	cmd.Interval = 0
	if _, err := env.svc.SubmitDCAOrder(ctx, cmd); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("zero interval: error = %v, want %v", err, domain.ErrInvalidOrder)
	}
}

func TestCancel_OnlyOwnerMayCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.SubmitLimitOrder(ctx, limitCommand())
	if err != nil {
		t.Fatalf("SubmitLimitOrder() error: %v", err)
	}

	if err := env.svc.CancelOrder(ctx, id, "0xINTRUDER"); !errors.Is(err, domain.ErrCallerNotBorrower) {
		t.Errorf("cancel by intruder: error = %v, want %v", err, domain.ErrCallerNotBorrower)
	}
	if err := env.svc.CancelOrder(ctx, id, testOwner); err != nil {
		t.Fatalf("cancel by owner: unexpected error %v", err)
	}
	if len(env.events.cancelled) != 1 {
		t.Errorf("cancelled events = %d, want 1", len(env.events.cancelled))
	}
}

func TestCancel_AbsentSlotBehavesLikeZeroRecord(t *testing.T) {
	env := newTestEnv(t)

	// 空槽位的 Owner 是空串，任何调用者都不匹配
	if err := env.svc.CancelOrder(context.Background(), 42, testOwner); !errors.Is(err, domain.ErrCallerNotBorrower) {
		t.Errorf("cancel absent slot: error = %v, want %v", err, domain.ErrCallerNotBorrower)
	}
}

func TestExecute_CancelledOrderReadsAsCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.vault.setBalance(testTokenIn, testAccount, 1_000_000)

	id, _ := env.svc.SubmitLimitOrder(ctx, limitCommand())
	if err := env.svc.CancelOrder(ctx, id, testOwner); err != nil {
		t.Fatalf("CancelOrder() error: %v", err)
	}

	if err := env.svc.ExecuteOrder(ctx, id, testExecutor); !errors.Is(err, domain.ErrOrderCancelled) {
		t.Errorf("execute after cancel: error = %v, want %v", err, domain.ErrOrderCancelled)
	}
}

func TestExecute_LimitOrderRemovedAfterFill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.vault.setBalance(testTokenIn, testAccount, 1_000_000)

	id, _ := env.svc.SubmitLimitOrder(ctx, limitCommand())
	if err := env.svc.ExecuteOrder(ctx, id, testExecutor); err != nil {
		t.Fatalf("ExecuteOrder() error: %v", err)
	}

	// 一次性订单执行后槽位清空
	dto, err := env.svc.GetOrder(ctx, id)
	if err != nil {
		t.Fatalf("GetOrder() error: %v", err)
	}
	if dto.Owner != "" || dto.AccountRef != "" {
		t.Errorf("slot after fill = %+v, want zero record", dto)
	}

	if len(env.events.executed) != 1 {
		t.Fatalf("executed events = %d, want 1", len(env.events.executed))
	}
	event := env.events.executed[0]
	if event.Executor != testExecutor {
		t.Errorf("event executor = %s, want %s", event.Executor, testExecutor)
	}
	if !event.AmountIn.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("event amount_in = %s, want 100000", event.AmountIn)
	}
	if !event.MinAmountOut.Equal(decimal.NewFromInt(200_000)) {
		t.Errorf("event min_amount_out = %s, want 200000", event.MinAmountOut)
	}
}

func TestExecute_DCARunsDownAndRemovesAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.vault.setBalance(testTokenIn, testAccount, 10_000_000)

	id, err := env.svc.SubmitDCAOrder(ctx, dcaCommand(env.now))
	if err != nil {
		t.Fatalf("SubmitDCAOrder() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := env.svc.ExecuteOrder(ctx, id, testExecutor); err != nil {
			t.Fatalf("execution %d error: %v", i+1, err)
		}

		if i < 2 {
			dto, _ := env.svc.GetOrder(ctx, id)
			if dto.ExecutionsLeft != 2-i {
				t.Errorf("after execution %d: executions_left = %d, want %d", i+1, dto.ExecutionsLeft, 2-i)
			}
			// 排程恰好推进一个间隔
			wantNext := env.now.Add(time.Duration(i+1) * time.Hour).Format(time.RFC3339)
			if dto.NextExecutionTime != wantNext {
				t.Errorf("after execution %d: next = %s, want %s", i+1, dto.NextExecutionTime, wantNext)
			}
		}

		// 推进时间，使下一期到点
		env.now = env.now.Add(time.Hour)
	}

	// 次数耗尽后槽位清空
	dto, _ := env.svc.GetOrder(ctx, id)
	if dto.AccountRef != "" {
		t.Errorf("slot after exhaustion = %+v, want zero record", dto)
	}

	// 再次执行按已取消处理
	if err := env.svc.ExecuteOrder(ctx, id, testExecutor); !errors.Is(err, domain.ErrOrderCancelled) {
		t.Errorf("execute exhausted order: error = %v, want %v", err, domain.ErrOrderCancelled)
	}
}

func TestExecute_DCABeforeScheduleFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.vault.setBalance(testTokenIn, testAccount, 10_000_000)

	id, _ := env.svc.SubmitDCAOrder(ctx, dcaCommand(env.now.Add(time.Hour)))
	if err := env.svc.ExecuteOrder(ctx, id, testExecutor); !errors.Is(err, domain.ErrNotTimeYet) {
		t.Errorf("execute before schedule: error = %v, want %v", err, domain.ErrNotTimeYet)
	}
}

func TestExecute_SettlementFailureKeepsOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.vault.setBalance(testTokenIn, testAccount, 1_000_000)
	env.vault.pullErr = errors.New("insufficient allowance")

	id, _ := env.svc.SubmitLimitOrder(ctx, limitCommand())
	if err := env.svc.ExecuteOrder(ctx, id, testExecutor); err == nil {
		t.Fatal("ExecuteOrder() expected settlement failure")
	}

	// 失败的执行不消耗订单
	dto, _ := env.svc.GetOrder(ctx, id)
	if dto.Owner != testOwner {
		t.Errorf("order after failed settlement = %+v, want intact", dto)
	}
	if len(env.events.executed) != 0 {
		t.Errorf("executed events = %d, want 0", len(env.events.executed))
	}
}

func TestGetOrder_AbsentReadsZeroRecord(t *testing.T) {
	env := newTestEnv(t)

	dto, err := env.svc.GetOrder(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetOrder() error: %v", err)
	}
	if dto.ID != 0 || dto.Owner != "" || dto.AmountIn != "0" {
		t.Errorf("absent order dto = %+v, want zero record", dto)
	}
}

func TestListOrders_FiltersByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.SubmitLimitOrder(ctx, limitCommand()); err != nil {
		t.Fatalf("SubmitLimitOrder() error: %v", err)
	}
	if _, err := env.svc.SubmitDCAOrder(ctx, dcaCommand(env.now)); err != nil {
		t.Fatalf("SubmitDCAOrder() error: %v", err)
	}

	orders, total, err := env.svc.ListOrders(ctx, testOwner, 10, 0)
	if err != nil {
		t.Fatalf("ListOrders() error: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Errorf("ListOrders() = %d orders, total %d, want 2/2", len(orders), total)
	}

	orders, total, err = env.svc.ListOrders(ctx, "0xSOMEONE_ELSE", 10, 0)
	if err != nil {
		t.Fatalf("ListOrders() error: %v", err)
	}
	if total != 0 || len(orders) != 0 {
		t.Errorf("ListOrders() for stranger = %d orders, total %d, want 0/0", len(orders), total)
	}
}
