// Package application 实现订单生命周期控制器：提交、取消、执行三个公共入口
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/orderexec/pkg/metrics"
)

// NopEventPublisher 事件发布者的空实现，作为未配置消息队列时的降级方案
type NopEventPublisher struct{}

func (NopEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	return nil
}
func (NopEventPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	return nil
}
func (NopEventPublisher) PublishOrderExecuted(ctx context.Context, event domain.OrderExecutedEvent) error {
	return nil
}

// SubmitLimitOrderCommand 提交限价卖单命令
type SubmitLimitOrderCommand struct {
	Caller       string
	Owner        string
	ManagerRef   string
	AccountRef   string
	TokenIn      string
	TokenOut     string
	AmountIn     decimal.Decimal
	LimitPrice   decimal.Decimal
	TriggerPrice decimal.Decimal
	Deadline     time.Time
}

// SubmitDCAOrderCommand 提交定投买单命令
type SubmitDCAOrderCommand struct {
	Caller            string
	Owner             string
	ManagerRef        string
	AccountRef        string
	TokenIn           string
	TokenOut          string
	AmountPerInterval decimal.Decimal
	Interval          time.Duration
	Executions        int
	FirstExecution    time.Time
}

// OrderExecutionService 订单执行应用服务
type OrderExecutionService struct {
	repo    domain.OrderRepository
	uow     domain.UnitOfWork
	guard   *domain.AuthGuard
	engine  *domain.EligibilityEngine
	settler *domain.SettlementService
	events  domain.EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrderExecutionService(
	repo domain.OrderRepository,
	uow domain.UnitOfWork,
	manager domain.CreditManager,
	vault domain.AssetVault,
	events domain.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *OrderExecutionService {
	if events == nil {
		events = NopEventPublisher{}
	}
	guard := domain.NewAuthGuard(manager)
	return &OrderExecutionService{
		repo:    repo,
		uow:     uow,
		guard:   guard,
		engine:  domain.NewEligibilityEngine(manager, vault, guard),
		settler: domain.NewSettlementService(manager, vault),
		events:  events,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SubmitLimitOrder 登记一张限价卖单，返回分配的订单 ID
func (s *OrderExecutionService) SubmitLimitOrder(ctx context.Context, cmd SubmitLimitOrderCommand) (uint64, error) {
	order := domain.NewLimitSellOrder(cmd.Owner, cmd.ManagerRef, cmd.AccountRef,
		cmd.TokenIn, cmd.TokenOut, cmd.AmountIn, cmd.LimitPrice, cmd.TriggerPrice, cmd.Deadline)
	return s.submit(ctx, order, cmd.Caller)
}

// SubmitDCAOrder 登记一张定投买单，返回分配的订单 ID
func (s *OrderExecutionService) SubmitDCAOrder(ctx context.Context, cmd SubmitDCAOrderCommand) (uint64, error) {
	if cmd.Executions <= 0 || cmd.Interval <= 0 {
		return 0, domain.ErrInvalidOrder
	}
	order := domain.NewDCABuyOrder(cmd.Owner, cmd.ManagerRef, cmd.AccountRef,
		cmd.TokenIn, cmd.TokenOut, cmd.AmountPerInterval, cmd.Interval, cmd.Executions, cmd.FirstExecution)
	return s.submit(ctx, order, cmd.Caller)
}

func (s *OrderExecutionService) submit(ctx context.Context, order *domain.Order, caller string) (uint64, error) {
	if order.AccountRef == "" || order.ManagerRef == "" {
		return 0, domain.ErrInvalidOrder
	}
	if err := s.guard.VerifySubmission(ctx, order, caller); err != nil {
		return 0, err
	}

	err := s.uow.InTx(ctx, func(txCtx context.Context) error {
		id, err := s.repo.NextID(txCtx)
		if err != nil {
			return err
		}
		order.ID = id
		return s.repo.Insert(txCtx, order)
	})
	if err != nil {
		return 0, err
	}

	s.metrics.OrdersSubmitted.WithLabelValues(string(order.Kind)).Inc()
	if err := s.events.PublishOrderCreated(ctx, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		Owner:      order.Owner,
		Kind:       order.Kind,
		AccountRef: order.AccountRef,
		TokenIn:    order.TokenIn,
		TokenOut:   order.TokenOut,
		OccurredOn: s.now(),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order created event", "order_id", order.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "order submitted",
		"order_id", order.ID, "kind", order.Kind, "owner", order.Owner, "account", order.AccountRef)
	return order.ID, nil
}

// CancelOrder 取消订单；只有声明的 Owner 可以取消
func (s *OrderExecutionService) CancelOrder(ctx context.Context, orderID uint64, caller string) error {
	var cancelled domain.Order
	err := s.uow.InTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.Get(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			// 空槽位按全零记录处理，与从未创建过的订单行为一致
			order = &domain.Order{}
		}
		if err := s.guard.VerifyOwnership(order, caller); err != nil {
			return err
		}
		cancelled = *order
		return s.repo.Remove(txCtx, orderID)
	})
	if err != nil {
		return err
	}

	s.metrics.OrdersCancelled.Inc()
	if err := s.events.PublishOrderCancelled(ctx, domain.OrderCancelledEvent{
		OrderID:    orderID,
		Owner:      cancelled.Owner,
		Kind:       cancelled.Kind,
		OccurredOn: s.now(),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order cancelled event", "order_id", orderID, "error", err)
	}

	s.logger.InfoContext(ctx, "order cancelled", "order_id", orderID, "owner", cancelled.Owner)
	return nil
}

// ExecuteOrder 由任意执行人触发执行：跑资格检查、完成两腿结算、应用执行后状态
func (s *OrderExecutionService) ExecuteOrder(ctx context.Context, orderID uint64, executor string) error {
	start := time.Now()
	var executed domain.OrderExecutedEvent

	err := s.uow.InTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.Get(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			order = &domain.Order{}
		}

		quote, err := s.engine.Evaluate(txCtx, order, s.now())
		if err != nil {
			return err
		}

		if err := s.settler.Settle(txCtx, order, executor, quote); err != nil {
			return err
		}

		if order.Kind == domain.OrderKindLimitSell {
			// 限价单是一次性的，成功执行即删除
			if err := s.repo.Remove(txCtx, order.ID); err != nil {
				return err
			}
		} else {
			order.RecordExecution()
			if order.Exhausted() {
				if err := s.repo.Remove(txCtx, order.ID); err != nil {
					return err
				}
			} else if err := s.repo.Update(txCtx, order); err != nil {
				return err
			}
		}

		executed = domain.OrderExecutedEvent{
			OrderID:        orderID,
			Executor:       executor,
			Kind:           order.Kind,
			AmountIn:       quote.AmountIn,
			MinAmountOut:   quote.MinAmountOut,
			ExecutionsLeft: order.ExecutionsLeft,
			OccurredOn:     s.now(),
		}
		return nil
	})
	if err != nil {
		s.metrics.ExecutionFailures.WithLabelValues(failureReason(err)).Inc()
		return err
	}

	s.metrics.OrdersExecuted.WithLabelValues(string(executed.Kind)).Inc()
	s.metrics.SettlementDuration.Observe(time.Since(start).Seconds())

	if err := s.events.PublishOrderExecuted(ctx, executed); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order executed event", "order_id", orderID, "error", err)
	}

	s.logger.InfoContext(ctx, "order executed",
		"order_id", orderID, "executor", executor, "kind", executed.Kind,
		"amount_in", executed.AmountIn, "min_amount_out", executed.MinAmountOut,
		"executions_left", executed.ExecutionsLeft)
	return nil
}

// GetOrder 读取订单；不存在的 ID 返回全零记录而不是错误
func (s *OrderExecutionService) GetOrder(ctx context.Context, orderID uint64) (*OrderDTO, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

// ListOrders 按 Owner 分页列出订单
func (s *OrderExecutionService) ListOrders(ctx context.Context, owner string, limit, offset int) ([]*OrderDTO, int64, error) {
	orders, total, err := s.repo.ListByOwner(ctx, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = ToOrderDTO(o)
	}
	return dtos, total, nil
}

// failureReason 把资格/结算错误折叠成指标标签
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrNoExecutionsLeft):
		return "no_executions_left"
	case errors.Is(err, domain.ErrNotTimeYet):
		return "not_time_yet"
	case errors.Is(err, domain.ErrOrderExpired):
		return "expired"
	case errors.Is(err, domain.ErrNotTriggered):
		return "not_triggered"
	case errors.Is(err, domain.ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, domain.ErrBorrowerChanged):
		return "borrower_changed"
	case errors.Is(err, domain.ErrNothingToSell):
		return "nothing_to_sell"
	case errors.Is(err, domain.ErrCallerNotBorrower):
		return "not_borrower"
	default:
		return "internal"
	}
}
