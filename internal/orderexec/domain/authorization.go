package domain

import "context"

// AuthGuard 校验订单操作的调用人身份与外部账户控制权是否一致
type AuthGuard struct {
	manager CreditManager
}

func NewAuthGuard(manager CreditManager) *AuthGuard {
	return &AuthGuard{manager: manager}
}

// VerifySubmission 提交校验：调用人必须等于订单 Owner，且外部账户的登记控制人也必须等于 Owner
func (g *AuthGuard) VerifySubmission(ctx context.Context, order *Order, caller string) error {
	if caller != order.Owner {
		return ErrCallerNotBorrower
	}
	controller, err := g.manager.ControllerOf(ctx, order.AccountRef)
	if err != nil {
		return err
	}
	if controller != order.Owner {
		return ErrCallerNotBorrower
	}
	return nil
}

// VerifyOwnership 取消校验：只比对声明的 Owner，不再查外部状态。
// 外部控制权漂移后，声明的 Owner 仍然可以取消自己的订单。
func (g *AuthGuard) VerifyOwnership(order *Order, caller string) error {
	if caller != order.Owner {
		return ErrCallerNotBorrower
	}
	return nil
}

// VerifyStillOwned 执行期校验：外部账户控制人若已不等于 Owner，订单对执行无效。
// 同一概念按订单类型报不同错误。
func (g *AuthGuard) VerifyStillOwned(ctx context.Context, order *Order) error {
	controller, err := g.manager.ControllerOf(ctx, order.AccountRef)
	if err != nil {
		return err
	}
	if controller != order.Owner {
		if order.Kind == OrderKindLimitSell {
			return ErrBorrowerChanged
		}
		return ErrInvalidOrder
	}
	return nil
}
