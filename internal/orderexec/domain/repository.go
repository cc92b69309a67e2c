package domain

import "context"

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// 分配下一个订单 ID（从 0 开始单调递增，永不复用）
	NextID(ctx context.Context) (uint64, error)
	// 插入订单
	Insert(ctx context.Context, order *Order) error
	// 获取订单；槽位不存在时返回 nil
	Get(ctx context.Context, id uint64) (*Order, error)
	// 更新订单
	Update(ctx context.Context, order *Order) error
	// 删除订单（槽位回到空记录）
	Remove(ctx context.Context, id uint64) error
	// 按 Owner 分页列出订单
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Order, int64, error)
}

// UnitOfWork 将一个公共操作内的全部仓储变更纳入同一原子单元
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
