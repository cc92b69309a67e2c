// Package memory 提供订单仓储的内存实现，用于测试与本地运行
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
)

type OrderRepository struct {
	mu     sync.Mutex
	nextID uint64
	orders map[uint64]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[uint64]*domain.Order)}
}

func (r *OrderRepository) NextID(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *OrderRepository) Remove(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Order
	for _, order := range r.orders {
		if order.Owner == owner {
			copied := *order
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// UnitOfWork 内存实现没有事务语义，直接透传
type UnitOfWork struct{}

func (UnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
