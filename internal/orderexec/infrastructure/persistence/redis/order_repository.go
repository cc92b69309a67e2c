// Package redis 提供订单仓储的读穿透缓存装饰器
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/orderexec/pkg/cache"
	"github.com/wyfcoding/orderexec/pkg/db"
	"github.com/wyfcoding/orderexec/pkg/logger"
)

const orderCacheTTL = 5 * time.Minute

// orderCache 装饰器用到的缓存操作子集
type orderCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedOrderRepository 在底层仓储之上叠加 Redis 读缓存。
// 缓存只服务事务外的查询：事务内的读取直达底层仓储（并在那里获得行锁），
// 写路径全部直达底层仓储并使缓存失效。
type CachedOrderRepository struct {
	inner domain.OrderRepository
	cache orderCache
}

func NewCachedOrderRepository(inner domain.OrderRepository, c *cache.RedisCache) *CachedOrderRepository {
	return newCachedOrderRepository(inner, c)
}

func newCachedOrderRepository(inner domain.OrderRepository, c orderCache) *CachedOrderRepository {
	return &CachedOrderRepository{inner: inner, cache: c}
}

func orderKey(id uint64) string {
	return fmt.Sprintf("orderexec:order:%d", id)
}

func (r *CachedOrderRepository) NextID(ctx context.Context) (uint64, error) {
	return r.inner.NextID(ctx)
}

func (r *CachedOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if err := r.inner.Insert(ctx, order); err != nil {
		return err
	}
	r.invalidate(ctx, order.ID)
	return nil
}

func (r *CachedOrderRepository) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	// 事务内绕过缓存：执行/取消的资格判定必须读到加锁后的当前状态
	if db.HasTx(ctx) {
		return r.inner.Get(ctx, id)
	}

	var cached domain.Order
	if err := r.cache.GetJSON(ctx, orderKey(id), &cached); err == nil && cached.Exists() {
		return &cached, nil
	}

	order, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order != nil {
		if err := r.cache.SetJSON(ctx, orderKey(id), order, orderCacheTTL); err != nil {
			logger.Warn(ctx, "failed to cache order", "order_id", id, "error", err)
		}
	}
	return order, nil
}

func (r *CachedOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if err := r.inner.Update(ctx, order); err != nil {
		return err
	}
	r.invalidate(ctx, order.ID)
	return nil
}

func (r *CachedOrderRepository) Remove(ctx context.Context, id uint64) error {
	if err := r.inner.Remove(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedOrderRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Order, int64, error) {
	// 列表查询直达底层，避免维护按 Owner 的集合缓存
	return r.inner.ListByOwner(ctx, owner, limit, offset)
}

func (r *CachedOrderRepository) invalidate(ctx context.Context, id uint64) {
	if err := r.cache.Delete(ctx, orderKey(id)); err != nil {
		logger.Warn(ctx, "failed to invalidate order cache", "order_id", id, "error", err)
	}
}
