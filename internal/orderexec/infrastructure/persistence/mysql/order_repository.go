package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/orderexec/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderModel 订单持久化对象
type OrderModel struct {
	// ID 由单调分配器给出，不使用数据库自增
	ID         uint64 `gorm:"primaryKey;autoIncrement:false"`
	Kind       string `gorm:"type:varchar(16);not null"`
	Owner      string `gorm:"type:varchar(128);index;not null"`
	ManagerRef string `gorm:"type:varchar(128);not null"`
	AccountRef string `gorm:"type:varchar(128);not null"`
	TokenIn    string `gorm:"type:varchar(64);not null"`
	TokenOut   string `gorm:"type:varchar(64);not null"`

	AmountIn     decimal.Decimal `gorm:"type:decimal(40,0)"`
	LimitPrice   decimal.Decimal `gorm:"type:decimal(40,0)"`
	TriggerPrice decimal.Decimal `gorm:"type:decimal(40,0)"`
	Deadline     time.Time       `gorm:"type:datetime(6)"`

	AmountPerInterval decimal.Decimal `gorm:"type:decimal(40,0)"`
	IntervalSeconds   int64           `gorm:"not null;default:0"`
	NextExecutionTime time.Time       `gorm:"type:datetime(6)"`
	TotalExecutions   int             `gorm:"not null;default:0"`
	ExecutionsLeft    int             `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:datetime(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6)"`
}

func (OrderModel) TableName() string {
	return "execution_orders"
}

// OrderCounterModel 单行 ID 分配器，保证订单 ID 单调递增且永不复用
type OrderCounterModel struct {
	ID     uint   `gorm:"primaryKey"`
	NextID uint64 `gorm:"not null;default:0"`
}

func (OrderCounterModel) TableName() string {
	return "execution_order_counter"
}

func (m *OrderModel) toDomain() *domain.Order {
	return &domain.Order{
		ID:                m.ID,
		Kind:              domain.OrderKind(m.Kind),
		Owner:             m.Owner,
		ManagerRef:        m.ManagerRef,
		AccountRef:        m.AccountRef,
		TokenIn:           m.TokenIn,
		TokenOut:          m.TokenOut,
		AmountIn:          m.AmountIn,
		LimitPrice:        m.LimitPrice,
		TriggerPrice:      m.TriggerPrice,
		Deadline:          m.Deadline,
		AmountPerInterval: m.AmountPerInterval,
		Interval:          time.Duration(m.IntervalSeconds) * time.Second,
		NextExecutionTime: m.NextExecutionTime,
		TotalExecutions:   m.TotalExecutions,
		ExecutionsLeft:    m.ExecutionsLeft,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromDomain(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:                o.ID,
		Kind:              string(o.Kind),
		Owner:             o.Owner,
		ManagerRef:        o.ManagerRef,
		AccountRef:        o.AccountRef,
		TokenIn:           o.TokenIn,
		TokenOut:          o.TokenOut,
		AmountIn:          o.AmountIn,
		LimitPrice:        o.LimitPrice,
		TriggerPrice:      o.TriggerPrice,
		Deadline:          o.Deadline,
		AmountPerInterval: o.AmountPerInterval,
		IntervalSeconds:   int64(o.Interval / time.Second),
		NextExecutionTime: o.NextExecutionTime,
		TotalExecutions:   o.TotalExecutions,
		ExecutionsLeft:    o.ExecutionsLeft,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

type orderRepository struct {
	db *db.DB
}

func NewOrderRepository(database *db.DB) domain.OrderRepository {
	return &orderRepository{db: database}
}

// session 优先使用 context 中的事务句柄，使同一公共操作内的变更落在同一事务里
func (r *orderRepository) session(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db.DB)
}

// NextID 从单行计数器分配订单 ID；行锁保证并发提交下 ID 仍然单调且不重复
func (r *orderRepository) NextID(ctx context.Context) (uint64, error) {
	var counter OrderCounterModel
	tx := r.session(ctx)

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", 1).First(&counter).Error; err != nil {
		return 0, err
	}

	id := counter.NextID
	if err := tx.Model(&OrderCounterModel{}).
		Where("id = ?", 1).
		Update("next_id", id+1).Error; err != nil {
		return 0, err
	}
	return id, nil
}

func (r *orderRepository) Insert(ctx context.Context, order *domain.Order) error {
	return r.session(ctx).Create(fromDomain(order)).Error
}

func (r *orderRepository) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	var model OrderModel
	tx := r.session(ctx)
	// 事务内读取加行锁，串行化并发执行/取消对同一订单的竞争
	if db.HasTx(ctx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.session(ctx).Save(fromDomain(order)).Error
}

func (r *orderRepository) Remove(ctx context.Context, id uint64) error {
	return r.session(ctx).Where("id = ?", id).Delete(&OrderModel{}).Error
}

func (r *orderRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Order, int64, error) {
	var models []*OrderModel
	var total int64

	query := r.session(ctx).Model(&OrderModel{}).Where("owner = ?", owner)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id asc").Limit(limit).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = m.toDomain()
	}
	return orders, total, nil
}

// Migrate 建表并初始化计数器行
func Migrate(database *db.DB) error {
	if err := database.AutoMigrate(&OrderModel{}, &OrderCounterModel{}); err != nil {
		return err
	}
	// 计数器行只初始化一次
	return database.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&OrderCounterModel{ID: 1, NextID: 0}).Error
}
