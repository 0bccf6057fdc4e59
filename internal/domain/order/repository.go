package order

import (
	"context"
)

// Repository 订单仓储接口
// 由domain层定义，infrastructure层实现；事务通过context传递
type Repository interface {
	// Create 创建订单
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单，不存在返回ErrOrderNotFound
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 悲观锁查询订单（SELECT FOR UPDATE），必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Order, error)

	// Update 更新订单（状态、player_id、notes）
	Update(ctx context.Context, order *Order) error

	// Delete 物理删除订单
	Delete(ctx context.Context, id uint) error

	// List 分页查询订单，按创建时间倒序
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)
}

// ListFilter 订单列表过滤条件，零值表示不过滤
type ListFilter struct {
	UserID   uint
	Status   Status
	Category string // 商品分类
	Page     int
	PageSize int
}
