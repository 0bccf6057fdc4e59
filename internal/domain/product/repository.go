package product

import (
	"context"
)

// Repository 商品仓储接口（目录存储）
// 库存变更必须是原子的：并发扣减时库存永远不会小于0
type Repository interface {
	// Create 创建商品
	Create(ctx context.Context, product *Product) error

	// FindByID 根据ID查找商品，不存在返回ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// List 分页查询商品
	List(ctx context.Context, params ListParams) ([]*Product, int64, error)

	// LockByID 悲观锁查询商品（SELECT FOR UPDATE），必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Product, error)

	// TryDecrementStock 条件扣减库存（stock >= quantity 才扣减）
	// 库存不足返回ErrInsufficientStock，商品不存在返回ErrProductNotFound
	TryDecrementStock(ctx context.Context, id uint, quantity int) error

	// IncrementStock 回补库存
	IncrementStock(ctx context.Context, id uint, quantity int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int
	PageSize   int
	Category    Category
	ActiveOnly  bool
	InStockOnly bool
}
