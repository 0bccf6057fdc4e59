package payment

import (
	"context"
	"time"
)

// Repository 支付仓储接口
// order_id、transaction_id 都是唯一的，重复插入返回ErrPaymentPending / ErrDuplicateTransactionID
type Repository interface {
	Create(ctx context.Context, payment *Payment) error

	// FindByID 不存在返回ErrPaymentNotFound
	FindByID(ctx context.Context, id uint) (*Payment, error)

	// LockByID 悲观锁查询，必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Payment, error)

	// FindByOrderID 查询订单当前的支付记录，没有返回ErrPaymentNotFound
	FindByOrderID(ctx context.Context, orderID uint) (*Payment, error)

	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// LockByTransactionID 回调按交易号加锁查询
	LockByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	Update(ctx context.Context, payment *Payment) error

	// Delete 物理删除
	Delete(ctx context.Context, id uint) error

	// DeleteByOrderID 删除订单的支付记录（不存在不报错）
	DeleteByOrderID(ctx context.Context, orderID uint) error

	// ListPending 查询创建时间早于before的pending支付，按创建时间升序
	ListPending(ctx context.Context, before time.Time, limit int) ([]*Payment, error)

	// List 分页查询，按创建时间倒序
	List(ctx context.Context, filter ListFilter) ([]*Payment, int64, error)
}

// ListFilter 支付列表过滤条件，零值表示不过滤
type ListFilter struct {
	UserID   uint // 订单所属用户
	Status   Status
	Method   Method
	Page     int
	PageSize int
}
