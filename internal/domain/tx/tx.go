// Package tx 定义事务协调器端口
// 多实体变更（下单+扣库存、支付结果+订单状态、删单+回补库存）都通过Manager在同一事务内完成
package tx

import "context"

// Manager 事务管理器
// fn内通过txCtx调用的所有Repository操作处于同一事务；fn返回error时整体回滚
type Manager interface {
	Transaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
