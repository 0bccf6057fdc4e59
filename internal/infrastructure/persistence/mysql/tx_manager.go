package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/topupstore/internal/domain/tx"
)

type txKey struct{}

// TxManager 事务管理器
// 通过context传递事务DB；Repository的getDB从context取出事务DB参与同一事务
type TxManager struct {
	db *gorm.DB
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// fn返回error时ROLLBACK，返回nil时COMMIT；已在事务中时直接复用外层事务
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    p, err := productRepo.LockByID(ctx, productID)
//	    ...
//	    return productRepo.TryDecrementStock(ctx, productID, quantity)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// getDB 从context获取事务DB，没有则使用默认DB
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
