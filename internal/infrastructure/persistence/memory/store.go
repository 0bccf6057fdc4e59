// Package memory 进程内的仓储实现
// 所有数据放在一个Store里，由一把互斥锁串行化；事务期间持有锁，失败时回滚到快照
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
)

type txKey struct{}

type tables struct {
	nextID   map[string]uint
	users    map[uint]*user.User
	products map[uint]*product.Product
	orders   map[uint]*order.Order
	payments map[uint]*payment.Payment
}

// Store 内存存储
type Store struct {
	mu sync.Mutex
	t  tables
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{t: tables{
		nextID:   map[string]uint{},
		users:    map[uint]*user.User{},
		products: map[uint]*product.Product{},
		orders:   map[uint]*order.Order{},
		payments: map[uint]*payment.Payment{},
	}}
}

func (s *Store) next(table string) uint {
	s.t.nextID[table]++
	return s.t.nextID[table]
}

// do 事务内直接执行（锁已被TxManager持有），事务外单独加锁
func (s *Store) do(ctx context.Context, fn func() error) error {
	if inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*Store)
	return ok
}

func (s *Store) snapshot() tables {
	snap := tables{
		nextID:   make(map[string]uint, len(s.t.nextID)),
		users:    make(map[uint]*user.User, len(s.t.users)),
		products: make(map[uint]*product.Product, len(s.t.products)),
		orders:   make(map[uint]*order.Order, len(s.t.orders)),
		payments: make(map[uint]*payment.Payment, len(s.t.payments)),
	}
	for k, v := range s.t.nextID {
		snap.nextID[k] = v
	}
	for k, v := range s.t.users {
		snap.users[k] = cloneUser(v)
	}
	for k, v := range s.t.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range s.t.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.t.payments {
		snap.payments[k] = clonePayment(v)
	}
	return snap
}

// TxManager 内存事务管理器
type TxManager struct {
	store *Store
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager 创建事务管理器
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Transaction 持有存储锁执行fn，fn返回error或ctx已取消时恢复快照；嵌套调用复用外层事务
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, m.store)); err != nil {
		m.store.t = snap
		return err
	}
	if err := ctx.Err(); err != nil {
		m.store.t = snap
		return err
	}
	return nil
}

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	return &c
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	return &c
}

func clonePayment(p *payment.Payment) *payment.Payment {
	c := *p
	if p.GatewayResponse != nil {
		c.GatewayResponse = make(map[string]interface{}, len(p.GatewayResponse))
		for k, v := range p.GatewayResponse {
			c.GatewayResponse[k] = v
		}
	}
	if p.ProcessedAt != nil {
		t := *p.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func paginate(total, page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return 0, total
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
