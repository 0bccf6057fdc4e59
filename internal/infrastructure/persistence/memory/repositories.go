package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// ========== 用户 ==========

type userRepository struct{ s *Store }

// NewUserRepository 创建用户仓储
func NewUserRepository(s *Store) user.Repository { return &userRepository{s: s} }

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	return r.s.do(ctx, func() error {
		for _, existing := range r.s.t.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return apperrors.ErrEmailDuplicate
			}
		}
		u.ID = r.s.next("users")
		r.s.t.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var out *user.User
	err := r.s.do(ctx, func() error {
		u, ok := r.s.t.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var out *user.User
	err := r.s.do(ctx, func() error {
		for _, u := range r.s.t.users {
			if strings.EqualFold(u.Email, email) {
				out = cloneUser(u)
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})
	return out, err
}

// ========== 商品 ==========

type productRepository struct{ s *Store }

// NewProductRepository 创建商品仓储
func NewProductRepository(s *Store) product.Repository { return &productRepository{s: s} }

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	return r.s.do(ctx, func() error {
		p.ID = r.s.next("products")
		r.s.t.products[p.ID] = cloneProduct(p)
		return nil
	})
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var out *product.Product
	err := r.s.do(ctx, func() error {
		p, ok := r.s.t.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		out = cloneProduct(p)
		return nil
	})
	return out, err
}

// LockByID 事务内整个存储已加锁，等同于FindByID
func (r *productRepository) LockByID(ctx context.Context, id uint) (*product.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var out []*product.Product
	var total int64
	err := r.s.do(ctx, func() error {
		matched := make([]*product.Product, 0, len(r.s.t.products))
		for _, p := range r.s.t.products {
			if params.Category != "" && p.Category != params.Category {
				continue
			}
			if params.ActiveOnly && !p.IsActive {
				continue
			}
			if params.InStockOnly && p.Stock <= 0 {
				continue
			}
			matched = append(matched, p)
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

		total = int64(len(matched))
		start, end := paginate(len(matched), params.Page, params.PageSize)
		for _, p := range matched[start:end] {
			out = append(out, cloneProduct(p))
		}
		return nil
	})
	return out, total, err
}

func (r *productRepository) TryDecrementStock(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	return r.adjust(ctx, id, -quantity)
}

func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	return r.adjust(ctx, id, quantity)
}

func (r *productRepository) adjust(ctx context.Context, id uint, delta int) error {
	return r.s.do(ctx, func() error {
		p, ok := r.s.t.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		if p.Stock+delta < 0 {
			return product.ErrInsufficientStock
		}
		p.Stock += delta
		return nil
	})
}

// ========== 订单 ==========

type orderRepository struct{ s *Store }

// NewOrderRepository 创建订单仓储
func NewOrderRepository(s *Store) order.Repository { return &orderRepository{s: s} }

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.s.do(ctx, func() error {
		o.ID = r.s.next("orders")
		r.s.t.orders[o.ID] = cloneOrder(o)
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var out *order.Order
	err := r.s.do(ctx, func() error {
		o, ok := r.s.t.orders[id]
		if !ok {
			return order.ErrOrderNotFound
		}
		out = cloneOrder(o)
		return nil
	})
	return out, err
}

func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	return r.s.do(ctx, func() error {
		existing, ok := r.s.t.orders[o.ID]
		if !ok {
			return order.ErrOrderNotFound
		}
		existing.Status = o.Status
		existing.PlayerID = o.PlayerID
		existing.Notes = o.Notes
		existing.UpdatedAt = o.UpdatedAt
		return nil
	})
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.t.orders[id]; !ok {
			return order.ErrOrderNotFound
		}
		delete(r.s.t.orders, id)
		return nil
	})
}

func (r *orderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	var out []*order.Order
	var total int64
	err := r.s.do(ctx, func() error {
		matched := make([]*order.Order, 0, len(r.s.t.orders))
		for _, o := range r.s.t.orders {
			if filter.UserID != 0 && o.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			if filter.Category != "" {
				p, ok := r.s.t.products[o.ProductID]
				if !ok || string(p.Category) != filter.Category {
					continue
				}
			}
			matched = append(matched, o)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})

		total = int64(len(matched))
		start, end := paginate(len(matched), filter.Page, filter.PageSize)
		for _, o := range matched[start:end] {
			out = append(out, cloneOrder(o))
		}
		return nil
	})
	return out, total, err
}

// ========== 支付 ==========

type paymentRepository struct{ s *Store }

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(s *Store) payment.Repository { return &paymentRepository{s: s} }

// Create order_id与transaction_id唯一
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.s.do(ctx, func() error {
		for _, existing := range r.s.t.payments {
			if existing.OrderID == p.OrderID {
				return payment.ErrPaymentPending
			}
			if existing.TransactionID == p.TransactionID {
				return payment.ErrDuplicateTransactionID
			}
		}
		p.ID = r.s.next("payments")
		r.s.t.payments[p.ID] = clonePayment(p)
		return nil
	})
}

func (r *paymentRepository) find(ctx context.Context, match func(*payment.Payment) bool) (*payment.Payment, error) {
	var out *payment.Payment
	err := r.s.do(ctx, func() error {
		for _, p := range r.s.t.payments {
			if match(p) {
				out = clonePayment(p)
				return nil
			}
		}
		return payment.ErrPaymentNotFound
	})
	return out, err
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.find(ctx, func(p *payment.Payment) bool { return p.ID == id })
}

func (r *paymentRepository) LockByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID uint) (*payment.Payment, error) {
	return r.find(ctx, func(p *payment.Payment) bool { return p.OrderID == orderID })
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return r.find(ctx, func(p *payment.Payment) bool { return p.TransactionID == transactionID })
}

func (r *paymentRepository) LockByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return r.FindByTransactionID(ctx, transactionID)
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.t.payments[p.ID]; !ok {
			return payment.ErrPaymentNotFound
		}
		for id, other := range r.s.t.payments {
			if id != p.ID && other.TransactionID == p.TransactionID {
				return payment.ErrDuplicateTransactionID
			}
		}
		r.s.t.payments[p.ID] = clonePayment(p)
		return nil
	})
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.t.payments[id]; !ok {
			return payment.ErrPaymentNotFound
		}
		delete(r.s.t.payments, id)
		return nil
	})
}

func (r *paymentRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	return r.s.do(ctx, func() error {
		for id, p := range r.s.t.payments {
			if p.OrderID == orderID {
				delete(r.s.t.payments, id)
			}
		}
		return nil
	})
}

func (r *paymentRepository) ListPending(ctx context.Context, before time.Time, limit int) ([]*payment.Payment, error) {
	var out []*payment.Payment
	err := r.s.do(ctx, func() error {
		for _, p := range r.s.t.payments {
			if p.Status == payment.StatusPending && p.CreatedAt.Before(before) {
				out = append(out, clonePayment(p))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *paymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, int64, error) {
	var out []*payment.Payment
	var total int64
	err := r.s.do(ctx, func() error {
		matched := make([]*payment.Payment, 0, len(r.s.t.payments))
		for _, p := range r.s.t.payments {
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.Method != "" && p.Method != filter.Method {
				continue
			}
			if filter.UserID != 0 {
				o, ok := r.s.t.orders[p.OrderID]
				if !ok || o.UserID != filter.UserID {
					continue
				}
			}
			matched = append(matched, p)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})

		total = int64(len(matched))
		start, end := paginate(len(matched), filter.Page, filter.PageSize)
		for _, p := range matched[start:end] {
			out = append(out, clonePayment(p))
		}
		return nil
	})
	return out, total, err
}
