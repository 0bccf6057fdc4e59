package order

import (
	"context"
	"errors"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// OrderDetail 订单详情，附带商品、下单用户和当前支付
type OrderDetail struct {
	Order   *order.Order
	Product *product.Product
	User    *user.User
	Payment *payment.Payment
}

// GetOrderUseCase 订单详情用例
type GetOrderUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	userRepo    user.Repository
	paymentRepo payment.Repository
}

// NewGetOrderUseCase 创建订单详情用例
func NewGetOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	userRepo user.Repository,
	paymentRepo payment.Repository,
) *GetOrderUseCase {
	return &GetOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
	}
}

// Execute 查询订单详情，只能查看自己的订单（管理员除外）
func (uc *GetOrderUseCase) Execute(ctx context.Context, actor user.Actor, orderID uint) (*OrderDetail, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, apperrors.ErrForbidden
	}

	detail := &OrderDetail{Order: o}

	if detail.Product, err = uc.productRepo.FindByID(ctx, o.ProductID); err != nil {
		if !errors.Is(err, product.ErrProductNotFound) {
			return nil, err
		}
	}
	if detail.User, err = uc.userRepo.FindByID(ctx, o.UserID); err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
	}
	if detail.Payment, err = uc.paymentRepo.FindByOrderID(ctx, o.ID); err != nil {
		if !errors.Is(err, payment.ErrPaymentNotFound) {
			return nil, err
		}
	}

	return detail, nil
}
