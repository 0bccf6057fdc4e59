package payment

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/user"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// PaymentDetail 支付详情
type PaymentDetail struct {
	Payment *payment.Payment
	Order   *order.Order
}

type GetPaymentUseCase struct {
	paymentRepo payment.Repository
	orderRepo   order.Repository
}

func NewGetPaymentUseCase(paymentRepo payment.Repository, orderRepo order.Repository) *GetPaymentUseCase {
	return &GetPaymentUseCase{paymentRepo: paymentRepo, orderRepo: orderRepo}
}

// Execute 只有订单所有者和管理员可以查看
func (uc *GetPaymentUseCase) Execute(ctx context.Context, actor user.Actor, id uint) (*PaymentDetail, error) {
	p, err := uc.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := uc.orderRepo.FindByID(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, apperrors.ErrForbidden
	}
	return &PaymentDetail{Payment: p, Order: o}, nil
}
