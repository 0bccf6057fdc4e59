package order

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
	"github.com/xiebiao/topupstore/pkg/tracing"
)

// UpdateOrderUseCase 人工修改订单（状态、玩家ID、备注）
type UpdateOrderUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

// NewUpdateOrderUseCase 创建修改订单用例
func NewUpdateOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *UpdateOrderUseCase {
	return &UpdateOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

// UpdateOrderRequest 修改订单请求
type UpdateOrderRequest struct {
	Actor   user.Actor
	OrderID uint
	Patch   order.Patch
}

// Execute 修改订单
// 取消待支付订单时在同一事务内回补库存；订单有处理中的支付时不能取消
func (uc *UpdateOrderUseCase) Execute(ctx context.Context, req UpdateOrderRequest) (*order.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "order.update")
	defer span.End()

	if req.Patch.Status != nil && *req.Patch.Status == order.StatusCompleted && !req.Actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var (
		updated *order.Order
		result  order.PatchResult
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !req.Actor.CanAccess(o.UserID) {
			return apperrors.ErrForbidden
		}

		if req.Patch.Status != nil && *req.Patch.Status == order.StatusCancelled {
			if err := uc.ensureNoPendingPayment(txCtx, o.ID); err != nil {
				return err
			}
		}

		result, err = o.ApplyPatch(req.Patch, uc.clock.Now())
		if err != nil {
			return err
		}
		if !result.Changed {
			updated = o
			return nil
		}

		if result.ReleasedStock {
			if err := uc.productRepo.IncrementStock(txCtx, o.ProductID, o.Quantity); err != nil &&
				!errors.Is(err, product.ErrProductNotFound) {
				return err
			}
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		uc.logger.Info("订单已修改",
			zap.Uint("order_id", updated.ID),
			zap.String("from", string(result.PreviousStatus)),
			zap.String("to", string(updated.Status)),
			zap.Bool("restocked", result.ReleasedStock))
		publish(ctx, uc.events, uc.logger, event.New(event.OrderUpdated, uc.clock.Now(), orderPayload(updated)))
	}
	return updated, nil
}

func (uc *UpdateOrderUseCase) ensureNoPendingPayment(ctx context.Context, orderID uint) error {
	p, err := uc.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return nil
		}
		return err
	}
	if p.Status == payment.StatusPending {
		return payment.ErrPaymentPending
	}
	return nil
}
