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
	"github.com/xiebiao/topupstore/pkg/metrics"
	"github.com/xiebiao/topupstore/pkg/tracing"
)

// DeleteOrderUseCase 删除订单用例
// 级联删除在一个事务内完成：回补库存 → 删除支付记录 → 删除订单
type DeleteOrderUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

// NewDeleteOrderUseCase 创建删除订单用例
func NewDeleteOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *DeleteOrderUseCase {
	return &DeleteOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

// Execute 删除订单
// 已支付/已完成的订单不可删除；待支付订单回补库存（商品已不存在时跳过）
func (uc *DeleteOrderUseCase) Execute(ctx context.Context, actor user.Actor, orderID uint) error {
	ctx, span := tracing.StartSpan(ctx, "order.delete")
	defer span.End()

	var (
		deleted   *order.Order
		restocked bool
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.UserID) {
			return apperrors.ErrForbidden
		}
		if err := o.CanDelete(); err != nil {
			return err
		}

		existing, err := uc.paymentRepo.FindByOrderID(txCtx, o.ID)
		switch {
		case err == nil && existing.Status == payment.StatusPending:
			// 网关结果未知，删除后回调将无法关联
			return payment.ErrPaymentPending
		case err != nil && !errors.Is(err, payment.ErrPaymentNotFound):
			return err
		}

		if o.HoldsStock() {
			err := uc.productRepo.IncrementStock(txCtx, o.ProductID, o.Quantity)
			switch {
			case err == nil:
				restocked = true
			case !errors.Is(err, product.ErrProductNotFound):
				return err
			}
		}

		if err := uc.paymentRepo.DeleteByOrderID(txCtx, o.ID); err != nil {
			return err
		}
		if err := uc.orderRepo.Delete(txCtx, o.ID); err != nil {
			return err
		}

		deleted = o
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IncOrderDeleted(restocked)
	uc.logger.Info("订单已删除",
		zap.Uint("order_id", deleted.ID),
		zap.String("status", string(deleted.Status)),
		zap.Bool("restocked", restocked))
	publish(ctx, uc.events, uc.logger, event.New(event.OrderDeleted, uc.clock.Now(), orderPayload(deleted)))
	return nil
}
