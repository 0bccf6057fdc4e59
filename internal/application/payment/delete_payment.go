package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// DeletePaymentUseCase 删除支付记录，成功的支付不可删除
type DeletePaymentUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

func NewDeletePaymentUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *DeletePaymentUseCase {
	return &DeletePaymentUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

func (uc *DeletePaymentUseCase) Execute(ctx context.Context, actor user.Actor, id uint) error {
	var deleted *payment.Payment
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		found, err := uc.paymentRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		p, o, err := lockPair(txCtx, uc.orderRepo, uc.paymentRepo, found)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.UserID) {
			return apperrors.ErrForbidden
		}
		if err := p.CanDelete(); err != nil {
			return err
		}
		if err := uc.paymentRepo.Delete(txCtx, p.ID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("支付已删除",
		zap.Uint("payment_id", deleted.ID),
		zap.Uint("order_id", deleted.OrderID),
		zap.String("status", string(deleted.Status)))
	publish(ctx, uc.events, uc.logger, event.New(event.PaymentDeleted, uc.clock.Now(), map[string]interface{}{
		"payment_id": deleted.ID,
		"order_id":   deleted.OrderID,
		"status":     string(deleted.Status),
	}))
	return nil
}
