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
	"github.com/xiebiao/topupstore/pkg/metrics"
)

// UpdatePaymentUseCase 管理员人工修改支付
type UpdatePaymentUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	recorder    *OutcomeRecorder
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

func NewUpdatePaymentUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	recorder *OutcomeRecorder,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *UpdatePaymentUseCase {
	return &UpdatePaymentUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		recorder:    recorder,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

type UpdatePaymentRequest struct {
	Actor           user.Actor
	PaymentID       uint
	Status          *payment.Status
	TransactionID   *string
	GatewayResponse map[string]interface{}
}

// Execute 修改支付
// 改状态等同于一次人工结算，订单随之变化；只改交易号/网关响应时订单不变
func (uc *UpdatePaymentUseCase) Execute(ctx context.Context, req UpdatePaymentRequest) (*payment.Payment, error) {
	if !req.Actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var (
		result  *payment.Payment
		settled bool
	)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		found, err := uc.paymentRepo.FindByID(txCtx, req.PaymentID)
		if err != nil {
			return err
		}
		p, o, err := lockPair(txCtx, uc.orderRepo, uc.paymentRepo, found)
		if err != nil {
			return err
		}
		if p.Status == payment.StatusSuccess {
			return payment.ErrPaymentImmutable
		}

		if req.Status != nil && *req.Status != p.Status {
			target := *req.Status
			if !target.Valid() {
				return payment.ErrInvalidStatus
			}
			if target == payment.StatusPending {
				return payment.ErrInvalidTransition
			}
			if p.Status.IsTerminal() {
				return payment.ErrPaymentImmutable
			}

			outcome := payment.Outcome{
				Success:  target == payment.StatusSuccess,
				Metadata: req.GatewayResponse,
			}
			if outcome.Metadata == nil {
				outcome.Metadata = p.GatewayResponse
			}
			if req.TransactionID != nil {
				if _, err := p.ApplyMetadata(payment.Metadata{TransactionID: req.TransactionID}, uc.clock.Now()); err != nil {
					return err
				}
			}
			changes, err := uc.recorder.Record(txCtx, p, o, outcome)
			if err != nil {
				return err
			}
			result, settled = changes.Payment, true
			return nil
		}

		changed, err := p.ApplyMetadata(payment.Metadata{
			TransactionID:   req.TransactionID,
			GatewayResponse: req.GatewayResponse,
		}, uc.clock.Now())
		if err != nil {
			return err
		}
		if changed {
			if err := uc.paymentRepo.Update(txCtx, p); err != nil {
				return err
			}
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		metrics.IncPayment(string(result.Status))
		uc.logger.Info("支付已人工结算",
			zap.Uint("payment_id", result.ID),
			zap.Uint("operator", req.Actor.UserID),
			zap.String("status", string(result.Status)))
		publish(ctx, uc.events, uc.logger, event.New(event.PaymentSettled, uc.clock.Now(), settledPayload(result)))
	}
	return result, nil
}
