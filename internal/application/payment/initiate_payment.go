package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
	"github.com/xiebiao/topupstore/pkg/metrics"
	"github.com/xiebiao/topupstore/pkg/tracing"
)

// InitiatePaymentUseCase 发起支付用例
type InitiatePaymentUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	gateway     payment.Gateway
	recorder    *OutcomeRecorder
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
	opts        Options
}

// NewInitiatePaymentUseCase 创建发起支付用例
func NewInitiatePaymentUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	gateway payment.Gateway,
	recorder *OutcomeRecorder,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
	opts Options,
) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		gateway:     gateway,
		recorder:    recorder,
		clock:       clk,
		events:      events,
		logger:      logger,
		opts:        opts.withDefaults(),
	}
}

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	Actor   user.Actor
	OrderID uint
	Method  payment.Method
	Amount  int64 // 分，必须与订单金额完全一致
}

// Execute 发起支付
//
//  1. 锁定订单，检查是否已支付、金额是否一致、状态能否支付
//  2. 删除之前失败的支付，创建pending支付
//  3. 在超时时间内调用网关
//  4. 明确结果：支付与订单在同一事务内一起结算
//     超时/熔断：按失败结算
//     其他错误：结果未知，提交pending支付并返回ErrIndeterminateOutcome，由回调或对账确定
func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, req InitiatePaymentRequest) (*payment.Payment, error) {
	ctx, span := tracing.StartSpan(ctx, "payment.initiate")
	defer span.End()

	if !req.Method.Valid() {
		return nil, payment.ErrInvalidMethod
	}

	var (
		result        *payment.Payment
		indeterminate bool
	)
	// 网关可能已经扣款，请求被取消也要把结果落库
	err := uc.txManager.Transaction(context.WithoutCancel(ctx), func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !req.Actor.CanAccess(o.UserID) {
			return apperrors.ErrForbidden
		}

		existing, err := uc.paymentRepo.FindByOrderID(txCtx, o.ID)
		if err != nil && !errors.Is(err, payment.ErrPaymentNotFound) {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case payment.StatusSuccess:
				return payment.ErrAlreadyPaid
			case payment.StatusPending:
				return payment.ErrPaymentPending
			}
		}
		if o.Status == order.StatusPaid || o.Status == order.StatusCompleted {
			return payment.ErrAlreadyPaid
		}
		if req.Amount != o.TotalAmount {
			return payment.ErrAmountMismatch
		}
		if !o.CanPay() {
			return payment.ErrInvalidOrderStatus
		}

		if existing != nil {
			if err := uc.paymentRepo.Delete(txCtx, existing.ID); err != nil {
				return err
			}
		}

		p, err := payment.NewPayment(o.ID, req.Method, req.Amount, payment.NewTransactionID(), uc.clock.Now())
		if err != nil {
			return err
		}
		if err := uc.paymentRepo.Create(txCtx, p); err != nil {
			return err
		}

		outcome, known := uc.attempt(txCtx, p)
		if !known {
			// 保留pending支付，等待回调或对账
			if err := uc.paymentRepo.Update(txCtx, p); err != nil {
				return err
			}
			result, indeterminate = p, true
			return nil
		}

		changes, err := uc.recorder.Record(txCtx, p, o, *outcome)
		if err != nil {
			return err
		}
		result = changes.Payment
		return nil
	})
	if err != nil {
		uc.logger.Info("发起支付失败", zap.Uint("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}

	metrics.IncPayment(string(result.Status))
	if indeterminate {
		uc.logger.Warn("支付结果未知，等待回调或对账",
			zap.Uint("payment_id", result.ID),
			zap.String("transaction_id", result.TransactionID))
		return result, payment.ErrIndeterminateOutcome
	}

	uc.logger.Info("支付已结算",
		zap.Uint("payment_id", result.ID),
		zap.Uint("order_id", result.OrderID),
		zap.String("status", string(result.Status)),
		zap.String("transaction_id", result.TransactionID))
	publish(ctx, uc.events, uc.logger, event.New(event.PaymentSettled, uc.clock.Now(), settledPayload(result)))
	return result, nil
}

// attempt 调用网关，返回 (结果, 是否确定)
// 结果未知时把错误写进p.GatewayResponse
func (uc *InitiatePaymentUseCase) attempt(ctx context.Context, p *payment.Payment) (*payment.Outcome, bool) {
	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := uc.gateway.Attempt(gctx, payment.AttemptRequest{
		Reference: p.TransactionID,
		OrderID:   p.OrderID,
		Method:    p.Method,
		Amount:    p.Amount,
	})
	elapsed := time.Since(start)

	switch {
	case err == nil && outcome != nil:
		metrics.ObserveGateway(string(outcome.Status()), elapsed)
		return outcome, true
	case errors.Is(err, payment.ErrGatewayTimeout) || errors.Is(err, context.DeadlineExceeded):
		metrics.ObserveGateway("timeout", elapsed)
		return failedOutcome("timeout", err), true
	case errors.Is(err, payment.ErrGatewayUnavailable):
		metrics.ObserveGateway("unavailable", elapsed)
		return failedOutcome("gateway_unavailable", err), true
	}

	metrics.ObserveGateway("unknown", elapsed)
	detail := "gateway returned no outcome"
	if err != nil {
		detail = err.Error()
	}
	p.GatewayResponse = map[string]interface{}{
		"status": "unknown",
		"error":  detail,
	}
	p.UpdatedAt = uc.clock.Now()
	uc.logger.Warn("网关调用结果未知", zap.String("transaction_id", p.TransactionID), zap.Error(err))
	return nil, false
}

func failedOutcome(reason string, err error) *payment.Outcome {
	return &payment.Outcome{
		Success: false,
		Metadata: map[string]interface{}{
			"status": "failed",
			"reason": reason,
			"error":  err.Error(),
		},
	}
}
