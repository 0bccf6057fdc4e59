package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/pkg/clock"
	"github.com/xiebiao/topupstore/pkg/metrics"
	"github.com/xiebiao/topupstore/pkg/tracing"
)

// WebhookDeduper 记录已处理的回调，网关重复投递时直接返回
type WebhookDeduper interface {
	Processed(ctx context.Context, transactionID, status string) (bool, error)
	MarkProcessed(ctx context.Context, transactionID, status string) error
}

// NopDeduper 不做去重，重复回调由支付状态本身保证幂等
type NopDeduper struct{}

func (NopDeduper) Processed(context.Context, string, string) (bool, error) { return false, nil }
func (NopDeduper) MarkProcessed(context.Context, string, string) error     { return nil }

// HandleWebhookUseCase 处理网关异步回调
type HandleWebhookUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	txManager   tx.Manager
	recorder    *OutcomeRecorder
	deduper     WebhookDeduper
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

func NewHandleWebhookUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	recorder *OutcomeRecorder,
	deduper WebhookDeduper,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *HandleWebhookUseCase {
	if deduper == nil {
		deduper = NopDeduper{}
	}
	return &HandleWebhookUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		recorder:    recorder,
		deduper:     deduper,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

type WebhookRequest struct {
	TransactionID string
	Status        payment.Status
	Payload       map[string]interface{}
}

type WebhookResult struct {
	Payment *payment.Payment
	// Replayed 为true表示该回调之前已处理过，本次没有任何修改
	Replayed bool
}

// Execute 按交易号找到支付并结算
// 相同状态的重复回调是空操作；终态支付收到不同状态返回ErrPaymentImmutable
func (uc *HandleWebhookUseCase) Execute(ctx context.Context, req WebhookRequest) (*WebhookResult, error) {
	ctx, span := tracing.StartSpan(ctx, "payment.webhook")
	defer span.End()

	if req.TransactionID == "" {
		return nil, payment.ErrInvalidTransactionID
	}
	if req.Status != payment.StatusSuccess && req.Status != payment.StatusFailed {
		return nil, payment.ErrInvalidStatus
	}

	seen, err := uc.deduper.Processed(ctx, req.TransactionID, string(req.Status))
	if err != nil {
		uc.logger.Warn("查询回调去重记录失败", zap.String("transaction_id", req.TransactionID), zap.Error(err))
	}
	if seen {
		p, err := uc.paymentRepo.FindByTransactionID(ctx, req.TransactionID)
		if err != nil {
			return nil, err
		}
		metrics.IncWebhook("duplicate")
		return &WebhookResult{Payment: p, Replayed: true}, nil
	}

	var (
		result   *payment.Payment
		replayed bool
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		found, err := uc.paymentRepo.FindByTransactionID(txCtx, req.TransactionID)
		if err != nil {
			return err
		}
		p, o, err := lockPair(txCtx, uc.orderRepo, uc.paymentRepo, found)
		if err != nil {
			return err
		}
		if p.Status == req.Status {
			result, replayed = p, true
			return nil
		}

		changes, err := uc.recorder.Record(txCtx, p, o, payment.Outcome{
			Success:  req.Status == payment.StatusSuccess,
			Metadata: req.Payload,
		})
		if err != nil {
			return err
		}
		result = changes.Payment
		return nil
	})
	if err != nil {
		metrics.IncWebhook("rejected")
		uc.logger.Info("回调处理失败",
			zap.String("transaction_id", req.TransactionID),
			zap.String("status", string(req.Status)),
			zap.Error(err))
		return nil, err
	}

	if err := uc.deduper.MarkProcessed(ctx, req.TransactionID, string(req.Status)); err != nil {
		uc.logger.Warn("写入回调去重记录失败", zap.String("transaction_id", req.TransactionID), zap.Error(err))
	}

	if replayed {
		metrics.IncWebhook("duplicate")
		return &WebhookResult{Payment: result, Replayed: true}, nil
	}

	metrics.IncWebhook("processed")
	metrics.IncPayment(string(result.Status))
	uc.logger.Info("回调已结算",
		zap.Uint("payment_id", result.ID),
		zap.String("transaction_id", result.TransactionID),
		zap.String("status", string(result.Status)))
	publish(ctx, uc.events, uc.logger, event.New(event.PaymentSettled, uc.clock.Now(), settledPayload(result)))
	return &WebhookResult{Payment: result}, nil
}
