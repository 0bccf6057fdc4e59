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
	"github.com/xiebiao/topupstore/pkg/clock"
	"github.com/xiebiao/topupstore/pkg/metrics"
)

// Reconciler 定期向网关查询长时间pending的支付并结算
type Reconciler struct {
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

func NewReconciler(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager tx.Manager,
	gateway payment.Gateway,
	recorder *OutcomeRecorder,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
	opts Options,
) *Reconciler {
	return &Reconciler{
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

// ReconcileReport 一轮对账的统计
type ReconcileReport struct {
	Checked    int
	Settled    int
	Unresolved int
}

// Run 每隔interval执行一轮，直到ctx取消
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("对账任务已启动", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("对账任务已停止")
			return
		case <-ticker.C:
			report, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("对账失败", zap.Error(err))
				continue
			}
			if report.Checked > 0 {
				r.logger.Info("对账完成",
					zap.Int("checked", report.Checked),
					zap.Int("settled", report.Settled),
					zap.Int("unresolved", report.Unresolved))
			}
		}
	}
}

// RunOnce 执行一轮对账；网关不支持查询时什么也不做
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	querier, ok := r.gateway.(payment.StatusQuerier)
	if !ok {
		return report, nil
	}

	pending, err := r.paymentRepo.ListPending(ctx, r.clock.Now().Add(-r.opts.ReconcileAfter), r.opts.ReconcileBatch)
	if err != nil {
		return report, err
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++

		outcome, err := r.query(ctx, querier, p.TransactionID)
		if err != nil {
			report.Unresolved++
			if errors.Is(err, payment.ErrOutcomeUnknown) {
				metrics.IncReconciled("unknown")
			} else {
				metrics.IncReconciled("error")
				r.logger.Warn("查询支付结果失败", zap.String("transaction_id", p.TransactionID), zap.Error(err))
			}
			continue
		}

		settled, err := r.settle(ctx, p, *outcome)
		if err != nil {
			report.Unresolved++
			metrics.IncReconciled("error")
			r.logger.Warn("对账结算失败", zap.Uint("payment_id", p.ID), zap.Error(err))
			continue
		}
		if settled == nil {
			// 期间已被回调结算
			continue
		}

		report.Settled++
		metrics.IncReconciled("settled")
		metrics.IncPayment(string(settled.Status))
		publish(ctx, r.events, r.logger, event.New(event.PaymentSettled, r.clock.Now(), settledPayload(settled)))
	}
	return report, nil
}

func (r *Reconciler) query(ctx context.Context, querier payment.StatusQuerier, reference string) (*payment.Outcome, error) {
	qctx, cancel := context.WithTimeout(ctx, r.opts.GatewayTimeout)
	defer cancel()
	outcome, err := querier.Query(qctx, reference)
	if err == nil && outcome == nil {
		return nil, payment.ErrOutcomeUnknown
	}
	return outcome, err
}

// settle 返回nil,nil表示支付已不是pending
func (r *Reconciler) settle(ctx context.Context, found *payment.Payment, outcome payment.Outcome) (*payment.Payment, error) {
	var result *payment.Payment
	err := r.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, o, err := lockPair(txCtx, r.orderRepo, r.paymentRepo, found)
		if err != nil {
			return err
		}
		if p.Status != payment.StatusPending {
			return nil
		}
		changes, err := r.recorder.Record(txCtx, p, o, outcome)
		if err != nil {
			return err
		}
		result = changes.Payment
		return nil
	})
	return result, err
}
