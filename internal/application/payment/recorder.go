package payment

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/pkg/clock"
)

// OutcomeRecorder 持久化一次结算结果
// 同步网关调用、回调、人工修改、对账都经过这里，保证支付与订单一起变化
type OutcomeRecorder struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	clock       clock.Clock
}

// NewOutcomeRecorder 创建结算记录器
func NewOutcomeRecorder(orderRepo order.Repository, paymentRepo payment.Repository, clk clock.Clock) *OutcomeRecorder {
	return &OutcomeRecorder{orderRepo: orderRepo, paymentRepo: paymentRepo, clock: clk}
}

// Record 必须在事务中调用，p与o应已加锁
func (r *OutcomeRecorder) Record(ctx context.Context, p *payment.Payment, o *order.Order, outcome payment.Outcome) (*payment.Changes, error) {
	changes, err := payment.RecordOutcome(p, o, outcome, r.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := r.paymentRepo.Update(ctx, changes.Payment); err != nil {
		return nil, err
	}
	if err := r.orderRepo.Update(ctx, changes.Order); err != nil {
		return nil, err
	}
	return changes, nil
}

// lockPair 按 订单→支付 的固定顺序加锁，避免与删单等流程交叉死锁
func lockPair(ctx context.Context, orderRepo order.Repository, paymentRepo payment.Repository, found *payment.Payment) (*payment.Payment, *order.Order, error) {
	o, err := orderRepo.LockByID(ctx, found.OrderID)
	if err != nil {
		return nil, nil, err
	}
	p, err := paymentRepo.LockByID(ctx, found.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, o, nil
}
