package payment

import (
	"time"

	"github.com/xiebiao/topupstore/internal/domain/order"
)

// Outcome 一次结算的结果（来自同步网关调用、回调或对账）
type Outcome struct {
	Success       bool
	TransactionID string                 // 网关侧交易号，成功时覆盖本地交易号
	Metadata      map[string]interface{} // 原样存入gateway_response
}

// Status 结果对应的支付状态
func (o Outcome) Status() Status {
	if o.Success {
		return StatusSuccess
	}
	return StatusFailed
}

// Changes 一次结算同时修改的两个实体，调用方必须在同一事务中持久化
type Changes struct {
	Payment *Payment
	Order   *order.Order
}

// RecordOutcome 记录支付结果
// 支付 pending→success/failed 与订单 →paid/failed 一起发生；任何一方不满足条件则都不修改
func RecordOutcome(p *Payment, o *order.Order, outcome Outcome, now time.Time) (*Changes, error) {
	if p.OrderID != o.ID {
		return nil, ErrOrderMismatch
	}
	if p.Status.IsTerminal() {
		return nil, ErrPaymentImmutable
	}

	// 先检查订单能否流转，再同时修改
	target := order.StatusFailed
	if outcome.Success {
		target = order.StatusPaid
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, ErrInvalidOrderStatus
	}
	if err := o.ApplyPaymentOutcome(outcome.Success, now); err != nil {
		return nil, err
	}

	p.Status = outcome.Status()
	if outcome.Success && outcome.TransactionID != "" {
		p.TransactionID = outcome.TransactionID
	}
	p.GatewayResponse = outcome.Metadata
	processedAt := now
	p.ProcessedAt = &processedAt
	p.UpdatedAt = now

	return &Changes{Payment: p, Order: o}, nil
}
