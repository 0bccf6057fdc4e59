package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/payment"
)

// Options 支付流程参数
type Options struct {
	// GatewayTimeout 单次网关调用的超时时间，超时按支付失败处理
	GatewayTimeout time.Duration
	// ReconcileAfter pending超过该时长的支付进入对账
	ReconcileAfter time.Duration
	// ReconcileBatch 每轮对账最多处理的支付数
	ReconcileBatch int
}

func (o Options) withDefaults() Options {
	if o.GatewayTimeout <= 0 {
		o.GatewayTimeout = 10 * time.Second
	}
	if o.ReconcileAfter <= 0 {
		o.ReconcileAfter = 5 * time.Minute
	}
	if o.ReconcileBatch <= 0 {
		o.ReconcileBatch = 100
	}
	return o
}

// publish 事务提交后发布事件，失败只记日志
func publish(ctx context.Context, pub event.Publisher, logger *zap.Logger, evt event.Event) {
	if err := pub.Publish(ctx, evt); err != nil {
		logger.Warn("发布事件失败", zap.String("event", evt.Name), zap.Error(err))
	}
}

func settledPayload(p *payment.Payment) map[string]interface{} {
	return map[string]interface{}{
		"payment_id":     p.ID,
		"order_id":       p.OrderID,
		"status":         string(p.Status),
		"amount":         p.Amount,
		"method":         string(p.Method),
		"transaction_id": p.TransactionID,
	}
}
