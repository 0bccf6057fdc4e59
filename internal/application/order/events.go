package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
)

// publish 事务提交后发布事件，失败只记日志
func publish(ctx context.Context, pub event.Publisher, logger *zap.Logger, evt event.Event) {
	if err := pub.Publish(ctx, evt); err != nil {
		logger.Warn("发布事件失败", zap.String("event", evt.Name), zap.Error(err))
	}
}

func orderPayload(o *order.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_id":     o.ID,
		"user_id":      o.UserID,
		"product_id":   o.ProductID,
		"quantity":     o.Quantity,
		"total_amount": o.TotalAmount,
		"status":       string(o.Status),
	}
}
