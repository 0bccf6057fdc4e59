package gateway

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/pkg/circuitbreaker"
	"github.com/xiebiao/topupstore/pkg/clock"
	"github.com/xiebiao/topupstore/pkg/metrics"
)

const breakerName = "payment-gateway"

// New 按配置创建网关：mock或http，按需套上熔断器
func New(cfg *config.Config, log *zap.Logger, clk clock.Clock) (payment.Gateway, error) {
	var gw payment.Gateway
	switch cfg.Gateway.Driver {
	case "mock":
		gw = NewMockGateway(cfg.Gateway.SuccessRate)
	case "http":
		gw = NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	default:
		return nil, fmt.Errorf("未知的网关驱动: %s", cfg.Gateway.Driver)
	}
	log.Info("支付网关已创建", zap.String("driver", cfg.Gateway.Driver))

	bc := cfg.Gateway.Breaker
	if !bc.Enabled {
		return gw, nil
	}

	threshold := bc.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	cb := circuitbreaker.NewCircuitBreaker(breakerName, circuitbreaker.Config{
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= threshold },
		IsFailure:   countsAsFailure,
		Clock:       clk,
	})
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitBreakerState(name, int(to))
		log.Warn("熔断器状态变化",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})
	return NewBreakerGateway(gw, cb), nil
}
