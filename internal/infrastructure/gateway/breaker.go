package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/pkg/circuitbreaker"
)

// BreakerGateway 熔断装饰器
// 网关连续失败时熔断，熔断期间直接返回ErrGatewayUnavailable，请求不会发出
type BreakerGateway struct {
	next payment.Gateway
	cb   *circuitbreaker.CircuitBreaker
}

var (
	_ payment.Gateway       = (*BreakerGateway)(nil)
	_ payment.StatusQuerier = (*BreakerGateway)(nil)
)

// NewBreakerGateway 创建熔断装饰器
func NewBreakerGateway(next payment.Gateway, cb *circuitbreaker.CircuitBreaker) *BreakerGateway {
	return &BreakerGateway{next: next, cb: cb}
}

// Attempt 经熔断器调用下游网关
func (g *BreakerGateway) Attempt(ctx context.Context, req payment.AttemptRequest) (*payment.Outcome, error) {
	var outcome *payment.Outcome
	err := g.cb.Execute(func() error {
		var err error
		outcome, err = g.next.Attempt(ctx, req)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	return outcome, err
}

// Query 下游不支持查询时返回ErrOutcomeUnknown
func (g *BreakerGateway) Query(ctx context.Context, reference string) (*payment.Outcome, error) {
	querier, ok := g.next.(payment.StatusQuerier)
	if !ok {
		return nil, payment.ErrOutcomeUnknown
	}

	var outcome *payment.Outcome
	err := g.cb.Execute(func() error {
		var err error
		outcome, err = querier.Query(ctx, reference)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	return outcome, err
}

// countsAsFailure 结果未知不算网关故障
func countsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, payment.ErrOutcomeUnknown)
}
