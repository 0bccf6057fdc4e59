// Package gateway 结算网关实现：模拟网关、HTTP网关和熔断装饰器
package gateway

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/topupstore/internal/domain/payment"
)

// DefaultMaxTracked 模拟网关默认保留的结果数
const DefaultMaxTracked = 10000

// MockGateway 模拟网关
// 以successRate的概率扣款成功；记录最近maxTracked笔结果供对账查询，超出后淘汰最早的
type MockGateway struct {
	successRate float64
	random      func() float64
	delay       time.Duration
	maxTracked  int

	mu       sync.Mutex
	outcomes map[string]*payment.Outcome
	tracked  []string
}

var (
	_ payment.Gateway       = (*MockGateway)(nil)
	_ payment.StatusQuerier = (*MockGateway)(nil)
)

// MockOption 模拟网关选项
type MockOption func(*MockGateway)

// WithRandom 替换随机数来源，测试用
func WithRandom(fn func() float64) MockOption {
	return func(g *MockGateway) { g.random = fn }
}

// WithDelay 模拟网关处理耗时
func WithDelay(d time.Duration) MockOption {
	return func(g *MockGateway) { g.delay = d }
}

// WithMaxTracked 设置保留的结果数上限，n<=0时使用DefaultMaxTracked
func WithMaxTracked(n int) MockOption {
	return func(g *MockGateway) {
		if n > 0 {
			g.maxTracked = n
		}
	}
}

// NewMockGateway 创建模拟网关
func NewMockGateway(successRate float64, opts ...MockOption) *MockGateway {
	g := &MockGateway{
		successRate: successRate,
		random:      rand.Float64,
		maxTracked:  DefaultMaxTracked,
		outcomes:    make(map[string]*payment.Outcome),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attempt 模拟扣款
func (g *MockGateway) Attempt(ctx context.Context, req payment.AttemptRequest) (*payment.Outcome, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, payment.ErrGatewayTimeout
			}
			return nil, ctx.Err()
		}
	}

	var outcome *payment.Outcome
	if g.random() < g.successRate {
		outcome = &payment.Outcome{
			Success:       true,
			TransactionID: "TXN_SUCCESS_" + randomSuffix(8),
			Metadata: map[string]interface{}{
				"gateway": "mock",
				"status":  "approved",
			},
		}
	} else {
		outcome = &payment.Outcome{
			Success: false,
			Metadata: map[string]interface{}{
				"gateway": "mock",
				"status":  "declined",
				"reason":  "Insufficient funds",
			},
		}
	}

	g.track(req.Reference, outcome)
	return outcome, nil
}

func (g *MockGateway) track(reference string, outcome *payment.Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.outcomes[reference]; !ok {
		g.tracked = append(g.tracked, reference)
	}
	g.outcomes[reference] = outcome
	for len(g.tracked) > g.maxTracked {
		delete(g.outcomes, g.tracked[0])
		g.tracked = g.tracked[1:]
	}
}

// Query 查询已处理过的结果，没有记录返回ErrOutcomeUnknown
func (g *MockGateway) Query(_ context.Context, reference string) (*payment.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	outcome, ok := g.outcomes[reference]
	if !ok {
		return nil, payment.ErrOutcomeUnknown
	}
	return outcome, nil
}

func randomSuffix(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:n]
}
