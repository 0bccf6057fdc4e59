// Package metrics 基于Prometheus的业务与HTTP指标
//
// 指标在包初始化时通过promauto注册到默认Registry，
// 由 GET /metrics（promhttp.Handler）暴露给Prometheus抓取。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "topupstore"

var (
	// =========================================
	// HTTP指标
	// =========================================

	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时（秒）",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "正在处理的HTTP请求数",
		},
	)

	// =========================================
	// 订单指标
	// =========================================

	// OrdersCreatedTotal 创建成功的订单数
	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "创建成功的订单数",
		},
	)

	// OrdersFailedTotal 创建失败的订单数（按原因）
	OrdersFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_failed_total",
			Help:      "创建失败的订单数",
		},
		[]string{"reason"},
	)

	// OrdersDeletedTotal 删除的订单数（restocked=true表示归还了库存）
	OrdersDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_deleted_total",
			Help:      "删除的订单数",
		},
		[]string{"restocked"},
	)

	// =========================================
	// 支付指标
	// =========================================

	// PaymentsTotal 支付结果（success / failed / pending）
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "支付结果统计",
		},
		[]string{"status"},
	)

	// PaymentGatewayDuration 支付网关调用耗时
	PaymentGatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_gateway_duration_seconds",
			Help:      "支付网关调用耗时（秒）",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	// PaymentWebhooksTotal 支付回调处理结果
	PaymentWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "支付回调处理结果",
		},
		[]string{"result"},
	)

	// PaymentsReconciledTotal 对账任务处理的支付数
	PaymentsReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_reconciled_total",
			Help:      "对账任务处理的支付数",
		},
		[]string{"result"},
	)

	// =========================================
	// 熔断器 / 消息指标
	// =========================================

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	// EventsPublishedTotal 发布的领域事件数
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "发布的领域事件数",
		},
		[]string{"routing_key", "result"},
	)
)

// =========================================
// 便捷函数
// =========================================

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// IncOrderFailed 记录下单失败原因
func IncOrderFailed(reason string) {
	OrdersFailedTotal.WithLabelValues(reason).Inc()
}

// IncOrderDeleted 记录订单删除
func IncOrderDeleted(restocked bool) {
	OrdersDeletedTotal.WithLabelValues(strconv.FormatBool(restocked)).Inc()
}

// IncPayment 记录支付结果
func IncPayment(status string) {
	PaymentsTotal.WithLabelValues(status).Inc()
}

// ObserveGateway 记录网关调用耗时
func ObserveGateway(result string, elapsed time.Duration) {
	PaymentGatewayDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// IncWebhook 记录回调处理结果
func IncWebhook(result string) {
	PaymentWebhooksTotal.WithLabelValues(result).Inc()
}

// IncReconciled 记录对账结果
func IncReconciled(result string) {
	PaymentsReconciledTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncEventPublished 记录事件发布
func IncEventPublished(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublishedTotal.WithLabelValues(routingKey, result).Inc()
}
