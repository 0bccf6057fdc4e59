package payment

import (
	"context"

	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// AttemptRequest 发往结算网关的扣款请求
type AttemptRequest struct {
	Reference string // 本地交易号
	OrderID   uint
	Method    Method
	Amount    int64 // 分
}

// Gateway 结算网关端口
// 返回 (outcome, nil) 表示网关给出了明确结果；返回error时结果可能未知
type Gateway interface {
	Attempt(ctx context.Context, req AttemptRequest) (*Outcome, error)
}

// StatusQuerier 可选能力：按本地交易号查询结算结果，用于对账
// 结果仍未知时返回ErrOutcomeUnknown
type StatusQuerier interface {
	Query(ctx context.Context, reference string) (*Outcome, error)
}

// 网关错误
var (
	// ErrGatewayTimeout 网关超时，按失败处理
	ErrGatewayTimeout = apperrors.New(apperrors.ErrCodeGatewayError, "支付网关超时")

	// ErrGatewayUnavailable 网关不可用（熔断打开），请求未发出，按失败处理
	ErrGatewayUnavailable = apperrors.New(apperrors.ErrCodeGatewayError, "支付网关暂不可用")

	// ErrOutcomeUnknown 网关尚无结果
	ErrOutcomeUnknown = apperrors.New(apperrors.ErrCodeGatewayError, "支付结果未知")
)
