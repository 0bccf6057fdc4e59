package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xiebiao/topupstore/internal/domain/payment"
)

// HTTPGateway 通过HTTP调用外部结算服务
//
//	POST {base}/v1/charges        发起扣款
//	GET  {base}/v1/charges/{ref}  查询结果
//
// 响应status：approved→成功，declined→失败，pending→结果未知
type HTTPGateway struct {
	client *resty.Client
}

var (
	_ payment.Gateway       = (*HTTPGateway)(nil)
	_ payment.StatusQuerier = (*HTTPGateway)(nil)
)

type chargeRequest struct {
	Reference string `json:"reference"`
	OrderID   uint   `json:"order_id"`
	Method    string `json:"method"`
	Amount    int64  `json:"amount"` // 分
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

const (
	chargeApproved = "approved"
	chargeDeclined = "declined"
	chargePending  = "pending"
)

// NewHTTPGateway 创建HTTP网关
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPGateway{client: client}
}

// Attempt 发起扣款
func (g *HTTPGateway) Attempt(ctx context.Context, req payment.AttemptRequest) (*payment.Outcome, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.Reference).
		SetBody(chargeRequest{
			Reference: req.Reference,
			OrderID:   req.OrderID,
			Method:    string(req.Method),
			Amount:    req.Amount,
		}).
		Post("/v1/charges")
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	switch {
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, fmt.Errorf("网关返回%d", resp.StatusCode())
	case resp.StatusCode() >= http.StatusBadRequest:
		// 请求被网关拒绝，没有扣款
		metadata := decodeMetadata(resp.Body())
		metadata["status"] = chargeDeclined
		metadata["http_status"] = resp.StatusCode()
		return &payment.Outcome{Success: false, Metadata: metadata}, nil
	}

	return parseCharge(resp.Body())
}

// Query 查询扣款结果
func (g *HTTPGateway) Query(ctx context.Context, reference string) (*payment.Outcome, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get("/v1/charges/{reference}")
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, payment.ErrOutcomeUnknown
	}
	if resp.IsError() {
		return nil, fmt.Errorf("网关返回%d", resp.StatusCode())
	}
	return parseCharge(resp.Body())
}

func parseCharge(body []byte) (*payment.Outcome, error) {
	var charge chargeResponse
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, fmt.Errorf("解析网关响应失败: %w", err)
	}
	metadata := decodeMetadata(body)

	switch charge.Status {
	case chargeApproved:
		return &payment.Outcome{Success: true, TransactionID: charge.TransactionID, Metadata: metadata}, nil
	case chargeDeclined:
		return &payment.Outcome{Success: false, Metadata: metadata}, nil
	case chargePending:
		return nil, payment.ErrOutcomeUnknown
	default:
		return nil, fmt.Errorf("未知的扣款状态: %q", charge.Status)
	}
}

func decodeMetadata(body []byte) map[string]interface{} {
	metadata := map[string]interface{}{}
	_ = json.Unmarshal(body, &metadata)
	metadata["gateway"] = "http"
	return metadata
}

// classifyTransportError 超时归为ErrGatewayTimeout，其余传输错误结果未知
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", payment.ErrGatewayTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", payment.ErrGatewayTimeout, err)
	}
	return fmt.Errorf("调用网关失败: %w", err)
}
