package dto

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/topupstore/internal/domain/payment"
)

// InitiatePaymentRequest 发起支付请求，amount必须与订单金额一致
type InitiatePaymentRequest struct {
	OrderID uint             `json:"order_id" binding:"required"`
	Method  string           `json:"method" binding:"required,oneof=visa mastercard paypal mada stc_pay apple_pay"`
	Amount  *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"20.00"`
}

// UpdatePaymentRequest 管理员修改支付
type UpdatePaymentRequest struct {
	Status          *string                `json:"status" binding:"omitempty,oneof=pending success failed"`
	TransactionID   *string                `json:"transaction_id" binding:"omitempty,max=64"`
	GatewayResponse map[string]interface{} `json:"gateway_response"`
}

// StatusPtr 转换为领域层状态
func (r UpdatePaymentRequest) StatusPtr() *payment.Status {
	if r.Status == nil {
		return nil
	}
	s := payment.Status(*r.Status)
	return &s
}

// WebhookRequest 回调中用于定位支付的字段，整个请求体原样存为gateway_response
type WebhookRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,max=64"`
	Status        string `json:"status" binding:"required,oneof=success failed"`
}

// ListPaymentsQuery 支付列表查询参数
type ListPaymentsQuery struct {
	PageQuery
	UserID uint   `form:"user_id"`
	Status string `form:"status" binding:"omitempty,oneof=pending success failed"`
	Method string `form:"method" binding:"omitempty,oneof=visa mastercard paypal mada stc_pay apple_pay"`
}

// PaymentResponse 支付响应
type PaymentResponse struct {
	ID              uint                   `json:"id"`
	OrderID         uint                   `json:"order_id"`
	Method          string                 `json:"method"`
	Amount          string                 `json:"amount" example:"20.00"`
	Status          string                 `json:"status"`
	TransactionID   string                 `json:"transaction_id"`
	GatewayResponse map[string]interface{} `json:"gateway_response,omitempty"`
	ProcessedAt     string                 `json:"processed_at,omitempty"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
	Order           *OrderResponse         `json:"order,omitempty"`
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	resp := &PaymentResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		Method:          string(p.Method),
		Amount:          FormatCents(p.Amount),
		Status:          string(p.Status),
		TransactionID:   p.TransactionID,
		GatewayResponse: p.GatewayResponse,
		CreatedAt:       p.CreatedAt.Format(timeLayout),
		UpdatedAt:       p.UpdatedAt.Format(timeLayout),
	}
	if p.ProcessedAt != nil {
		resp.ProcessedAt = p.ProcessedAt.Format(timeLayout)
	}
	return resp
}

func NewPaymentList(payments []*payment.Payment) []*PaymentResponse {
	list := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		list[i] = NewPaymentResponse(p)
	}
	return list
}
