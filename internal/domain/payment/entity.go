package payment

import (
	"time"
)

// Status 支付状态
type Status string

const (
	StatusPending Status = "pending" // 已发起，结果未知
	StatusSuccess Status = "success" // 已扣款（终态，不可修改/删除）
	StatusFailed  Status = "failed"  // 支付失败（终态）
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSuccess || s == StatusFailed
}

// IsTerminal success/failed都是终态
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Method 支付方式
type Method string

const (
	MethodVisa       Method = "visa"
	MethodMastercard Method = "mastercard"
	MethodPaypal     Method = "paypal"
	MethodMada       Method = "mada"
	MethodSTCPay     Method = "stc_pay"
	MethodApplePay   Method = "apple_pay"
)

// Methods 支持的支付方式
func Methods() []Method {
	return []Method{MethodVisa, MethodMastercard, MethodPaypal, MethodMada, MethodSTCPay, MethodApplePay}
}

// Valid 是否为支持的支付方式
func (m Method) Valid() bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

// Payment 支付实体
// 每个订单同一时刻最多一条支付记录；Amount（分）必须与订单金额完全一致
type Payment struct {
	ID              uint
	OrderID         uint
	Method          Method
	Amount          int64
	Status          Status
	TransactionID   string
	GatewayResponse map[string]interface{}
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPayment 创建待处理的支付记录
func NewPayment(orderID uint, method Method, amount int64, transactionID string, now time.Time) (*Payment, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}
	if amount <= 0 {
		return nil, ErrAmountMismatch
	}

	return &Payment{
		OrderID:       orderID,
		Method:        method,
		Amount:        amount,
		Status:        StatusPending,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanDelete 成功的支付是资金已到账的凭证，不可删除
func (p *Payment) CanDelete() error {
	if p.Status == StatusSuccess {
		return ErrPaymentImmutable
	}
	return nil
}

// Metadata 非结算字段的修改（交易号、网关响应）
type Metadata struct {
	TransactionID   *string
	GatewayResponse map[string]interface{}
}

// ApplyMetadata 修改交易号或网关响应，成功的支付不可修改
func (p *Payment) ApplyMetadata(m Metadata, now time.Time) (bool, error) {
	if p.Status == StatusSuccess {
		return false, ErrPaymentImmutable
	}

	changed := false
	if m.TransactionID != nil && *m.TransactionID != p.TransactionID {
		if *m.TransactionID == "" || len(*m.TransactionID) > MaxTransactionIDLen {
			return false, ErrInvalidTransactionID
		}
		p.TransactionID = *m.TransactionID
		changed = true
	}
	if m.GatewayResponse != nil {
		p.GatewayResponse = m.GatewayResponse
		changed = true
	}
	if changed {
		p.UpdatedAt = now
	}
	return changed, nil
}
