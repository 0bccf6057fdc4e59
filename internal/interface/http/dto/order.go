package dto

import (
	apporder "github.com/xiebiao/topupstore/internal/application/order"
	"github.com/xiebiao/topupstore/internal/domain/order"
)

// CreateOrderRequest 下单请求
// user_id为空时为当前用户下单，只有管理员可以为他人下单
type CreateOrderRequest struct {
	UserID    uint   `json:"user_id"`
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=100"`
	PlayerID  string `json:"player_id" binding:"required,max=255"`
	Notes     string `json:"notes" binding:"max=500"`
}

// UpdateOrderRequest 修改订单，未出现的字段不修改
type UpdateOrderRequest struct {
	Status   *string `json:"status" binding:"omitempty,oneof=pending paid completed failed cancelled"`
	PlayerID *string `json:"player_id" binding:"omitempty,max=255"`
	Notes    *string `json:"notes" binding:"omitempty,max=500"`
}

// Patch 转换为领域层的修改
func (r UpdateOrderRequest) Patch() order.Patch {
	p := order.Patch{PlayerID: r.PlayerID, Notes: r.Notes}
	if r.Status != nil {
		s := order.Status(*r.Status)
		p.Status = &s
	}
	return p
}

// ListOrdersQuery 订单列表查询参数
type ListOrdersQuery struct {
	PageQuery
	UserID   uint   `form:"user_id"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid completed failed cancelled"`
	Category string `form:"category" binding:"omitempty,oneof=PUBG FreeFire GooglePlay iTunes Steam"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	ID          uint             `json:"id"`
	UserID      uint             `json:"user_id"`
	ProductID   uint             `json:"product_id"`
	Quantity    int              `json:"quantity"`
	TotalAmount string           `json:"total_amount" example:"20.00"`
	PlayerID    string           `json:"player_id"`
	Notes       string           `json:"notes,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	Product     *ProductResponse `json:"product,omitempty"`
	User        *UserResponse    `json:"user,omitempty"`
	Payment     *PaymentResponse `json:"payment,omitempty"`
}

func NewOrderResponse(o *order.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	return &OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		Quantity:    o.Quantity,
		TotalAmount: FormatCents(o.TotalAmount),
		PlayerID:    o.PlayerID,
		Notes:       o.Notes,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.Format(timeLayout),
		UpdatedAt:   o.UpdatedAt.Format(timeLayout),
	}
}

// NewOrderDetailResponse 订单详情（关联商品、用户、支付）
func NewOrderDetailResponse(d *apporder.OrderDetail) *OrderResponse {
	resp := NewOrderResponse(d.Order)
	resp.Product = NewProductResponse(d.Product)
	resp.User = NewUserResponse(d.User)
	resp.Payment = NewPaymentResponse(d.Payment)
	return resp
}

func NewOrderList(orders []*order.Order) []*OrderResponse {
	list := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = NewOrderResponse(o)
	}
	return list
}
