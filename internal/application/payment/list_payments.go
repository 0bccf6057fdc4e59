package payment

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/user"
)

const (
	defaultPageSize = 15
	maxPageSize     = 100
)

// ListPaymentsUseCase 支付列表用例
type ListPaymentsUseCase struct {
	paymentRepo payment.Repository
}

// NewListPaymentsUseCase 创建支付列表用例
func NewListPaymentsUseCase(paymentRepo payment.Repository) *ListPaymentsUseCase {
	return &ListPaymentsUseCase{paymentRepo: paymentRepo}
}

// ListPaymentsRequest 列表查询请求
type ListPaymentsRequest struct {
	Actor    user.Actor
	UserID   uint // 仅管理员可按用户过滤
	Status   payment.Status
	Method   payment.Method
	Page     int
	PageSize int
}

// ListPaymentsResponse 列表查询结果
type ListPaymentsResponse struct {
	Payments []*payment.Payment
	Total    int64
	Page     int
	PageSize int
}

// Execute 分页查询支付；普通用户只能看到自己订单的支付
func (uc *ListPaymentsUseCase) Execute(ctx context.Context, req ListPaymentsRequest) (*ListPaymentsResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, payment.ErrInvalidStatus
	}
	if req.Method != "" && !req.Method.Valid() {
		return nil, payment.ErrInvalidMethod
	}

	filter := payment.ListFilter{
		UserID:   req.UserID,
		Status:   req.Status,
		Method:   req.Method,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if !req.Actor.IsAdmin() {
		filter.UserID = req.Actor.UserID
	}

	payments, total, err := uc.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListPaymentsResponse{
		Payments: payments,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
