package order

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
)

const (
	defaultPageSize = 15
	maxPageSize     = 100
)

// ListOrdersUseCase 订单列表用例
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

// NewListOrdersUseCase 创建订单列表用例
func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest 列表查询请求
type ListOrdersRequest struct {
	Actor    user.Actor
	UserID   uint // 仅管理员可按用户过滤
	Status   order.Status
	Category product.Category
	Page     int
	PageSize int
}

// ListOrdersResponse 列表查询结果
type ListOrdersResponse struct {
	Orders   []*order.Order
	Total    int64
	Page     int
	PageSize int
}

// Execute 分页查询订单；普通用户只能看到自己的订单
func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
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
		return nil, order.ErrInvalidStatus
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, product.ErrInvalidCategory
	}

	filter := order.ListFilter{
		UserID:   req.UserID,
		Status:   req.Status,
		Category: string(req.Category),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if !req.Actor.IsAdmin() {
		filter.UserID = req.Actor.UserID
	}

	orders, total, err := uc.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListOrdersResponse{
		Orders:   orders,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
