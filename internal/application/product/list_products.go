package product

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/product"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListProductsUseCase 商品列表查询用例
type ListProductsUseCase struct {
	productRepo product.Repository
}

// NewListProductsUseCase 创建列表查询用例
func NewListProductsUseCase(productRepo product.Repository) *ListProductsUseCase {
	return &ListProductsUseCase{productRepo: productRepo}
}

// ListProductsRequest 列表查询请求
type ListProductsRequest struct {
	Page        int
	PageSize    int
	Category    product.Category
	InStockOnly bool
	// IncludeInactive 管理员可以看到已下架商品
	IncludeInactive bool
}

// ListProductsResponse 列表查询响应
type ListProductsResponse struct {
	Products []*product.Product
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询
func (uc *ListProductsUseCase) Execute(ctx context.Context, req ListProductsRequest) (*ListProductsResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, product.ErrInvalidCategory
	}

	products, total, err := uc.productRepo.List(ctx, product.ListParams{
		Page:        req.Page,
		PageSize:    req.PageSize,
		Category:    req.Category,
		ActiveOnly:  !req.IncludeInactive,
		InStockOnly: req.InStockOnly,
	})
	if err != nil {
		return nil, err
	}

	return &ListProductsResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// GetProductUseCase 商品详情
type GetProductUseCase struct {
	productRepo product.Repository
}

func NewGetProductUseCase(productRepo product.Repository) *GetProductUseCase {
	return &GetProductUseCase{productRepo: productRepo}
}

// Execute 已下架商品只对管理员可见
func (uc *GetProductUseCase) Execute(ctx context.Context, id uint, includeInactive bool) (*product.Product, error) {
	p, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !includeInactive {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}
