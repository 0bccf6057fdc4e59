package dto

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/topupstore/internal/domain/product"
)

// PublishProductRequest 商品上架请求
type PublishProductRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Category    string           `json:"category" binding:"required,oneof=PUBG FreeFire GooglePlay iTunes Steam"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"10.00"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	ImageURL    string           `json:"image_url" binding:"omitempty,url,max=500"`
	IsActive    *bool            `json:"is_active"`
}

// ListProductsQuery 商品列表查询参数
type ListProductsQuery struct {
	PageQuery
	Category    string `form:"category" binding:"omitempty,oneof=PUBG FreeFire GooglePlay iTunes Steam"`
	InStockOnly bool   `form:"in_stock_only"`
}

// ProductResponse 商品响应
type ProductResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price" example:"10.00"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"image_url,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

func NewProductResponse(p *product.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Description: p.Description,
		Price:       FormatCents(p.Price),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt.Format(timeLayout),
	}
}

func NewProductList(products []*product.Product) []*ProductResponse {
	list := make([]*ProductResponse, len(products))
	for i, p := range products {
		list[i] = NewProductResponse(p)
	}
	return list
}
