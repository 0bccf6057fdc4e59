package product

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// DefaultStock 上架时未指定库存的默认值
const DefaultStock = 999

// PublishProductUseCase 商品上架用例（仅管理员）
type PublishProductUseCase struct {
	productRepo product.Repository
	clock       clock.Clock
	logger      *zap.Logger
}

// NewPublishProductUseCase 创建上架用例
func NewPublishProductUseCase(productRepo product.Repository, clk clock.Clock, logger *zap.Logger) *PublishProductUseCase {
	return &PublishProductUseCase{productRepo: productRepo, clock: clk, logger: logger}
}

// PublishProductRequest 上架请求
type PublishProductRequest struct {
	Actor       user.Actor
	Name        string
	Category    product.Category
	Description string
	Price       int64 // 分
	Stock       *int  // 为空时为DefaultStock
	ImageURL    string
	IsActive    *bool // 为空时直接上架
}

// Execute 执行上架
func (uc *PublishProductUseCase) Execute(ctx context.Context, req PublishProductRequest) (*product.Product, error) {
	if !req.Actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	stock := DefaultStock
	if req.Stock != nil {
		stock = *req.Stock
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	p, err := product.NewProduct(req.Name, req.Category, req.Description, req.Price, stock, req.ImageURL, active, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("商品已上架",
		zap.Uint("product_id", p.ID),
		zap.String("category", string(p.Category)),
		zap.Int64("price", p.Price),
		zap.Int("stock", p.Stock))
	return p, nil
}
