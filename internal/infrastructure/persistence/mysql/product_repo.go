package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/topupstore/internal/domain/product"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// productRepository 商品仓储实现(MySQL)
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

// Create 创建商品
func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := toProductModel(p)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建商品失败")
	}
	p.ID = model.ID
	return nil
}

// FindByID 根据ID查找商品
func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

// List 分页查询商品列表
func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var models []ProductModel
	var total int64

	query := getDB(ctx, r.db).Model(&ProductModel{})
	if params.Category != "" {
		query = query.Where("category = ?", string(params.Category))
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.InStockOnly {
		query = query.Where("stock > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	err := query.Order("id ASC").
		Limit(params.PageSize).
		Offset(pageOffset(params.Page, params.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, total, nil
}

// LockByID 悲观锁查询商品（SELECT ... FOR UPDATE），必须使用getDB参与事务
func (r *productRepository) LockByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}
	return toProductEntity(&model), nil
}

// TryDecrementStock 条件扣减库存
// UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?
func (r *productRepository) TryDecrementStock(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	return r.adjustStock(ctx, id, -quantity)
}

// IncrementStock 回补库存
func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return product.ErrInvalidQuantity
	}
	return r.adjustStock(ctx, id, quantity)
}

// adjustStock 原子更新库存，stock + delta >= 0 才更新
// RowsAffected为0时再查一次，区分商品不存在和库存不足
func (r *productRepository) adjustStock(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&ProductModel{}).
		Where("id = ?", id).
		Where("stock + ? >= 0", delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		var model ProductModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return product.ErrProductNotFound
			}
			return apperrors.Wrap(err, "查询商品失败")
		}
		return product.ErrInsufficientStock
	}
	return nil
}

func toProductModel(p *product.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:          model.ID,
		Name:        model.Name,
		Category:    product.Category(model.Category),
		Description: model.Description,
		Price:       model.Price,
		Stock:       model.Stock,
		ImageURL:    model.ImageURL,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
