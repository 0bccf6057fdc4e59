package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/topupstore/internal/domain/order"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 事务通过context传递，所有方法都经过getDB
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}
	o.ID = model.ID
	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(ctx, getDB(ctx, r.db), id)
}

// LockByID SELECT ... FOR UPDATE
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(ctx, getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepository) first(_ context.Context, db *gorm.DB, id uint) (*order.Order, error) {
	var model OrderModel
	if err := db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// Update 更新订单可变字段
// total_amount、quantity、product_id创建后不可变，不在更新列表中
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	result := getDB(ctx, r.db).Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"status":     string(o.Status),
		"player_id":  o.PlayerID,
		"notes":      o.Notes,
		"updated_at": o.UpdatedAt,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单失败")
	}
	return nil
}

// Delete 物理删除订单
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&OrderModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除订单失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// List 分页查询订单，按创建时间倒序
func (r *orderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	var models []OrderModel
	var total int64

	query := getDB(ctx, r.db).Model(&OrderModel{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Category != "" {
		products := getDB(ctx, r.db).Model(&ProductModel{}).Select("id").Where("category = ?", filter.Category)
		query = query.Where("product_id IN (?)", products)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Limit(filter.PageSize).
		Offset(pageOffset(filter.Page, filter.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		Quantity:    o.Quantity,
		TotalAmount: o.TotalAmount,
		PlayerID:    o.PlayerID,
		Notes:       o.Notes,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderEntity(model *OrderModel) *order.Order {
	return &order.Order{
		ID:          model.ID,
		UserID:      model.UserID,
		ProductID:   model.ProductID,
		Quantity:    model.Quantity,
		TotalAmount: model.TotalAmount,
		PlayerID:    model.PlayerID,
		Notes:       model.Notes,
		Status:      order.Status(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
