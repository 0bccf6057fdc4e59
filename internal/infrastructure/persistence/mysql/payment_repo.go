package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/topupstore/internal/domain/payment"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

const orderIDIndex = "uk_payments_order_id"

// paymentRepository 支付仓储实现(MySQL)
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

// Create 创建支付记录
// order_id冲突说明订单已有一条支付（并发发起），transaction_id冲突说明交易号重复
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model, err := toPaymentModel(p)
	if err != nil {
		return err
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if violatesIndex(err, orderIDIndex) {
			return payment.ErrPaymentPending
		}
		if isDuplicateError(err) {
			return payment.ErrDuplicateTransactionID
		}
		return apperrors.Wrap(err, "创建支付记录失败")
	}
	p.ID = model.ID
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.first(getDB(ctx, r.db).Where("id = ?", id))
}

func (r *paymentRepository) LockByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.first(getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID uint) (*payment.Payment, error) {
	return r.first(getDB(ctx, r.db).Where("order_id = ?", orderID))
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return r.first(getDB(ctx, r.db).Where("transaction_id = ?", transactionID))
}

func (r *paymentRepository) LockByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return r.first(getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_id = ?", transactionID))
}

func (r *paymentRepository) first(query *gorm.DB) (*payment.Payment, error) {
	var model PaymentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付记录失败")
	}
	return toPaymentEntity(&model)
}

// Update 更新支付记录
func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	raw, err := marshalGatewayResponse(p.GatewayResponse)
	if err != nil {
		return err
	}
	result := getDB(ctx, r.db).Model(&PaymentModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":           string(p.Status),
		"transaction_id":   p.TransactionID,
		"gateway_response": raw,
		"processed_at":     p.ProcessedAt,
		"updated_at":       p.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return payment.ErrDuplicateTransactionID
		}
		return apperrors.Wrap(result.Error, "更新支付记录失败")
	}
	return nil
}

// Delete 物理删除，删除后订单可以重新发起支付
func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&PaymentModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除支付记录失败")
	}
	if result.RowsAffected == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	if err := getDB(ctx, r.db).Where("order_id = ?", orderID).Delete(&PaymentModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除支付记录失败")
	}
	return nil
}

// ListPending 对账用：查询超过一定时间仍为pending的支付
func (r *paymentRepository) ListPending(ctx context.Context, before time.Time, limit int) ([]*payment.Payment, error) {
	var models []PaymentModel
	err := getDB(ctx, r.db).
		Where("status = ?", string(payment.StatusPending)).
		Where("created_at < ?", before).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询待对账支付失败")
	}

	payments := make([]*payment.Payment, 0, len(models))
	for i := range models {
		p, err := toPaymentEntity(&models[i])
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// List 支付列表，按用户过滤时关联订单表
func (r *paymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, int64, error) {
	var models []PaymentModel
	var total int64

	query := getDB(ctx, r.db).Model(&PaymentModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Method != "" {
		query = query.Where("method = ?", string(filter.Method))
	}
	if filter.UserID != 0 {
		orders := getDB(ctx, r.db).Model(&OrderModel{}).Select("id").Where("user_id = ?", filter.UserID)
		query = query.Where("order_id IN (?)", orders)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付总数失败")
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Limit(filter.PageSize).
		Offset(pageOffset(filter.Page, filter.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付列表失败")
	}

	payments := make([]*payment.Payment, 0, len(models))
	for i := range models {
		p, err := toPaymentEntity(&models[i])
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, nil
}

func marshalGatewayResponse(v map[string]interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(err, "序列化网关响应失败")
	}
	return datatypes.JSON(raw), nil
}

func toPaymentModel(p *payment.Payment) (*PaymentModel, error) {
	raw, err := marshalGatewayResponse(p.GatewayResponse)
	if err != nil {
		return nil, err
	}
	return &PaymentModel{
		ID:              p.ID,
		OrderID:         p.OrderID,
		Method:          string(p.Method),
		Amount:          p.Amount,
		Status:          string(p.Status),
		TransactionID:   p.TransactionID,
		GatewayResponse: raw,
		ProcessedAt:     p.ProcessedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

func toPaymentEntity(model *PaymentModel) (*payment.Payment, error) {
	var resp map[string]interface{}
	if len(model.GatewayResponse) > 0 {
		if err := json.Unmarshal(model.GatewayResponse, &resp); err != nil {
			return nil, apperrors.Wrap(err, "解析网关响应失败")
		}
	}
	return &payment.Payment{
		ID:              model.ID,
		OrderID:         model.OrderID,
		Method:          payment.Method(model.Method),
		Amount:          model.Amount,
		Status:          payment.Status(model.Status),
		TransactionID:   model.TransactionID,
		GatewayResponse: resp,
		ProcessedAt:     model.ProcessedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}
