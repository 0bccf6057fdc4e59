package dto

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/topupstore/internal/domain/order"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// 金额在领域层以分（int64）存储，HTTP层以两位小数的十进制字符串收发

// MaxCents 单价或金额的上限（分），保证单价乘以最大购买数量不会溢出int64
const MaxCents = math.MaxInt64 / order.MaxQuantity

// FormatCents 分 → "20.00"
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ToCents 将请求中的金额转换为分，最多两位小数、不能为负且不能超过MaxCents
func ToCents(field string, amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, apperrors.ErrValidationFailed.WithDetails(map[string][]string{field: {"不能小于0"}})
	}
	if !amount.Equal(amount.Truncate(2)) {
		return 0, apperrors.ErrValidationFailed.WithDetails(map[string][]string{field: {"最多两位小数"}})
	}
	cents := amount.Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, apperrors.ErrValidationFailed.WithDetails(map[string][]string{field: {"金额过大"}})
	}
	return cents.IntPart(), nil
}

const timeLayout = "2006-01-02 15:04:05"

// PageQuery 分页参数
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
