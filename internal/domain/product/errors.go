package product

import (
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrProductUnavailable 商品已下架
	ErrProductUnavailable = apperrors.New(apperrors.ErrCodeProductUnavailable, "商品暂不可购买")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	ErrInvalidName     = apperrors.New(apperrors.ErrCodeInvalidParams, "商品名称不能为空且不超过255个字符")
	ErrInvalidCategory = apperrors.New(apperrors.ErrCodeInvalidParams, "商品分类不合法")
	ErrInvalidPrice    = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")
	ErrInvalidStock    = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")
)
