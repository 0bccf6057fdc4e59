package order

import (
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidStatusTransition 状态流转不在流转表内
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "订单状态不允许此操作")

	// ErrOrderImmutable 已完成/已取消的订单不可修改
	ErrOrderImmutable = apperrors.New(apperrors.ErrCodeImmutable, "订单已结束，不可修改")

	// ErrOrderNotDeletable 已支付/已完成的订单不可删除
	ErrOrderNotDeletable = apperrors.New(apperrors.ErrCodeConflict, "已支付或已完成的订单不可删除")

	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeValidationFailed, "购买数量必须在1到100之间")
	ErrInvalidPlayerID = apperrors.New(apperrors.ErrCodeValidationFailed, "玩家ID不能为空且不超过255个字符")
	ErrInvalidNotes    = apperrors.New(apperrors.ErrCodeValidationFailed, "备注不能超过500个字符")
	ErrInvalidStatus   = apperrors.New(apperrors.ErrCodeValidationFailed, "订单状态不合法")
)
