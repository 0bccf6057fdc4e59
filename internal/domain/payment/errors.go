package payment

import (
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// 支付领域错误定义
var (
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "支付记录不存在")

	// ErrAmountMismatch 支付金额必须与订单金额完全一致
	ErrAmountMismatch = apperrors.New(apperrors.ErrCodeAmountMismatch, "支付金额与订单金额不一致")

	// ErrAlreadyPaid 订单已有成功的支付
	ErrAlreadyPaid = apperrors.New(apperrors.ErrCodeAlreadyPaid, "订单已支付")

	// ErrPaymentImmutable 成功的支付不可修改或删除，终态支付不可再次结算
	ErrPaymentImmutable = apperrors.New(apperrors.ErrCodeImmutable, "支付记录已结算，不可修改")

	// ErrPaymentPending 订单存在结果未知的支付
	ErrPaymentPending = apperrors.New(apperrors.ErrCodePaymentPending, "订单存在处理中的支付，请稍后再试")

	// ErrInvalidOrderStatus 订单当前状态不能支付
	ErrInvalidOrderStatus = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单当前状态不允许支付")

	// ErrIndeterminateOutcome 网关结果未知，支付保持pending，等待回调或对账
	ErrIndeterminateOutcome = apperrors.New(apperrors.ErrCodeIndeterminate, "支付处理中，结果将通过回调确认")

	// ErrDuplicateTransactionID 交易号重复
	ErrDuplicateTransactionID = apperrors.New(apperrors.ErrCodeConflict, "交易号已存在")

	// ErrInvalidTransition 支付状态只能由pending变为success/failed
	ErrInvalidTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "支付状态不允许此操作")

	ErrInvalidMethod        = apperrors.New(apperrors.ErrCodeValidationFailed, "不支持的支付方式")
	ErrInvalidStatus        = apperrors.New(apperrors.ErrCodeValidationFailed, "支付状态不合法")
	ErrInvalidTransactionID = apperrors.New(apperrors.ErrCodeValidationFailed, "交易号不能为空且不超过64个字符")
	ErrOrderMismatch        = apperrors.New(apperrors.ErrCodeInternal, "支付记录与订单不匹配")
)
