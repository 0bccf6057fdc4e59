package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apppayment "github.com/xiebiao/topupstore/internal/application/payment"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/interface/http/dto"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/pkg/response"
)

// PaymentHandler 支付HTTP处理器
type PaymentHandler struct {
	initiateUseCase *apppayment.InitiatePaymentUseCase
	listUseCase     *apppayment.ListPaymentsUseCase
	getUseCase      *apppayment.GetPaymentUseCase
	updateUseCase   *apppayment.UpdatePaymentUseCase
	deleteUseCase   *apppayment.DeletePaymentUseCase
	webhookUseCase  *apppayment.HandleWebhookUseCase
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(
	initiateUseCase *apppayment.InitiatePaymentUseCase,
	listUseCase *apppayment.ListPaymentsUseCase,
	getUseCase *apppayment.GetPaymentUseCase,
	updateUseCase *apppayment.UpdatePaymentUseCase,
	deleteUseCase *apppayment.DeletePaymentUseCase,
	webhookUseCase *apppayment.HandleWebhookUseCase,
) *PaymentHandler {
	return &PaymentHandler{
		initiateUseCase: initiateUseCase,
		listUseCase:     listUseCase,
		getUseCase:      getUseCase,
		updateUseCase:   updateUseCase,
		deleteUseCase:   deleteUseCase,
		webhookUseCase:  webhookUseCase,
	}
}

// InitiatePayment 发起支付
// @Summary      发起支付
// @Description  金额必须与订单金额一致。网关结果未知时返回202，支付保持pending，等待回调或对账
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.InitiatePaymentRequest true "支付信息"
// @Success      201 {object} response.Response{data=dto.PaymentResponse} "支付已结算（成功或失败）"
// @Success      202 {object} response.Response{data=dto.PaymentResponse} "支付结果未知"
// @Failure      400 {object} response.Response "金额不一致、订单已支付或存在pending支付"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/payments [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	amount, err := dto.ToCents("amount", *req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.initiateUseCase.Execute(c.Request.Context(), apppayment.InitiatePaymentRequest{
		Actor:   middleware.GetActor(c),
		OrderID: req.OrderID,
		Method:  payment.Method(req.Method),
		Amount:  amount,
	})
	if errors.Is(err, payment.ErrIndeterminateOutcome) {
		response.ErrorWithData(c, err, dto.NewPaymentResponse(p))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "支付成功"
	if p.Status == payment.StatusFailed {
		message = "支付失败"
	}
	response.Created(c, message, dto.NewPaymentResponse(p))
}

// ListPayments 支付列表
// @Summary      支付列表
// @Description  普通用户只能看到自己订单的支付，管理员可按user_id过滤
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        per_page query int false "每页数量" default(15)
// @Param        user_id query int false "用户ID（仅管理员）"
// @Param        status query string false "支付状态" Enums(pending, success, failed)
// @Param        method query string false "支付方式" Enums(visa, mastercard, paypal, mada, stc_pay, apple_pay)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.PaymentResponse}}
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var q dto.ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.listUseCase.Execute(c.Request.Context(), apppayment.ListPaymentsRequest{
		Actor:    middleware.GetActor(c),
		UserID:   q.UserID,
		Status:   payment.Status(q.Status),
		Method:   payment.Method(q.Method),
		Page:     q.Page,
		PageSize: q.PerPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.NewPaymentList(res.Payments), res.Total, res.Page, res.PageSize)
}

// GetPayment 支付详情
// @Summary      支付详情
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Success      200 {object} response.Response{data=dto.PaymentResponse}
// @Failure      404 {object} response.Response "支付记录不存在"
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.getUseCase.Execute(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.NewPaymentResponse(detail.Payment)
	resp.Order = dto.NewOrderResponse(detail.Order)
	response.Success(c, resp)
}

// UpdatePayment 修改支付（管理员）
// @Summary      修改支付
// @Description  pending支付可人工结算为success/failed，订单状态同步变化；成功的支付不可修改
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Param        request body dto.UpdatePaymentRequest true "修改内容"
// @Success      200 {object} response.Response{data=dto.PaymentResponse}
// @Failure      400 {object} response.Response "支付不可修改"
// @Failure      403 {object} response.Response "需要管理员权限"
// @Router       /api/payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.updateUseCase.Execute(c.Request.Context(), apppayment.UpdatePaymentRequest{
		Actor:           middleware.GetActor(c),
		PaymentID:       id,
		Status:          req.StatusPtr(),
		TransactionID:   req.TransactionID,
		GatewayResponse: req.GatewayResponse,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "支付已更新", dto.NewPaymentResponse(p))
}

// DeletePayment 删除支付
// @Summary      删除支付
// @Description  成功的支付不可删除
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response "支付不可删除"
// @Router       /api/payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.deleteUseCase.Execute(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "支付记录已删除", nil)
}

// Webhook 网关异步回调
// @Summary      支付回调
// @Description  按transaction_id找到支付并结算，请求体原样保存为gateway_response；重复回调幂等
// @Tags         支付
// @Accept       json
// @Produce      json
// @Param        request body dto.WebhookRequest true "回调内容"
// @Success      200 {object} response.Response{data=dto.PaymentResponse}
// @Failure      400 {object} response.Response "支付已是终态"
// @Failure      404 {object} response.Response "交易号不存在"
// @Router       /api/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}
	var raw map[string]interface{}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.webhookUseCase.Execute(c.Request.Context(), apppayment.WebhookRequest{
		TransactionID: req.TransactionID,
		Status:        payment.Status(req.Status),
		Payload:       raw,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "回调已处理"
	if res.Replayed {
		message = "回调已处理过"
	}
	response.SuccessWithMessage(c, message, dto.NewPaymentResponse(res.Payment))
}
