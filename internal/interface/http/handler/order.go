package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/topupstore/internal/application/order"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/interface/http/dto"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createOrderUseCase *apporder.CreateOrderUseCase
	getOrderUseCase    *apporder.GetOrderUseCase
	listOrdersUseCase  *apporder.ListOrdersUseCase
	updateOrderUseCase *apporder.UpdateOrderUseCase
	deleteOrderUseCase *apporder.DeleteOrderUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrderUseCase *apporder.CreateOrderUseCase,
	getOrderUseCase *apporder.GetOrderUseCase,
	listOrdersUseCase *apporder.ListOrdersUseCase,
	updateOrderUseCase *apporder.UpdateOrderUseCase,
	deleteOrderUseCase *apporder.DeleteOrderUseCase,
) *OrderHandler {
	return &OrderHandler{
		createOrderUseCase: createOrderUseCase,
		getOrderUseCase:    getOrderUseCase,
		listOrdersUseCase:  listOrdersUseCase,
		updateOrderUseCase: updateOrderUseCase,
		deleteOrderUseCase: deleteOrderUseCase,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  锁定商品行、校验库存并在同一事务中扣减库存，防止超卖
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      201 {object} response.Response{data=dto.OrderResponse} "下单成功"
// @Failure      400 {object} response.Response "库存不足或商品已下架"
// @Failure      403 {object} response.Response "不能为他人下单"
// @Failure      404 {object} response.Response "商品不存在"
// @Failure      422 {object} response.Response "参数校验失败"
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	o, err := h.createOrderUseCase.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		Actor:     middleware.GetActor(c),
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		PlayerID:  req.PlayerID,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "下单成功", dto.NewOrderResponse(o))
}

// GetOrder 订单详情
// @Summary      订单详情
// @Description  包含商品、用户和支付信息
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.getOrderUseCase.Execute(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewOrderDetailResponse(detail))
}

// ListOrders 订单列表
// @Summary      订单列表
// @Description  普通用户只能看到自己的订单，管理员可按user_id过滤
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        per_page query int false "每页数量" default(15)
// @Param        user_id query int false "用户ID（仅管理员）"
// @Param        status query string false "订单状态"
// @Param        category query string false "商品分类"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.listOrdersUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Actor:    middleware.GetActor(c),
		UserID:   q.UserID,
		Status:   order.Status(q.Status),
		Category: product.Category(q.Category),
		Page:     q.Page,
		PageSize: q.PerPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.NewOrderList(res.Orders), res.Total, res.Page, res.PageSize)
}

// UpdateOrder 修改订单
// @Summary      修改订单
// @Description  可取消待支付订单（回补库存）或由管理员将已支付订单标记为完成；终态订单不可修改
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Param        request body dto.UpdateOrderRequest true "修改内容"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "状态流转非法或订单不可修改"
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	o, err := h.updateOrderUseCase.Execute(c.Request.Context(), apporder.UpdateOrderRequest{
		Actor:   middleware.GetActor(c),
		OrderID: id,
		Patch:   req.Patch(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "订单已更新", dto.NewOrderResponse(o))
}

// DeleteOrder 删除订单
// @Summary      删除订单
// @Description  已支付和已完成订单不可删除；待支付订单删除时回补库存，支付记录一并删除
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response "订单不可删除"
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.deleteOrderUseCase.Execute(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "订单已删除", nil)
}
