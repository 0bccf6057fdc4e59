package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/topupstore/internal/application/product"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/interface/http/dto"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	listUseCase    *appproduct.ListProductsUseCase
	getUseCase     *appproduct.GetProductUseCase
	publishUseCase *appproduct.PublishProductUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	listUseCase *appproduct.ListProductsUseCase,
	getUseCase *appproduct.GetProductUseCase,
	publishUseCase *appproduct.PublishProductUseCase,
) *ProductHandler {
	return &ProductHandler{
		listUseCase:    listUseCase,
		getUseCase:     getUseCase,
		publishUseCase: publishUseCase,
	}
}

// ListProducts 商品列表
// @Summary      商品列表
// @Description  只返回上架商品，可按分类和是否有货过滤
// @Tags         商品
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        per_page query int false "每页数量" default(20)
// @Param        category query string false "分类" Enums(PUBG, FreeFire, GooglePlay, iTunes, Steam)
// @Param        in_stock_only query bool false "只看有货"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.ProductResponse}}
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q dto.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.listUseCase.Execute(c.Request.Context(), appproduct.ListProductsRequest{
		Page:        q.Page,
		PageSize:    q.PerPage,
		Category:    product.Category(q.Category),
		InStockOnly: q.InStockOnly,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.NewProductList(res.Products), res.Total, res.Page, res.PageSize)
}

// Categories 商品分类
// @Summary      商品分类
// @Tags         商品
// @Produce      json
// @Success      200 {object} response.Response{data=[]string}
// @Router       /api/products/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	categories := product.Categories()
	list := make([]string, len(categories))
	for i, category := range categories {
		list[i] = string(category)
	}
	response.Success(c, list)
}

// GetProduct 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=dto.ProductResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.getUseCase.Execute(c.Request.Context(), id, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewProductResponse(p))
}

// PublishProduct 商品上架（管理员）
// @Summary      商品上架
// @Description  stock默认999，is_active默认true
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishProductRequest true "商品信息"
// @Success      201 {object} response.Response{data=dto.ProductResponse}
// @Failure      403 {object} response.Response "需要管理员权限"
// @Failure      422 {object} response.Response "参数校验失败"
// @Router       /api/products [post]
func (h *ProductHandler) PublishProduct(c *gin.Context) {
	var req dto.PublishProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	price, err := dto.ToCents("price", *req.Price)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.publishUseCase.Execute(c.Request.Context(), appproduct.PublishProductRequest{
		Actor:       middleware.GetActor(c),
		Name:        req.Name,
		Category:    product.Category(req.Category),
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "商品已上架", dto.NewProductResponse(p))
}
