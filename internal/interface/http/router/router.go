// Package router 组装Gin引擎：全局中间件、系统路由和/api业务路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/internal/interface/http/handler"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
	Health  *handler.HealthHandler
}

// New 创建Gin引擎并注册路由
func New(cfg *config.Config, log *zap.Logger, h *Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	response.UseJSONFieldNames()

	r := gin.New()
	r.Use(
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Metrics(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
	)

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 生产环境建议在网关层限制访问
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.User.Register)
		authGroup.POST("/login", h.User.Login)
		authGroup.POST("/logout", auth.RequireAuth(), h.User.Logout)
		authGroup.GET("/user", auth.RequireAuth(), h.User.CurrentUser)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/categories", h.Product.Categories)
		products.GET("/:id", h.Product.GetProduct)
		products.POST("", auth.RequireAuth(), auth.RequireRole(user.RoleAdmin), h.Product.PublishProduct)
	}

	orders := api.Group("/orders")
	orders.Use(auth.RequireAuth())
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id", h.Order.UpdateOrder)
		orders.DELETE("/:id", h.Order.DeleteOrder)
	}

	// 网关回调不携带用户Token
	api.POST("/payments/webhook", h.Payment.Webhook)

	payments := api.Group("/payments")
	payments.Use(auth.RequireAuth())
	{
		payments.POST("", h.Payment.InitiatePayment)
		payments.GET("", h.Payment.ListPayments)
		payments.GET("/:id", h.Payment.GetPayment)
		payments.PUT("/:id", auth.RequireRole(user.RoleAdmin), h.Payment.UpdatePayment)
		payments.DELETE("/:id", h.Payment.DeletePayment)
	}

	return r
}
