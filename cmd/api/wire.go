//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后执行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/topupstore/internal/application/order"
	apppayment "github.com/xiebiao/topupstore/internal/application/payment"
	appproduct "github.com/xiebiao/topupstore/internal/application/product"
	appuser "github.com/xiebiao/topupstore/internal/application/user"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/internal/infrastructure/gateway"
	"github.com/xiebiao/topupstore/internal/infrastructure/messaging"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/topupstore/internal/interface/http/handler"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/internal/interface/http/router"
	"github.com/xiebiao/topupstore/pkg/clock"
)

// infrastructureSet 基础设施：数据库、Redis、网关、消息队列
var infrastructureSet = wire.NewSet(
	clock.New,
	mysql.NewDB,
	redis.NewClient,
	gateway.New,
	messaging.New,
)

// repositorySet 仓储和事务管理器
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewOrderRepository,
	mysql.NewPaymentRepository,
	mysql.NewTxManager,
	wire.Bind(new(tx.Manager), new(*mysql.TxManager)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideUserServiceOptions,
	user.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewGetCurrentUserUseCase,

	appproduct.NewListProductsUseCase,
	appproduct.NewGetProductUseCase,
	appproduct.NewPublishProductUseCase,

	apporder.NewCreateOrderUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewUpdateOrderUseCase,
	apporder.NewDeleteOrderUseCase,

	providePaymentOptions,
	provideWebhookDeduper,
	apppayment.NewOutcomeRecorder,
	apppayment.NewInitiatePaymentUseCase,
	apppayment.NewListPaymentsUseCase,
	apppayment.NewGetPaymentUseCase,
	apppayment.NewUpdatePaymentUseCase,
	apppayment.NewDeletePaymentUseCase,
	apppayment.NewHandleWebhookUseCase,
	apppayment.NewReconciler,
)

// interfaceSet HTTP层
var interfaceSet = wire.NewSet(
	provideJWTManager,
	provideSessionStore,
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewProductHandler,
	handler.NewOrderHandler,
	handler.NewPaymentHandler,
	handler.NewHealthHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 组装整个应用，cleanup在退出前调用
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

