package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apppayment "github.com/xiebiao/topupstore/internal/application/payment"
	appuser "github.com/xiebiao/topupstore/internal/application/user"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/topupstore/pkg/clock"
	"github.com/xiebiao/topupstore/pkg/jwt"
)

// 需要从Config中提取参数的依赖，Wire无法直接推导，在这里手写Provider

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

func provideUserServiceOptions(cfg *config.Config) user.ServiceOptions {
	return user.ServiceOptions{AdminEmails: cfg.Auth.AdminEmails, BcryptCost: cfg.Auth.BcryptCost}
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore *redis.SessionStore,
	cfg *config.Config,
	clk clock.Clock,
	log *zap.Logger,
) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(userService, jwtManager, sessionStore, cfg.JWT.RefreshTokenExpire, clk, log)
}

func providePaymentOptions(cfg *config.Config) apppayment.Options {
	return apppayment.Options{
		GatewayTimeout: cfg.Gateway.Timeout,
		ReconcileAfter: cfg.Payment.ReconcileAfter,
		ReconcileBatch: cfg.Payment.ReconcileBatch,
	}
}

func provideWebhookDeduper(client *goredis.Client, cfg *config.Config) apppayment.WebhookDeduper {
	return redis.NewWebhookDeduper(client, cfg.Payment.WebhookDedupeTTL)
}

// App 进程内的长期组件
type App struct {
	Engine     *gin.Engine
	Reconciler *apppayment.Reconciler
}
