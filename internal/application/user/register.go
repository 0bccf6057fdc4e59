package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/user"
)

// RegisterUseCase 用户注册用例
type RegisterUseCase struct {
	userService user.Service
	logger      *zap.Logger
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, logger *zap.Logger) *RegisterUseCase {
	return &RegisterUseCase{userService: userService, logger: logger}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// Execute 执行注册，输出字段由HTTP层决定
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*user.User, error) {
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("用户已注册", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}
