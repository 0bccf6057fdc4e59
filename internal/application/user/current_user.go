package user

import (
	"context"

	"github.com/xiebiao/topupstore/internal/domain/user"
)

// GetCurrentUserUseCase 查询当前登录用户
type GetCurrentUserUseCase struct {
	userRepo user.Repository
}

func NewGetCurrentUserUseCase(userRepo user.Repository) *GetCurrentUserUseCase {
	return &GetCurrentUserUseCase{userRepo: userRepo}
}

// Execute 用户已被删除时返回ErrUserNotFound
func (uc *GetCurrentUserUseCase) Execute(ctx context.Context, userID uint) (*user.User, error) {
	return uc.userRepo.FindByID(ctx, userID)
}
