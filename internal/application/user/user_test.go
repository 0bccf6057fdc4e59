package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appuser "github.com/xiebiao/topupstore/internal/application/user"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
	"github.com/xiebiao/topupstore/pkg/jwt"
)

func setup(t *testing.T) (*appuser.RegisterUseCase, *appuser.LoginUseCase, *appuser.LogoutUseCase, *redis.SessionStore, *jwt.Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFake(time.Now())
	svc := user.NewService(memory.NewUserRepository(memory.NewStore()), clk, user.ServiceOptions{
		AdminEmails: []string{"ops@example.com"},
		BcryptCost:  bcrypt.MinCost,
	})
	sessions := redis.NewSessionStore(client)
	jm := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	log := zap.NewNop()

	return appuser.NewRegisterUseCase(svc, log),
		appuser.NewLoginUseCase(svc, jm, sessions, 24*time.Hour, clk, log),
		appuser.NewLogoutUseCase(sessions, jm),
		sessions, jm
}

func TestRegisterLoginLogout(t *testing.T) {
	register, login, logout, sessions, jm := setup(t)
	ctx := context.Background()

	u, err := register.Execute(ctx, appuser.RegisterRequest{Email: "Buyer@Example.com", Password: "secret123", Name: "Buyer"})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", u.Email)
	assert.Equal(t, user.RoleCustomer, u.Role)

	_, err = register.Execute(ctx, appuser.RegisterRequest{Email: "buyer@example.com", Password: "secret123", Name: "Again"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)

	_, err = login.Execute(ctx, appuser.LoginRequest{Email: "buyer@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	res, err := login.Execute(ctx, appuser.LoginRequest{Email: "buyer@example.com", Password: "secret123", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	claims, err := jm.ParseToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(user.RoleCustomer), claims.Role)

	session, err := sessions.GetSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", session["ip"])

	require.NoError(t, logout.Execute(ctx, u.ID, res.Tokens.AccessToken))
	revoked, err := sessions.IsInBlacklist(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)
	_, err = sessions.GetSession(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegister_AdminEmail(t *testing.T) {
	register, _, _, _, _ := setup(t)
	u, err := register.Execute(context.Background(), appuser.RegisterRequest{Email: "ops@example.com", Password: "secret123", Name: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
}

func TestGetCurrentUser(t *testing.T) {
	repo := memory.NewUserRepository(memory.NewStore())
	svc := user.NewService(repo, clock.NewFake(time.Now()), user.ServiceOptions{BcryptCost: bcrypt.MinCost})
	ctx := context.Background()

	u, err := appuser.NewRegisterUseCase(svc, zap.NewNop()).Execute(ctx, appuser.RegisterRequest{
		Email: "me@example.com", Password: "secret123", Name: "Me",
	})
	require.NoError(t, err)

	current := appuser.NewGetCurrentUserUseCase(repo)
	got, err := current.Execute(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)
	assert.Equal(t, user.RoleCustomer, got.Role)

	_, err = current.Execute(ctx, u.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
