package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, 7, map[string]interface{}{"email": "a@b.com"}, time.Hour))
	session, err := store.GetSession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", session["email"])
	assert.Equal(t, time.Hour, mr.TTL("session:7"))

	require.NoError(t, store.DeleteSession(ctx, 7))
	_, err = store.GetSession(ctx, 7)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSessionStore_Blacklist(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.AddToBlacklist(ctx, "tok", time.Minute))
	revoked, err := store.IsInBlacklist(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsInBlacklist(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.AddToBlacklist(ctx, "expired", 0))
	assert.False(t, mr.Exists("blacklist:expired"))
}

func TestWebhookDeduper(t *testing.T) {
	mr, client := newTestClient(t)
	d := NewWebhookDeduper(client, time.Hour)
	ctx := context.Background()

	done, err := d.Processed(ctx, "TXN_1", "success")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, d.MarkProcessed(ctx, "TXN_1", "success"))
	done, err = d.Processed(ctx, "TXN_1", "success")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = d.Processed(ctx, "TXN_1", "failed")
	require.NoError(t, err)
	assert.False(t, done, "不同状态是不同的回调")
	assert.Equal(t, time.Hour, mr.TTL("webhook:TXN_1:success"))
}

func TestStore_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	_, err := NewSessionStore(client).IsInBlacklist(context.Background(), "tok")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRedisError))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: port, PoolSize: 2}}

	client, cleanup, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()).Err())

	cleanup()
	assert.ErrorIs(t, client.Ping(context.Background()).Err(), redis.ErrClosed)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()
	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: port, DialTimeout: 100 * time.Millisecond}}

	client, cleanup, err := NewClient(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Nil(t, cleanup)
}
