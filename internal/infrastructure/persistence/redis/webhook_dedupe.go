package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// WebhookDeduper 记录已处理过的回调（webhook:{transaction_id}:{status}）
// 重复投递时直接返回，不再进入事务
type WebhookDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookDeduper 创建回调去重存储
func NewWebhookDeduper(client *redis.Client, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{client: client, ttl: ttl}
}

// Processed 该交易号+状态的回调是否已处理
func (d *WebhookDeduper) Processed(ctx context.Context, transactionID, status string) (bool, error) {
	n, err := d.client.Exists(ctx, webhookKey(transactionID, status)).Result()
	if err != nil {
		return false, apperrors.New(apperrors.ErrCodeRedisError, "查询回调记录失败").WithCause(err)
	}
	return n > 0, nil
}

// MarkProcessed 记录回调已处理（SETNX）
func (d *WebhookDeduper) MarkProcessed(ctx context.Context, transactionID, status string) error {
	if err := d.client.SetNX(ctx, webhookKey(transactionID, status), 1, d.ttl).Err(); err != nil {
		return apperrors.New(apperrors.ErrCodeRedisError, "记录回调失败").WithCause(err)
	}
	return nil
}

func webhookKey(transactionID, status string) string {
	return fmt.Sprintf("webhook:%s:%s", transactionID, status)
}
