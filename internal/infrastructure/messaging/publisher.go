// Package messaging 把领域事件投递到RabbitMQ
package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/pkg/metrics"
	"github.com/xiebiao/topupstore/pkg/mq"
)

// Sender 底层消息发送（*mq.Publisher实现）
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// EventPublisher 以事件名为routing key发布事件
type EventPublisher struct {
	sender Sender
	log    *zap.Logger
}

var _ event.Publisher = (*EventPublisher)(nil)

// NewEventPublisher 创建事件发布者
func NewEventPublisher(sender Sender, log *zap.Logger) *EventPublisher {
	return &EventPublisher{sender: sender, log: log}
}

// Publish 发布事件并记录指标
func (p *EventPublisher) Publish(ctx context.Context, evt event.Event) error {
	err := p.sender.Publish(ctx, evt.Name, evt)
	metrics.IncEventPublished(evt.Name, err)
	if err != nil {
		p.log.Warn("事件发布失败", zap.String("event", evt.Name), zap.Error(err))
		return err
	}
	p.log.Debug("事件已发布", zap.String("event", evt.Name))
	return nil
}

// New 按配置创建发布者；未启用MQ时返回NopPublisher
func New(cfg *config.Config, log *zap.Logger) (event.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		log.Info("消息队列未启用，领域事件不会投递")
		return event.NopPublisher{}, func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return nil, nil, err
	}
	log.Info("RabbitMQ连接成功", zap.String("exchange", cfg.MQ.Exchange))

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Warn("关闭RabbitMQ连接失败", zap.Error(err))
		}
	}
	return NewEventPublisher(publisher, log), cleanup, nil
}
