// Package event 定义领域事件和发布端口
// 事件在事务提交后发布，发布失败只记录日志，不影响业务结果
package event

import (
	"context"
	"sync"
	"time"
)

// 事件名称（同时作为消息队列的routing key）
const (
	OrderCreated   = "order.created"
	OrderUpdated   = "order.updated"
	OrderDeleted   = "order.deleted"
	PaymentSettled = "payment.settled"
	PaymentDeleted = "payment.deleted"
)

// Event 领域事件
type Event struct {
	Name       string                 `json:"name"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// New 创建事件
func New(name string, occurredAt time.Time, payload map[string]interface{}) Event {
	return Event{Name: name, OccurredAt: occurredAt, Payload: payload}
}

// Publisher 事件发布端口
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher 未启用消息队列时使用
type NopPublisher struct{}

// Publish 丢弃事件
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder 记录已发布的事件，测试用
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish 记录事件
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Names 已发布事件的名称
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

// Events 已发布的事件
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
