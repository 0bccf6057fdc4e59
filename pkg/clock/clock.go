// Package clock 抽象"当前时间"，业务代码通过注入的Clock取时间，测试时可替换为固定时钟
package clock

import (
	"sync"
	"time"
)

// Clock 时间来源
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New 返回系统时钟
func New() Clock {
	return systemClock{}
}

// Fake 可手动拨动的时钟
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake 创建固定在t的时钟
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now 返回当前设定的时间
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance 时钟前进d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set 将时钟设置到t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
