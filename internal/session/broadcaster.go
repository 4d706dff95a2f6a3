package session

import (
	"context"
	"sync"
)

// ChangeEvent "凭证已变更" 通知
// Origin 为写入方上下文的标识；上下文不会收到自己写入产生的跨上下文事件
type ChangeEvent struct {
	Origin string   `json:"origin"`
	Keys   []string `json:"keys"`
	At     int64    `json:"at"` // unix 毫秒

	// Local 为 true 表示本上下文内的同步信号（tokenChanged）
	Local bool `json:"-"`
}

// Broadcaster 跨上下文广播通道
type Broadcaster interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe 返回时订阅已生效
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription 一次订阅；Events 在 Close 后关闭
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// NopBroadcaster 不跨上下文广播（单实例运行）
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(ctx context.Context, ev ChangeEvent) error { return nil }

func (NopBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	return &nopSubscription{ch: make(chan ChangeEvent)}, nil
}

type nopSubscription struct {
	ch   chan ChangeEvent
	once sync.Once
}

func (s *nopSubscription) Events() <-chan ChangeEvent { return s.ch }

func (s *nopSubscription) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}
