package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqttcommon "siacom-console/common/mqtt"

	"go.uber.org/zap"
)

// MQTTClient MQTT 客户端能力（*mqttcommon.Client 实现了该接口）
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTBroadcaster 基于 MQTT 主题的广播（部署中没有 Redis 时使用）
type MQTTBroadcaster struct {
	client MQTTClient
	topic  string
	qos    byte
	logger *zap.Logger
}

func NewMQTTBroadcaster(client MQTTClient, topic string, qos byte, logger *zap.Logger) *MQTTBroadcaster {
	return &MQTTBroadcaster{client: client, topic: topic, qos: qos, logger: logger}
}

func (b *MQTTBroadcaster) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	// 不保留消息：新启动的上下文直接读取存储，不需要历史事件
	return b.client.Publish(b.topic, b.qos, false, payload)
}

func (b *MQTTBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	sub := &mqttSubscription{
		client: b.client,
		topic:  b.topic,
		events: make(chan ChangeEvent, 16),
		done:   make(chan struct{}),
	}

	err := b.client.Subscribe(b.topic, b.qos, func(topic string, payload []byte) error {
		var ev ChangeEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed change event: %w", err)
		}
		sub.deliver(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

type mqttSubscription struct {
	client MQTTClient
	topic  string
	events chan ChangeEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// deliver 在 paho 回调 goroutine 中执行；Close 之后到达的消息直接丢弃
func (s *mqttSubscription) deliver(ev ChangeEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *mqttSubscription) Events() <-chan ChangeEvent { return s.events }

func (s *mqttSubscription) Close() error {
	var err error
	s.once.Do(func() {
		// 先关闭 done 让阻塞中的 deliver 退出，再在写锁下关闭 events
		close(s.done)
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
		err = s.client.Unsubscribe(s.topic)
	})
	return err
}
