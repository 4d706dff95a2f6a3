package session

import (
	"context"
	"encoding/json"
	"sync"

	rediscommon "siacom-console/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBroadcaster 基于 Redis PUBLISH/SUBSCRIBE 的广播
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, channel string, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel, logger: logger}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, ev ChangeEvent) error {
	_, err := rediscommon.PublishJSON(ctx, b.client, b.channel, ev)
	return err
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub, err := rediscommon.Subscribe(ctx, b.client, b.channel)
	if err != nil {
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan ChangeEvent, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(b.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) pump(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var ev ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Warn("Dropping malformed change event",
				zap.String("channel", msg.Channel),
				zap.Error(err),
			)
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Events() <-chan ChangeEvent { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
