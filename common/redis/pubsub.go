package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// PublishJSON 将消息序列化为 JSON 后发布到频道，返回收到消息的订阅者数量
func PublishJSON(ctx context.Context, client *redis.Client, channel string, data interface{}) (int64, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}
	return client.Publish(ctx, channel, string(jsonBytes)).Result()
}

// Subscribe 订阅频道并等待订阅确认
// 返回的 PubSub 由调用方负责 Close
func Subscribe(ctx context.Context, client *redis.Client, channel string) (*redis.PubSub, error) {
	pubsub := client.Subscribe(ctx, channel)
	// Receive 会阻塞直到收到 subscribe 确认，避免确认前发布的消息丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return pubsub, nil
}
