package service

import (
	"context"
	"database/sql"
	"fmt"

	"siacom-console/common/database"
	mqttcommon "siacom-console/common/mqtt"
	rediscommon "siacom-console/common/redis"
	"siacom-console/internal/config"
	"siacom-console/internal/session"
	"siacom-console/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backends 会话存储与跨上下文广播所需的外部连接
type Backends struct {
	KV          store.KV
	Broadcaster session.Broadcaster

	redisClient *redis.Client
	db          *sql.DB
	mqttClient  *mqttcommon.Client
	logger      *zap.Logger
}

// OpenBackends 按配置建立存储与广播连接；任何一步失败都会释放已建立的连接
func OpenBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{logger: logger}

	kv, err := b.openStore(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.KV = store.NewPrefixed(kv, cfg.Store.KeyPrefix)

	bc, err := b.openBroadcaster(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Broadcaster = bc

	logger.Info("Session backends ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("broadcast", cfg.Broadcast.Backend),
		zap.String("channel", cfg.Broadcast.Channel),
	)
	return b, nil
}

func (b *Backends) openStore(ctx context.Context, cfg *config.Config) (store.KV, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := b.sharedRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewRedisKV(client), nil
	case config.StorePostgres:
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.db = db
		kv := store.NewPostgresKV(db, b.logger)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return kv, nil
	case config.StoreMemory:
		return store.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

func (b *Backends) openBroadcaster(ctx context.Context, cfg *config.Config) (session.Broadcaster, error) {
	switch cfg.Broadcast.Backend {
	case config.BroadcastRedis:
		client, err := b.sharedRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return session.NewRedisBroadcaster(client, cfg.Broadcast.Channel, b.logger), nil
	case config.BroadcastMQTT:
		mqttCfg := cfg.MQTT
		if mqttCfg.ClientID == "" {
			mqttCfg.ClientID = "siacom-console-" + uuid.NewString()
		}
		client, err := mqttcommon.NewClient(&mqttCfg, b.logger)
		if err != nil {
			return nil, err
		}
		b.mqttClient = client
		return session.NewMQTTBroadcaster(client, cfg.Broadcast.Channel, mqttCfg.QoS, b.logger), nil
	case config.BroadcastNone:
		return session.NopBroadcaster{}, nil
	default:
		return nil, fmt.Errorf("unsupported broadcast backend: %s", cfg.Broadcast.Backend)
	}
}

// sharedRedis 存储与广播共用一个连接
func (b *Backends) sharedRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if b.redisClient != nil {
		return b.redisClient, nil
	}
	client, err := rediscommon.Connect(ctx, &cfg.Redis)
	if err != nil {
		return nil, err
	}
	b.redisClient = client
	return client, nil
}

// Close 释放全部连接
func (b *Backends) Close() error {
	var firstErr error
	if b.mqttClient != nil {
		if !b.mqttClient.IsConnected() {
			b.logger.Warn("MQTT client already disconnected")
		}
		b.mqttClient.Disconnect()
		b.mqttClient = nil
	}
	if err := rediscommon.Close(b.redisClient); err != nil && firstErr == nil {
		firstErr = err
	}
	b.redisClient = nil
	if err := database.Close(b.db); err != nil && firstErr == nil {
		firstErr = err
	}
	b.db = nil
	return firstErr
}
