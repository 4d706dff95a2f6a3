package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "siacom-console/common/config"
	"siacom-console/internal/feed"

	"github.com/joho/godotenv"
)

// 存储后端
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// 广播后端
const (
	BroadcastRedis = "redis"
	BroadcastMQTT  = "mqtt"
	BroadcastNone  = "none"
)

// Config siacom-console 配置
type Config struct {
	Backend struct {
		BaseURL string
		Timeout time.Duration
	}

	// 会话凭证的持久化存储（多个控制台实例共享）
	Store struct {
		Backend   string // "redis" | "postgres" | "memory"
		KeyPrefix string
	}

	// "凭证已变更" 的跨上下文广播
	Broadcast struct {
		Backend string // "redis" | "mqtt" | "none"
		Channel string
	}

	Redis    commoncfg.RedisConfig
	Database commoncfg.DatabaseConfig
	MQTT     commoncfg.MQTTConfig

	Feed struct {
		RemoteInterval       time.Duration // 家属端轮询间隔，默认 30 秒
		SimulatedInterval    time.Duration // 管理端卡片模拟间隔，默认 5 秒
		NotificationCapacity int           // 模拟通知保留条数，默认 5
		AdminCardPatientID   string        // 管理端仪表盘卡片展示的患者
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
// 若当前目录存在 .env 则先加载（不会覆盖已设置的环境变量）
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Backend.BaseURL = getEnv("BACKEND_BASE_URL", "http://localhost:8000")
	cfg.Backend.Timeout = time.Duration(parseInt(getEnv("BACKEND_TIMEOUT", "10"), 10)) * time.Second

	cfg.Store.Backend = getEnv("STORE_BACKEND", StoreRedis)
	cfg.Store.KeyPrefix = getEnv("STORE_KEY_PREFIX", "siacom:session:")

	cfg.Broadcast.Backend = getEnv("BROADCAST_BACKEND", BroadcastRedis)
	cfg.Broadcast.Channel = getEnv("BROADCAST_CHANNEL", "siacom:tokenChanged")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "siacom",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	// ClientID 为空时由 service 层生成（同一 broker 上不能重复）
	cfg.MQTT = commoncfg.MQTTConfig{Broker: "tcp://localhost:1883", QoS: 1, ConnectTimeout: 10}
	cfg.MQTT.LoadFromEnv("MQTT")

	remote := parseInt(getEnv("FEED_REMOTE_INTERVAL", "30"), 30)
	if remote <= 0 {
		remote = 30
	}
	cfg.Feed.RemoteInterval = time.Duration(remote) * time.Second

	simulated := parseInt(getEnv("FEED_SIMULATED_INTERVAL", "5"), 5)
	if simulated <= 0 {
		simulated = 5
	}
	cfg.Feed.SimulatedInterval = time.Duration(simulated) * time.Second

	capacity := parseInt(getEnv("FEED_NOTIFICATION_CAPACITY", "5"), feed.DefaultNotificationLimit)
	if capacity <= 0 {
		capacity = feed.DefaultNotificationLimit
	}
	cfg.Feed.NotificationCapacity = capacity
	cfg.Feed.AdminCardPatientID = getEnv("ADMIN_CARD_PATIENT_ID", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
