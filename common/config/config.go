package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 会话 KV 使用 postgres 后端（STORE_BACKEND=postgres）时的连接参数
// 环境变量前缀由调用方决定，控制台使用 DB_
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string // <prefix>_NAME
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig 会话 KV 与 tokenChanged 广播共用的 Redis 连接
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout int // 秒，0 使用 go-redis 默认值
}

// MQTTConfig BROADCAST_BACKEND=mqtt 时跨控制台实例广播会话变更的 broker 参数
type MQTTConfig struct {
	Broker         string
	ClientID       string // 为空时由 service 层生成
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout int // 秒
}

// GetDSN lib/pq 的 key=value 连接串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv 用 <prefix>_* 覆盖已有默认值，未设置或无法解析的变量不改动字段
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	envString(prefix+"_HOST", &c.Host)
	c.Port = envInt(prefix+"_PORT", c.Port)
	envString(prefix+"_USER", &c.User)
	envString(prefix+"_PASSWORD", &c.Password)
	envString(prefix+"_NAME", &c.Database)
	envString(prefix+"_SSLMODE", &c.SSLMode)
	c.MaxConns = envInt(prefix+"_MAX_CONNS", c.MaxConns)
	c.MaxIdle = envInt(prefix+"_MAX_IDLE", c.MaxIdle)
}

func (c *RedisConfig) LoadFromEnv(prefix string) {
	envString(prefix+"_ADDR", &c.Addr)
	envString(prefix+"_PASSWORD", &c.Password)
	c.DB = envInt(prefix+"_DB", c.DB)
	c.DialTimeout = envInt(prefix+"_DIAL_TIMEOUT", c.DialTimeout)
}

// LoadFromEnv QoS 超出 0-2 时保留原值
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	envString(prefix+"_BROKER", &c.Broker)
	envString(prefix+"_CLIENT_ID", &c.ClientID)
	envString(prefix+"_USERNAME", &c.Username)
	envString(prefix+"_PASSWORD", &c.Password)
	if qos := envInt(prefix+"_QOS", int(c.QoS)); qos >= 0 && qos <= 2 {
		c.QoS = byte(qos)
	}
	c.ConnectTimeout = envInt(prefix+"_CONNECT_TIMEOUT", c.ConnectTimeout)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
