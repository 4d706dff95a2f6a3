package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis:6380")
	t.Setenv("TEST_REDIS_DB", "3")

	cfg := RedisConfig{Addr: "localhost:6379"}
	cfg.LoadFromEnv("TEST_REDIS")

	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
	assert.Empty(t, cfg.Password)
}

func TestDatabaseConfig_InvalidPortKeepsDefault(t *testing.T) {
	t.Setenv("TEST_DB_PORT", "not-a-port")
	t.Setenv("TEST_DB_NAME", "siacom_test")

	cfg := DatabaseConfig{Port: 5432, SSLMode: "disable"}
	cfg.LoadFromEnv("TEST_DB")

	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "siacom_test", cfg.Database)
	assert.Contains(t, cfg.GetDSN(), "dbname=siacom_test")
}

func TestMQTTConfig_QoSOutOfRangeIgnored(t *testing.T) {
	t.Setenv("TEST_MQTT_QOS", "7")

	cfg := MQTTConfig{QoS: 1}
	cfg.LoadFromEnv("TEST_MQTT")
	assert.Equal(t, byte(1), cfg.QoS)

	t.Setenv("TEST_MQTT_QOS", "2")
	cfg.LoadFromEnv("TEST_MQTT")
	assert.Equal(t, byte(2), cfg.QoS)
}

func TestMQTTConfig_LoadFromEnvKeepsUnsetFields(t *testing.T) {
	t.Setenv("TEST_MQTT_BROKER", "tcp://broker.siacom.test:1883")
	t.Setenv("TEST_MQTT_CONNECT_TIMEOUT", "3")

	cfg := MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "console-a", ConnectTimeout: 10}
	cfg.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, "tcp://broker.siacom.test:1883", cfg.Broker)
	assert.Equal(t, "console-a", cfg.ClientID)
	assert.Equal(t, 3, cfg.ConnectTimeout)
}
