package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, CSV(" kafka:9092, ,kafka2:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("SHOP_TEST_STR", "value")
	t.Setenv("SHOP_TEST_INT", "42")
	t.Setenv("SHOP_TEST_BAD_INT", "forty-two")
	t.Setenv("SHOP_TEST_BOOL", "false")

	assert.Equal(t, "value", EnvDefault("SHOP_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("SHOP_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("SHOP_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("SHOP_TEST_BAD_INT", 1))
	assert.False(t, EnvBoolDefault("SHOP_TEST_BOOL", true))
	assert.True(t, EnvBoolDefault("SHOP_TEST_MISSING", true))
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("SERVER_PORT", "9090")

	cfg := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []byte("access"), cfg.JWTAccessSecret)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, "products", cfg.ESIndex)
}
