package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  env: production
mongo:
  uri: mongodb://localhost:27017
redis:
  addr: localhost:6379
kafka:
  brokers:
    - localhost:9092
  topic: chat-events
jwt:
  secret: supersecret
  ttl_hours: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Development())
	assert.Equal(t, "chatapp", cfg.Mongo.Database)
	assert.Equal(t, "chat", cfg.Redis.Prefix)
	assert.Equal(t, "jwt", cfg.JWT.CookieName)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
}

func TestLoadMissingRequired(t *testing.T) {
	path := writeConfig(t, `
mongo:
  uri: mongodb://localhost:27017
redis:
  addr: localhost:6379
kafka:
  brokers:
    - localhost:9092
  topic: chat-events
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
mongo:
  uri: mongodb://localhost:27017
redis:
  addr: localhost:6379
kafka:
  brokers:
    - localhost:9092
  topic: chat-events
jwt:
  secret: supersecret
`)
	t.Setenv("APP_SERVER_PORT", "7070")
	t.Setenv("APP_MONGO_DATABASE", "override")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "override", cfg.Mongo.Database)
}
