package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgresql://u:p@db:5432/app")
	t.Setenv("ROUTING_REFRESH_INTERVAL", "")
	t.Setenv("ROUTING_TTL", "")
	t.Setenv("PRESENCE_WINDOW", "")
	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("PORT", "")
	t.Setenv("CHAT_HOSTNAME", "")

	cfg := LoadConfig()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, time.Minute, cfg.RoutingRefreshInterval)
	assert.Equal(t, 2*time.Minute, cfg.RoutingTTL)
	assert.Equal(t, 10*time.Second, cfg.PresenceWindow)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.NotEmpty(t, cfg.Hostname, "hostname falls back to the machine name")
	assert.Less(t, cfg.RoutingRefreshInterval, cfg.RoutingTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgresql://u:p@db:5432/app")
	t.Setenv("CHAT_HOSTNAME", "chat-7")
	t.Setenv("ROUTING_TTL", "5m")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("KAFKA_BROKER", "k1:9092,k2:9092")

	cfg := LoadConfig()

	assert.Equal(t, "chat-7", cfg.Hostname)
	assert.Equal(t, 5*time.Minute, cfg.RoutingTTL)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadConfigBuildsDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_NAME", "chat")
	t.Setenv("DB_CA_CERT", "")

	cfg := LoadConfig()
	assert.Equal(t, "postgresql://app:pw@db.internal:5432/chat?sslmode=disable", cfg.DBURL)
}

func TestLoadConfigVerifyFullWithCA(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_NAME", "chat")
	t.Setenv("DB_CA_CERT", "/etc/ssl/ca.pem")

	cfg := LoadConfig()
	assert.Contains(t, cfg.DBURL, "sslmode=verify-full")
}
