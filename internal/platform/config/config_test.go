package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"CARDSCAN_ADDR", "LOG_LEVEL", "LOG_FORMAT", "SCAN_SESSION_TTL",
		"SCAN_STRICT_ID_PREFIX", "SCAN_TUNING_FILE", "REDIS_URL", "DATABASE_URL",
		"KAFKA_BROKERS", "KAFKA_AUDIT_TOPIC", "KAFKA_AUDIT_GROUP", "JWT_SIGNING_KEY",
		"AUDIT_OPS_SAMPLE_RATE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.JWTSigningKey)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultSessionTTL, cfg.Scan.SessionTTL)
	assert.Equal(t, time.Minute, cfg.Scan.CleanupInterval)
	assert.False(t, cfg.Scan.StrictIDPrefix)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "cardscan.audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, "cardscan-audit-materializer", cfg.Kafka.AuditGroup)
	assert.Equal(t, 1.0, cfg.Audit.OpsSampleRate)
	assert.Equal(t, 5, cfg.Audit.BreakerThreshold)
}

func TestFromEnv_SampleRateOutOfRangeFallsBack(t *testing.T) {
	t.Setenv("AUDIT_OPS_SAMPLE_RATE", "1.5")
	assert.Equal(t, 1.0, FromEnv().Audit.OpsSampleRate)

	t.Setenv("AUDIT_OPS_SAMPLE_RATE", "0.25")
	assert.Equal(t, 0.25, FromEnv().Audit.OpsSampleRate)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CARDSCAN_ADDR", ":9090")
	t.Setenv("SCAN_SESSION_TTL", "90s")
	t.Setenv("SCAN_STRICT_ID_PREFIX", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.Scan.SessionTTL)
	assert.True(t, cfg.Scan.StrictIDPrefix)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
