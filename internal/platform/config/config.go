package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Log      LogConfig
	Scan     ScanConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
	// JWTSigningKey enables bearer-token auth on the scan API when non-empty.
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level  string
	Format string
}

// ScanConfig tunes the capture engine.
type ScanConfig struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	StrictIDPrefix  bool
	TuningFile      string
}

// RedisConfig configures the optional session snapshot store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional finalized-result store.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the optional audit sink. With Postgres also
// configured, the process consumes the topic into the audit table.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	AuditGroup string
}

// AuditConfig tunes how operations audit events are shed. Compliance events
// are never sampled.
type AuditConfig struct {
	OpsSampleRate    float64
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultSessionTTL bounds how long a capture may stay open.
const DefaultSessionTTL = 10 * time.Minute

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getEnv("CARDSCAN_ADDR", ":8080"),
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:     getEnv("JWT_ISSUER", "cardscan"),
			JWTAudience:   getEnv("JWT_AUDIENCE", "cardscan-api"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Scan: ScanConfig{
			SessionTTL:      getDuration("SCAN_SESSION_TTL", DefaultSessionTTL),
			CleanupInterval: getDuration("SCAN_CLEANUP_INTERVAL", time.Minute),
			StrictIDPrefix:  getBool("SCAN_STRICT_ID_PREFIX", false),
			TuningFile:      os.Getenv("SCAN_TUNING_FILE"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "cardscan.audit"),
			AuditGroup: getEnv("KAFKA_AUDIT_GROUP", "cardscan-audit-materializer"),
		},
		Audit: AuditConfig{
			OpsSampleRate:    getRate("AUDIT_OPS_SAMPLE_RATE", 1),
			BreakerThreshold: getInt("AUDIT_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("AUDIT_BREAKER_COOLDOWN", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getRate(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 || v > 1 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
