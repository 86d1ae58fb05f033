package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deploys stay twelve-factor.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	Redis RedisConfig
	Kafka KafkaConfig

	// OrgName appears on receipts and acknowledgment documents.
	OrgName string
	// DefaultCurrency is applied when a payment channel omits one.
	DefaultCurrency string

	// ReconcileInterval drives the periodic campaign drift-repair job.
	// Zero disables the scheduler.
	ReconcileInterval time.Duration
	// RenderWorkers bounds the deferred document rendering pool.
	RenderWorkers int
}

// RedisConfig controls the campaign progress cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the notification outbox publisher.
type KafkaConfig struct {
	Brokers            []string
	NotificationsTopic string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:              envOr("KINDRA_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("KINDRA_DATABASE_URL"),
		JWTSigningKey:     envOr("KINDRA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OrgName:           envOr("KINDRA_ORG_NAME", "Kindra CBO"),
		DefaultCurrency:   envOr("KINDRA_DEFAULT_CURRENCY", "KES"),
		ReconcileInterval: envDuration("KINDRA_RECONCILE_INTERVAL", 6*time.Hour),
		RenderWorkers:     envInt("KINDRA_RENDER_WORKERS", 4),
		Redis: RedisConfig{
			URL:          os.Getenv("KINDRA_REDIS_URL"),
			PoolSize:     envInt("KINDRA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("KINDRA_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("KINDRA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("KINDRA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("KINDRA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:            splitList(os.Getenv("KINDRA_KAFKA_BROKERS")),
			NotificationsTopic: envOr("KINDRA_KAFKA_NOTIFICATIONS_TOPIC", "kindra.notifications"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
