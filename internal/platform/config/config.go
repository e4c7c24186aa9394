package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything main needs to wire the ledger. Values come from
// the environment so deployments stay twelve-factor.
type Config struct {
	Addr     string
	LogLevel string

	// PostgresURL selects the durable stores; empty means in-memory.
	PostgresURL string

	Redis RedisConfig

	// KafkaBrokers enables the kafka event sink; empty means in-memory sink.
	KafkaBrokers []string
	KafkaTopic   string

	// IPFSAddr selects the IPFS content store; empty means the local
	// SHA-256 store.
	IPFSAddr string

	// SigningKeyPath points at the Ed25519 seed used by the local signer
	// provider. Empty generates an ephemeral key (dev only).
	SigningKeyPath string

	// ExternalCallTimeout bounds each content-store, signer, and ledger
	// connector call inside the mint pipeline.
	ExternalCallTimeout time.Duration

	// FeaturedPriceThreshold is the listing price at and above which a
	// listing is marked featured.
	FeaturedPriceThreshold float64

	// Confirmation poller tuning.
	PollInterval    time.Duration
	PollMaxAttempts int
	PollMaxBackoff  time.Duration
}

// RedisConfig mirrors the platform redis client options.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ExistenceTTL bounds how long a cached on-chain existence result is
	// trusted before the connector is asked again.
	ExistenceTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        envOr("VERIDITY_ADDR", ":8080"),
		LogLevel:    envOr("VERIDITY_LOG_LEVEL", "info"),
		PostgresURL: os.Getenv("VERIDITY_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("VERIDITY_REDIS_URL"),
			PoolSize:     envInt("VERIDITY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VERIDITY_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VERIDITY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VERIDITY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VERIDITY_REDIS_WRITE_TIMEOUT", 3*time.Second),
			ExistenceTTL: envDuration("VERIDITY_EXISTENCE_CACHE_TTL", 5*time.Minute),
		},
		KafkaBrokers:           envList("VERIDITY_KAFKA_BROKERS"),
		KafkaTopic:             envOr("VERIDITY_KAFKA_TOPIC", "veridity.ledger.events"),
		IPFSAddr:               os.Getenv("VERIDITY_IPFS_ADDR"),
		SigningKeyPath:         os.Getenv("VERIDITY_SIGNING_KEY_PATH"),
		ExternalCallTimeout:    envDuration("VERIDITY_EXTERNAL_TIMEOUT", 10*time.Second),
		FeaturedPriceThreshold: envFloat("VERIDITY_FEATURED_PRICE_THRESHOLD", 1.0),
		PollInterval:           envDuration("VERIDITY_POLL_INTERVAL", 15*time.Second),
		PollMaxAttempts:        envInt("VERIDITY_POLL_MAX_ATTEMPTS", 20),
		PollMaxBackoff:         envDuration("VERIDITY_POLL_MAX_BACKOFF", 5*time.Minute),
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
