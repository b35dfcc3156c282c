package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultHoldedBaseURL = "https://api.holded.com/api/invoicing/v1"

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxConns int
	PostgresConnTTL  time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers         []string
	KafkaGroupID         string
	KafkaHandlerAttempts int
	KafkaHandlerBackoff  time.Duration
	SyncEventsTopic      string
	SyncRequestsTopic    string

	// Holded
	HoldedBaseURL             string
	HoldedTimeout             time.Duration
	HoldedPageSize            int
	HoldedMaxPages            int
	HoldedRetryAttempts       int
	HoldedPageFailureMode     string
	HoldedCollectMode         string
	HoldedContactDetailLookup bool
	HoldedAPIKeySolucions     string
	HoldedAPIKeyMenjar        string
	TenantsFile               string
	ContactCacheTTL           time.Duration

	// Sync
	SyncInterval        time.Duration
	SyncLockBackend     string
	SyncLockTTL         time.Duration
	ClassifierRulesFile string

	// Gateway specific
	GatewayRateLimitRPS   int
	GatewayRateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 5*time.Minute),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "postgres"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "require"),
		PostgresMaxConns: getIntEnv("POSTGRES_MAX_CONNS", 10),
		PostgresConnTTL:  getDuration("POSTGRES_CONN_TTL", 30*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:         getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "holded-sync"),
		KafkaHandlerAttempts: getIntEnv("KAFKA_HANDLER_ATTEMPTS", 5),
		KafkaHandlerBackoff:  getDuration("KAFKA_HANDLER_BACKOFF", 2*time.Second),
		SyncEventsTopic:      getEnv("SYNC_EVENTS_TOPIC", ""),
		SyncRequestsTopic:    getEnv("SYNC_REQUESTS_TOPIC", ""),

		HoldedBaseURL:             getEnv("HOLDED_BASE_URL", DefaultHoldedBaseURL),
		HoldedTimeout:             getDuration("HOLDED_TIMEOUT", 30*time.Second),
		HoldedPageSize:            getIntEnv("HOLDED_PAGE_SIZE", 100),
		HoldedMaxPages:            getIntEnv("HOLDED_MAX_PAGES", 1000),
		HoldedRetryAttempts:       getIntEnv("HOLDED_RETRY_ATTEMPTS", 1),
		HoldedPageFailureMode:     getEnv("HOLDED_PAGE_FAILURE_MODE", "best_effort"),
		HoldedCollectMode:         getEnv("HOLDED_COLLECT_MODE", "single"),
		HoldedContactDetailLookup: getBoolEnv("HOLDED_CONTACT_DETAIL_LOOKUP", false),
		HoldedAPIKeySolucions:     getEnv("HOLDED_API_KEY_SOLUCIONS", ""),
		HoldedAPIKeyMenjar:        getEnv("HOLDED_API_KEY_MENJAR", ""),
		TenantsFile:               getEnv("TENANTS_FILE", ""),
		ContactCacheTTL:           getDuration("CONTACT_CACHE_TTL", 0),

		SyncInterval:        getDuration("SYNC_INTERVAL", 0),
		SyncLockBackend:     getEnv("SYNC_LOCK_BACKEND", "local"),
		SyncLockTTL:         getDuration("SYNC_LOCK_TTL", 10*time.Minute),
		ClassifierRulesFile: getEnv("CLASSIFIER_RULES_FILE", ""),

		GatewayRateLimitRPS:   getIntEnv("GATEWAY_RATE_LIMIT_RPS", 20),
		GatewayRateLimitBurst: getIntEnv("GATEWAY_RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
