package config

import (
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	// Webhook configuration
	VerifyToken  string
	AppSecret    string
	DebugWebhook bool

	// Deduplication cache capacity for repeated "edited" notifications
	DedupCacheSize int

	// Graph API configuration
	GraphVersion    string
	PageAccessToken string

	// MongoDB configuration (optional, event persistence is disabled
	// when MongoURI is empty)
	MongoURI     string
	DatabaseName string

	// Server configuration
	Port string
}

func LoadConfig() *Config {
	cfg := &Config{
		VerifyToken:     getEnv("WEBHOOK_VERIFY_TOKEN", "webhook_verify_token"),
		AppSecret:       getEnv("FB_APP_SECRET", ""),
		DebugWebhook:    getEnvBool("DEBUG_WEBHOOK", false),
		DedupCacheSize:  getEnvInt("DEDUP_CACHE_SIZE", 1024),
		GraphVersion:    getEnv("GRAPH_API_VERSION", "v21.0"),
		PageAccessToken: getEnv("PAGE_ACCESS_TOKEN", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		DatabaseName:    getEnv("MONGO_DB_NAME", "fbtools"),
		Port:            getEnv("PORT", "8080"),
	}

	if cfg.AppSecret == "" {
		slog.Warn("FB_APP_SECRET not set, webhook signature validation is disabled")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		slog.Warn("Invalid integer value for env var, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
