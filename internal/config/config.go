package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	AppEnv             string
	StoreMode          string
	DBUrl              string
	JWTSecret          string
	WebhookURL         string
	WebhookTransport   string
	AudioContentMode   string
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	DeliveredDelay     time.Duration
	ReadDelay          time.Duration
	PollInterval       time.Duration
	VerifyCodeTTL      time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		StoreMode:          strings.ToLower(getEnv("STORE_MODE", "memory")),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		WebhookTransport:   strings.ToLower(getEnv("WEBHOOK_TRANSPORT", "get")),
		AudioContentMode:   strings.ToLower(getEnv("AUDIO_CONTENT_MODE", "inline")),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		DeliveredDelay:     getEnvDuration("DELIVERED_DELAY_MS", 1000*time.Millisecond),
		ReadDelay:          getEnvDuration("READ_DELAY_MS", 3000*time.Millisecond),
		PollInterval:       getEnvDuration("POLL_INTERVAL_MS", 2000*time.Millisecond),
		VerifyCodeTTL:      getEnvDuration("VERIFY_CODE_TTL_MS", 5*time.Minute),
	}

	if cfg.StoreMode != "memory" && cfg.StoreMode != "postgres" {
		return nil, fmt.Errorf("STORE_MODE must be memory or postgres, got %q", cfg.StoreMode)
	}
	if cfg.StoreMode == "postgres" && cfg.DBUrl == "" {
		return nil, fmt.Errorf("DB_URL is required when STORE_MODE=postgres")
	}
	if cfg.WebhookTransport != "get" && cfg.WebhookTransport != "post" {
		return nil, fmt.Errorf("WEBHOOK_TRANSPORT must be get or post, got %q", cfg.WebhookTransport)
	}
	if cfg.AudioContentMode != "inline" && cfg.AudioContentMode != "object" {
		return nil, fmt.Errorf("AUDIO_CONTENT_MODE must be inline or object, got %q", cfg.AudioContentMode)
	}
	if cfg.AudioContentMode == "object" &&
		(cfg.SupabaseURL == "" || cfg.SupabaseBucket == "" || cfg.SupabaseServiceKey == "") {
		return nil, fmt.Errorf("AUDIO_CONTENT_MODE=object requires SUPABASE_URL, SUPABASE_BUCKET and SUPABASE_SERVICE_KEY")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
