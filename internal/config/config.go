// Package config loads the service configuration from environment
// variables. Everything the settlement core needs — including the platform
// fee table — is materialized here once at startup and passed down
// explicitly; nothing reads configuration as ambient global state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dealfynd/settlement/internal/settlement"
)

// Config holds everything main() needs to wire the process.
type Config struct {
	// ListenAddr is the HTTP bind address of the webhook endpoint.
	ListenAddr string

	// SQLitePath is the database file holding orders and the settlement log.
	SQLitePath string

	// RedisAddr is the processed-event marker store.
	RedisAddr string

	ProviderBaseURL string
	ProviderAPIKey  string

	// WebhookSecret signs the provider's webhook deliveries.
	WebhookSecret string

	// Currency is the marketplace settlement currency (ISO 4217, lowercase).
	Currency string

	// FeeTable maps deal duration hours to platform fee percentages.
	FeeTable settlement.FeeTable

	ServiceName string
}

// Load reads the configuration from the environment. Only the provider
// credentials and webhook secret are required; everything else has local
// development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/settlement.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://api.payproc.example"),
		ProviderAPIKey:  os.Getenv("PROVIDER_API_KEY"),
		WebhookSecret:   os.Getenv("WEBHOOK_SIGNING_SECRET"),
		Currency:        getEnv("SETTLEMENT_CURRENCY", "sek"),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "settlement-webhookd"),
	}

	if cfg.ProviderAPIKey == "" {
		return nil, fmt.Errorf("config: PROVIDER_API_KEY is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("config: WEBHOOK_SIGNING_SECRET is required")
	}

	table, err := ParseFeeTable(getEnv("PLATFORM_FEE_TABLE", "{}"))
	if err != nil {
		return nil, err
	}
	cfg.FeeTable = table

	return cfg, nil
}

// ParseFeeTable decodes a JSON object mapping deal duration hours to fee
// percentages, e.g. {"24": 5, "72": 7.5}. JSON object keys are strings, so
// they are converted to integer hours here.
func ParseFeeTable(raw string) (settlement.FeeTable, error) {
	var byKey map[string]float64
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, fmt.Errorf("config: parse PLATFORM_FEE_TABLE: %w", err)
	}

	table := make(settlement.FeeTable, len(byKey))
	for k, pct := range byKey {
		hours, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("config: fee table key %q is not a duration in hours: %w", k, err)
		}
		if pct < 0 {
			return nil, fmt.Errorf("config: fee table entry %q has negative percentage %v", k, pct)
		}
		table[hours] = pct
	}
	return table, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
