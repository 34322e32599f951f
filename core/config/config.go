package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel      OTelConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Council   CouncilConfig
	Env       string
	Port      string
	OutputDir string
	NodeID    int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type RedisConfig struct {
	URL          string
	StatusTTL    time.Duration
	StatusMaxLen int64
}

type LLMConfig struct {
	Provider    string // "anthropic" or "openai"
	APIKey      string
	BaseURL     string // Optional: for custom endpoints
	Model       string
	MaxTokens   int
	Temperature float64
	MaxAttempts int
}

type CouncilConfig struct {
	TurnBudget int
	RosterFile string // Optional: YAML prompt overrides
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "advise"
)

// Load loads configuration from environment variables.
// In development it reads .env.<service> first and falls back to .env.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("ADVISOR_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	provider := strings.ToLower(getEnv("ADVISOR_LLM_PROVIDER", "anthropic"))

	cfg := Config{
		Env:       getEnv("ADVISOR_ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		OutputDir: getEnv("ADVISE_OUTPUT_DIR", "."),
		NodeID:    int64(getEnvInt("SNOWFLAKE_NODE_ID", 1)),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "advisor"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			StatusTTL:    getEnvDuration("STATUS_STREAM_TTL", time.Hour),
			StatusMaxLen: int64(getEnvInt("STATUS_STREAM_MAXLEN", 1000)),
		},
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      getEnv("ADVISOR_LLM_API_KEY", providerKey(provider)),
			BaseURL:     getEnv("ADVISOR_LLM_BASE_URL", ""),
			Model:       getEnv("ADVISOR_LLM_MODEL", providerModel(provider)),
			MaxTokens:   getEnvInt("ADVISOR_LLM_MAX_TOKENS", 2000),
			Temperature: getEnvFloat("ADVISOR_LLM_TEMPERATURE", 0.7),
			MaxAttempts: getEnvInt("ADVISOR_LLM_MAX_ATTEMPTS", 3),
		},
		Council: CouncilConfig{
			TurnBudget: getEnvInt("ADVISOR_TURN_BUDGET", 8),
			RosterFile: getEnv("ADVISOR_ROSTER_FILE", ""),
		},
	}

	if cfg.Council.TurnBudget < 4 {
		return Config{}, fmt.Errorf("ADVISOR_TURN_BUDGET must be at least 4, got %d", cfg.Council.TurnBudget)
	}
	if cfg.LLM.Provider != "anthropic" && cfg.LLM.Provider != "openai" {
		return Config{}, fmt.Errorf("unsupported ADVISOR_LLM_PROVIDER: %s", cfg.LLM.Provider)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return getEnv("OPENAI_API_KEY", "")
	default:
		return getEnv("ANTHROPIC_API_KEY", "")
	}
}

func providerModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o"
	default:
		return "claude-3-5-sonnet-20240620"
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
