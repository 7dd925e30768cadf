package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort            string
	ServerHost            string
	ContentServicePort    string
	ModerationServicePort string
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	MaxRequestBody        int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string

	// LLM
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModelName string
	LLMTimeout   time.Duration

	// Safety
	SafetyRulesPath   string
	ClassifierTimeout time.Duration

	// Pricing
	PricingCurrency      string
	ExchangeRateURL      string
	ExchangeRateCacheTTL time.Duration
	ExchangeRateFallback float64

	// Email
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	AppBaseURL string

	// Auth
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	JWTTTL           time.Duration
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string

	// Gateway specific
	ContentBaseURL        string
	ModerationBaseURL     string
	GatewayRequestTimeout time.Duration
	GatewayRateLimitRPS   int
	GatewayRateLimitBurst int

	// Notifier
	ReminderCronSpec string
}

func Load() *Config {
	// A missing .env file is fine; deployments set real environment variables.
	_ = godotenv.Load()

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		ServerHost:            getEnv("SERVER_HOST", "0.0.0.0"),
		ContentServicePort:    getEnv("CONTENT_SERVICE_PORT", "8081"),
		ModerationServicePort: getEnv("MODERATION_SERVICE_PORT", "8082"),
		ReadTimeout:           getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:          getDuration("WRITE_TIMEOUT", 120*time.Second),
		MaxRequestBody:        int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "edumint"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "edumint123"),
		PostgresDB:       getEnv("POSTGRES_DB", "edumint"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "edumint-platform"),

		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModelName: getEnv("LLM_MODEL_NAME", "gpt-4o-mini"),
		LLMTimeout:   getDuration("LLM_TIMEOUT", 60*time.Second),

		SafetyRulesPath:   getEnv("SAFETY_RULES_PATH", ""),
		ClassifierTimeout: getDuration("CLASSIFIER_TIMEOUT", 20*time.Second),

		PricingCurrency:      getEnv("PRICING_CURRENCY", "EUR"),
		ExchangeRateURL:      getEnv("EXCHANGE_RATE_URL", "https://open.er-api.com/v6/latest/USD"),
		ExchangeRateCacheTTL: getDuration("EXCHANGE_RATE_CACHE_TTL", 3*time.Hour),
		ExchangeRateFallback: getFloatEnv("EXCHANGE_RATE_FALLBACK", 0.92),

		SMTPHost:   getEnv("SMTP_HOST", "localhost"),
		SMTPPort:   getEnv("SMTP_PORT", "587"),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		SMTPFrom:   getEnv("SMTP_FROM", "no-reply@edumint.ai"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "edumint-platform"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "edumint-api"),
		JWTTTL:           getDuration("JWT_TTL", 12*time.Hour),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),

		ContentBaseURL:        getEnv("CONTENT_BASE_URL", "http://localhost:8081"),
		ModerationBaseURL:     getEnv("MODERATION_BASE_URL", "http://localhost:8082"),
		GatewayRequestTimeout: getDuration("GATEWAY_REQUEST_TIMEOUT", 120*time.Second),
		GatewayRateLimitRPS:   getIntEnv("GATEWAY_RATE_LIMIT_RPS", 50),
		GatewayRateLimitBurst: getIntEnv("GATEWAY_RATE_LIMIT_BURST", 100),

		ReminderCronSpec: getEnv("REMINDER_CRON_SPEC", "0 8 * * *"),
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

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
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
