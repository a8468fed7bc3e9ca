package config

import (
	"os"
	"strconv"

	"github.com/Tesseract-Nexus/go-shared/secrets"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	App      AppConfig
	Intake   IntakeConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment string
	LogLevel    string

	// JWTSecret signs the bearer tokens issued at login.
	JWTSecret string

	// SuperAdminEmail designates the single platform operator allowed to run
	// tenant-management operations across all tenants. Empty disables the
	// feature entirely. Loaded once at startup, read-only afterwards.
	SuperAdminEmail string

	// MailboxDomain is the domain used when generating tenant inbound-email
	// addresses (tenant-xxxx@<domain>).
	MailboxDomain string
}

// IntakeConfig holds configuration for the case-intake pipeline
type IntakeConfig struct {
	// OpenAIAPIKey enables AI extraction of case fields from email text.
	// Empty means extraction is skipped and defaults are used.
	OpenAIAPIKey string
	// OpenAIModel is the chat model used for extraction.
	OpenAIModel string
	// ZapierWebhookSecret must match the x-zapier-secret header on the
	// inbound-email webhook. Empty means the webhook is unconfigured and the
	// endpoint refuses all requests.
	ZapierWebhookSecret string
	// MinEmailLength is the minimum accepted email body length.
	MinEmailLength int
}

// New creates a new configuration instance
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", "8086"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: secrets.GetDBPassword(),
			Name:     getEnv("DB_NAME", "scheduling"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Environment:     getEnv("ENVIRONMENT", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			JWTSecret:       secrets.GetSecretOrEnv("JWT_SECRET_NAME", "JWT_SECRET", "dev-signing-secret"),
			SuperAdminEmail: getEnv("SUPER_ADMIN_EMAIL", ""),
			MailboxDomain:   getEnv("MAILBOX_DOMAIN", "inbound.example.com"),
		},
		Intake: IntakeConfig{
			OpenAIAPIKey:        secrets.GetSecretOrEnv("OPENAI_API_KEY_SECRET_NAME", "OPENAI_API_KEY", ""),
			OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			ZapierWebhookSecret: secrets.GetSecretOrEnv("ZAPIER_WEBHOOK_SECRET_NAME", "ZAPIER_WEBHOOK_SECRET", ""),
			MinEmailLength:      getEnvInt("INTAKE_MIN_EMAIL_LENGTH", 20),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
