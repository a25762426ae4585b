package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"
)

type AppConfig struct {
	AppPort               string
	AppEnv                string
	AppURL                string
	AppCorsAllowedOrigins []string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTExp    int

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFromEmail string
	SMTPFromName  string
	SMTPAsync     bool

	AdminNotifyEmail string

	MessageRateLimit         int
	MessageRateWindowSeconds int
	WSRateLimitSeconds       int
	TrustedProxyCIDRs        []string

	UnreadReconcileCron string
}

func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from system environment variables")
	}

	cfg := &AppConfig{
		AppPort:               mustGetEnv("APP_PORT"),
		AppEnv:                getEnv("APP_ENV", "development"),
		AppURL:                getEnv("APP_URL", "http://localhost:3000"),
		AppCorsAllowedOrigins: strings.Split(getEnv("APP_CORS_ALLOWED_ORIGINS", "*"), ","),

		DBDriver: getEnv("DB_DRIVER", DBDriverPostgres),

		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExp:    getEnvAsInt("JWT_EXP", 168),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@lykkeloop.dk"),
		SMTPFromName:  getEnv("SMTP_FROM_NAME", "LykkeLoop"),
		SMTPAsync:     getEnvAsBool("SMTP_ASYNC", true),

		AdminNotifyEmail: getEnv("ADMIN_NOTIFY_EMAIL", ""),

		MessageRateLimit:         getEnvAsInt("MESSAGE_RATE_LIMIT", 10),
		MessageRateWindowSeconds: getEnvAsInt("MESSAGE_RATE_WINDOW_SECONDS", 60),
		WSRateLimitSeconds:       getEnvAsInt("WS_RATE_LIMIT_SECONDS", 2),
		TrustedProxyCIDRs:        splitNonEmpty(getEnv("TRUSTED_PROXY_CIDRS", "")),

		UnreadReconcileCron: getEnv("UNREAD_RECONCILE_CRON", "*/15 * * * *"),
	}

	if cfg.DBDriver == DBDriverPostgres {
		cfg.DBHost = mustGetEnv("DB_HOST")
		cfg.DBPort = mustGetEnv("DB_PORT")
		cfg.DBUser = mustGetEnv("DB_USER")
		cfg.DBPassword = mustGetEnv("DB_PASSWORD")
		cfg.DBName = mustGetEnv("DB_NAME")
		cfg.DBSSLMode = getEnv("DB_SSLMODE", "disable")
		cfg.DBMigrate = mustGetEnvAsBool("DB_MIGRATE")
	}

	return cfg
}

func (c *AppConfig) DBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBPassword, c.DBSSLMode)
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.Error("Environment variable is required but not set", "key", key)
		os.Exit(1)
	}
	return value
}

func mustGetEnvAsBool(key string) bool {
	valStr := mustGetEnv(key)
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Error("Environment variable must be a boolean (true/false)", "key", key, "value", valStr)
		os.Exit(1)
	}
	return val
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Environment variable must be an integer, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a boolean, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
