package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Nutrition / AI workflow webhook
	NutritionWebhookURL string
	AITimeout           time.Duration

	// PIX payments
	PaymentAPIURL          string
	PaymentAPIKey          string
	PaymentWebhookSecret   string
	SubscriptionPriceCents int

	// Privileged access
	ServiceAccountToken string
	SuperAdminEmails    string

	// Tenancy
	PlatformDomains string

	// Realtime fan-out across instances (optional)
	RedisURL string

	// Logo uploads
	AWSRegion    string
	S3BucketName string

	// Server
	Port        string
	CORSOrigins string
	Environment string
	SentryDSN   string
}

func Load() *Config {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "nutriroom_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		NutritionWebhookURL: getEnv("NUTRITION_WEBHOOK_URL", ""),
		AITimeout:           parseDuration(getEnv("AI_TIMEOUT", "60s")),

		PaymentAPIURL:          getEnv("PAYMENT_API_URL", "https://api.abacatepay.com/v1"),
		PaymentAPIKey:          getEnv("PAYMENT_API_KEY", ""),
		PaymentWebhookSecret:   getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		SubscriptionPriceCents: parseInt(getEnv("SUBSCRIPTION_PRICE_CENTS", "4990"), 4990),

		ServiceAccountToken: getEnv("SERVICE_ACCOUNT_TOKEN", ""),
		SuperAdminEmails:    getEnv("SUPER_ADMIN_EMAILS", ""),

		PlatformDomains: getEnv("PLATFORM_DOMAINS", "localhost,vercel.app,ngrok-free.app"),

		RedisURL: getEnv("REDIS_URL", ""),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		S3BucketName: getEnv("S3_BUCKET_NAME", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Environment: getEnv("APP_ENV", "production"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// IsDevelopment reports whether detailed permission errors may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// PlatformDomainList returns the hostnames/suffixes that never carry a tenant subdomain.
func (c *Config) PlatformDomainList() []string {
	return ParseCSV(c.PlatformDomains)
}

// ParseCSV splits a comma-separated setting, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
