package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("PLATFORM_DOMAINS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 4990, cfg.SubscriptionPriceCents)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"localhost", "vercel.app", "ngrok-free.app"}, cfg.PlatformDomainList())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_ACCESS_EXPIRY", "1h")
	t.Setenv("SUBSCRIPTION_PRICE_CENTS", "not-a-number")
	t.Setenv("PLATFORM_DOMAINS", " example.dev ,, localhost ")

	cfg := Load()
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.JWTAccessExpiry)
	assert.Equal(t, 4990, cfg.SubscriptionPriceCents)
	assert.Equal(t, []string{"example.dev", "localhost"}, cfg.PlatformDomainList())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
