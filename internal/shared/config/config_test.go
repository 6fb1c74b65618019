package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "sandbox", cfg.Payment.Gateway)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, 3, cfg.Reconcile.CompensationAttempts)
	assert.Contains(t, cfg.Database.DSN, "dbname=eventhub_db")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAYMENT_GATEWAY_TIMEOUT", "3s")
	t.Setenv("JWT_EXPIRES_IN", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("COMPENSATION_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.GetServerAddress())
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Reconcile.CompensationAttempts)
}
