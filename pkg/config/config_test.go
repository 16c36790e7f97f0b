package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Hour, cfg.Catalogue.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Exports.URLTTL)
	assert.True(t, cfg.Registry.ReadOnly)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Contains(t, cfg.Database.DSN(), "dbname=accessibility_monitoring")
	require.NoError(t, cfg.Validate())
}

func TestDatabaseURLWins(t *testing.T) {
	cfg := DatabaseConfig{URL: "postgres://u:p@db:5432/app?sslmode=disable", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db:5432/app?sslmode=disable", cfg.DSN())
}

func TestValidateProductionSecrets(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("APP_ENV", EnvProduction)
	v.Set("KAFKA_ENABLED", true)

	err := fromViper(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "EXPORT_URL_SECRET")
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")

	v.Set("JWT_SECRET", "s1")
	v.Set("EXPORT_URL_SECRET", "s2")
	v.Set("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	cfg := fromViper(v)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
