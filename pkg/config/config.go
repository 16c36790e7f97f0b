package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Registry   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Catalogue  CatalogueConfig
	Kafka      KafkaConfig
	Exports    ExportsConfig
	Reminders  RemindersConfig
	Migrations MigrationsConfig
	Metrics    MetricsConfig
}

// DatabaseConfig takes a URL when set, otherwise the discrete DB_* keys.
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ReadOnly     bool
}

// DSN returns the connection string for lib/pq.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify upstream user handles.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogueConfig tunes caching of the active WCAG and statement check lists.
type CatalogueConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// KafkaConfig controls publishing of committed journal events.
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// ExportsConfig controls rendered export batch files and their download links.
type ExportsConfig struct {
	Dir           string
	URLSecret     string
	URLTTL        time.Duration
	FileRetention time.Duration
}

// RemindersConfig configures the reminder email batch.
type RemindersConfig struct {
	EmailFrom string
	Workers   int
}

// MigrationsConfig toggles schema migration on boot.
type MigrationsConfig struct {
	Auto bool
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("APP_ENV")
	cfg.Port = v.GetInt("API_PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Registry = DatabaseConfig{
		URL:          v.GetString("REGISTRY_DATABASE_URL"),
		MaxOpenConns: v.GetInt("REGISTRY_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("REGISTRY_MAX_IDLE_CONNS"),
		ReadOnly:     true,
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalogue = CatalogueConfig{
		CacheEnabled: v.GetBool("CATALOGUE_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("CATALOGUE_CACHE_TTL"), time.Hour),
	}

	cfg.Kafka = KafkaConfig{
		Enabled:  v.GetBool("KAFKA_ENABLED"),
		Brokers:  splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:    v.GetString("KAFKA_TOPIC"),
		Username: v.GetString("KAFKA_USERNAME"),
		Password: v.GetString("KAFKA_PASSWORD"),
	}

	cfg.Exports = ExportsConfig{
		Dir:           v.GetString("EXPORT_DIR"),
		URLSecret:     v.GetString("EXPORT_URL_SECRET"),
		URLTTL:        parseDuration(v.GetString("EXPORT_URL_TTL"), 24*time.Hour),
		FileRetention: parseDuration(v.GetString("EXPORT_FILE_RETENTION"), 30*24*time.Hour),
	}

	cfg.Reminders = RemindersConfig{
		EmailFrom: v.GetString("REMINDER_EMAIL_FROM"),
		Workers:   v.GetInt("REMINDER_EMAIL_WORKERS"),
	}

	cfg.Migrations = MigrationsConfig{Auto: v.GetBool("MIGRATIONS_AUTO")}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("METRICS_ENABLED")}

	return cfg
}

// Validate checks the keys that have no safe default outside development.
func (c *Config) Validate() error {
	var missing []string
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret {
			missing = append(missing, "JWT_SECRET")
		}
		if c.Exports.URLSecret == "" || c.Exports.URLSecret == defaultExportSecret {
			missing = append(missing, "EXPORT_URL_SECRET")
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			missing = append(missing, "KAFKA_BROKERS")
		}
		if c.Kafka.Topic == "" {
			missing = append(missing, "KAFKA_TOPIC")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

const (
	defaultJWTSecret    = "dev_secret"
	defaultExportSecret = "dev_export_secret"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "accessibility_monitoring")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REGISTRY_DATABASE_URL", "")
	v.SetDefault("REGISTRY_MAX_OPEN_CONNS", 4)
	v.SetDefault("REGISTRY_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOGUE_CACHE_ENABLED", true)
	v.SetDefault("CATALOGUE_CACHE_TTL", "1h")

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "monitoring.events")
	v.SetDefault("KAFKA_USERNAME", "")
	v.SetDefault("KAFKA_PASSWORD", "")

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_URL_SECRET", defaultExportSecret)
	v.SetDefault("EXPORT_URL_TTL", "24h")
	v.SetDefault("EXPORT_FILE_RETENTION", "720h")

	v.SetDefault("REMINDER_EMAIL_FROM", "accessibility-monitoring@example.gov.uk")
	v.SetDefault("REMINDER_EMAIL_WORKERS", 2)

	v.SetDefault("MIGRATIONS_AUTO", false)
	v.SetDefault("METRICS_ENABLED", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
