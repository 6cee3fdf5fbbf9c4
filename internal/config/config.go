package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration shared by the api, worker and consumer processes.
type Config struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"development"`
	Port         string        `envconfig:"PORT" default:"3001"`
	ReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout  time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`

	DBHost       string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBUser       string `envconfig:"DB_USER" default:"postgres"`
	DBPassword   string `envconfig:"DB_PASSWORD" required:"true"`
	DBName       string `envconfig:"DB_NAME" default:"leave_management"`
	DBPort       string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode    string `envconfig:"DB_SSLMODE" default:"require"`
	DBMaxRetries int    `envconfig:"DB_MAX_RETRIES" default:"5"`
	DBMigrate    bool   `envconfig:"DB_MIGRATE" default:"true"`

	// StoreTimeout bounds every store round trip made on behalf of a request or job.
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	KafkaBroker        string        `envconfig:"KAFKA_BROKER" default:"127.0.0.1:9092"`
	KafkaConsumerGroup string        `envconfig:"KAFKA_CONSUMER_GROUP" default:"go-leave-notifier"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"3s"`

	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`

	Timezone         string `envconfig:"TIMEZONE" default:"Local"`
	DefaultTotalDays int    `envconfig:"DEFAULT_TOTAL_DAYS" default:"12"`
	CarryOverCron    string `envconfig:"CARRY_OVER_CRON" default:"5 0 1 1 *"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@go-leave.local"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret must be provided")
	}
	if c.DBPassword == "" {
		return errors.New("database password must be provided")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.DefaultTotalDays < 0 {
		return errors.New("default total days must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *Config) SMTPEnabled() bool {
	return c != nil && c.SMTPHost != ""
}
