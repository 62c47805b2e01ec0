package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the server needs. It is loaded once at startup
// and passed by value to the components that need it.
type Config struct {
	AppPort string

	DatabaseDriver string
	DatabaseDSN    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxLife  time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	Razorpay RazorpayConfig

	PublicHost string
	UploadDir  string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	RabbitMQURL string

	LogLevel  string
	LogFormat string

	LoginRateLimit float64
	LoginRateBurst int
}

// RazorpayConfig carries the payment gateway credentials.
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file. Environment variables win over file values.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:         v.GetString("APP_PORT"),
		DatabaseDriver:  strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLife:   v.GetDuration("DB_CONN_MAX_LIFETIME"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTExpiry:       v.GetDuration("JWT_EXPIRY"),
		PublicHost:      v.GetString("PUBLIC_HOST"),
		UploadDir:       v.GetString("UPLOAD_DIR"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		ProductCacheTTL: v.GetDuration("PRODUCT_CACHE_TTL"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		LoginRateLimit:  v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginRateBurst:  v.GetInt("LOGIN_RATE_BURST"),
		Razorpay: RazorpayConfig{
			KeyID:         v.GetString("RAZORPAY_KEY_ID"),
			KeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
			WebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that the server cannot start without.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=flashdeal port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("JWT_EXPIRY", "1h")
	v.SetDefault("PUBLIC_HOST", "localhost:3000")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PRODUCT_CACHE_TTL", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
}
