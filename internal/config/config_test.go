package config_test

import (
	"testing"
	"time"

	"flashdeal/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper(t *testing.T) {
	v := viper.New()
	v.Set("APP_PORT", ":9000")
	v.Set("DATABASE_DRIVER", "SQLite")
	v.Set("DATABASE_DSN", "file::memory:")
	v.Set("JWT_SECRET", "secret")
	v.Set("JWT_EXPIRY", "2h")
	v.Set("RAZORPAY_KEY_ID", "rzp_test_key")
	v.Set("RAZORPAY_KEY_SECRET", "rzp_secret")
	v.Set("RAZORPAY_WEBHOOK_SECRET", "whsec")
	v.Set("PRODUCT_CACHE_TTL", "45s")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 45*time.Second, cfg.ProductCacheTTL)
	assert.Equal(t, "rzp_test_key", cfg.Razorpay.KeyID)
	assert.Equal(t, "rzp_secret", cfg.Razorpay.KeySecret)
	assert.Equal(t, "whsec", cfg.Razorpay.WebhookSecret)
}

func TestFromViper_Invalid(t *testing.T) {
	base := func() *viper.Viper {
		v := viper.New()
		v.Set("DATABASE_DRIVER", "sqlite")
		v.Set("DATABASE_DSN", "file::memory:")
		v.Set("JWT_SECRET", "secret")
		v.Set("JWT_EXPIRY", "1h")
		return v
	}

	v := base()
	v.Set("DATABASE_DRIVER", "mysql")
	_, err := config.FromViper(v)
	assert.ErrorContains(t, err, "unsupported DATABASE_DRIVER")

	v = base()
	v.Set("JWT_SECRET", "")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "JWT_SECRET")

	v = base()
	v.Set("DATABASE_DSN", "")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "DATABASE_DSN")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.AppPort)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "uploads", cfg.UploadDir)
}
