package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_PerClientBuckets(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// Another client has its own bucket.
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(idleLimiterTTL + 2*time.Minute)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.clients["10.0.0.1"]
	assert.False(t, ok)
	assert.Len(t, l.clients, 1)
}

func TestRateLimit_Middleware(t *testing.T) {
	app := fiber.New()
	app.Post("/login", RateLimit(NewIPRateLimiter(0.001, 1)), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
