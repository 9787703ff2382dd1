package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracing_PropagatesOrMints(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	var seen string
	var ctxLogger bool
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetTraceID(c)
		ctxLogger = zerolog.Ctx(c.UserContext()).GetLevel() != zerolog.Disabled
		return c.SendStatus(fiber.StatusNoContent)
	})

	incoming := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, incoming)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, seen)
	assert.Equal(t, incoming, resp.Header.Get(traceIDHeader))
	assert.True(t, ctxLogger)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	_, perr := uuid.Parse(seen)
	assert.NoError(t, perr)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(traceIDHeader))
}

func TestRequireAuth(t *testing.T) {
	app := fiber.New()
	agent := uuid.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Test-Agent") != "" {
			c.Locals(userLocal, map[string]interface{}{"user_id": c.Get("X-Test-Agent")})
		}
		return c.Next()
	})
	app.Get("/", RequireAuth(), func(c *fiber.Ctx) error {
		id, err := AgentID(c)
		require.NoError(t, err)
		return c.SendString(id.String())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Test-Agent", "garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Test-Agent", agent.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
