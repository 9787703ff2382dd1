package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs each request entry and exit with duration, status and agent.
// It uses the trace-scoped logger from Tracing when one is on the context.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := zerolog.Ctx(c.UserContext())
		if logger.GetLevel() == zerolog.Disabled {
			l := log.With().Str("trace_id", "no-trace-id").Logger()
			logger = &l
		}
		start := time.Now()
		logger.Debug().Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")
		err := c.Next()

		ev := logger.Info().Str("method", c.Method()).Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start))
		if agent, aerr := AgentID(c); aerr == nil {
			ev = ev.Str("agent_id", agent.String())
		}
		if err != nil {
			ev = ev.AnErr("error", err)
		}
		ev.Msg("Exiting request")
		return err
	}
}
