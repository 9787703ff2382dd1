package bootstrap

import (
	"fmt"
	"os"

	"liyantis-backend/internal/config"
	"liyantis-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
// Logs stay JSON there; LOG_LEVEL narrows them.
func New() (*fiber.App, error) {
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	app, _, _, err := router.CreateApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("app create: %w", err)
	}
	return app, nil
}
