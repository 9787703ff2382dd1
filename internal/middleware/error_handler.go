package middleware

import (
	"encoding/json"
	"errors"
	"time"

	"liyantis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 50

// NewErrorHandler returns the global error handler. Unexpected errors are logged
// and pushed to the Redis error log read by /health/errors.
func NewErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			traceID := GetTraceID(c)
			log.Error().Err(err).Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
			if rdb != nil {
				entry, _ := json.Marshal(map[string]interface{}{
					"time":     time.Now().UTC(),
					"trace_id": traceID,
					"method":   c.Method(),
					"path":     c.OriginalURL(),
					"message":  err.Error(),
				})
				ctx := c.UserContext()
				pipe := rdb.TxPipeline()
				pipe.LPush(ctx, KeyErrorLog, entry)
				pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
				if _, perr := pipe.Exec(ctx); perr != nil {
					log.Warn().Err(perr).Msg("error log write failed")
				}
			}
		}

		return response.Error(c, message, code, nil)
	}
}
