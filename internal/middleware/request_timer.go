package middleware

import (
	"fmt"
	"strconv"
	"time"

	"katalog/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Response headers describing where the time of a request went.
const (
	HeaderDBQueryCount = "X-DB-Query-Count"
	HeaderDBQueryTime  = "X-DB-Query-Time"
	HeaderTotalTime    = "X-Total-Time"
)

// RequestTimer collects per-request SQL statistics through the request
// context, exposes them as response headers and logs one line per request.
// Handlers must pass c.UserContext() down to the repositories.
func RequestTimer(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		ctx, stats := logger.WithQueryStats(c.UserContext())
		c.SetUserContext(ctx)

		err := c.Next()
		if err != nil {
			// Render the error now so the status below is the final one.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		total := time.Since(start)
		c.Set(HeaderDBQueryCount, strconv.FormatInt(stats.Count(), 10))
		c.Set(HeaderDBQueryTime, seconds(stats.Elapsed()))
		c.Set(HeaderTotalTime, seconds(total))

		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("total", total).
			Int64("db_queries", stats.Count()).
			Dur("db_time", stats.Elapsed()).
			Msg("request")
		return nil
	}
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
