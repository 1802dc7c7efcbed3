package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/examify-bd/examify-api/internal/utils"
)

const (
	defaultRateLimit  = 10
	defaultRateWindow = time.Minute
)

// RateLimit throttles per authenticated user, falling back to the client IP
// for anonymous requests. The identifier keeps limiters on different route
// groups from sharing buckets.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("user_id").(uint); ok && id > 0 {
				return fmt.Sprintf("%s:%d", identifier, id)
			}
			return identifier + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		},
	})
}
