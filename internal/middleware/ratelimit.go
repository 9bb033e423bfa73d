package middleware

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewLimiter builds an in-process limiter from a formatted rate such as "300-M".
func NewLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP.
func RateLimit(limiterInstance *limiter.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		context, err := limiterInstance.Get(c.UserContext(), ip)
		if err != nil {
			GetLoggerFromCtx(c.UserContext()).Error("Failed to get rate limit context", slog.String("ip", ip), slog.String("error", err.Error()))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error during rate limit check"})
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

		if context.Reached {
			GetLoggerFromCtx(c.UserContext()).Warn("Rate limit exceeded", slog.String("ip", ip), slog.Int64("limit", context.Limit))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests. Please try again later."})
		}

		return c.Next()
	}
}
