package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

var errNoRateLimitStore = errors.New("rate limit store not configured")

// rateLimitBypassed reports whether per-route limits are off for local and test runs.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return true
	}
	return false
}

// window is one fixed-window counter for a route and a caller.
type window struct {
	count int64
	ttl   time.Duration
}

// hit counts one request in the caller's current window. The window starts at the first hit.
func hit(ctx context.Context, rdb *redis.Client, key string, size time.Duration) (window, error) {
	if rdb == nil {
		return window{}, errNoRateLimitStore
	}
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return window{}, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, size).Err(); err != nil {
			return window{}, err
		}
	}
	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		return window{}, err
	}
	return window{count: count, ttl: ttl}, nil
}

// rateLimitSubject identifies the caller: the signed-in user, or the client IP.
func rateLimitSubject(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// RateLimit allows limit requests per window for the named route, per caller.
// When Redis is missing or failing the request goes through.
func RateLimit(rdb *redis.Client, limit int, size time.Duration, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimitBypassed() {
			return c.Next()
		}

		key := rateLimitPrefix + name + ":" + rateLimitSubject(c)
		w, err := hit(c.UserContext(), rdb, key, size)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit skipped",
				slog.String("route", name), slog.String("error", err.Error()))
			return c.Next()
		}

		remaining := int64(limit) - w.count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if w.count > int64(limit) {
			RateLimitRejections.WithLabelValues(name).Inc()
			retry := int(w.ttl.Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "Too many attempts, please wait a moment",
				"code":    "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
