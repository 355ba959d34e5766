package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const msgRateLimitExceeded = "rate limit exceeded"

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c echo.Context) string

// RateLimiter implements token bucket rate limiting per identity
type RateLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	rate     rate.Limit
	burst    int
	key      KeyFunc
}

// NewRateLimiter creates a new rate limiter keyed by client IP
// requestsPerSecond: number of requests allowed per second
// burst: maximum burst size
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
		key:   IPKey,
	}
}

// WithKey switches the bucket key.
func (rl *RateLimiter) WithKey(key KeyFunc) *RateLimiter {
	rl.key = key
	return rl
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	limiter, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	return limiter.(*rate.Limiter)
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware returns an Echo middleware function for rate limiting.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.getLimiter(rl.key(c))
			limit := strconv.Itoa(rl.burst)

			if !limiter.Allow() {
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("Retry-After", "1")

				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": msgRateLimitExceeded,
				})
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))

			return next(c)
		}
	}
}

func IPKey(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// PrincipalKey charges authenticated requests to their user. It only sees a
// principal when mounted after auth.RequireAuth.
func PrincipalKey(c echo.Context) string {
	if principal, err := auth.GetPrincipal(c); err == nil {
		return "user:" + principal.ID.String()
	}
	return IPKey(c)
}

// StrictRateLimiter is a more aggressive rate limiter for sensitive endpoints
type StrictRateLimiter struct {
	*RateLimiter
}

// NewStrictRateLimiter guards login, registration and root setup.
func NewStrictRateLimiter() *StrictRateLimiter {
	return &StrictRateLimiter{
		RateLimiter: NewRateLimiter(5, 10), // 5 req/sec, burst of 10
	}
}

// UserRateLimiter bounds each authenticated user regardless of source IP, so
// users sharing a NAT do not drain one another.
type UserRateLimiter struct {
	*RateLimiter
}

func NewUserRateLimiter() *UserRateLimiter {
	return &UserRateLimiter{
		RateLimiter: NewRateLimiter(20, 40).WithKey(PrincipalKey), // 20 req/sec, burst of 40
	}
}

// GlobalRateLimiter is a lenient rate limiter for general API usage
type GlobalRateLimiter struct {
	*RateLimiter
}

// NewGlobalRateLimiter creates a global rate limiter
func NewGlobalRateLimiter() *GlobalRateLimiter {
	return &GlobalRateLimiter{
		RateLimiter: NewRateLimiter(100, 200), // 100 req/sec, burst of 200
	}
}
