package metrics

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace    = "gemini"
	metricsRoute = "/metrics"
	unknownRoute = "unmatched"
)

// Auth verification outcomes.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeNoCredential  = "no_credential"
	OutcomeInvalid       = "invalid_or_expired"
	OutcomeRevoked       = "revoked"
	OutcomeUnavailable   = "unavailable"
)

var (
	AuthVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verifications_total",
			Help:      "Bearer credential verifications by outcome.",
		},
		[]string{"outcome"},
	)

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "tokens_issued_total",
		Help:      "Tokens signed at login or setup.",
	})

	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "tokens_revoked_total",
		Help:      "Revocation ledger writes.",
	})

	RevocationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "revocations_purged_total",
		Help:      "Expired revocation entries removed by the cleanup loop.",
	})

	SettingsResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "resolutions_total",
			Help:      "Merged settings resolutions by result.",
		},
		[]string{"result"},
	)

	SettingsResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "settings",
		Name:      "resolve_duration_seconds",
		Help:      "Latency of fetching and merging the precedence chain.",
		Buckets:   prometheus.DefBuckets,
	})

	StorageBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "bytes_written_total",
		Help:      "Bytes accepted by the storage driver.",
	})

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInFlight int64

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	}, func() float64 { return float64(atomic.LoadInt64(&httpInFlight)) })
)

// Middleware tracks request count, latency and in-flight requests per route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == metricsRoute {
				return next(c)
			}

			atomic.AddInt64(&httpInFlight, 1)
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status below is final.
				c.Error(err)
			}

			atomic.AddInt64(&httpInFlight, -1)

			route := c.Path()
			if route == "" {
				route = unknownRoute
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			httpRequests.WithLabelValues(method, route, status).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// RegisterRoute exposes the default prometheus registry on /metrics.
func RegisterRoute(e *echo.Echo) {
	e.GET(metricsRoute, echo.WrapHandler(promhttp.Handler()))
}
