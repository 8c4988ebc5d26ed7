// Package metrics exposes the Prometheus collectors of the catalog and the
// echo middleware and query hook that feed them.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

// Recommendation tiers, in the order they are tried.
const (
	TierGenre  = "genre"
	TierAuthor = "author"
	TierAny    = "any"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libracat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "libracat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "libracat_db_query_duration_seconds",
			Help:    "Duration of SQLite queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libracat_db_query_errors_total",
			Help: "Total number of failed SQLite queries",
		},
		[]string{"operation"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libracat_recommendations_total",
			Help: "Total number of recommended books, by the tier that selected them",
		},
		[]string{"tier"},
	)

	AvatarUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libracat_avatar_uploads_total",
			Help: "Total number of avatar uploads, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRecommendations counts n books picked by the given tier.
func RecordRecommendations(tier string, n int) {
	if n <= 0 {
		return
	}
	RecommendationsTotal.WithLabelValues(tier).Add(float64(n))
}

// RecordAvatarUpload counts an accepted or rejected upload.
func RecordAvatarUpload(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	AvatarUploadsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records count and latency of every request, labelled by the
// matched route rather than the raw path to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				var ce *errcodes.Error
				if errors.As(err, &ce) {
					status = ce.HTTPCode
				} else if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RegisterRoutes mounts the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// QueryHook is a bun.QueryHook that times every query.
type QueryHook struct{}

var _ bun.QueryHook = (*QueryHook)(nil)

func (*QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (*QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	op := strings.ToLower(event.Operation())
	DBQueryDuration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		DBQueryErrors.WithLabelValues(op).Inc()
	}
}
