package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shutsugan-server/pkg/config"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_login_total",
			Help: "Total number of student login attempts",
		},
	)

	AdminLoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_admin_login_total",
			Help: "Total number of staff login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Reference-data update counter
	DataUpdateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutsugan_data_update_total",
			Help: "Total number of reference-data snapshot updates",
		},
		[]string{"kind", "result"}, // kind: "reference" | "scores"
	)

	// Reminder counter
	ReminderCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_reminders_sent_total",
			Help: "Total number of reminders sent to students",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutsugan_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutsugan_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // "invalid_token", "wrong_role", "account_disabled" etc.
	)

	// Audit sink counters: the operation log is best-effort, so failures only show up here
	AuditDroppedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_audit_dropped_total",
			Help: "Total number of audit entries dropped because the queue was full",
		},
	)

	AuditWriteErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shutsugan_audit_write_errors_total",
			Help: "Total number of audit entries that failed to persist",
		},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shutsugan_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shutsugan_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shutsugan_info",
			Help: "Information about the service",
		},
		[]string{"version", "environment"},
	)

	// Current reference snapshot size
	SnapshotRowsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutsugan_snapshot_rows",
			Help: "Row count of the current reference snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AdminLoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(DataUpdateCounter)
	prometheus.MustRegister(ReminderCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuditDroppedCounter)
	prometheus.MustRegister(AuditWriteErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(SnapshotRowsGauge)
}

// InitMetrics sets the static service info gauge
func InitMetrics(cfg *config.Config) {
	InfoGauge.With(prometheus.Labels{"version": "1.0.0", "environment": cfg.Server.Env}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordDataUpdate records a reference-data update attempt
func RecordDataUpdate(kind, result string) {
	DataUpdateCounter.With(prometheus.Labels{"kind": kind, "result": result}).Inc()
}
