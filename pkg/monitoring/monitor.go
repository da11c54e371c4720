package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ProgressionCounter 推进操作结果，outcome 为 completed/rejected/failed 等，reason 为拒绝原因
	ProgressionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_operations_total",
			Help: "Completion engine operations by outcome",
		},
		[]string{"operation", "outcome", "reason"},
	)

	GoalsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_goals_completed_total",
			Help: "Goals closed by completing their last action",
		},
	)

	PointerAdvances = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_pointer_advances_total",
			Help: "State pointer advances performed by the daily check",
		},
	)

	ReconciledRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_reconciled_records_total",
			Help: "In-doubt execution records whose completion mark was repaired",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ProgressionCounter)
		prometheus.MustRegister(GoalsCompleted)
		prometheus.MustRegister(PointerAdvances)
		prometheus.MustRegister(ReconciledRecords)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
