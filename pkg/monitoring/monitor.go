package monitoring

import (
	"strconv"
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

	// 阅卷业务指标
	ScoreSubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_score_submissions_total",
			Help: "Marker score submissions by result",
		},
		[]string{"result"}, // accepted / rejected / conflict
	)

	DisputeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grading_disputes_filed_total",
			Help: "Disputes filed against marked answers",
		},
	)

	ArbitrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_arbitrations_total",
			Help: "Arbitration cases by terminal status",
		},
		[]string{"status"}, // opened / approved / rejected
	)

	OpenArbitrations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grading_open_arbitrations",
			Help: "Arbitration cases currently open",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ScoreSubmissionCounter)
	prometheus.MustRegister(DisputeCounter)
	prometheus.MustRegister(ArbitrationCounter)
	prometheus.MustRegister(OpenArbitrations)
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
