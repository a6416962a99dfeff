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

	// 业务指标
	QuizAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_quiz_attempts_total",
			Help: "Graded quiz attempts by outcome",
		},
		[]string{"status"},
	)

	WeakAreaUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_weak_area_updates_total",
			Help: "Weak area rows created or updated",
		},
	)

	RankingRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lms_ranking_recompute_duration_seconds",
			Help:    "Duration of ranking recomputation",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_chat_messages_total",
			Help: "Chat messages stored by channel",
		},
		[]string{"channel"},
	)

	ChatConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lms_chat_connections",
			Help: "Open chat room websocket connections",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizAttempts,
			WeakAreaUpdates,
			RankingRecomputeDuration,
			ChatMessages,
			ChatConnections,
		)
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
