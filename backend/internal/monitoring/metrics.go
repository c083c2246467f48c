package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics is a snapshot of request counters since process start.
type Metrics struct {
	RequestCount   int64            `json:"request_count"`
	ErrorCount     int64            `json:"error_count"`
	ActiveRequests int64            `json:"active_requests"`
	StatusCodes    map[string]int64 `json:"status_codes"`
	Endpoints      map[string]int64 `json:"endpoints"`
	TotalLatencyMs int64            `json:"total_latency_ms"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
}

type metricsState struct {
	mu        sync.Mutex
	startedAt time.Time
	metrics   Metrics
}

var global = newMetricsState()

func newMetricsState() *metricsState {
	return &metricsState{
		startedAt: time.Now(),
		metrics: Metrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
		},
	}
}

func resetGlobalMetrics() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.startedAt = time.Now()
	global.metrics = Metrics{
		StatusCodes: make(map[string]int64),
		Endpoints:   make(map[string]int64),
	}
}

// GetMetrics returns a copy of the current counters.
func GetMetrics() Metrics {
	global.mu.Lock()
	defer global.mu.Unlock()

	snapshot := global.metrics
	snapshot.UptimeSeconds = time.Since(global.startedAt).Seconds()
	snapshot.StatusCodes = make(map[string]int64, len(global.metrics.StatusCodes))
	for k, v := range global.metrics.StatusCodes {
		snapshot.StatusCodes[k] = v
	}
	snapshot.Endpoints = make(map[string]int64, len(global.metrics.Endpoints))
	for k, v := range global.metrics.Endpoints {
		snapshot.Endpoints[k] = v
	}
	return snapshot
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		global.mu.Lock()
		global.metrics.RequestCount++
		global.metrics.ActiveRequests++
		global.mu.Unlock()

		c.Next()

		status := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()
		latency := time.Since(start).Milliseconds()

		global.mu.Lock()
		global.metrics.ActiveRequests--
		global.metrics.TotalLatencyMs += latency
		global.metrics.StatusCodes[http.StatusText(status)]++
		global.metrics.Endpoints[endpoint]++
		if status >= http.StatusInternalServerError {
			global.metrics.ErrorCount++
		}
		global.mu.Unlock()
	}
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, GetMetrics())
	}
}
