package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the static labels attached to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registerer.
func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{
		"service": serviceName(cfg),
		"env":     strings.TrimSpace(cfg.Environment),
	}

	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stagelink_http_requests_total",
			Help:        "Total HTTP requests by route, method and status.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "stagelink_http_request_duration_seconds",
			Help:        "HTTP request latency by route and method.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"route", "method"}),
	}

	registerer.MustRegister(m.requests, m.duration)
	return m
}

// GinMiddleware records request counts and latencies.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// FunnelMetrics instruments the recruitment funnel engine.
type FunnelMetrics struct {
	quotaChecks       *prometheus.CounterVec
	generations       *prometheus.CounterVec
	generationLatency prometheus.Observer
	transitions       *prometheus.CounterVec
	scoringDegraded   prometheus.Counter
}

var (
	funnelOnce    sync.Once
	funnelMetrics *FunnelMetrics
)

// Funnel returns the package-level funnel metrics, registering them on first use.
func Funnel() *FunnelMetrics {
	funnelOnce.Do(func() {
		funnelMetrics = newFunnelMetrics(prometheus.DefaultRegisterer, Config{})
	})
	return funnelMetrics
}

func newFunnelMetrics(registerer prometheus.Registerer, cfg Config) *FunnelMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{
		"service": serviceName(cfg),
	}

	m := &FunnelMetrics{
		quotaChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stagelink_quota_checks_total",
			Help:        "Quota reservations by outcome.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stagelink_shortlist_generations_total",
			Help:        "Shortlist generation attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stagelink_funnel_transitions_total",
			Help:        "Application status transitions by target and outcome.",
			ConstLabels: constLabels,
		}, []string{"target", "result"}),
	}

	generationLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "stagelink_shortlist_generation_duration_seconds",
		Help:        "Wall time of shortlist generation.",
		Buckets:     prometheus.ExponentialBuckets(0.05, 2, 10),
		ConstLabels: constLabels,
	})
	scoringDegraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "stagelink_scoring_degraded_total",
		Help:        "Candidates scored with the neutral fallback.",
		ConstLabels: constLabels,
	})
	m.generationLatency = generationLatency
	m.scoringDegraded = scoringDegraded

	registerer.MustRegister(m.quotaChecks, m.generations, m.transitions, generationLatency, scoringDegraded)
	return m
}

func (m *FunnelMetrics) RecordQuotaCheck(result string) {
	if m == nil {
		return
	}
	m.quotaChecks.WithLabelValues(result).Inc()
}

func (m *FunnelMetrics) RecordGeneration(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(result).Inc()
	m.generationLatency.Observe(elapsed.Seconds())
}

func (m *FunnelMetrics) RecordTransition(target, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(target, result).Inc()
}

func (m *FunnelMetrics) RecordScoringDegraded() {
	if m == nil {
		return
	}
	m.scoringDegraded.Inc()
}

func serviceName(cfg Config) string {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "stagelink"
	}
	return name
}
