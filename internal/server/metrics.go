package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "portrait"

// Save outcomes recorded by the profile image handler.
const (
	saveOutcomeStored   = "stored"
	saveOutcomeRejected = "rejected"
	saveOutcomeFailed   = "failed"
)

// httpMetrics is scoped to one server so tests can build many without
// colliding in the global registry.
type httpMetrics struct {
	registry         *prometheus.Registry
	requestCounter   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	imageSaves       *prometheus.CounterVec
}

// trackLoginLimiter exposes the number of clients the limiter remembers.
func (m *httpMetrics) trackLoginLimiter(l *loginLimiter) {
	if m == nil || l == nil {
		return
	}
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "login_limiter_clients",
			Help:      "Clients with recent failed operator logins",
		},
		func() float64 { return float64(l.size()) },
	)
}

func newHTTPMetrics() *httpMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &httpMetrics{
		registry: registry,
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		imageSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "profile_image",
				Name:      "saves_total",
				Help:      "Profile image save attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *httpMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *httpMetrics) observeSave(outcome string) {
	if m == nil {
		return
	}
	m.imageSaves.WithLabelValues(outcome).Inc()
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		s.metrics.requestsInFlight.Inc()
		defer s.metrics.requestsInFlight.Dec()

		start := time.Now()
		rw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		// Unmatched paths share one label so arbitrary URLs cannot grow the series set.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		s.metrics.requestCounter.WithLabelValues(route, r.Method, strconv.Itoa(rw.Status())).Inc()
	})
}
