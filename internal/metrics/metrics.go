// Package metrics holds the service's Prometheus collectors on a private
// registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

const namespace = "outreach"

type Metrics struct {
	registry *prometheus.Registry

	toolDispatches *prometheus.CounterVec
	envelopeErrors *prometheus.CounterVec
	oracleCalls    *prometheus.CounterVec
	oracleLatency  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		toolDispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatches_total",
			Help:      "Chat messages answered, by the tool named in the envelope.",
		}, []string{"tool"}),
		envelopeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelope_errors_total",
			Help:      "Chat answers flagged with error=true, by tool.",
		}, []string{"tool"}),
		oracleCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Language model completions, by role and outcome.",
		}, []string{"role", "outcome"}),
		oracleLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_call_duration_seconds",
			Help:      "Language model completion latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"role"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEnvelope records one answered chat message.
func (m *Metrics) ObserveEnvelope(env contractx.Envelope) {
	m.toolDispatches.WithLabelValues(env.ActionTool).Inc()
	if env.Error {
		m.envelopeErrors.WithLabelValues(env.ActionTool).Inc()
	}
}

// Middleware labels requests with the matched chi route pattern rather
// than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type instrumentedOracle struct {
	next    contractx.Oracle
	role    string
	metrics *Metrics
}

func InstrumentOracle(next contractx.Oracle, role string, m *Metrics) contractx.Oracle {
	if m == nil {
		return next
	}
	return &instrumentedOracle{next: next, role: role, metrics: m}
}

func (o *instrumentedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := o.next.Complete(ctx, prompt)
	o.metrics.oracleLatency.WithLabelValues(o.role).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.metrics.oracleCalls.WithLabelValues(o.role, outcome).Inc()
	return out, err
}
