package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

type stubOracle struct {
	err error
}

func (s stubOracle) Complete(context.Context, string) (string, error) {
	return "ok", s.err
}

func TestObserveEnvelope(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveEnvelope(contractx.Envelope{ActionTool: contractx.ToolEditSequence})
	m.ObserveEnvelope(contractx.Envelope{ActionTool: contractx.ToolEditSequence, Error: true})

	if got := testutil.ToFloat64(m.toolDispatches.WithLabelValues(contractx.ToolEditSequence)); got != 2 {
		t.Fatalf("dispatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.envelopeErrors.WithLabelValues(contractx.ToolEditSequence)); got != 1 {
		t.Fatalf("errors = %v, want 1", got)
	}
}

func TestInstrumentOracle(t *testing.T) {
	t.Parallel()

	m := New()
	ok := InstrumentOracle(stubOracle{}, "agent", m)
	bad := InstrumentOracle(stubOracle{err: errors.New("timeout")}, "agent", m)

	_, _ = ok.Complete(context.Background(), "p")
	_, _ = ok.Complete(context.Background(), "p")
	_, _ = bad.Complete(context.Background(), "p")

	if got := testutil.ToFloat64(m.oracleCalls.WithLabelValues("agent", "ok")); got != 2 {
		t.Fatalf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.oracleCalls.WithLabelValues("agent", "error")); got != 1 {
		t.Fatalf("error calls = %v, want 1", got)
	}

	if InstrumentOracle(stubOracle{}, "agent", nil) != (stubOracle{}) {
		t.Fatal("nil metrics should return the oracle unchanged")
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/campaigns/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/campaigns/999", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/campaigns/{id}", "404")); got != 1 {
		t.Fatalf("requests = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "outreach_http_requests_total") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
