package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if want, ok := labels[l.GetName()]; ok && want != l.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestRecordUpstreamCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstream("templates", 200, 50*time.Millisecond)
	c.RecordUpstream("templates", 200, 80*time.Millisecond)
	c.RecordUpstream("templates", 502, 10*time.Millisecond)

	if v := counterValue(t, reg, "signgate_upstream_calls_total",
		map[string]string{"op": "templates", "status": "200"}); v != 2 {
		t.Errorf("calls{200} = %v, want 2", v)
	}
	if v := counterValue(t, reg, "signgate_upstream_calls_total",
		map[string]string{"op": "templates", "status": "502"}); v != 1 {
		t.Errorf("calls{502} = %v, want 1", v)
	}
}

func TestRecordUpstreamZeroStatusCountsAsError(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstream("access_token", 0, 5*time.Millisecond)

	if v := counterValue(t, reg, "signgate_upstream_errors_total",
		map[string]string{"op": "access_token"}); v != 1 {
		t.Errorf("errors = %v, want 1", v)
	}
}

func TestRecordRequestCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET", "/api/v1/members", 200, 10*time.Millisecond)
	c.RecordRequest("GET", "/api/v1/members", 200, 15*time.Millisecond)
	c.RecordRequest("POST", "/api/v1/members", 403, 5*time.Millisecond)

	if v := counterValue(t, reg, "signgate_http_requests_total",
		map[string]string{"method": "GET", "route": "/api/v1/members", "status": "200"}); v != 2 {
		t.Errorf("requests{GET,200} = %v, want 2", v)
	}
	if v := counterValue(t, reg, "signgate_http_requests_total",
		map[string]string{"method": "POST", "route": "/api/v1/members", "status": "403"}); v != 1 {
		t.Errorf("requests{POST,403} = %v, want 1", v)
	}
}

func TestRecordUpstreamObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstream("documents", 200, 100*time.Millisecond)
	c.RecordUpstream("documents", 200, 2*time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "signgate_upstream_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("signgate_upstream_latency_seconds metric not found")
	}
}

func TestHandlerReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUpstream("groups", 200, 20*time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, metric := range []string{
		"signgate_upstream_calls_total",
		"signgate_upstream_latency_seconds",
	} {
		if !strings.Contains(string(body), metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}
