package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveRequestRecordsSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("GET", "/api/products", 200, 25*time.Millisecond)
	m.ObserveRequest("GET", "/api/products", 502, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	counter, ok := byName["http_requests_total"]
	if !ok {
		t.Fatal("http_requests_total not registered")
	}
	if len(counter.GetMetric()) != 2 {
		t.Fatalf("expected 2 labeled series, got %d", len(counter.GetMetric()))
	}

	hist, ok := byName["http_request_duration_seconds"]
	if !ok {
		t.Fatal("http_request_duration_seconds not registered")
	}
	if got := hist.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 duration samples, got %d", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)

	empty := NewHTTPMetrics(nil)
	empty.ObserveRequest("GET", "/", 200, time.Millisecond)
}
