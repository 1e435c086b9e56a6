package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestCountsByLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("POST", "/api/v1/orders", 201, 30*time.Millisecond)
	m.ObserveRequest("POST", "/api/v1/orders", 201, 15*time.Millisecond)
	m.ObserveRequest("GET", "", 200, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			key := ""
			for _, label := range metric.GetLabel() {
				key += label.GetName() + "=" + label.GetValue() + ";"
			}
			byName[key] = metric.GetCounter().GetValue()
		}
	}

	require.Equal(t, 2.0, byName["method=POST;route=/api/v1/orders;status=201;"])
	// Empty routes collapse to a sentinel so label cardinality stays bounded.
	require.Equal(t, 1.0, byName["method=GET;route=unknown;status=200;"])
}

func TestTrackInFlightPairsIncrementWithDecrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	done := m.TrackInFlight()
	require.Equal(t, 1.0, gaugeValue(t, reg, "http_requests_in_flight"))
	done()
	require.Equal(t, 0.0, gaugeValue(t, reg, "http_requests_in_flight"))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/", 200, time.Second)
	m.TrackInFlight()()
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
