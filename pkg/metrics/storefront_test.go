package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	var m *StorefrontMetrics
	m.IncCartMutation("add")
	m.IncOrderTransition("shipped")
	m.IncBusEvent("cart.changed")

	empty := NewStorefrontMetrics(nil)
	empty.IncCartMutation("add")
}

func TestCountersIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewStorefrontMetrics(reg)

	m.IncCartMutation("add")
	m.IncCartMutation("add")
	m.IncCartMutation("")
	m.IncOrderTransition("cancelled")
	m.IncBusEvent("order.changed")

	if got := testutil.ToFloat64(m.cartMutations.WithLabelValues("add")); got != 2 {
		t.Fatalf("expected 2 add mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.cartMutations.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty op should be normalized, got %v", got)
	}
	if got := testutil.ToFloat64(m.orderTransitions.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("expected 1 cancelled transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.busEvents.WithLabelValues("order.changed")); got != 1 {
		t.Fatalf("expected 1 bus event, got %v", got)
	}
}
