package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorefrontMetrics counts the core mutations flowing through the store.
type StorefrontMetrics struct {
	cartMutations    *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	busEvents        *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront counters on the provided
// registerer. A nil registerer yields a no-op collector set.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order lifecycle transitions by target status.",
	}, []string{"status"})
	busEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_events_published_total",
		Help: "Change notifications published on the sync bus.",
	}, []string{"type"})
	reg.MustRegister(cartMutations, orderTransitions, busEvents)
	return &StorefrontMetrics{
		cartMutations:    cartMutations,
		orderTransitions: orderTransitions,
		busEvents:        busEvents,
	}
}

// IncCartMutation counts one cart operation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncOrderTransition counts one lifecycle transition.
func (m *StorefrontMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncBusEvent counts one published change notification.
func (m *StorefrontMetrics) IncBusEvent(eventType string) {
	if m == nil || m.busEvents == nil {
		return
	}
	m.busEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
