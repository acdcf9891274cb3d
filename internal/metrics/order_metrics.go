package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// OrderMetrics counts order lifecycle transitions.
type OrderMetrics struct {
	created   prometheus.Counter
	completed prometheus.Counter
}

// Module provides order metrics to the Fx graph.
var Module = fx.Provide(NewOrderMetrics)

// NewOrderMetrics registers order counters on the default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		created: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiosk_orders_created_total",
			Help: "Total number of orders created",
		}),
		completed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiosk_orders_completed_total",
			Help: "Total number of orders marked completed",
		}),
	}
}

// OrderCreated increments the created counter.
func (m *OrderMetrics) OrderCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// OrderCompleted increments the completed counter.
func (m *OrderMetrics) OrderCompleted() {
	if m == nil {
		return
	}
	m.completed.Inc()
}

// registerCounter tolerates duplicate registration so repeated wiring in
// tests reuses the existing collector.
func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}
