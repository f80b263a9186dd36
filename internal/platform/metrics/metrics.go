// Package metrics holds the Prometheus metrics exported by the machine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vending"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	CoinsInserted          *prometheus.CounterVec
	ChangeDispensed        *prometheus.CounterVec
	CoinsOverflowed        *prometheus.CounterVec
	SalesCompleted         prometheus.Counter
	ExactChangeUnavailable prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CoinsInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_inserted_total",
			Help:      "Coins inserted by customers, by denomination",
		}, []string{"denomination"}),
		ChangeDispensed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_coins_dispensed_total",
			Help:      "Coins paid out as change, by denomination",
		}, []string{"denomination"}),
		CoinsOverflowed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_overflowed_total",
			Help:      "Coins diverted to the overflow bucket, by denomination",
		}, []string{"denomination"}),
		SalesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_completed_total",
			Help:      "Products dispensed",
		}),
		ExactChangeUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exact_change_unavailable_total",
			Help:      "Sales refused because exact change could not be paid",
		}),
	}
}

// IncrementCoinsInserted counts one inserted coin.
func (m *Metrics) IncrementCoinsInserted(denomination string) {
	m.CoinsInserted.WithLabelValues(denomination).Inc()
}

func (m *Metrics) AddChangeDispensed(denomination string, count int) {
	m.ChangeDispensed.WithLabelValues(denomination).Add(float64(count))
}

func (m *Metrics) AddCoinsOverflowed(denomination string, count int) {
	m.CoinsOverflowed.WithLabelValues(denomination).Add(float64(count))
}
