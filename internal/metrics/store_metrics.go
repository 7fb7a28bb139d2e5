package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// StoreMetrics holds the collectors of a cart store.
type StoreMetrics struct {
	mutations     *prometheus.CounterVec
	writes        *prometheus.CounterVec
	writeDuration prometheus.Histogram
	items         prometheus.Gauge
	units         prometheus.Gauge
}

func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"op"}),
		writes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_snapshot_writes_total",
			Help: "Total number of snapshot writes by result",
		}, []string{"result"}),
		writeDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "cart_snapshot_write_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		items: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Number of distinct line items in the cart",
		}),
		units: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_units",
			Help: "Sum of quantities in the cart",
		}),
	}
}

// All methods are safe on a nil receiver.

func (m *StoreMetrics) RecordMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

func (m *StoreMetrics) RecordWrite(duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.writes.WithLabelValues(result).Inc()
	m.writeDuration.Observe(duration.Seconds())
}

func (m *StoreMetrics) SetCartSize(items, units int) {
	if m == nil {
		return
	}
	m.items.Set(float64(items))
	m.units.Set(float64(units))
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	histogram := prometheus.NewHistogram(opts)
	if err := registerer.Register(histogram); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
	}
	return histogram
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	gauge := prometheus.NewGauge(opts)
	if err := registerer.Register(gauge); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing
			}
		}
	}
	return gauge
}
