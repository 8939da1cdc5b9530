// Package selfobserve gives the SDK itself a small set of health metrics,
// grounded on the teacher's own telemetry.go: a handful of named counters
// and a gauge, registered once at construction, incremented from the
// operations they describe.
package selfobserve

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the SDK's internal health surface: how often collection runs
// and fails, how often export fails, how many force_flush calls timed
// out, and how many meters are registered.
type Metrics struct {
	CollectTotal            prometheus.Counter
	CollectFailuresTotal    prometheus.Counter
	ExportFailuresTotal     prometheus.Counter
	ForceFlushTimeoutsTotal prometheus.Counter
	MetersRegistered        prometheus.GaugeFunc
}

// New builds a Metrics and registers every metric with registerer.
// metersRegistered is polled on every scrape to report the current meter
// count without the SDK needing to push gauge updates itself.
func New(registerer prometheus.Registerer, metersRegistered func() float64) (*Metrics, error) {
	m := &Metrics{
		CollectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otelmetric_sdk_collect_total",
			Help: "Total number of MetricReader.Collect calls.",
		}),
		CollectFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otelmetric_sdk_collect_failures_total",
			Help: "Total number of MetricReader.Collect calls that returned an error.",
		}),
		ExportFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otelmetric_sdk_export_failures_total",
			Help: "Total number of MetricExporter.Export calls that returned an error.",
		}),
		ForceFlushTimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otelmetric_sdk_force_flush_timeouts_total",
			Help: "Total number of ForceFlush calls that timed out.",
		}),
		MetersRegistered: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "otelmetric_sdk_meters_registered",
			Help: "Current number of Meters registered on the MeterProvider.",
		}, metersRegistered),
	}

	for _, c := range []prometheus.Collector{m.CollectTotal, m.CollectFailuresTotal, m.ExportFailuresTotal, m.ForceFlushTimeoutsTotal, m.MetersRegistered} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCollect records the outcome of one MetricReader.Collect call.
func (m *Metrics) ObserveCollect(err error) {
	m.CollectTotal.Inc()
	if err != nil {
		m.CollectFailuresTotal.Inc()
	}
}

// ObserveExport records the outcome of one MetricExporter.Export call.
func (m *Metrics) ObserveExport(err error) {
	if err != nil {
		m.ExportFailuresTotal.Inc()
	}
}

// ObserveForceFlushTimeout records a ForceFlush call that hit its deadline.
func (m *Metrics) ObserveForceFlushTimeout() {
	m.ForceFlushTimeoutsTotal.Inc()
}
