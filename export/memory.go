package export

import (
	"context"
	"sync"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

// MemoryExporter retains the most recently exported snapshot as an owned
// deep copy, for tests and for demos that want to inspect what the SDK
// would have sent without standing up a real backend.
type MemoryExporter struct {
	temporality metric.TemporalitySelector

	mu       sync.Mutex
	latest   otlpmodel.MetricsData
	hasData  bool
	shutdown bool
}

// NewMemoryExporter builds a MemoryExporter reporting Cumulative for
// every instrument kind, unless overridden with WithMemoryTemporality.
func NewMemoryExporter(opts ...MemoryOption) *MemoryExporter {
	e := &MemoryExporter{temporality: metric.AlwaysCumulative}
	for _, apply := range opts {
		apply(e)
	}
	return e
}

// MemoryOption configures a MemoryExporter.
type MemoryOption func(*MemoryExporter)

// WithMemoryTemporality overrides the exporter's preferred temporality.
func WithMemoryTemporality(sel metric.TemporalitySelector) MemoryOption {
	return func(e *MemoryExporter) { e.temporality = sel }
}

func (e *MemoryExporter) Temporality(kind metric.InstrumentKind) otlpmodel.Temporality {
	return e.temporality(kind)
}

// Export retains a deep copy of data, replacing whatever was retained
// before.
func (e *MemoryExporter) Export(_ context.Context, data otlpmodel.MetricsData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return metric.ErrExportFailed
	}
	e.latest = copyMetricsData(data)
	e.hasData = true
	return nil
}

func (e *MemoryExporter) ForceFlush(context.Context) error { return nil }

func (e *MemoryExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
	return nil
}

// Fetch returns the retained snapshot and whether one has ever been
// exported. The returned value is an independent copy, safe to mutate.
func (e *MemoryExporter) Fetch() (otlpmodel.MetricsData, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasData {
		return otlpmodel.MetricsData{}, false
	}
	return copyMetricsData(e.latest), true
}

func copyMetricsData(in otlpmodel.MetricsData) otlpmodel.MetricsData {
	out := otlpmodel.MetricsData{ResourceMetrics: make([]otlpmodel.ResourceMetrics, len(in.ResourceMetrics))}
	for i, rm := range in.ResourceMetrics {
		crm := otlpmodel.ResourceMetrics{Resource: rm.Resource, ScopeMetrics: make([]otlpmodel.ScopeMetrics, len(rm.ScopeMetrics))}
		for j, sm := range rm.ScopeMetrics {
			csm := otlpmodel.ScopeMetrics{Scope: sm.Scope, Metrics: make([]otlpmodel.Metric, len(sm.Metrics))}
			for k, m := range sm.Metrics {
				csm.Metrics[k] = copyMetric(m)
			}
			crm.ScopeMetrics[j] = csm
		}
		out.ResourceMetrics[i] = crm
	}
	return out
}

func copyMetric(m otlpmodel.Metric) otlpmodel.Metric {
	out := m
	if m.Sum != nil {
		s := *m.Sum
		s.DataPoints = append([]otlpmodel.NumberDataPoint(nil), m.Sum.DataPoints...)
		out.Sum = &s
	}
	if m.Gauge != nil {
		g := *m.Gauge
		g.DataPoints = append([]otlpmodel.NumberDataPoint(nil), m.Gauge.DataPoints...)
		out.Gauge = &g
	}
	if m.Histogram != nil {
		h := *m.Histogram
		h.DataPoints = make([]otlpmodel.HistogramDataPoint, len(m.Histogram.DataPoints))
		for i, dp := range m.Histogram.DataPoints {
			cdp := dp
			cdp.BucketCounts = append([]uint64(nil), dp.BucketCounts...)
			cdp.ExplicitBounds = append([]float64(nil), dp.ExplicitBounds...)
			h.DataPoints[i] = cdp
		}
		out.Histogram = &h
	}
	return out
}
