// Package otlpmodel defines the internal metric snapshot representation
// handed from a MetricReader to a MetricExporter (spec.md §6). It mirrors
// the shape of OTLP's MetricsData without depending on any generated
// protobuf types: the wire encoding itself is an external concern (an
// assumed codec library), matching the teacher's own dto.MetricFamily /
// dto.Metric split in registry.go, where the exposition format is built by
// hand from plain Go structs before being handed to a serializer.
package otlpmodel

import "github.com/otelmetric/sdk/attribute"

// Temporality mirrors the OTLP AggregationTemporality wire enum values
// named in spec.md §6.
type Temporality int32

const (
	TemporalityUnspecified Temporality = 0
	TemporalityDelta       Temporality = 1
	TemporalityCumulative  Temporality = 2
)

func (t Temporality) String() string {
	switch t {
	case TemporalityDelta:
		return "Delta"
	case TemporalityCumulative:
		return "Cumulative"
	default:
		return "Unspecified"
	}
}

// MetricsData is the root snapshot value produced by a single collect().
type MetricsData struct {
	ResourceMetrics []ResourceMetrics
}

// ResourceMetrics groups one Meter's metrics under the MeterProvider's
// resource attributes; a single collect() emits one of these per
// registered Meter, each carrying exactly one ScopeMetrics.
type ResourceMetrics struct {
	Resource     Resource
	ScopeMetrics []ScopeMetrics
}

// Resource carries the meter-provider-level attributes.
type Resource struct {
	Attributes attribute.Set
}

// InstrumentationScope names the library/component that owns the
// instruments in a ScopeMetrics.
type InstrumentationScope struct {
	Name       string
	Version    string
	SchemaURL  string
	Attributes attribute.Set
}

// ScopeMetrics is the per-Meter list of instrument snapshots; spec.md §4.5
// emits exactly one per ResourceMetrics.
type ScopeMetrics struct {
	Scope   InstrumentationScope
	Metrics []Metric
}

// DataKind tags which of a Metric's Sum/Histogram/Gauge fields is set.
type DataKind int

const (
	DataUnspecified DataKind = iota
	DataSum
	DataHistogram
	DataGauge
)

// Metric is one instrument's snapshot for this collection cycle.
type Metric struct {
	Name        string
	Description string
	Unit        string
	Kind        DataKind
	Sum         *Sum
	Histogram   *Histogram
	Gauge       *Gauge
}

// Sum backs Counter and UpDownCounter snapshots.
type Sum struct {
	DataPoints             []NumberDataPoint
	AggregationTemporality Temporality
	IsMonotonic            bool
}

// Histogram backs Histogram instrument snapshots.
type Histogram struct {
	DataPoints             []HistogramDataPoint
	AggregationTemporality Temporality
}

// Gauge backs Gauge instrument snapshots.
type Gauge struct {
	DataPoints []NumberDataPoint
}

// NumberValueKind tags whether a NumberDataPoint's value is in IntValue
// (int64) or FloatValue (float64), matching the "one-of(i64, f64)" shape in spec.md §6.
type NumberValueKind int

const (
	NumberInt64 NumberValueKind = iota
	NumberFloat64
)

// NumberDataPoint is a single time series point for Sum or Gauge data.
type NumberDataPoint struct {
	Attributes    attribute.Set
	TimeUnixNano  uint64
	StartTimeNano uint64
	ValueKind     NumberValueKind
	IntValue      int64
	FloatValue    float64
}

// HistogramDataPoint is a single time series point for Histogram data.
type HistogramDataPoint struct {
	Attributes      attribute.Set
	TimeUnixNano    uint64
	StartTimeNano   uint64
	Count           uint64
	Sum             float64
	BucketCounts    []uint64
	ExplicitBounds  []float64
	Min             float64
	Max             float64
	HasMinMax       bool
}
