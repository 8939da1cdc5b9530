package metric

import (
	"time"

	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/aggregate"
	"github.com/otelmetric/sdk/internal/spec"
)

// InstrumentKind tags which of the four instrument variants spec.md §3
// describes. It doubles as the "kind-tag" component of an instrument
// identifier (spec.md §4.2).
type InstrumentKind int

const (
	KindCounter InstrumentKind = iota
	KindUpDownCounter
	KindHistogram
	KindGauge
)

func (k InstrumentKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindUpDownCounter:
		return "updowncounter"
	case KindHistogram:
		return "histogram"
	case KindGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

// NumberKind tags whether an instrument's wire representation is integral
// or floating point, per spec.md §6's NumberDataPoint one-of(i64, f64).
type NumberKind int

const (
	Int64Kind NumberKind = iota
	Float64Kind
)

// Number is the set of value types spec.md §3's instrument table allows
// across all four kinds; each constructor further restricts N to the
// subset valid for its own kind, rejecting anything else at construction
// with ErrUnsupportedValueType.
type Number interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func numberKindOf[N Number]() NumberKind {
	var zero N
	switch any(zero).(type) {
	case float32, float64:
		return Float64Kind
	default:
		return Int64Kind
	}
}

func checkAllowed[N Number](kind InstrumentKind) error {
	var zero N
	v := any(zero)
	switch kind {
	case KindCounter:
		switch v.(type) {
		case uint16, uint32, uint64:
			return nil
		}
	case KindUpDownCounter:
		switch v.(type) {
		case int16, int32, int64:
			return nil
		}
	case KindHistogram:
		switch v.(type) {
		case uint16, uint32, uint64, float32, float64:
			return nil
		}
	case KindGauge:
		switch v.(type) {
		case int16, int32, int64, float32, float64:
			return nil
		}
	}
	return &spec.ValidationError{Kind: ErrUnsupportedValueType, Field: "value type", Message: "value type is not valid for this instrument kind"}
}

// InstrumentOptions configures an instrument at creation time; see
// spec.md §3.
type InstrumentOptions struct {
	Name        string
	Description string
	Unit        string
	Histogram   HistogramOptions
}

// HistogramOptions configures explicit-bucket boundaries, spec.md §3.
type HistogramOptions struct {
	ExplicitBuckets []float64
	RecordMinMax    bool // zero value would default to false; recordMinMaxSet distinguishes "unset"
	recordMinMaxSet bool
}

// InstrumentOption mutates InstrumentOptions when building an instrument.
type InstrumentOption func(*InstrumentOptions)

func WithDescription(d string) InstrumentOption {
	return func(o *InstrumentOptions) { o.Description = d }
}

func WithUnit(u string) InstrumentOption {
	return func(o *InstrumentOptions) { o.Unit = u }
}

// WithExplicitBuckets sets the histogram's boundary list. Only meaningful
// for CreateHistogram.
func WithExplicitBuckets(bounds []float64) InstrumentOption {
	return func(o *InstrumentOptions) { o.Histogram.ExplicitBuckets = bounds }
}

// WithRecordMinMax overrides HistogramOptions.record_min_max (default true).
func WithRecordMinMax(v bool) InstrumentOption {
	return func(o *InstrumentOptions) { o.Histogram.RecordMinMax = v; o.Histogram.recordMinMaxSet = true }
}

func buildOptions(name string, opts []InstrumentOption) InstrumentOptions {
	o := InstrumentOptions{Name: name}
	for _, apply := range opts {
		apply(&o)
	}
	if !o.Histogram.recordMinMaxSet {
		o.Histogram.RecordMinMax = true
	}
	if len(o.Histogram.ExplicitBuckets) == 0 {
		o.Histogram.ExplicitBuckets = spec.DefaultExplicitBuckets
	}
	return o
}

// instrumentDescriptor is the kind/name/unit/description tuple recorded in
// a Meter's registry and echoed back on every collected Metric.
type instrumentDescriptor struct {
	Name        string
	Description string
	Unit        string
	Kind        InstrumentKind
	NumberKind  NumberKind
}

func (d instrumentDescriptor) identifier() string {
	return spec.InstrumentIdentifier(d.Name, d.Kind.String(), d.Unit, d.Description)
}

// sumPoint is one attribute set's cumulative running total, as read from a
// SumAggregator.
type sumPoint struct {
	attrs     attribute.Set
	value     float64
	startTime time.Time
}

// gaugePoint is one attribute set's most recently recorded value.
type gaugePoint struct {
	attrs    attribute.Set
	value    float64
	recorded time.Time
}

// histPoint is one attribute set's cumulative histogram state.
type histPoint struct {
	attrs attribute.Set
	snap  aggregate.HistogramSnapshot
}

// cumulativeSnapshot is what an instrument hands the reader: always the
// raw cumulative aggregation state, never diffed. The reader applies
// temporality (Cumulative vs Delta) on top of this, per the design
// decision recorded in SPEC_FULL.md.
type cumulativeSnapshot struct {
	sums       []sumPoint
	gauges     []gaugePoint
	histograms []histPoint
	bounds     []float64
}

// instrument is the internal, kind-erased interface a Meter stores and a
// MetricReader walks during collect(). The public Counter[N]/
// UpDownCounter[N]/Histogram[N]/Gauge[N] types below each implement it for
// every instantiation of N.
type instrument interface {
	descriptor() instrumentDescriptor
	snapshotCumulative() cumulativeSnapshot
}

// Counter records monotonically increasing measurements (spec.md §4.3).
type Counter[N Number] struct {
	desc instrumentDescriptor
	agg  *aggregate.SumAggregator
}

// CreateCounter validates opts and constructs a Counter[N]. N must be one
// of uint16, uint32, uint64; any other type returns ErrUnsupportedValueType.
func CreateCounter[N Number](m *Meter, name string, opts ...InstrumentOption) (*Counter[N], error) {
	if err := checkAllowed[N](KindCounter); err != nil {
		return nil, err
	}
	desc, err := m.describe(name, KindCounter, numberKindOf[N](), opts)
	if err != nil {
		return nil, err
	}
	c := &Counter[N]{desc: desc, agg: aggregate.NewSumAggregator()}
	if err := m.register(desc, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add increments the counter's slot for attrs by delta. A negative delta
// is a caller error (spec.md §3 invariant (c), §4.3).
func (c *Counter[N]) Add(delta N, attrs attribute.Set) error {
	if float64(delta) < 0 {
		return ErrInvalidValue
	}
	c.agg.Add(float64(delta), attrs)
	return nil
}

func (c *Counter[N]) descriptor() instrumentDescriptor { return c.desc }

func (c *Counter[N]) snapshotCumulative() cumulativeSnapshot {
	var pts []sumPoint
	c.agg.Snapshot(func(attrs attribute.Set, value float64, startTime time.Time) {
		pts = append(pts, sumPoint{attrs: attrs, value: value, startTime: startTime})
	})
	return cumulativeSnapshot{sums: pts}
}

// UpDownCounter records measurements that can move up or down (spec.md §4.3).
type UpDownCounter[N Number] struct {
	desc instrumentDescriptor
	agg  *aggregate.SumAggregator
}

// CreateUpDownCounter validates opts and constructs an UpDownCounter[N].
// N must be one of int16, int32, int64.
func CreateUpDownCounter[N Number](m *Meter, name string, opts ...InstrumentOption) (*UpDownCounter[N], error) {
	if err := checkAllowed[N](KindUpDownCounter); err != nil {
		return nil, err
	}
	desc, err := m.describe(name, KindUpDownCounter, numberKindOf[N](), opts)
	if err != nil {
		return nil, err
	}
	u := &UpDownCounter[N]{desc: desc, agg: aggregate.NewSumAggregator()}
	if err := m.register(desc, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Add adds delta (positive or negative) to the slot for attrs.
func (u *UpDownCounter[N]) Add(delta N, attrs attribute.Set) {
	u.agg.Add(float64(delta), attrs)
}

func (u *UpDownCounter[N]) descriptor() instrumentDescriptor { return u.desc }

func (u *UpDownCounter[N]) snapshotCumulative() cumulativeSnapshot {
	var pts []sumPoint
	u.agg.Snapshot(func(attrs attribute.Set, value float64, startTime time.Time) {
		pts = append(pts, sumPoint{attrs: attrs, value: value, startTime: startTime})
	})
	return cumulativeSnapshot{sums: pts}
}

// Histogram records the distribution of measurements into explicit
// buckets (spec.md §4.3).
type Histogram[N Number] struct {
	desc instrumentDescriptor
	agg  *aggregate.HistogramAggregator
}

// CreateHistogram validates opts (including histogram bucket boundaries)
// and constructs a Histogram[N]. N must be one of uint16, uint32, uint64,
// float32, float64.
func CreateHistogram[N Number](m *Meter, name string, opts ...InstrumentOption) (*Histogram[N], error) {
	if err := checkAllowed[N](KindHistogram); err != nil {
		return nil, err
	}
	desc, built, err := m.describeHistogram(name, numberKindOf[N](), opts)
	if err != nil {
		return nil, err
	}
	h := &Histogram[N]{desc: desc, agg: aggregate.NewHistogramAggregator(built.Histogram.ExplicitBuckets, built.Histogram.RecordMinMax)}
	if err := m.register(desc, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Record adds value to the histogram's slot for attrs.
func (h *Histogram[N]) Record(value N, attrs attribute.Set) {
	h.agg.Record(float64(value), attrs)
}

func (h *Histogram[N]) descriptor() instrumentDescriptor { return h.desc }

func (h *Histogram[N]) snapshotCumulative() cumulativeSnapshot {
	var pts []histPoint
	h.agg.Snapshot(func(attrs attribute.Set, snap aggregate.HistogramSnapshot) {
		pts = append(pts, histPoint{attrs: attrs, snap: snap})
	})
	return cumulativeSnapshot{histograms: pts, bounds: h.agg.Bounds()}
}

// Gauge records the last-writer-wins current value of a quantity
// (spec.md §4.3).
type Gauge[N Number] struct {
	desc instrumentDescriptor
	agg  *aggregate.LastValueAggregator
}

// CreateGauge validates opts and constructs a Gauge[N]. N must be one of
// int16, int32, int64, float32, float64.
func CreateGauge[N Number](m *Meter, name string, opts ...InstrumentOption) (*Gauge[N], error) {
	if err := checkAllowed[N](KindGauge); err != nil {
		return nil, err
	}
	desc, err := m.describe(name, KindGauge, numberKindOf[N](), opts)
	if err != nil {
		return nil, err
	}
	g := &Gauge[N]{desc: desc, agg: aggregate.NewLastValueAggregator()}
	if err := m.register(desc, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Record overwrites the gauge's slot for attrs unconditionally.
func (g *Gauge[N]) Record(value N, attrs attribute.Set) {
	g.agg.Record(float64(value), attrs)
}

func (g *Gauge[N]) descriptor() instrumentDescriptor { return g.desc }

func (g *Gauge[N]) snapshotCumulative() cumulativeSnapshot {
	var pts []gaugePoint
	g.agg.Snapshot(func(attrs attribute.Set, value float64, recorded time.Time) {
		pts = append(pts, gaugePoint{attrs: attrs, value: value, recorded: recorded})
	})
	return cumulativeSnapshot{gauges: pts}
}
