package metric

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/aggregate"
	"github.com/otelmetric/sdk/internal/clock"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

// TemporalitySelector picks the AggregationTemporality a MetricReader
// should report for a given instrument kind (spec.md §6, §9). Gauges have
// no temporality field on the wire and are unaffected by this selector.
type TemporalitySelector func(InstrumentKind) otlpmodel.Temporality

// AlwaysCumulative reports Cumulative for every instrument kind. This is
// the SDK default.
func AlwaysCumulative(InstrumentKind) otlpmodel.Temporality { return otlpmodel.TemporalityCumulative }

// AlwaysDelta reports Delta for every instrument kind.
func AlwaysDelta(InstrumentKind) otlpmodel.Temporality { return otlpmodel.TemporalityDelta }

// histBaseline is the last-reported cumulative state for one attribute set
// of one histogram, used to compute a Delta view without mutating the
// aggregator's own always-cumulative state.
type histBaseline struct {
	count        uint64
	sum          float64
	bucketCounts []uint64
}

// ReaderOptions configures a MetricReader at construction.
type ReaderOptions struct {
	Temporality TemporalitySelector
}

// ReaderOption mutates ReaderOptions.
type ReaderOption func(*ReaderOptions)

// WithTemporalitySelector overrides the reader's default (AlwaysCumulative)
// temporality choice.
func WithTemporalitySelector(sel TemporalitySelector) ReaderOption {
	return func(o *ReaderOptions) { o.Temporality = sel }
}

// MetricReader pulls a point-in-time snapshot of every instrument
// registered on its attached MeterProvider (spec.md §4.5, §6). It never
// exports on its own; PeriodicExportingMetricReader composes one with a
// MetricExporter to push snapshots on an interval.
type MetricReader struct {
	provider    *MeterProvider
	temporality TemporalitySelector

	mu            sync.Mutex
	shuttingDown  bool
	sumBaselines  map[string]map[uint64]float64
	histBaselines map[string]map[uint64]histBaseline
}

// NewMetricReader constructs a detached MetricReader. It has no effect
// until passed to MeterProvider.AddReader.
func NewMetricReader(opts ...ReaderOption) *MetricReader {
	o := ReaderOptions{Temporality: AlwaysCumulative}
	for _, apply := range opts {
		apply(&o)
	}
	return &MetricReader{
		temporality:   o.Temporality,
		sumBaselines:  make(map[string]map[uint64]float64),
		histBaselines: make(map[string]map[uint64]histBaseline),
	}
}

// Collect walks every Meter registered on the reader's provider and
// returns a full MetricsData snapshot (spec.md §4.5). Meters are visited
// concurrently, grounded on the teacher's registry.go Gather() fan-out;
// each Meter's own instrument registry is internally lock-protected so
// concurrent collection across meters is safe.
func (r *MetricReader) Collect(ctx context.Context) (otlpmodel.MetricsData, error) {
	r.mu.Lock()
	down := r.shuttingDown
	r.mu.Unlock()
	if down {
		return otlpmodel.MetricsData{}, ErrCollectFailedOnMissingMeterProvider
	}
	if r.provider == nil {
		return otlpmodel.MetricsData{}, ErrCollectFailedOnMissingMeterProvider
	}

	meters := r.provider.snapshotMeters()
	scopes := make([]otlpmodel.ScopeMetrics, len(meters))

	g, _ := errgroup.WithContext(ctx)
	for i, m := range meters {
		i, m := i, m
		g.Go(func() error {
			sm, err := r.collectMeter(m)
			if err != nil {
				return err
			}
			scopes[i] = sm
			return nil
		})
	}
	err := g.Wait()
	r.provider.observeCollect(err)
	if err != nil {
		return otlpmodel.MetricsData{}, err
	}

	rms := make([]otlpmodel.ResourceMetrics, len(scopes))
	for i, sm := range scopes {
		rms[i] = otlpmodel.ResourceMetrics{
			Resource:     otlpmodel.Resource{Attributes: r.provider.resource},
			ScopeMetrics: []otlpmodel.ScopeMetrics{sm},
		}
	}
	return otlpmodel.MetricsData{ResourceMetrics: rms}, nil
}

func (r *MetricReader) collectMeter(m *Meter) (otlpmodel.ScopeMetrics, error) {
	insts := m.snapshotInstruments()
	nowNano := uint64(clock.Now().UnixNano())

	metrics := make([]otlpmodel.Metric, 0, len(insts))
	for _, inst := range insts {
		desc := inst.descriptor()
		snap := inst.snapshotCumulative()
		metrics = append(metrics, r.toMetric(desc, snap, nowNano))
	}

	return otlpmodel.ScopeMetrics{
		Scope: otlpmodel.InstrumentationScope{
			Name:      m.name,
			Version:   m.version,
			SchemaURL: m.schemaURL,
		},
		Metrics: metrics,
	}, nil
}

func (r *MetricReader) toMetric(desc instrumentDescriptor, snap cumulativeSnapshot, nowNano uint64) otlpmodel.Metric {
	out := otlpmodel.Metric{
		Name:        desc.Name,
		Description: desc.Description,
		Unit:        desc.Unit,
	}
	switch desc.Kind {
	case KindCounter, KindUpDownCounter:
		out.Kind = otlpmodel.DataSum
		out.Sum = r.toSum(desc, snap, nowNano)
	case KindHistogram:
		out.Kind = otlpmodel.DataHistogram
		out.Histogram = r.toHistogram(desc, snap, nowNano)
	case KindGauge:
		out.Kind = otlpmodel.DataGauge
		out.Gauge = toGauge(desc, snap, nowNano)
	}
	return out
}

func (r *MetricReader) toSum(desc instrumentDescriptor, snap cumulativeSnapshot, nowNano uint64) *otlpmodel.Sum {
	temporality := r.temporality(desc.Kind)
	id := desc.identifier()

	dps := make([]otlpmodel.NumberDataPoint, 0, len(snap.sums))
	for _, sp := range snap.sums {
		value := sp.value
		startNano := uint64(sp.startTime.UnixNano())
		if temporality == otlpmodel.TemporalityDelta {
			value, startNano = r.diffSum(id, sp.attrs.Hash(), value, nowNano)
		}
		dps = append(dps, numberDataPoint(desc, sp.attrs, value, startNano, nowNano))
	}

	return &otlpmodel.Sum{
		DataPoints:             dps,
		AggregationTemporality: temporality,
		IsMonotonic:            desc.Kind == KindCounter,
	}
}

// diffSum returns (value - previous baseline, baseline start) and updates
// the stored baseline to value, implementing the reader-side Delta view
// over the aggregator's always-cumulative state.
func (r *MetricReader) diffSum(instrumentID string, attrHash uint64, value float64, nowNano uint64) (float64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byAttr, ok := r.sumBaselines[instrumentID]
	if !ok {
		byAttr = make(map[uint64]float64)
		r.sumBaselines[instrumentID] = byAttr
	}
	prev, seen := byAttr[attrHash]
	byAttr[attrHash] = value
	if !seen {
		return value, nowNano
	}
	return value - prev, nowNano
}

func (r *MetricReader) toHistogram(desc instrumentDescriptor, snap cumulativeSnapshot, nowNano uint64) *otlpmodel.Histogram {
	temporality := r.temporality(desc.Kind)
	id := desc.identifier()

	dps := make([]otlpmodel.HistogramDataPoint, 0, len(snap.histograms))
	for _, hp := range snap.histograms {
		count, sum, counts, startNano, hasMinMax := hp.snap.Count, hp.snap.Sum, hp.snap.BucketCounts, uint64(hp.snap.StartTime.UnixNano()), hp.snap.HasMinMax
		if temporality == otlpmodel.TemporalityDelta {
			count, sum, counts, startNano = r.diffHistogram(id, hp.attrs.Hash(), hp.snap, nowNano)
			hasMinMax = false // min/max is not meaningfully diffable across a delta window
		}
		dps = append(dps, otlpmodel.HistogramDataPoint{
			Attributes:     hp.attrs,
			TimeUnixNano:   nowNano,
			StartTimeNano:  startNano,
			Count:          count,
			Sum:            sum,
			BucketCounts:   counts,
			ExplicitBounds: snap.bounds,
			Min:            hp.snap.Min,
			Max:            hp.snap.Max,
			HasMinMax:      hasMinMax,
		})
	}

	return &otlpmodel.Histogram{DataPoints: dps, AggregationTemporality: temporality}
}

// diffHistogram returns the per-window count/sum/bucket counts obtained by
// subtracting the last reported cumulative state from the current one,
// and updates the stored baseline. Bucket boundaries never change after
// construction so per-index subtraction is safe.
func (r *MetricReader) diffHistogram(instrumentID string, attrHash uint64, snap aggregate.HistogramSnapshot, nowNano uint64) (uint64, float64, []uint64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byAttr, ok := r.histBaselines[instrumentID]
	if !ok {
		byAttr = make(map[uint64]histBaseline)
		r.histBaselines[instrumentID] = byAttr
	}
	prev, seen := byAttr[attrHash]

	counts := make([]uint64, len(snap.BucketCounts))
	count := snap.Count
	sum := snap.Sum
	startNano := uint64(snap.StartTime.UnixNano())
	if seen {
		for i := range counts {
			counts[i] = snap.BucketCounts[i] - prev.bucketCounts[i]
		}
		count -= prev.count
		sum -= prev.sum
		startNano = nowNano
	} else {
		copy(counts, snap.BucketCounts)
	}

	stored := make([]uint64, len(snap.BucketCounts))
	copy(stored, snap.BucketCounts)
	byAttr[attrHash] = histBaseline{count: snap.Count, sum: snap.Sum, bucketCounts: stored}

	return count, sum, counts, startNano
}

func toGauge(desc instrumentDescriptor, snap cumulativeSnapshot, nowNano uint64) *otlpmodel.Gauge {
	dps := make([]otlpmodel.NumberDataPoint, 0, len(snap.gauges))
	for _, gp := range snap.gauges {
		dps = append(dps, numberDataPoint(desc, gp.attrs, gp.value, uint64(gp.recorded.UnixNano()), nowNano))
	}
	return &otlpmodel.Gauge{DataPoints: dps}
}

func numberDataPoint(desc instrumentDescriptor, attrs attribute.Set, value float64, startNano, nowNano uint64) otlpmodel.NumberDataPoint {
	dp := otlpmodel.NumberDataPoint{
		Attributes:    attrs,
		TimeUnixNano:  nowNano,
		StartTimeNano: startNano,
	}
	if desc.NumberKind == Int64Kind {
		dp.ValueKind = otlpmodel.NumberInt64
		dp.IntValue = int64(value)
	} else {
		dp.ValueKind = otlpmodel.NumberFloat64
		dp.FloatValue = value
	}
	return dp
}

// ForceFlush ensures every completed measurement is reflected in a
// Collect() that returns after this call starts (spec.md §5). A bare
// MetricReader has no downstream exporter to flush, so this simply
// performs a collection and discards it, matching a pull-based reader's
// no-op ForceFlush.
func (r *MetricReader) ForceFlush(ctx context.Context) error {
	_, err := r.Collect(ctx)
	return err
}

// Shutdown marks the reader terminally shut down. Idempotent.
func (r *MetricReader) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shuttingDown = true
	r.mu.Unlock()
	return nil
}
