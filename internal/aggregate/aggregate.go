// Package aggregate implements the per-instrument, attribute-set-keyed
// aggregation state described in spec.md §3-§4.3: a mapping from attribute
// set to slot, where a slot accumulates a running sum, the most recently
// written value, or histogram bucket/count/sum/min/max state.
//
// Each aggregator holds everything cumulative — it never resets or
// diffs against a previous collection. Temporality (Cumulative vs Delta)
// is a reader-side view over this always-cumulative state, computed by
// the root package's MetricReader (reader.go), matching the design-note guidance in spec.md §9 to
// track start time and subtract on emit rather than mutate shared state
// on every collect.
//
// Locking follows the teacher's pkg/expiringregistry: one coarse mutex per
// instrument guards both the attribute-set index and every slot's fields.
// spec.md §5 explicitly allows this ("the Meter's instrument registry and
// the Provider's meter registry are write-rare; a coarse lock suffices",
// and for aggregation maps "a mutex-protected map ... satisf[ies] the
// linearizability requirement").
package aggregate

import (
	"sync"
	"time"

	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/clock"
)

// bucket holds the (usually singleton) list of entries whose attribute
// sets hash to the same 64-bit value, so hash collisions are resolved by
// linear scan and full Set.Equal comparison rather than silently merging
// two distinct time series.
type bucket[T any] struct {
	entries []*entryWithSet[T]
}

type entryWithSet[T any] struct {
	attrs attribute.Set
	slot  T
}

// indexed is a generic attribute-set-keyed map shared by the three slot
// kinds below.
type indexed[T any] struct {
	mu      sync.Mutex
	buckets map[uint64]*bucket[T]
}

func newIndexed[T any]() *indexed[T] {
	return &indexed[T]{buckets: make(map[uint64]*bucket[T])}
}

// getOrCreate returns the existing slot for attrs, or creates one with
// zero via newSlot. The returned pointer is stable for the lifetime of the
// instrument: callers mutate *T directly while holding the caller-supplied
// critical section (see SumAggregator.Add etc. below).
func (idx *indexed[T]) getOrCreate(attrs attribute.Set, newSlot func() T) *T {
	h := attrs.Hash()
	b, ok := idx.buckets[h]
	if !ok {
		b = &bucket[T]{}
		idx.buckets[h] = b
	}
	for _, e := range b.entries {
		if e.attrs.Equal(attrs) {
			return &e.slot
		}
	}
	e := &entryWithSet[T]{attrs: attrs, slot: newSlot()}
	b.entries = append(b.entries, e)
	return &e.slot
}

// snapshot invokes fn for every (attrs, *T) pair currently stored. fn may
// retain attrs beyond the call: attribute.Set is immutable and owned
// independently of the aggregator. The *T must not be retained.
func (idx *indexed[T]) snapshot(fn func(attribute.Set, *T)) {
	for _, b := range idx.buckets {
		for _, e := range b.entries {
			fn(e.attrs, &e.slot)
		}
	}
}

// SumSlot is the running-total state for a Counter or UpDownCounter.
type SumSlot struct {
	Value     float64
	StartTime time.Time
}

// SumAggregator implements spec.md §3's Counter/UpDownCounter slot: a
// running sum keyed by attribute set.
type SumAggregator struct {
	idx *indexed[SumSlot]
}

func NewSumAggregator() *SumAggregator {
	return &SumAggregator{idx: newIndexed[SumSlot]()}
}

// Add applies delta to the slot for attrs, creating it on first use.
func (a *SumAggregator) Add(delta float64, attrs attribute.Set) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	slot := a.idx.getOrCreate(attrs, func() SumSlot { return SumSlot{StartTime: clock.Now()} })
	slot.Value += delta
}

// Snapshot calls fn once per (attrs, cumulative value, start time).
func (a *SumAggregator) Snapshot(fn func(attrs attribute.Set, value float64, startTime time.Time)) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	a.idx.snapshot(func(attrs attribute.Set, s *SumSlot) { fn(attrs, s.Value, s.StartTime) })
}

// LastValueSlot is the overwrite-on-write state for a Gauge.
type LastValueSlot struct {
	Value    float64
	Recorded time.Time
}

// LastValueAggregator implements spec.md §3's Gauge slot: the most
// recently recorded value, unconditionally overwritten on every Record.
type LastValueAggregator struct {
	idx *indexed[LastValueSlot]
}

func NewLastValueAggregator() *LastValueAggregator {
	return &LastValueAggregator{idx: newIndexed[LastValueSlot]()}
}

// Record overwrites the slot for attrs, matching spec.md §4.3's "last
// writer wins within a collection cycle".
func (a *LastValueAggregator) Record(value float64, attrs attribute.Set) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	slot := a.idx.getOrCreate(attrs, func() LastValueSlot { return LastValueSlot{} })
	slot.Value = value
	slot.Recorded = clock.Now()
}

// Snapshot calls fn once per (attrs, current value, last-recorded time).
func (a *LastValueAggregator) Snapshot(fn func(attrs attribute.Set, value float64, recorded time.Time)) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	a.idx.snapshot(func(attrs attribute.Set, s *LastValueSlot) { fn(attrs, s.Value, s.Recorded) })
}

// HistogramSlot is the count/sum/bucket/min/max state for a Histogram.
type HistogramSlot struct {
	Count        uint64
	Sum          float64
	BucketCounts []uint64
	Min          float64
	Max          float64
	HasMinMax    bool
	StartTime    time.Time
}

// HistogramAggregator implements spec.md §3-§4.3's ExplicitBucketHistogram
// slot.
type HistogramAggregator struct {
	bounds       []float64
	recordMinMax bool
	idx          *indexed[HistogramSlot]
}

// NewHistogramAggregator builds an aggregator for the given strictly
// increasing boundary list (already validated by the spec package).
func NewHistogramAggregator(bounds []float64, recordMinMax bool) *HistogramAggregator {
	owned := make([]float64, len(bounds))
	copy(owned, bounds)
	return &HistogramAggregator{bounds: owned, recordMinMax: recordMinMax, idx: newIndexed[HistogramSlot]()}
}

// BucketIndex returns the index of the first boundary >= value, or
// len(bounds) if none, so that a caller sizing BucketCounts to
// len(bounds)+1 (one dedicated slot per boundary plus one overflow slot
// for everything above the last boundary) gets a slot for every value.
// NaN compares greater than every boundary and lands in the overflow
// slot, and the scan uses non-strict >= so a value exactly on a boundary
// lands in that boundary's bucket, not the next one (spec.md §9).
func BucketIndex(bounds []float64, value float64) int {
	for i, b := range bounds {
		if value <= b {
			// value <= b means the first boundary >= value is b, i.e.
			// bounds[i]; NaN comparisons are always false so NaN never
			// takes this branch and falls through to the overflow slot.
			return i
		}
	}
	return len(bounds)
}

// Record adds value to the slot for attrs: updates sum/count, selects a
// bucket, and optionally tracks min/max, per spec.md §4.3.
func (a *HistogramAggregator) Record(value float64, attrs attribute.Set) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	slot := a.idx.getOrCreate(attrs, func() HistogramSlot {
		return HistogramSlot{
			BucketCounts: make([]uint64, len(a.bounds)+1),
			StartTime:    clock.Now(),
		}
	})
	slot.Sum += value
	slot.Count++
	idx := BucketIndex(a.bounds, value)
	slot.BucketCounts[idx]++
	if a.recordMinMax {
		if !slot.HasMinMax {
			slot.Min, slot.Max = value, value
			slot.HasMinMax = true
		} else {
			if value < slot.Min {
				slot.Min = value
			}
			if value > slot.Max {
				slot.Max = value
			}
		}
	}
}

// Bounds returns the aggregator's boundary list (owned, do not mutate).
func (a *HistogramAggregator) Bounds() []float64 { return a.bounds }

// HistogramSnapshot is a defensive copy of one attribute set's slot state,
// safe to retain after Snapshot returns.
type HistogramSnapshot struct {
	Count        uint64
	Sum          float64
	BucketCounts []uint64
	Min          float64
	Max          float64
	HasMinMax    bool
	StartTime    time.Time
}

// Snapshot calls fn once per attribute set with a defensive copy of its
// slot state.
func (a *HistogramAggregator) Snapshot(fn func(attrs attribute.Set, snap HistogramSnapshot)) {
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	a.idx.snapshot(func(attrs attribute.Set, s *HistogramSlot) {
		counts := make([]uint64, len(s.BucketCounts))
		copy(counts, s.BucketCounts)
		fn(attrs, HistogramSnapshot{
			Count:        s.Count,
			Sum:          s.Sum,
			BucketCounts: counts,
			Min:          s.Min,
			Max:          s.Max,
			HasMinMax:    s.HasMinMax,
			StartTime:    s.StartTime,
		})
	})
}
