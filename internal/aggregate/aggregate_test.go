package aggregate_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/aggregate"
)

func TestSumAggregatorSnapshot(t *testing.T) {
	a := aggregate.NewSumAggregator()
	empty := attribute.NewSet()
	kv := attribute.NewSet(attribute.String("k", "v"))

	a.Add(10, empty)
	a.Add(5, kv)
	a.Add(7, kv)

	got := map[string]float64{}
	a.Snapshot(func(attrs attribute.Set, value float64, startTime time.Time) {
		got[attrs.String()] = value
		assert.False(t, startTime.IsZero())
	})
	assert.Equal(t, float64(10), got[""])
	assert.Equal(t, float64(12), got["k=v"])
}

func TestLastValueAggregatorOverwrites(t *testing.T) {
	a := aggregate.NewLastValueAggregator()
	empty := attribute.NewSet()
	a.Record(1, empty)
	a.Record(2, empty)
	a.Record(3, empty)

	var got float64
	a.Snapshot(func(attrs attribute.Set, value float64, recorded time.Time) {
		got = value
		assert.False(t, recorded.IsZero(), "Record must stamp a non-zero recorded time")
	})
	assert.Equal(t, float64(3), got)
}

func TestHistogramAggregatorAccumulates(t *testing.T) {
	a := aggregate.NewHistogramAggregator([]float64{1, 10, 100, 1000}, true)
	empty := attribute.NewSet()
	a.Record(1, empty)
	a.Record(5, empty)
	a.Record(15, empty)

	var snap aggregate.HistogramSnapshot
	a.Snapshot(func(attrs attribute.Set, s aggregate.HistogramSnapshot) { snap = s })

	assert.Equal(t, uint64(3), snap.Count)
	assert.Equal(t, float64(21), snap.Sum)
	assert.Equal(t, []uint64{1, 1, 1, 0, 0}, snap.BucketCounts)
	assert.Equal(t, float64(1), snap.Min)
	assert.Equal(t, float64(15), snap.Max)
	assert.True(t, snap.HasMinMax)
}

func TestHistogramAggregatorRecordMinMaxDisabled(t *testing.T) {
	a := aggregate.NewHistogramAggregator([]float64{10}, false)
	a.Record(5, attribute.NewSet())

	var snap aggregate.HistogramSnapshot
	a.Snapshot(func(attrs attribute.Set, s aggregate.HistogramSnapshot) { snap = s })
	assert.False(t, snap.HasMinMax)
}

func TestBucketIndexNonStrictUpperBound(t *testing.T) {
	bounds := []float64{1, 10, 100, 1000}

	assert.Equal(t, 0, aggregate.BucketIndex(bounds, 1), "value equal to a boundary lands in that boundary's bucket")
	assert.Equal(t, 0, aggregate.BucketIndex(bounds, 0.5))
	assert.Equal(t, 1, aggregate.BucketIndex(bounds, 5))
	assert.Equal(t, 2, aggregate.BucketIndex(bounds, 15))
	assert.Equal(t, len(bounds), aggregate.BucketIndex(bounds, 5000), "values above the last boundary land in the dedicated overflow slot")
	assert.Equal(t, len(bounds), aggregate.BucketIndex(bounds, math.NaN()), "NaN never compares <= any boundary and falls through to overflow")
}

func TestHistogramBucketCountsLengthIsBoundsPlusOverflow(t *testing.T) {
	bounds := []float64{1, 10, 100}
	a := aggregate.NewHistogramAggregator(bounds, false)
	a.Record(50, attribute.NewSet())

	var snap aggregate.HistogramSnapshot
	a.Snapshot(func(attrs attribute.Set, s aggregate.HistogramSnapshot) { snap = s })
	require.Len(t, snap.BucketCounts, len(bounds)+1)
}

func TestSumAggregatorKeepsDistinctAttributeSetsSeparate(t *testing.T) {
	a := aggregate.NewSumAggregator()
	sets := []attribute.Set{
		attribute.NewSet(attribute.String("route", "/a")),
		attribute.NewSet(attribute.String("route", "/b")),
		attribute.NewSet(attribute.String("route", "/c")),
	}
	for _, s := range sets {
		a.Add(1, s)
	}
	count := 0
	a.Snapshot(func(attribute.Set, float64, time.Time) { count++ })
	assert.Equal(t, len(sets), count)
}
