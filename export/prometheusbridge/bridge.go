// Package prometheusbridge exposes a MetricReader's collected snapshots
// through the Prometheus exposition format, by implementing
// prometheus.Gatherer directly against the internal otlpmodel snapshot
// rather than through the Collector/Desc registration machinery.
//
// The dto.MetricFamily construction below is grounded on the teacher's
// registry.go Gather(): hand-build MetricFamily/Metric values keyed by
// name, tag each by prometheus type, and let a promhttp handler serialize
// the result — the same shape, rebuilt against a snapshot pulled from a
// MetricReader instead of a channel of prometheus.Collector callbacks.
package prometheusbridge

import (
	"context"
	"math"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

var illegalCharsRE = regexp.MustCompile(`[^a-zA-Z0-9_:]`)

// escapeMetricName rewrites name into the character set Prometheus metric
// names require, matching the teacher's bridge.go escapeMetricName: a
// leading digit gets an underscore prefix, everything else illegal
// becomes an underscore.
func escapeMetricName(name string) string {
	if len(name) == 0 {
		return name
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return illegalCharsRE.ReplaceAllString(name, "_")
}

// Bridge is a prometheus.Gatherer backed by a MetricReader.
type Bridge struct {
	reader *metric.MetricReader
}

// New wraps reader for Prometheus scraping. reader should have been built
// with (or attached alongside) a TemporalitySelector that reports
// Cumulative, since Prometheus's exposition format has no Delta concept;
// AlwaysCumulative is used automatically if the caller passes a bare
// reader with no explicit selector.
func New(reader *metric.MetricReader) *Bridge {
	return &Bridge{reader: reader}
}

// Gather implements prometheus.Gatherer.
func (b *Bridge) Gather() ([]*dto.MetricFamily, error) {
	data, err := b.reader.Collect(context.Background())
	if err != nil {
		return nil, err
	}
	return toMetricFamilies(data), nil
}

var _ prometheus.Gatherer = (*Bridge)(nil)

func toMetricFamilies(data otlpmodel.MetricsData) []*dto.MetricFamily {
	var out []*dto.MetricFamily
	for _, rm := range data.ResourceMetrics {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if mf := toMetricFamily(m); mf != nil {
					out = append(out, mf)
				}
			}
		}
	}
	return out
}

func toMetricFamily(m otlpmodel.Metric) *dto.MetricFamily {
	name := escapeMetricName(m.Name)
	switch m.Kind {
	case otlpmodel.DataSum:
		metricType := dto.MetricType_COUNTER
		if !m.Sum.IsMonotonic {
			metricType = dto.MetricType_GAUGE
		}
		mf := &dto.MetricFamily{Name: proto.String(name), Help: proto.String(m.Description), Type: metricType.Enum()}
		for _, dp := range m.Sum.DataPoints {
			v := numberValue(dp)
			dm := &dto.Metric{Label: labelPairs(dp.Attributes)}
			if metricType == dto.MetricType_COUNTER {
				dm.Counter = &dto.Counter{Value: proto.Float64(v)}
			} else {
				dm.Gauge = &dto.Gauge{Value: proto.Float64(v)}
			}
			mf.Metric = append(mf.Metric, dm)
		}
		return mf
	case otlpmodel.DataGauge:
		mf := &dto.MetricFamily{Name: proto.String(name), Help: proto.String(m.Description), Type: dto.MetricType_GAUGE.Enum()}
		for _, dp := range m.Gauge.DataPoints {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: labelPairs(dp.Attributes),
				Gauge: &dto.Gauge{Value: proto.Float64(numberValue(dp))},
			})
		}
		return mf
	case otlpmodel.DataHistogram:
		mf := &dto.MetricFamily{Name: proto.String(name), Help: proto.String(m.Description), Type: dto.MetricType_HISTOGRAM.Enum()}
		for _, dp := range m.Histogram.DataPoints {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label:     labelPairs(dp.Attributes),
				Histogram: toHistogram(dp),
			})
		}
		return mf
	default:
		return nil
	}
}

func toHistogram(dp otlpmodel.HistogramDataPoint) *dto.Histogram {
	buckets := make([]*dto.Bucket, 0, len(dp.ExplicitBounds)+1)
	var cumulative uint64
	for i, bound := range dp.ExplicitBounds {
		cumulative += dp.BucketCounts[i]
		buckets = append(buckets, &dto.Bucket{
			UpperBound:      proto.Float64(bound),
			CumulativeCount: proto.Uint64(cumulative),
		})
	}
	if len(dp.BucketCounts) > len(dp.ExplicitBounds) {
		cumulative += dp.BucketCounts[len(dp.ExplicitBounds)]
	}
	buckets = append(buckets, &dto.Bucket{
		UpperBound:      proto.Float64(math.Inf(1)),
		CumulativeCount: proto.Uint64(cumulative),
	})
	return &dto.Histogram{
		SampleCount: proto.Uint64(dp.Count),
		SampleSum:   proto.Float64(dp.Sum),
		Bucket:      buckets,
	}
}

func labelPairs(attrs attribute.Set) []*dto.LabelPair {
	kvs := attrs.Iter()
	if len(kvs) == 0 {
		return nil
	}
	out := make([]*dto.LabelPair, len(kvs))
	for i, kv := range kvs {
		out[i] = &dto.LabelPair{Name: proto.String(kv.Key), Value: proto.String(kv.Value.String())}
	}
	return out
}

func numberValue(dp otlpmodel.NumberDataPoint) float64 {
	if dp.ValueKind == otlpmodel.NumberInt64 {
		return float64(dp.IntValue)
	}
	return dp.FloatValue
}
