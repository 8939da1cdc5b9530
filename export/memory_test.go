package export_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/export"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

func sampleData() otlpmodel.MetricsData {
	return otlpmodel.MetricsData{ResourceMetrics: []otlpmodel.ResourceMetrics{{
		ScopeMetrics: []otlpmodel.ScopeMetrics{{
			Metrics: []otlpmodel.Metric{{
				Name: "requests",
				Kind: otlpmodel.DataSum,
				Sum: &otlpmodel.Sum{DataPoints: []otlpmodel.NumberDataPoint{
					{ValueKind: otlpmodel.NumberInt64, IntValue: 10},
				}},
			}},
		}},
	}}}
}

func TestMemoryExporterFetchReturnsIndependentCopy(t *testing.T) {
	e := export.NewMemoryExporter()

	_, ok := e.Fetch()
	assert.False(t, ok, "no export has happened yet")

	require.NoError(t, e.Export(context.Background(), sampleData()))
	got, ok := e.Fetch()
	require.True(t, ok)
	require.Len(t, got.ResourceMetrics, 1)

	got.ResourceMetrics[0].ScopeMetrics[0].Metrics[0].Sum.DataPoints[0].IntValue = 999
	again, _ := e.Fetch()
	assert.Equal(t, int64(10), again.ResourceMetrics[0].ScopeMetrics[0].Metrics[0].Sum.DataPoints[0].IntValue,
		"mutating a fetched snapshot must not affect the retained copy")
}

func TestMemoryExporterRejectsExportAfterShutdown(t *testing.T) {
	e := export.NewMemoryExporter()
	require.NoError(t, e.Shutdown(context.Background()))
	err := e.Export(context.Background(), sampleData())
	assert.ErrorIs(t, err, metric.ErrExportFailed)
}
