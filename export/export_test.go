package export_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/export"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

// blockingExporter blocks in Export until release is closed, so tests can
// observe ForceFlush waiting on an in-flight export.
type blockingExporter struct {
	release chan struct{}
	exports int
	mu      sync.Mutex
}

func (b *blockingExporter) Temporality(metric.InstrumentKind) otlpmodel.Temporality {
	return otlpmodel.TemporalityCumulative
}

func (b *blockingExporter) Export(ctx context.Context, _ otlpmodel.MetricsData) error {
	b.mu.Lock()
	b.exports++
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func (b *blockingExporter) ForceFlush(context.Context) error { return nil }
func (b *blockingExporter) Shutdown(context.Context) error   { return nil }

func TestSafeExporterForceFlushWaitsForInFlightExport(t *testing.T) {
	inner := &blockingExporter{release: make(chan struct{})}
	safe := export.NewSafeExporter(inner)

	go safe.Export(context.Background(), otlpmodel.MetricsData{})

	require.Eventually(t, func() bool {
		inner.mu.Lock()
		defer inner.mu.Unlock()
		return inner.exports == 1
	}, time.Second, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- safe.ForceFlush(context.Background()) }()

	select {
	case <-done:
		t.Fatal("ForceFlush returned before the in-flight export completed")
	case <-time.After(20 * time.Millisecond):
	}

	close(inner.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ForceFlush did not return after export completed")
	}
}

func TestSafeExporterForceFlushTimesOut(t *testing.T) {
	inner := &blockingExporter{release: make(chan struct{})}
	defer close(inner.release)
	safe := export.NewSafeExporter(inner)

	go safe.Export(context.Background(), otlpmodel.MetricsData{})
	require.Eventually(t, func() bool {
		inner.mu.Lock()
		defer inner.mu.Unlock()
		return inner.exports == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := safe.ForceFlush(ctx)
	assert.ErrorIs(t, err, metric.ErrForceFlushTimedOut)
}

func TestSafeExporterShutdownIsIdempotentAndRejectsFurtherExports(t *testing.T) {
	inner := &blockingExporter{release: make(chan struct{})}
	close(inner.release)
	safe := export.NewSafeExporter(inner)

	require.NoError(t, safe.Shutdown(context.Background()))
	require.NoError(t, safe.Shutdown(context.Background()))

	err := safe.Export(context.Background(), otlpmodel.MetricsData{})
	assert.ErrorIs(t, err, metric.ErrExportFailed)
}
