// Package export defines the MetricExporter contract spec.md §6 hands a
// MetricReader's collected snapshots to, plus a concurrency-safe wrapper
// every concrete exporter in this module is built on. The wrapper's
// idempotent-Shutdown and polling-ForceFlush shape follows the teacher's
// registry.go Gather()/MultiError pattern: collect everything, report the
// first hard failure, never panic on a double shutdown.
package export

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/internal/otlpmodel"
)

// Exporter is the capability spec.md §6 requires of anything a
// MetricReader pushes snapshots to.
type Exporter interface {
	// Temporality reports which AggregationTemporality this exporter
	// prefers for a given instrument kind. Most exporters are
	// Cumulative-only or Delta-only; a MetricReader consults this to
	// pick its TemporalitySelector.
	Temporality(kind metric.InstrumentKind) otlpmodel.Temporality

	// Export pushes one collected snapshot. Implementations must not
	// retain data beyond the call.
	Export(ctx context.Context, data otlpmodel.MetricsData) error

	// ForceFlush blocks until any export in flight completes.
	ForceFlush(ctx context.Context) error

	// Shutdown releases resources. Idempotent.
	Shutdown(ctx context.Context) error
}

// SafeExporter wraps an Exporter with the concurrency and lifecycle rules
// spec.md §5 imposes on every exporter: exports are serialized (an
// exporter is never asked to handle two concurrent Export calls), a
// shutdown exporter rejects further exports with ErrExportFailed instead
// of touching the underlying implementation, and ForceFlush is
// satisfied by polling for the in-flight export to finish rather than by
// cancelling it.
type SafeExporter struct {
	inner Exporter

	mu         sync.Mutex
	exporting  atomic.Bool
	shutdownDone bool
}

// NewSafeExporter wraps inner.
func NewSafeExporter(inner Exporter) *SafeExporter {
	return &SafeExporter{inner: inner}
}

func (s *SafeExporter) Temporality(kind metric.InstrumentKind) otlpmodel.Temporality {
	return s.inner.Temporality(kind)
}

// Export serializes calls into the wrapped exporter and marks the export
// in flight for the duration, so a concurrent ForceFlush can observe it.
func (s *SafeExporter) Export(ctx context.Context, data otlpmodel.MetricsData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isShutdown() {
		return metric.ErrExportFailed
	}
	s.exporting.Store(true)
	defer s.exporting.Store(false)
	return s.inner.Export(ctx, data)
}

// ForceFlush waits, polling every millisecond per spec.md §5's guidance
// for force_flush completion detection, until no export is in flight or
// ctx's deadline elapses, then delegates to the wrapped exporter's own
// ForceFlush.
func (s *SafeExporter) ForceFlush(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for s.exporting.Load() {
		select {
		case <-ctx.Done():
			return metric.ErrForceFlushTimedOut
		case <-ticker.C:
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isShutdown() {
		return nil
	}
	return s.inner.ForceFlush(ctx)
}

// Shutdown is idempotent: a second call returns nil without touching the
// wrapped exporter again.
func (s *SafeExporter) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdownDone {
		return nil
	}
	s.shutdownDone = true
	return s.inner.Shutdown(ctx)
}

func (s *SafeExporter) isShutdown() bool { return s.shutdownDone }
