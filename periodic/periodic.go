// Package periodic implements the push-based reader spec.md §5 describes:
// a background loop that collects on a fixed interval and pushes each
// snapshot to a MetricExporter, tolerating per-cycle export failures
// without stopping the loop.
//
// The loop shape is grounded on the teacher's pkg/event.EventQueue: a
// ticker started at construction, drained by a single background
// goroutine for the object's lifetime, with an explicit terminal
// shutdown rather than a context-cancellation-only exit.
package periodic

import (
	"context"
	"sync"
	"time"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/export"
	"github.com/otelmetric/sdk/internal/clock"
	"github.com/otelmetric/sdk/internal/level"
	"github.com/otelmetric/sdk/selfobserve"
)

// Defaults per spec.md §5.
const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// Options configures a PeriodicExportingMetricReader.
type Options struct {
	Interval    time.Duration
	Timeout     time.Duration
	Logger      *level.Logger
	SelfObserve *selfobserve.Metrics
}

// Option mutates Options.
type Option func(*Options)

func WithInterval(d time.Duration) Option { return func(o *Options) { o.Interval = d } }
func WithTimeout(d time.Duration) Option  { return func(o *Options) { o.Timeout = d } }
func WithReaderLogger(l *level.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithSelfObserve reports export failures and force_flush timeouts to m,
// alongside whatever provider it is otherwise registered against.
func WithSelfObserve(m *selfobserve.Metrics) Option {
	return func(o *Options) { o.SelfObserve = m }
}

// PeriodicExportingMetricReader composes a MetricReader with a
// MetricExporter and drives Collect/Export on a fixed interval, per
// spec.md §5's Idle -> Collecting -> Exporting -> Idle state machine.
type PeriodicExportingMetricReader struct {
	reader      *metric.MetricReader
	exporter    *export.SafeExporter
	interval    time.Duration
	timeout     time.Duration
	logger      *level.Logger
	selfObserve *selfobserve.Metrics

	ticker *time.Ticker
	done   chan struct{}
	stopWg sync.WaitGroup

	mu           sync.Mutex
	shuttingDown bool
}

// NewPeriodicExportingMetricReader builds and immediately starts a
// PeriodicExportingMetricReader. Callers still attach the returned
// reader's underlying MetricReader to a MeterProvider via Reader().
func NewPeriodicExportingMetricReader(exporter export.Exporter, opts ...Option) *PeriodicExportingMetricReader {
	o := Options{Interval: DefaultInterval, Timeout: DefaultTimeout, Logger: level.NewNopLogger()}
	for _, apply := range opts {
		apply(&o)
	}

	safe := export.NewSafeExporter(exporter)
	p := &PeriodicExportingMetricReader{
		reader:      metric.NewMetricReader(metric.WithTemporalitySelector(exporter.Temporality)),
		exporter:    safe,
		interval:    o.Interval,
		timeout:     o.Timeout,
		logger:      o.Logger,
		selfObserve: o.SelfObserve,
		ticker:      clock.NewTicker(o.Interval),
		done:        make(chan struct{}),
	}
	p.stopWg.Add(1)
	go p.run()
	return p
}

// Reader returns the underlying pull-based MetricReader, for attaching to
// a MeterProvider with AddReader.
func (p *PeriodicExportingMetricReader) Reader() *metric.MetricReader { return p.reader }

func (p *PeriodicExportingMetricReader) run() {
	defer p.stopWg.Done()
	for {
		select {
		case <-p.ticker.C:
			p.exportOnce()
		case <-p.done:
			return
		}
	}
}

func (p *PeriodicExportingMetricReader) exportOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	data, err := p.reader.Collect(ctx)
	if err != nil {
		p.logger.Errorf("periodic collect failed: %v", err)
		return
	}
	err = p.exporter.Export(ctx, data)
	if p.selfObserve != nil {
		p.selfObserve.ObserveExport(err)
	}
	if err != nil {
		p.logger.Errorf("periodic export failed: %v", err)
	}
}

// ForceFlush performs one collect/export cycle synchronously, honoring
// ctx's deadline, then waits for the exporter to report the export
// complete (spec.md §5's force_flush semantics).
func (p *PeriodicExportingMetricReader) ForceFlush(ctx context.Context) error {
	data, err := p.reader.Collect(ctx)
	if err != nil {
		return err
	}
	if err := p.exporter.Export(ctx, data); err != nil {
		return err
	}
	err = p.exporter.ForceFlush(ctx)
	if err == metric.ErrForceFlushTimedOut && p.selfObserve != nil {
		p.selfObserve.ObserveForceFlushTimeout()
	}
	return err
}

// Shutdown stops the background loop, performs one final collect/export,
// and shuts down the wrapped exporter. Idempotent.
func (p *PeriodicExportingMetricReader) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return nil
	}
	p.shuttingDown = true
	p.mu.Unlock()

	close(p.done)
	p.ticker.Stop()
	p.stopWg.Wait()

	p.exportOnce()

	if err := p.reader.Shutdown(ctx); err != nil {
		return err
	}
	return p.exporter.Shutdown(ctx)
}
