package metric

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/otelmetric/sdk/attribute"
	"github.com/otelmetric/sdk/internal/level"
	"github.com/otelmetric/sdk/internal/spec"
	"github.com/otelmetric/sdk/selfobserve"
)

// meterEntry pairs a registered Meter with the attribute set it was
// created with, so a second Meter() call with the same name/version/
// schema_url but different attributes can be rejected per spec.md §4.4.
type meterEntry struct {
	meter *Meter
	attrs attribute.Set
}

// ProviderOptions configures a MeterProvider at construction.
type ProviderOptions struct {
	Resource      attribute.Set
	Logger        *level.Logger
	SelfObserveTo prometheus.Registerer
}

// ProviderOption mutates ProviderOptions.
type ProviderOption func(*ProviderOptions)

// WithResource sets the provider-wide resource attributes emitted on every
// ResourceMetrics (spec.md §6).
func WithResource(attrs attribute.Set) ProviderOption {
	return func(o *ProviderOptions) { o.Resource = attrs }
}

// WithLogger overrides the provider's diagnostic logger.
func WithLogger(l *level.Logger) ProviderOption {
	return func(o *ProviderOptions) { o.Logger = l }
}

// WithSelfObserve registers the SDK's own health counters (collect/export
// failures, force_flush timeouts, meters registered) with registerer.
func WithSelfObserve(registerer prometheus.Registerer) ProviderOption {
	return func(o *ProviderOptions) { o.SelfObserveTo = registerer }
}

// MeterProvider is the entry point of the metrics SDK (spec.md §4.4): it
// owns the meter registry and the set of attached readers, and is the
// unit of Shutdown.
type MeterProvider struct {
	resource attribute.Set
	logger   *level.Logger

	mu      sync.Mutex
	meters  map[uint64]*meterEntry
	readers []*MetricReader

	selfObserve *selfobserve.Metrics

	shutdownMu   sync.Mutex
	shutdownDone bool
}

// NewMeterProvider constructs a MeterProvider. With no options, the
// resource attribute set is empty and diagnostics are discarded.
func NewMeterProvider(opts ...ProviderOption) *MeterProvider {
	o := ProviderOptions{Logger: level.NewNopLogger()}
	for _, apply := range opts {
		apply(&o)
	}
	p := &MeterProvider{
		resource: o.Resource,
		logger:   o.Logger,
		meters:   make(map[uint64]*meterEntry),
	}
	if o.SelfObserveTo != nil {
		metrics, err := selfobserve.New(o.SelfObserveTo, p.meterCount)
		if err != nil {
			p.logger.Warnf("self-observe registration failed: %v", err)
		} else {
			p.selfObserve = metrics
		}
	}
	return p
}

// meterCount reports the number of registered meters, for the
// self-observe meters_registered gauge.
func (p *MeterProvider) meterCount() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(len(p.meters))
}

// observeCollect forwards a Collect outcome to the self-observe metrics,
// if enabled.
func (p *MeterProvider) observeCollect(err error) {
	if p.selfObserve != nil {
		p.selfObserve.ObserveCollect(err)
	}
}

// MeterOptions configures a Meter at creation (spec.md §4.1).
type MeterOptions struct {
	Version    string
	SchemaURL  string
	Attributes attribute.Set
}

// MeterOption mutates MeterOptions.
type MeterOption func(*MeterOptions)

func WithMeterVersion(v string) MeterOption {
	return func(o *MeterOptions) { o.Version = v }
}

func WithMeterSchemaURL(s string) MeterOption {
	return func(o *MeterOptions) { o.SchemaURL = s }
}

func WithMeterAttributes(attrs attribute.Set) MeterOption {
	return func(o *MeterOptions) { o.Attributes = attrs }
}

// Meter returns the Meter identified by (name, version, schema_url),
// creating it on first use. A second call with the same identity but a
// different attribute set fails with ErrMeterExistsWithDifferentAttributes
// (spec.md §4.4's duplicate-registration rule); a call with the same
// identity and an equal attribute set returns the existing Meter.
func (p *MeterProvider) Meter(name string, opts ...MeterOption) (*Meter, error) {
	var o MeterOptions
	for _, apply := range opts {
		apply(&o)
	}
	if o.Version == "" {
		o.Version = spec.DefaultMeterVersion
	}
	id := spec.MeterIdentifier(name, o.Version, o.SchemaURL)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.meters[id]; ok {
		if existing.attrs.Equal(o.Attributes) {
			return existing.meter, nil
		}
		return nil, ErrMeterExistsWithDifferentAttributes
	}
	m := &Meter{
		provider:    p,
		name:        name,
		version:     o.Version,
		schemaURL:   o.SchemaURL,
		instruments: make(map[string]instrument),
	}
	p.meters[id] = &meterEntry{meter: m, attrs: o.Attributes}
	return m, nil
}

// AddReader attaches r to p. A reader may be attached to at most one
// provider (spec.md §5); a second attempt fails with
// ErrMetricReaderAlreadyAttached.
func (p *MeterProvider) AddReader(r *MetricReader) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.provider != nil {
		return ErrMetricReaderAlreadyAttached
	}
	r.provider = p
	p.readers = append(p.readers, r)
	return nil
}

// snapshotMeters returns the currently registered meters, safe to iterate
// without holding the provider lock.
func (p *MeterProvider) snapshotMeters() []*Meter {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Meter, 0, len(p.meters))
	for _, e := range p.meters {
		out = append(out, e.meter)
	}
	return out
}

// Shutdown shuts down every attached reader and marks the provider
// terminally shut down. It is idempotent: a second call is a no-op that
// returns nil, matching spec.md §5's guidance that Shutdown methods must
// tolerate repeated calls.
func (p *MeterProvider) Shutdown(ctx context.Context) error {
	p.shutdownMu.Lock()
	if p.shutdownDone {
		p.shutdownMu.Unlock()
		return nil
	}
	p.shutdownDone = true
	p.shutdownMu.Unlock()

	p.mu.Lock()
	readers := make([]*MetricReader, len(p.readers))
	copy(readers, p.readers)
	p.mu.Unlock()

	var firstErr error
	for _, r := range readers {
		if err := r.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
