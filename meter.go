package metric

import (
	"sync"

	"github.com/otelmetric/sdk/internal/spec"
)

// Meter is a named, versioned instrumentation scope that owns a registry
// of instruments (spec.md §4.1, §4.4). Meters are created through a
// MeterProvider and never directly.
type Meter struct {
	provider  *MeterProvider
	name      string
	version   string
	schemaURL string

	mu          sync.Mutex
	instruments map[string]instrument
	order       []instrument
}

// Name reports the meter's instrumentation scope name.
func (m *Meter) Name() string { return m.name }

// Version reports the meter's instrumentation scope version, if any.
func (m *Meter) Version() string { return m.version }

// SchemaURL reports the meter's instrumentation scope schema URL, if any.
func (m *Meter) SchemaURL() string { return m.schemaURL }

// describe validates opts against spec.md §3's InstrumentOptions rules and
// builds the descriptor a Create* constructor will register.
func (m *Meter) describe(name string, kind InstrumentKind, numberKind NumberKind, opts []InstrumentOption) (instrumentDescriptor, error) {
	built := buildOptions(name, opts)
	if err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{
		Name:        built.Name,
		Unit:        built.Unit,
		Description: built.Description,
	}, ErrInvalidName, ErrInvalidUnit, ErrInvalidDescription); err != nil {
		return instrumentDescriptor{}, err
	}
	return instrumentDescriptor{
		Name:        built.Name,
		Description: built.Description,
		Unit:        built.Unit,
		Kind:        kind,
		NumberKind:  numberKind,
	}, nil
}

// describeHistogram is describe plus explicit-bucket-boundary validation,
// returning the fully built options so CreateHistogram can construct its
// aggregator from the (possibly defaulted) boundary list.
func (m *Meter) describeHistogram(name string, numberKind NumberKind, opts []InstrumentOption) (instrumentDescriptor, InstrumentOptions, error) {
	built := buildOptions(name, opts)
	if err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{
		Name:        built.Name,
		Unit:        built.Unit,
		Description: built.Description,
	}, ErrInvalidName, ErrInvalidUnit, ErrInvalidDescription); err != nil {
		return instrumentDescriptor{}, InstrumentOptions{}, err
	}
	if err := spec.ValidateExplicitBuckets(built.Histogram.ExplicitBuckets, ErrInvalidExplicitBucketBoundaries); err != nil {
		return instrumentDescriptor{}, InstrumentOptions{}, err
	}
	desc := instrumentDescriptor{
		Name:        built.Name,
		Description: built.Description,
		Unit:        built.Unit,
		Kind:        KindHistogram,
		NumberKind:  numberKind,
	}
	return desc, built, nil
}

// register adds inst to the meter's registry under its identifier,
// rejecting a second instrument with the same identifying fields
// (spec.md §4.2's duplicate-registration rule).
func (m *Meter) register(desc instrumentDescriptor, inst instrument) error {
	id := desc.identifier()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.instruments[id]; exists {
		return ErrInstrumentExistsWithSameIdentifyingFields
	}
	m.instruments[id] = inst
	m.order = append(m.order, inst)
	return nil
}

// snapshotInstruments returns the meter's instruments in registration
// order, stable enough for deterministic collect() output.
func (m *Meter) snapshotInstruments() []instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]instrument, len(m.order))
	copy(out, m.order)
	return out
}
