package spec_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otelmetric/sdk/internal/spec"
)

var (
	errName = errors.New("invalid name")
	errUnit = errors.New("invalid unit")
	errDesc = errors.New("invalid description")
	errBkts = errors.New("invalid buckets")
)

func TestValidateInstrumentOptionsRejectsBadNames(t *testing.T) {
	for _, name := range []string{"123", "", "alpha-?"} {
		err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{Name: name}, errName, errUnit, errDesc)
		assert.ErrorIs(t, err, errName, "name %q", name)
	}
}

func TestValidateInstrumentOptionsAcceptsValidNames(t *testing.T) {
	for _, name := range []string{"a", "requests_total", "http.server.duration", "my-metric/v2"} {
		err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{Name: name}, errName, errUnit, errDesc)
		assert.NoError(t, err, "name %q", name)
	}
}

func TestValidateInstrumentOptionsRejectsOverlongName(t *testing.T) {
	err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{Name: strings.Repeat("a", 256)}, errName, errUnit, errDesc)
	assert.ErrorIs(t, err, errName)
}

func TestValidateInstrumentOptionsRejectsNonASCIIUnit(t *testing.T) {
	err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{Name: "x", Unit: "µs"}, errName, errUnit, errDesc)
	assert.ErrorIs(t, err, errUnit)
}

func TestValidateInstrumentOptionsRejectsInvalidUTF8Description(t *testing.T) {
	err := spec.ValidateInstrumentOptions(spec.InstrumentOptionsSpec{Name: "x", Description: "\xff\xfe"}, errName, errUnit, errDesc)
	assert.ErrorIs(t, err, errDesc)
}

func TestValidateExplicitBucketsRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, spec.ValidateExplicitBuckets(nil, errBkts), errBkts)
}

func TestValidateExplicitBucketsRejectsNonIncreasing(t *testing.T) {
	assert.ErrorIs(t, spec.ValidateExplicitBuckets([]float64{1, 1, 2}, errBkts), errBkts)
	assert.ErrorIs(t, spec.ValidateExplicitBuckets([]float64{5, 1}, errBkts), errBkts)
}

func TestValidateExplicitBucketsAcceptsStrictlyIncreasing(t *testing.T) {
	assert.NoError(t, spec.ValidateExplicitBuckets([]float64{0, 5, 10}, errBkts))
}

func TestMeterIdentifierStableAndDistinguishing(t *testing.T) {
	a := spec.MeterIdentifier("scope", "1.0", "")
	b := spec.MeterIdentifier("scope", "1.0", "")
	c := spec.MeterIdentifier("scope", "2.0", "")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestInstrumentIdentifierIsCaseInsensitiveOnName(t *testing.T) {
	a := spec.InstrumentIdentifier("Requests", "counter", "1", "desc")
	b := spec.InstrumentIdentifier("requests", "counter", "1", "desc")
	assert.Equal(t, a, b)
}

func TestInstrumentIdentifierDistinguishesUnitKindAndDescription(t *testing.T) {
	base := spec.InstrumentIdentifier("requests", "counter", "1", "desc")
	assert.NotEqual(t, base, spec.InstrumentIdentifier("requests", "counter", "ms", "desc"))
	assert.NotEqual(t, base, spec.InstrumentIdentifier("requests", "gauge", "1", "desc"))
	assert.NotEqual(t, base, spec.InstrumentIdentifier("requests", "counter", "1", "other"))
}
