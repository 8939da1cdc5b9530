// Package spec holds the pure validation and identity functions specified
// in spec.md §4.2: instrument option validation, explicit histogram
// bucket validation, and the stable identity hashes for meters and
// instruments. None of it touches aggregation state or I/O, mirroring how
// the teacher's pkg/mapper keeps its regex-based name validation free of
// any registry or transport concern.
package spec

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// instrumentNameRE encodes spec.md §3's InstrumentOptions.name constraint:
// 1-255 chars, first char alphabetic, remainder alphanumeric or one of
// "_-./". Built the way the teacher's pkg/mapper builds its statsd metric
// line patterns: compose sub-expressions, then anchor and compile once.
var instrumentNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-./]{0,254}$`)

const (
	maxNameLen        = 255
	maxUnitLen        = 63
	maxDescriptionLen = 1023
)

// ValidationError names which InstrumentOptions field failed and why.
type ValidationError struct {
	Kind    error // one of the Err* sentinels in the metric package's taxonomy
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// InstrumentOptionsSpec is the subset of an instrument's options that
// validation needs, kept independent of the metric package's own
// InstrumentOptions type so this package has no import cycle back to it.
type InstrumentOptionsSpec struct {
	Name        string
	Unit        string
	Description string
}

// ValidateInstrumentOptions checks name/unit/description per spec.md §3.
// invalidName, invalidUnit and invalidDescription are sentinel errors
// supplied by the caller (the metric package) so this package need not
// depend on it.
func ValidateInstrumentOptions(opts InstrumentOptionsSpec, invalidName, invalidUnit, invalidDescription error) error {
	if opts.Name == "" || len(opts.Name) > maxNameLen || !instrumentNameRE.MatchString(opts.Name) {
		return &ValidationError{Kind: invalidName, Field: "name", Message: fmt.Sprintf("%q must be 1-255 chars, start with a letter, and contain only letters, digits, '_', '-', '.', '/'", opts.Name)}
	}
	if len(opts.Unit) > maxUnitLen || !isASCII(opts.Unit) {
		return &ValidationError{Kind: invalidUnit, Field: "unit", Message: fmt.Sprintf("%q must be ASCII and at most %d characters", opts.Unit, maxUnitLen)}
	}
	if len(opts.Description) > maxDescriptionLen || !utf8.ValidString(opts.Description) {
		return &ValidationError{Kind: invalidDescription, Field: "description", Message: fmt.Sprintf("description must be valid UTF-8 and at most %d characters", maxDescriptionLen)}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// ValidateExplicitBuckets checks that boundaries is non-empty and strictly
// increasing, per spec.md §3's HistogramOptions.explicit_buckets.
func ValidateExplicitBuckets(boundaries []float64, invalidBoundaries error) error {
	if len(boundaries) == 0 {
		return &ValidationError{Kind: invalidBoundaries, Field: "explicit_buckets", Message: "bucket boundary list must be non-empty"}
	}
	for i := 1; i < len(boundaries); i++ {
		if !(boundaries[i] > boundaries[i-1]) {
			return &ValidationError{Kind: invalidBoundaries, Field: "explicit_buckets", Message: fmt.Sprintf("boundaries must be strictly increasing: boundary[%d]=%v is not greater than boundary[%d]=%v", i, boundaries[i], i-1, boundaries[i-1])}
		}
	}
	return nil
}

// DefaultExplicitBuckets is spec.md §3's default histogram boundary list.
var DefaultExplicitBuckets = []float64{0, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000}

// DefaultMeterVersion is spec.md §3's default for MeterOptions.version
// when the caller supplies none.
const DefaultMeterVersion = "0.1.0"

// MeterIdentifier computes the 64-bit identity hash of a meter's
// name/version/schema_url, per spec.md §4.2. Empty strings are substituted
// for absent optional fields.
func MeterIdentifier(name, version, schemaURL string) uint64 {
	h := fnv.New64a()
	writeField(h, name)
	writeField(h, version)
	writeField(h, schemaURL)
	return h.Sum64()
}

// InstrumentIdentifier computes the instrument identity string specified
// in spec.md §3/§4.2: lowercase(name) | kind-tag | unit | hex(hash(description)).
// Case-insensitive name, but unit and description participate in identity.
func InstrumentIdentifier(name string, kindTag string, unit string, description string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(description))
	return fmt.Sprintf("%s|%s|%s|%s", lowerASCII(name), kindTag, unit, strconv.FormatUint(h.Sum64(), 16))
}

func writeField(h interface{ Write([]byte) (int, error) }, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
