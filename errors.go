package metric

import "errors"

// Error taxonomy per spec.md §7. Sentinel errors are compared with
// errors.Is; construction-time errors are returned directly (never
// panicking), runtime aggregation errors surface to the caller without
// crashing the process.
var (
	ErrInvalidName                               = errors.New("metric: invalid instrument name")
	ErrInvalidUnit                                = errors.New("metric: invalid instrument unit")
	ErrInvalidDescription                         = errors.New("metric: invalid instrument description")
	ErrInvalidExplicitBucketBoundaries             = errors.New("metric: invalid explicit histogram bucket boundaries")
	ErrUnsupportedValueType                       = errors.New("metric: unsupported instrument value type")
	ErrInvalidValue                               = errors.New("metric: invalid measurement value")
	ErrMeterExistsWithDifferentAttributes         = errors.New("metric: meter already exists with different attributes")
	ErrInstrumentExistsWithSameIdentifyingFields  = errors.New("metric: instrument already exists with the same identifying fields")
	ErrMetricReaderAlreadyAttached                = errors.New("metric: metric reader already attached to a provider")
	ErrCollectFailedOnMissingMeterProvider        = errors.New("metric: collect failed, reader has no attached meter provider")
	ErrExportFailed                               = errors.New("metric: export failed")
	ErrForceFlushTimedOut                         = errors.New("metric: force flush timed out")
)
