// Package attribute implements the ordered, typed key/value sequences that
// partition instrument measurements into time series.
//
// Equality and hashing are positional: two sets are equal iff they have the
// same length and every pair matches at the same index. The set does not
// sort or deduplicate — the caller's order is retained exactly, mirroring
// how the teacher's expiringregistry keys a time series by a hash over its
// label set, generalized here to an ordered sequence rather than a sorted
// map (spec.md ties instrument identity to positional, not set, equality).
package attribute

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/prometheus/common/model"
)

// Type identifies the concrete Go type stored in a Value.
type Type int

const (
	INVALID Type = iota
	BOOL
	STRING
	INT64
	FLOAT64
)

// Value is a typed measurement-partitioning value.
type Value struct {
	vtype    Type
	asBool   bool
	asString string
	asInt64  int64
	asFloat  float64
}

func BoolValue(v bool) Value       { return Value{vtype: BOOL, asBool: v} }
func StringValue(v string) Value   { return Value{vtype: STRING, asString: v} }
func Int64Value(v int64) Value     { return Value{vtype: INT64, asInt64: v} }
func Float64Value(v float64) Value { return Value{vtype: FLOAT64, asFloat: v} }

func (v Value) Type() Type { return v.vtype }

func (v Value) AsBool() bool       { return v.asBool }
func (v Value) AsString() string   { return v.asString }
func (v Value) AsInt64() int64     { return v.asInt64 }
func (v Value) AsFloat64() float64 { return v.asFloat }

// Equal reports value-equality, comparing only the fields relevant to the
// value's own type.
func (v Value) Equal(o Value) bool {
	if v.vtype != o.vtype {
		return false
	}
	switch v.vtype {
	case BOOL:
		return v.asBool == o.asBool
	case STRING:
		return v.asString == o.asString
	case INT64:
		return v.asInt64 == o.asInt64
	case FLOAT64:
		// NaN handling isn't relevant to keying by attribute value in
		// practice, but keep bit-equality so map keys never silently drop
		// updates for NaN-valued attributes.
		return math.Float64bits(v.asFloat) == math.Float64bits(o.asFloat)
	default:
		return true // both INVALID
	}
}

func (v Value) String() string {
	switch v.vtype {
	case BOOL:
		return fmt.Sprintf("%t", v.asBool)
	case STRING:
		return v.asString
	case INT64:
		return fmt.Sprintf("%d", v.asInt64)
	case FLOAT64:
		return fmt.Sprintf("%g", v.asFloat)
	default:
		return "<invalid>"
	}
}

// KeyValue is a single attribute pair, recorded in caller-provided order.
type KeyValue struct {
	Key   string
	Value Value
}

func Bool(k string, v bool) KeyValue       { return KeyValue{Key: k, Value: BoolValue(v)} }
func String(k, v string) KeyValue          { return KeyValue{Key: k, Value: StringValue(v)} }
func Int64(k string, v int64) KeyValue     { return KeyValue{Key: k, Value: Int64Value(v)} }
func Float64(k string, v float64) KeyValue { return KeyValue{Key: k, Value: Float64Value(v)} }

// Set is an ordered, immutable attribute sequence. The zero Set is the
// legal, distinct empty set.
type Set struct {
	kvs []KeyValue
}

// NewSet copies kvs (caller-provided order preserved) into an owned Set.
func NewSet(kvs ...KeyValue) Set {
	if len(kvs) == 0 {
		return Set{}
	}
	owned := make([]KeyValue, len(kvs))
	copy(owned, kvs)
	return Set{kvs: owned}
}

// Len returns the number of pairs in the set.
func (s Set) Len() int { return len(s.kvs) }

// Iter returns the pairs in caller order. The returned slice must not be
// mutated by the caller.
func (s Set) Iter() []KeyValue { return s.kvs }

// Equal is positional: same length, each indexed pair equal.
func (s Set) Equal(o Set) bool {
	if len(s.kvs) != len(o.kvs) {
		return false
	}
	for i := range s.kvs {
		if s.kvs[i].Key != o.kvs[i].Key || !s.kvs[i].Value.Equal(o.kvs[i].Value) {
			return false
		}
	}
	return true
}

// Hash returns a stable 64-bit hash consistent with Equal: equal sets
// always hash equal, though the converse need not hold. This follows the
// teacher's expiringregistry.hashLabels convention of separating fields
// with model.SeparatorByte before hashing, generalized from a sorted-map
// label hash to an order-sensitive sequence hash (attribute identity here
// is positional, not set-based, per spec.md's Attribute set definition).
func (s Set) Hash() uint64 {
	h := fnv.New64a()
	for _, kv := range s.kvs {
		_, _ = h.Write([]byte(kv.Key))
		h.Write([]byte{model.SeparatorByte})
		_, _ = h.Write([]byte(kv.Value.String()))
		h.Write([]byte{byte(kv.Value.Type())})
		h.Write([]byte{model.SeparatorByte})
	}
	return h.Sum64()
}

// String renders the set as "k1=v1,k2=v2" in caller order, for logging.
func (s Set) String() string {
	if len(s.kvs) == 0 {
		return ""
	}
	var b []byte
	for i, kv := range s.kvs {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, kv.Key...)
		b = append(b, '=')
		b = append(b, kv.Value.String()...)
	}
	return string(b)
}

// Builder constructs a Set one KeyValue at a time through Add, in the
// manner of a fluent options builder. For an alternating key/value
// argument list use FromAlternating, which panics on an odd-length list.
type Builder struct {
	kvs []KeyValue
}

// NewBuilder starts an empty builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Add(kv KeyValue) *Builder {
	b.kvs = append(b.kvs, kv)
	return b
}

// Set finalizes the builder into an owned, immutable Set.
func (b *Builder) Set() Set { return NewSet(b.kvs...) }

// FromAlternating builds a Set from alternating string keys and bool/
// string/int64/float64 values, e.g. FromAlternating("k1", "v1", "k2", int64(2)).
// An odd-length args list panics: it is a programming error, not a
// runtime condition callers should be expected to recover from.
func FromAlternating(args ...interface{}) Set {
	if len(args)%2 != 0 {
		panic("attribute.FromAlternating: odd number of arguments")
	}
	if len(args) == 0 {
		return Set{}
	}
	kvs := make([]KeyValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			panic(fmt.Sprintf("attribute.FromAlternating: argument %d must be a string key", i))
		}
		kvs = append(kvs, KeyValue{Key: key, Value: toValue(args[i+1])})
	}
	return NewSet(kvs...)
}

func toValue(v interface{}) Value {
	switch t := v.(type) {
	case bool:
		return BoolValue(t)
	case string:
		return StringValue(t)
	case int:
		return Int64Value(int64(t))
	case int32:
		return Int64Value(int64(t))
	case int64:
		return Int64Value(t)
	case float32:
		return Float64Value(float64(t))
	case float64:
		return Float64Value(t)
	default:
		panic(fmt.Sprintf("attribute.FromAlternating: unsupported value type %T", v))
	}
}
