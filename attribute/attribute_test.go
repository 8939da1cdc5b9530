package attribute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otelmetric/sdk/attribute"
)

func TestSetEqualityIsPositionalNotSorted(t *testing.T) {
	a := attribute.NewSet(attribute.String("a", "1"), attribute.String("b", "2"))
	b := attribute.NewSet(attribute.String("b", "2"), attribute.String("a", "1"))
	c := attribute.NewSet(attribute.String("a", "1"), attribute.String("b", "2"))

	assert.True(t, a.Equal(c))
	assert.False(t, a.Equal(b), "reordered pairs must not compare equal")
}

func TestSetHashConsistentWithEqual(t *testing.T) {
	a := attribute.NewSet(attribute.String("k", "v"), attribute.Int64("n", 1))
	b := attribute.NewSet(attribute.String("k", "v"), attribute.Int64("n", 1))
	assert.Equal(t, a.Hash(), b.Hash())

	c := attribute.NewSet(attribute.String("k", "v"), attribute.Int64("n", 2))
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestSetHashDistinguishesValueType(t *testing.T) {
	a := attribute.NewSet(attribute.String("v", "1"))
	b := attribute.NewSet(attribute.Int64("v", 1))
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestEmptySetIsDistinctButEqualToItself(t *testing.T) {
	a := attribute.NewSet()
	var z attribute.Set
	assert.True(t, a.Equal(z))
	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Equal(attribute.NewSet(attribute.String("k", "v"))))
}

func TestFromAlternatingBuildsOrderedSet(t *testing.T) {
	s := attribute.FromAlternating("route", "/list", "n", int64(3), "f", 0.5, "b", true)
	kvs := s.Iter()
	assert.Len(t, kvs, 4)
	assert.Equal(t, "route", kvs[0].Key)
	assert.Equal(t, "/list", kvs[0].Value.AsString())
	assert.Equal(t, int64(3), kvs[1].Value.AsInt64())
	assert.Equal(t, 0.5, kvs[2].Value.AsFloat64())
	assert.True(t, kvs[3].Value.AsBool())
}

func TestFromAlternatingPanicsOnOddArgs(t *testing.T) {
	assert.Panics(t, func() { attribute.FromAlternating("k") })
}

func TestFromAlternatingPanicsOnNonStringKey(t *testing.T) {
	assert.Panics(t, func() { attribute.FromAlternating(1, "v") })
}

func TestFromAlternatingPanicsOnUnsupportedValue(t *testing.T) {
	assert.Panics(t, func() { attribute.FromAlternating("k", struct{}{}) })
}

func TestSetStringRendersCallerOrder(t *testing.T) {
	s := attribute.NewSet(attribute.String("b", "2"), attribute.String("a", "1"))
	assert.Equal(t, "b=2,a=1", s.String())
	assert.Equal(t, "", attribute.NewSet().String())
}

func TestBuilderAccumulatesInAddOrder(t *testing.T) {
	s := attribute.NewBuilder().Add(attribute.String("k1", "v1")).Add(attribute.Bool("k2", true)).Set()
	assert.Equal(t, "k1=v1,k2=true", s.String())
}
