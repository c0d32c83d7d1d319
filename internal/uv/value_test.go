package uv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualityIntVsFloat(t *testing.T) {
	assert.True(t, Equal(NewInt(42), NewInt(42)))
	assert.False(t, Equal(NewInt(42), NewInt(43)))
	assert.False(t, Equal(NewInt(42), NewFloat(42.0)), "Int and Float never collapse under equality")
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{
		NewBool(false), Null, NewInt(0), NewFloat(0), NewString(""),
		NewArray(nil), NewMap(NewOrderedMap()),
	}
	for _, v := range falsy {
		assert.False(t, v.Truthy(), "%s as %s should be falsy", v.String(), v.Kind)
	}

	truthy := []Value{
		NewBool(true), NewInt(1), NewFloat(0.1), NewString("x"),
		NewArray([]Value{NewInt(1)}),
	}
	for _, v := range truthy {
		assert.True(t, v.Truthy())
	}
}

func TestCompareMixedNumeric(t *testing.T) {
	c, ok := Compare(NewInt(1), NewFloat(2.0))
	require.True(t, ok)
	assert.Equal(t, -1, c)
}

func TestCompareCrossVariantFails(t *testing.T) {
	_, ok := Compare(NewInt(1), NewString("a"))
	assert.False(t, ok)
}

func TestMapInsertionOrderPreservedOnOverwrite(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", NewInt(1))
	m.Set("a", NewInt(2))
	m.Set("z", NewInt(99))
	assert.Equal(t, []string{"z", "a"}, m.Keys())
	v, ok := m.Get("z")
	require.True(t, ok)
	assert.Equal(t, NewInt(99), v)
}

func TestMapDeleteClosesGap(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", NewInt(1))
	m.Set("b", NewInt(2))
	m.Set("c", NewInt(3))
	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
}

func TestDisplayFloatKeepsDecimalPoint(t *testing.T) {
	assert.Equal(t, "1.0", NewFloat(1.0).String())
	assert.Equal(t, "2.72", NewFloat(2.72).String())
}

func TestDisplayArrayAndMap(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", NewInt(1))
	v := NewMap(m)
	assert.Equal(t, `{"a": 1}`, v.String())

	arr := NewArray([]Value{NewInt(1), NewBool(true)})
	assert.Equal(t, "[1, true]", arr.String())
}

func TestMergeShallowMaps(t *testing.T) {
	m1 := NewOrderedMap()
	m1.Set("a", NewInt(1))
	m1.Set("b", NewInt(2))
	m2 := NewOrderedMap()
	m2.Set("b", NewInt(20))
	m2.Set("c", NewInt(3))

	merged := Merge(NewMap(m1), NewMap(m2))
	require.Equal(t, KindMap, merged.Kind)
	a, _ := merged.Map.Get("a")
	b, _ := merged.Map.Get("b")
	c, _ := merged.Map.Get("c")
	assert.Equal(t, NewInt(1), a)
	assert.Equal(t, NewInt(20), b)
	assert.Equal(t, NewInt(3), c)
}

func TestMergeDeepNested(t *testing.T) {
	inner1 := NewOrderedMap()
	inner1.Set("a", NewInt(1))
	inner1.Set("b", NewInt(2))
	m1 := NewOrderedMap()
	m1.Set("nested", NewMap(inner1))

	inner2 := NewOrderedMap()
	inner2.Set("b", NewInt(20))
	inner2.Set("c", NewInt(3))
	m2 := NewOrderedMap()
	m2.Set("nested", NewMap(inner2))

	merged := Merge(NewMap(m1), NewMap(m2))
	nested, _ := merged.Map.Get("nested")
	require.Equal(t, KindMap, nested.Kind)
	a, _ := nested.Map.Get("a")
	b, _ := nested.Map.Get("b")
	c, _ := nested.Map.Get("c")
	assert.Equal(t, NewInt(1), a)
	assert.Equal(t, NewInt(20), b)
	assert.Equal(t, NewInt(3), c)
}

func TestMergeNonMapsOverwrite(t *testing.T) {
	merged := Merge(NewInt(1), NewInt(2))
	assert.Equal(t, NewInt(2), merged)
}

func TestCastIntTruncationWarns(t *testing.T) {
	v, warn, err := Cast(NewFloat(3.7), KindInt)
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, NewInt(3), v)
}

func TestCastStringRoundTrip(t *testing.T) {
	s, _, err := Cast(NewInt(42), KindString)
	require.NoError(t, err)
	assert.Equal(t, NewString("42"), s)

	back, _, err := Cast(s, KindInt)
	require.NoError(t, err)
	assert.Equal(t, NewInt(42), back)
}

func TestCastStringToIntInvalid(t *testing.T) {
	_, _, err := Cast(NewString("abc"), KindInt)
	require.Error(t, err)
}

func TestCastBoolFromString(t *testing.T) {
	v, _, err := Cast(NewString("TRUE"), KindBool)
	require.NoError(t, err)
	assert.Equal(t, NewBool(true), v)

	_, _, err = Cast(NewString("maybe"), KindBool)
	require.Error(t, err)
}
