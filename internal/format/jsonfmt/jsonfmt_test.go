package jsonfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesIntFloatDistinctness(t *testing.T) {
	v, err := Parse(strings.NewReader(`{"a": 1, "b": 1.5}`))
	require.NoError(t, err)
	a, _ := v.Map.Get("a")
	b, _ := v.Map.Get("b")
	require.Equal(t, uv.KindInt, a.Kind)
	require.Equal(t, uv.KindFloat, b.Kind)
}

func TestParsePreservesKeyOrder(t *testing.T) {
	v, err := Parse(strings.NewReader(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)
	require.Equal(t, []string{"z", "a", "m"}, v.Map.Keys())
}

func TestParseArrayAndNested(t *testing.T) {
	v, err := Parse(strings.NewReader(`{"xs": [1, 2, {"n": null}]}`))
	require.NoError(t, err)
	xs, _ := v.Map.Get("xs")
	require.Len(t, xs.Array, 3)
	require.True(t, xs.Array[2].Map.Has("n"))
	n, _ := xs.Array[2].Map.Get("n")
	require.True(t, n.IsNull())
}

func TestParseInvalidJSONReturnsReadError(t *testing.T) {
	_, err := Parse(strings.NewReader(`{not json`))
	require.Error(t, err)
}

func TestSerializeRoundTripsIntAndFloat(t *testing.T) {
	m := uv.NewOrderedMap()
	m.Set("a", uv.NewInt(1))
	m.Set("b", uv.NewFloat(1.5))
	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, uv.NewMap(m)))
	out, err := Parse(&buf)
	require.NoError(t, err)
	a, _ := out.Map.Get("a")
	b, _ := out.Map.Get("b")
	require.Equal(t, uv.KindInt, a.Kind)
	require.Equal(t, uv.KindFloat, b.Kind)
}

func TestSerializePreservesKeyOrder(t *testing.T) {
	m := uv.NewOrderedMap()
	m.Set("z", uv.NewInt(1))
	m.Set("a", uv.NewInt(2))
	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, uv.NewMap(m)))
	require.True(t, strings.Index(buf.String(), "z") < strings.Index(buf.String(), "a"))
}
