package sexpfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func TestParseListOfScalars(t *testing.T) {
	v, err := Parse(strings.NewReader(`(1 2.5 "hi")`))
	require.NoError(t, err)
	require.Len(t, v.Array, 3)
	require.Equal(t, uv.KindInt, v.Array[0].Kind)
	require.Equal(t, uv.KindFloat, v.Array[1].Kind)
	require.Equal(t, "hi", v.Array[2].Str)
}

func TestParseBracketVector(t *testing.T) {
	v, err := Parse(strings.NewReader(`[1 2 3]`))
	require.NoError(t, err)
	require.Equal(t, uv.KindArray, v.Kind)
	require.Len(t, v.Array, 3)
}

func TestParseBraceMapLiteral(t *testing.T) {
	v, err := Parse(strings.NewReader(`{name "ann" age 30}`))
	require.NoError(t, err)
	require.Equal(t, uv.KindMap, v.Kind)
	name, ok := v.Map.Get("name")
	require.True(t, ok)
	require.Equal(t, "ann", name.Str)
}

func TestSerializeRoundTripsList(t *testing.T) {
	arr := uv.NewArray([]uv.Value{uv.NewInt(1), uv.NewString("a")})
	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, arr))
	out, err := Parse(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Array[0].Int)
	require.Equal(t, "a", out.Array[1].Str)
}
