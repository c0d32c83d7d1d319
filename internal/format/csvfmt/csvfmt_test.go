package csvfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func TestParseUsesHeaderRowAsKeys(t *testing.T) {
	v, err := Parse(Options{Comma: ','})(strings.NewReader("name,age\nann,30\nbob,40\n"))
	require.NoError(t, err)
	require.Len(t, v.Array, 2)
	name, _ := v.Array[0].Map.Get("name")
	age, _ := v.Array[1].Map.Get("age")
	require.Equal(t, "ann", name.Str)
	require.Equal(t, "40", age.Str)
}

func TestParseShortRowFillsEmptyString(t *testing.T) {
	v, err := Parse(Options{Comma: ','})(strings.NewReader("a,b\n1\n"))
	require.NoError(t, err)
	b, _ := v.Array[0].Map.Get("b")
	require.Equal(t, "", b.Str)
}

func TestSerializeUnionsKeysInFirstSeenOrder(t *testing.T) {
	r1 := uv.NewOrderedMap()
	r1.Set("a", uv.NewString("1"))
	r2 := uv.NewOrderedMap()
	r2.Set("a", uv.NewString("2"))
	r2.Set("b", uv.NewString("3"))
	arr := uv.NewArray([]uv.Value{uv.NewMap(r1), uv.NewMap(r2)})

	var buf bytes.Buffer
	require.NoError(t, Serialize(Options{Comma: ','})(&buf, arr))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, "a,b", lines[0])
	require.Equal(t, "1,", lines[1])
	require.Equal(t, "2,3", lines[2])
}

func TestTSVUsesTabDelimiter(t *testing.T) {
	v, err := Parse(Options{Comma: '\t'})(strings.NewReader("a\tb\n1\t2\n"))
	require.NoError(t, err)
	b, _ := v.Array[0].Map.Get("b")
	require.Equal(t, "2", b.Str)
}

func TestSerializeRejectsNonArray(t *testing.T) {
	var buf bytes.Buffer
	err := Serialize(Options{Comma: ','})(&buf, uv.NewInt(1))
	require.Error(t, err)
}
