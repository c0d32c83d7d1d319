package eval

import (
	"testing"

	"github.com/morph-lang/morph/internal/builtin"
	"github.com/morph-lang/morph/internal/parser"
	"github.com/morph-lang/morph/internal/runtimeenv"
	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string, root uv.Value) uv.Value {
	t.Helper()
	prog, err := parser.ParseSource(src, builtin.Default)
	require.NoError(t, err)
	ev := New(runtimeenv.FixedClock{}, runtimeenv.MapEnv{}, nil)
	out, err := ev.Run(prog, root)
	require.NoError(t, err)
	return out
}

func mapOf(pairs ...interface{}) uv.Value {
	m := uv.NewOrderedMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(uv.Value))
	}
	return uv.NewMap(m)
}

func TestRenameMovesField(t *testing.T) {
	root := mapOf("n", uv.NewInt(3))
	out := run(t, `rename .n -> .num`, root)
	v, ok := out.Map.Get("num")
	require.True(t, ok)
	require.Equal(t, int64(3), v.Int)
	require.False(t, out.Map.Has("n"))
}

func TestSelectKeepsOnlyNamedPathsInOrder(t *testing.T) {
	root := mapOf("a", uv.NewInt(1), "b", uv.NewInt(2), "c", uv.NewInt(3))
	out := run(t, `select .c, .a`, root)
	require.Equal(t, []string{"c", "a"}, out.Map.Keys())
}

func TestDropRemovesFields(t *testing.T) {
	root := mapOf("a", uv.NewInt(1), "b", uv.NewInt(2))
	out := run(t, `drop .b`, root)
	require.False(t, out.Map.Has("b"))
	require.True(t, out.Map.Has("a"))
}

func TestWhereFalseShortCircuitsToNull(t *testing.T) {
	root := mapOf("a", uv.NewInt(1))
	out := run(t, `where .a > 5
select .a`, root)
	require.True(t, out.IsNull())
}

func TestCastStringToInt(t *testing.T) {
	root := mapOf("n", uv.NewString("42"))
	out := run(t, `cast .n as int`, root)
	v, _ := out.Map.Get("n")
	require.Equal(t, uv.KindInt, v.Kind)
	require.Equal(t, int64(42), v.Int)
}

func TestDefaultFillsNullOnly(t *testing.T) {
	root := mapOf("a", uv.Null, "b", uv.NewInt(1))
	out := run(t, `default .a = 9
default .b = 9`, root)
	a, _ := out.Map.Get("a")
	b, _ := out.Map.Get("b")
	require.Equal(t, int64(9), a.Int)
	require.Equal(t, int64(1), b.Int)
}

func TestDefaultMergesMapIntoExistingMap(t *testing.T) {
	existing := mapOf("city", uv.NewString("nyc"))
	fallback := mapOf("city", uv.NewString("sf"), "zip", uv.NewString("00000"))
	root := mapOf("addr", existing, "backup", fallback)
	out := run(t, `default .addr = .backup`, root)
	addr, _ := out.Map.Get("addr")
	require.Equal(t, uv.KindMap, addr.Kind)
	city, _ := addr.Map.Get("city")
	zip, _ := addr.Map.Get("zip")
	require.Equal(t, "nyc", city.Str, "existing value must win over the default")
	require.Equal(t, "00000", zip.Str, "missing key must be filled from the default")
}

func TestNestGathersFieldsIntoSubMap(t *testing.T) {
	root := mapOf("addr_city", uv.NewString("nyc"), "addr_zip", uv.NewString("10001"), "name", uv.NewString("a"))
	out := run(t, `nest .addr_city, .addr_zip -> .addr`, root)
	require.False(t, out.Map.Has("addr_city"))
	addr, ok := out.Map.Get("addr")
	require.True(t, ok)
	require.Equal(t, []string{"city", "zip"}, addr.Map.Keys())
	city, _ := addr.Map.Get("city")
	require.Equal(t, "nyc", city.Str)
}

func TestNestMergesIntoExistingTargetMap(t *testing.T) {
	existing := mapOf("country", uv.NewString("us"))
	root := mapOf("addr", existing, "addr_city", uv.NewString("nyc"))
	out := run(t, `nest .addr_city -> .addr`, root)
	addr, _ := out.Map.Get("addr")
	country, ok := addr.Map.Get("country")
	require.True(t, ok, "merge must preserve keys already at the nest target")
	require.Equal(t, "us", country.Str)
	city, ok := addr.Map.Get("city")
	require.True(t, ok)
	require.Equal(t, "nyc", city.Str)
}

func TestFlattenPromotesSubMapWithPrefix(t *testing.T) {
	addr := mapOf("city", uv.NewString("nyc"), "zip", uv.NewString("10001"))
	root := mapOf("addr", addr)
	out := run(t, `flatten .addr`, root)
	city, ok := out.Map.Get("addr_city")
	require.True(t, ok)
	require.Equal(t, "nyc", city.Str)
}

func TestEachAppliesBodyToEveryElement(t *testing.T) {
	root := uv.NewArray([]uv.Value{
		mapOf("n", uv.NewInt(1)),
		mapOf("n", uv.NewInt(2)),
	})
	out := run(t, `each . { set .n = .n + 10 }`, root)
	require.Len(t, out.Array, 2)
	n0, _ := out.Array[0].Map.Get("n")
	n1, _ := out.Array[1].Map.Get("n")
	require.Equal(t, int64(11), n0.Int)
	require.Equal(t, int64(12), n1.Int)
}

func TestSortByKeyAscending(t *testing.T) {
	root := uv.NewArray([]uv.Value{
		mapOf("n", uv.NewInt(3)),
		mapOf("n", uv.NewInt(1)),
		mapOf("n", uv.NewInt(2)),
	})
	out := run(t, `sort .n`, root)
	require.Len(t, out.Array, 3)
	n0, _ := out.Array[0].Map.Get("n")
	n1, _ := out.Array[1].Map.Get("n")
	n2, _ := out.Array[2].Map.Get("n")
	require.Equal(t, int64(1), n0.Int)
	require.Equal(t, int64(2), n1.Int)
	require.Equal(t, int64(3), n2.Int)
}
