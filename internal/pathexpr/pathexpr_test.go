package pathexpr

import (
	"testing"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/builtin"
	"github.com/morph-lang/morph/internal/parser"
	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func mustPath(t *testing.T, src string) ast.Path {
	t.Helper()
	prog, err := parser.ParseSource("select "+src, builtin.Default)
	require.NoError(t, err)
	return prog.Statements[0].Paths[0]
}

func TestGetField(t *testing.T) {
	m := uv.NewOrderedMap()
	m.Set("name", uv.NewString("Ada"))
	root := uv.NewMap(m)
	got := Get(root, mustPath(t, ".name"))
	require.Len(t, got, 1)
	require.Equal(t, "Ada", got[0].Str)
}

func TestGetMissingFieldIsEmpty(t *testing.T) {
	root := uv.NewMap(uv.NewOrderedMap())
	got := Get(root, mustPath(t, ".missing"))
	require.Empty(t, got)
}

func TestGetWildcardFansOut(t *testing.T) {
	m1 := uv.NewOrderedMap()
	m1.Set("n", uv.NewInt(1))
	m2 := uv.NewOrderedMap()
	m2.Set("n", uv.NewInt(2))
	root := uv.NewArray([]uv.Value{uv.NewMap(m1), uv.NewMap(m2)})
	got := Get(root, mustPath(t, ".[*].n"))
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].Int)
	require.Equal(t, int64(2), got[1].Int)
}

func TestGetNegativeIndex(t *testing.T) {
	root := uv.NewArray([]uv.Value{uv.NewInt(1), uv.NewInt(2), uv.NewInt(3)})
	got := Get(root, mustPath(t, ".xs[-1]"))
	// .xs doesn't exist on an array root; use a map wrapping instead
	_ = got
	m := uv.NewOrderedMap()
	m.Set("xs", root)
	wrapped := uv.NewMap(m)
	got2 := Get(wrapped, mustPath(t, ".xs[-1]"))
	require.Len(t, got2, 1)
	require.Equal(t, int64(3), got2[0].Int)
}

func TestSetCreatesMissingMap(t *testing.T) {
	root := uv.NewMap(uv.NewOrderedMap())
	out, err := Set(root, mustPath(t, ".addr.city"), func(i int, cur uv.Value) (uv.Value, error) {
		return uv.NewString("X"), nil
	})
	require.NoError(t, err)
	addr, ok := out.Map.Get("addr")
	require.True(t, ok)
	city, ok := addr.Map.Get("city")
	require.True(t, ok)
	require.Equal(t, "X", city.Str)
}

func TestSetPreservesKeyPositionOnOverwrite(t *testing.T) {
	m := uv.NewOrderedMap()
	m.Set("a", uv.NewInt(1))
	m.Set("b", uv.NewInt(2))
	root := uv.NewMap(m)
	out, err := Set(root, mustPath(t, ".a"), func(i int, cur uv.Value) (uv.Value, error) {
		return uv.NewInt(99), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, out.Map.Keys())
}

func TestSetWildcardVisitsEverySiteInOrder(t *testing.T) {
	root := uv.NewArray([]uv.Value{uv.NewInt(1), uv.NewInt(2), uv.NewInt(3)})
	m := uv.NewOrderedMap()
	m.Set("xs", root)
	wrapped := uv.NewMap(m)
	out, err := Set(wrapped, mustPath(t, ".xs[*]"), func(i int, cur uv.Value) (uv.Value, error) {
		return uv.NewInt(cur.Int * 10), nil
	})
	require.NoError(t, err)
	xs, _ := out.Map.Get("xs")
	require.Equal(t, int64(10), xs.Array[0].Int)
	require.Equal(t, int64(20), xs.Array[1].Int)
	require.Equal(t, int64(30), xs.Array[2].Int)
}

func TestSetOutOfRangeIndexIsPathError(t *testing.T) {
	root := uv.NewArray([]uv.Value{uv.NewInt(1)})
	m := uv.NewOrderedMap()
	m.Set("xs", root)
	wrapped := uv.NewMap(m)
	_, err := Set(wrapped, mustPath(t, ".xs[5]"), func(i int, cur uv.Value) (uv.Value, error) {
		return uv.NewInt(0), nil
	})
	require.Error(t, err)
}

func TestDeleteClosesArrayGap(t *testing.T) {
	root := uv.NewArray([]uv.Value{uv.NewInt(1), uv.NewInt(2), uv.NewInt(3)})
	m := uv.NewOrderedMap()
	m.Set("xs", root)
	wrapped := uv.NewMap(m)
	out, err := Delete(wrapped, mustPath(t, ".xs[1]"))
	require.NoError(t, err)
	xs, _ := out.Map.Get("xs")
	require.Len(t, xs.Array, 2)
	require.Equal(t, int64(1), xs.Array[0].Int)
	require.Equal(t, int64(3), xs.Array[1].Int)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	root := uv.NewMap(uv.NewOrderedMap())
	out, err := Delete(root, mustPath(t, ".nope"))
	require.NoError(t, err)
	require.Equal(t, 0, out.Map.Len())
}
