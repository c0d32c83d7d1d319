package eval

import (
	"sort"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/uv"
)

// execSort implements `sort` (§4.4): a stable sort of the current Array
// by the key expressions in order, ties falling through to the next
// key. Null sorts first on asc, last on desc. Cross-variant comparisons
// other than Int/Float are a SortError.
func (e *Evaluator) execSort(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	if scope.Kind != uv.KindArray {
		return scope, simpleError("TypeError", "sort requires an array scope, found %s", scope.TypeOf())
	}

	type keyedElem struct {
		elem uv.Value
		keys []uv.Value
	}
	items := make([]keyedElem, len(scope.Array))
	for i, el := range scope.Array {
		keys := make([]uv.Value, len(stmt.SortKeys))
		for j := range stmt.SortKeys {
			v, err := e.evalExpr(&stmt.SortKeys[j].Expr, el)
			if err != nil {
				return scope, err
			}
			keys[j] = v
		}
		items[i] = keyedElem{elem: el, keys: keys}
	}

	var sortErr error
	sort.SliceStable(items, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		for j, sk := range stmt.SortKeys {
			less, eq, err := compareForSort(items[a].keys[j], items[b].keys[j], sk.Dir)
			if err != nil {
				sortErr = err
				return false
			}
			if !eq {
				return less
			}
		}
		return false
	})
	if sortErr != nil {
		return scope, sortErr
	}

	out := make([]uv.Value, len(items))
	for i, it := range items {
		out[i] = it.elem
	}
	return uv.NewArray(out), nil
}

func compareForSort(a, b uv.Value, dir ast.SortDirection) (less, eq bool, err error) {
	if a.IsNull() && b.IsNull() {
		return false, true, nil
	}
	if a.IsNull() {
		return dir == ast.SortAsc, false, nil
	}
	if b.IsNull() {
		return dir != ast.SortAsc, false, nil
	}
	cmp, ok := uv.Compare(a, b)
	if !ok {
		return false, false, simpleError("SortError", "cannot compare %s and %s", a.TypeOf(), b.TypeOf())
	}
	if cmp == 0 {
		return false, true, nil
	}
	if dir == ast.SortAsc {
		return cmp < 0, false, nil
	}
	return cmp > 0, false, nil
}
