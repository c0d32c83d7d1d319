// Package pathexpr implements the three path-engine primitives from
// §4.3: get, set, and delete over a uv.Value given a parsed ast.Path.
// A wildcard segment fans a single path out into zero or more target
// locations; Get enumerates them, Set writes each (optionally keyed by
// a 0-based site index so callers can zip per-site values), and Delete
// removes them, closing array gaps.
package pathexpr

import (
	"fmt"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/uv"
)

func pathError(format string, args ...interface{}) error {
	return &diag.Diagnostic{
		Severity: diag.SeverityError,
		Kind:     "PathError",
		Message:  fmt.Sprintf(format, args...),
	}
}

// normalizeIndex resolves a possibly-negative index against length n.
// Returns -1 if out of range after normalization.
func normalizeIndex(idx int64, n int) int {
	if idx < 0 {
		idx += int64(n)
	}
	if idx < 0 || idx >= int64(n) {
		return -1
	}
	return int(idx)
}

// Get returns every value matched by path, in document order. A missing
// field or out-of-range index simply contributes no result; that is not
// an error at this layer.
func Get(root uv.Value, path ast.Path) []uv.Value {
	return getAt(root, path.Segments)
}

func getAt(v uv.Value, segs []ast.PathSegment) []uv.Value {
	if len(segs) == 0 {
		return []uv.Value{v}
	}
	seg := segs[0]
	rest := segs[1:]
	switch seg.Kind {
	case ast.SegField, ast.SegQuotedField:
		if v.Kind != uv.KindMap {
			return nil
		}
		child, ok := v.Map.Get(seg.Name)
		if !ok {
			return nil
		}
		return getAt(child, rest)
	case ast.SegIndex:
		if v.Kind != uv.KindArray {
			return nil
		}
		idx := normalizeIndex(seg.Index, len(v.Array))
		if idx < 0 {
			return nil
		}
		return getAt(v.Array[idx], rest)
	case ast.SegWildcard:
		if v.Kind != uv.KindArray {
			return nil
		}
		var out []uv.Value
		for _, el := range v.Array {
			out = append(out, getAt(el, rest)...)
		}
		return out
	default:
		return getAt(v, rest)
	}
}

// Count returns the number of sites path would match against root,
// without materializing their values.
func Count(root uv.Value, path ast.Path) int {
	return len(Get(root, path))
}

// Site pairs a matched value with whether the leaf key that holds it
// actually exists in its parent (as opposed to being synthesized
// because the path doesn't resolve at all). `default` needs this
// distinction: a key present with an explicit Null is a different case
// from a key that is simply absent (§4.4, §7 warnings).
type Site struct {
	Value   uv.Value
	Existed bool
}

// GetSites is like Get but reports, per matched site, whether the leaf
// actually exists in the document rather than being a stand-in for a
// path that doesn't resolve.
func GetSites(root uv.Value, path ast.Path) []Site {
	return getSitesAt(root, path.Segments)
}

func getSitesAt(v uv.Value, segs []ast.PathSegment) []Site {
	if len(segs) == 0 {
		return []Site{{Value: v, Existed: true}}
	}
	seg := segs[0]
	rest := segs[1:]
	switch seg.Kind {
	case ast.SegField, ast.SegQuotedField:
		if v.Kind != uv.KindMap {
			return []Site{{Value: uv.Null, Existed: false}}
		}
		child, ok := v.Map.Get(seg.Name)
		if !ok {
			return []Site{{Value: uv.Null, Existed: false}}
		}
		return getSitesAt(child, rest)
	case ast.SegIndex:
		if v.Kind != uv.KindArray {
			return []Site{{Value: uv.Null, Existed: false}}
		}
		idx := normalizeIndex(seg.Index, len(v.Array))
		if idx < 0 {
			return []Site{{Value: uv.Null, Existed: false}}
		}
		return getSitesAt(v.Array[idx], rest)
	case ast.SegWildcard:
		if v.Kind != uv.KindArray {
			return []Site{{Value: uv.Null, Existed: false}}
		}
		var out []Site
		for _, el := range v.Array {
			out = append(out, getSitesAt(el, rest)...)
		}
		return out
	default:
		return getSitesAt(v, rest)
	}
}

// ValueAt computes the replacement value for the site at the given
// 0-based document-order index, given that site's current value.
type ValueAt func(index int, current uv.Value) (uv.Value, error)

// Set writes a value at every location path matches, creating missing
// intermediate Map segments (never Array elements) as empty Maps. It
// returns a new root; the input is not mutated.
func Set(root uv.Value, path ast.Path, fn ValueAt) (uv.Value, error) {
	idx := 0
	return setAt(root, path.Segments, fn, &idx)
}

func setAt(v uv.Value, segs []ast.PathSegment, fn ValueAt, idx *int) (uv.Value, error) {
	if len(segs) == 0 {
		nv, err := fn(*idx, v)
		*idx++
		return nv, err
	}
	seg := segs[0]
	rest := segs[1:]
	switch seg.Kind {
	case ast.SegField, ast.SegQuotedField:
		var m *uv.Map
		switch v.Kind {
		case uv.KindMap:
			m = v.Map.Clone()
		case uv.KindNull:
			m = uv.NewOrderedMap()
		default:
			return v, pathError("cannot set field %q on a %s value", seg.Name, v.TypeOf())
		}
		child, ok := m.Get(seg.Name)
		if !ok {
			child = uv.Null
		}
		newChild, err := setAt(child, rest, fn, idx)
		if err != nil {
			return v, err
		}
		m.Set(seg.Name, newChild)
		return uv.NewMap(m), nil
	case ast.SegIndex:
		if v.Kind != uv.KindArray {
			return v, pathError("cannot index a %s value", v.TypeOf())
		}
		i := normalizeIndex(seg.Index, len(v.Array))
		if i < 0 {
			return v, pathError("index %d out of range for array of length %d", seg.Index, len(v.Array))
		}
		arr := append([]uv.Value(nil), v.Array...)
		newChild, err := setAt(arr[i], rest, fn, idx)
		if err != nil {
			return v, err
		}
		arr[i] = newChild
		return uv.NewArray(arr), nil
	case ast.SegWildcard:
		if v.Kind != uv.KindArray {
			return v, pathError("cannot apply wildcard to a %s value", v.TypeOf())
		}
		arr := append([]uv.Value(nil), v.Array...)
		for i := range arr {
			newChild, err := setAt(arr[i], rest, fn, idx)
			if err != nil {
				return v, err
			}
			arr[i] = newChild
		}
		return uv.NewArray(arr), nil
	default:
		return setAt(v, rest, fn, idx)
	}
}

// Delete removes every location path matches. Array deletions close the
// gap; indices of surviving elements renumber. Out-of-range deletes are
// no-ops.
func Delete(root uv.Value, path ast.Path) (uv.Value, error) {
	return deleteAt(root, path.Segments)
}

func deleteAt(v uv.Value, segs []ast.PathSegment) (uv.Value, error) {
	if len(segs) == 0 {
		return uv.Null, nil
	}
	seg := segs[0]
	rest := segs[1:]
	last := len(segs) == 1

	switch seg.Kind {
	case ast.SegField, ast.SegQuotedField:
		if v.Kind != uv.KindMap {
			return v, nil
		}
		child, ok := v.Map.Get(seg.Name)
		if !ok {
			return v, nil
		}
		m := v.Map.Clone()
		if last {
			m.Delete(seg.Name)
			return uv.NewMap(m), nil
		}
		newChild, err := deleteAt(child, rest)
		if err != nil {
			return v, err
		}
		m.Set(seg.Name, newChild)
		return uv.NewMap(m), nil
	case ast.SegIndex:
		if v.Kind != uv.KindArray {
			return v, nil
		}
		i := normalizeIndex(seg.Index, len(v.Array))
		if i < 0 {
			return v, nil
		}
		if last {
			arr := make([]uv.Value, 0, len(v.Array)-1)
			arr = append(arr, v.Array[:i]...)
			arr = append(arr, v.Array[i+1:]...)
			return uv.NewArray(arr), nil
		}
		arr := append([]uv.Value(nil), v.Array...)
		newChild, err := deleteAt(arr[i], rest)
		if err != nil {
			return v, err
		}
		arr[i] = newChild
		return uv.NewArray(arr), nil
	case ast.SegWildcard:
		if v.Kind != uv.KindArray {
			return v, nil
		}
		if last {
			return uv.NewArray(nil), nil
		}
		arr := append([]uv.Value(nil), v.Array...)
		for i := range arr {
			newChild, err := deleteAt(arr[i], rest)
			if err != nil {
				return v, err
			}
			arr[i] = newChild
		}
		return uv.NewArray(arr), nil
	default:
		return deleteAt(v, rest)
	}
}
