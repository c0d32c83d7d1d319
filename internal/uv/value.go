// Package uv implements the Universal Value: the format-agnostic,
// tagged-union data model every reader normalizes into and every writer
// serializes from.
package uv

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant a Value holds. The zero Kind is Null so a
// zero-value Value is always valid.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the single tagged-union type for every datum that flows through
// morph. Only the fields matching Kind are meaningful; the rest are zero.
// This mirrors the teacher's edn.Node: one struct, several typed fields,
// switched on a tag instead of a type hierarchy.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Array []Value
	Map   *Map
}

// Null is the absence-of-a-value singleton.
var Null = Value{Kind: KindNull}

func NewBool(b bool) Value  { return Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) Value  { return Value{Kind: KindInt, Int: i} }
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }
func NewBytes(b []byte) Value  { return Value{Kind: KindBytes, Bytes: b} }
func NewArray(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }
func NewMap(m *Map) Value       { return Value{Kind: KindMap, Map: m} }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy implements the language-wide falsy set: false, null, 0, 0.0, "",
// empty Array, empty Map. Everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindBytes:
		return len(v.Bytes) != 0
	case KindArray:
		return len(v.Array) != 0
	case KindMap:
		return v.Map.Len() != 0
	default:
		return true
	}
}

// Equal implements structural, variant-strict equality: Int(1) and
// Float(1.0) are never equal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.Map.Len() != b.Map.Len() {
			return false
		}
		for _, k := range a.Map.Keys() {
			bv, ok := b.Map.Get(k)
			if !ok {
				return false
			}
			av, _ := a.Map.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders a and b for sort/comparison operators. Int and Float
// promote to float64 when mixed; strings compare by Unicode scalar
// sequence. Any other cross-variant comparison is reported via ok=false.
func Compare(a, b Value) (cmp int, ok bool) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return cmpInt64(a.Int, b.Int), true
	case isNumeric(a.Kind) && isNumeric(b.Kind):
		return cmpFloat64(asFloat(a), asFloat(b)), true
	case a.Kind == KindString && b.Kind == KindString:
		return strings.Compare(a.Str, b.Str), true
	default:
		return 0, false
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

func asFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TypeOf returns the function-library name of v's variant, as documented
// for the type_of builtin.
func (v Value) TypeOf() string { return v.Kind.String() }

// String renders v the way the diagnostics layer expects: a minimal,
// human-facing form, not a serialization format.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindString:
		return v.Str
	case KindBytes:
		var b strings.Builder
		b.WriteString("b\"")
		for _, by := range v.Bytes {
			fmt.Fprintf(&b, "\\x%02x", by)
		}
		b.WriteByte('"')
		return b.String()
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.debugString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.Map.Len())
		for _, k := range v.Map.Keys() {
			val, _ := v.Map.Get(k)
			parts = append(parts, fmt.Sprintf("%q: %s", k, val.debugString()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// debugString is String but quotes nested strings, matching the original
// implementation's Display impl for Value (string elements inside arrays
// and maps are quoted; the top-level String variant is not, per String()).
func (v Value) debugString() string {
	if v.Kind == KindString {
		return fmt.Sprintf("%q", v.Str)
	}
	return v.String()
}

// formatFloat renders a float with a minimal round-trip decimal
// representation, always keeping a trailing ".0" for integral values so
// Float never prints indistinguishably from Int.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Merge deep-merges other into a copy of v: when both are Maps, keys from
// other are merged key-by-key (recursing when both sides hold a Map for
// the same key); any other combination has other simply overwrite v.
func Merge(v, other Value) Value {
	if v.Kind == KindMap && other.Kind == KindMap {
		result := v.Map.Clone()
		for _, k := range other.Map.Keys() {
			ov, _ := other.Map.Get(k)
			if existing, ok := result.Get(k); ok && existing.Kind == KindMap && ov.Kind == KindMap {
				result.Set(k, Merge(existing, ov))
				continue
			}
			result.Set(k, ov)
		}
		return NewMap(result)
	}
	return other
}

// SortValues stably sorts vs ascending by Compare; the sort statement does
// not use it and has its own multi-key comparator in the evaluator.
func SortValues(vs []Value) {
	sort.SliceStable(vs, func(i, j int) bool {
		c, ok := Compare(vs[i], vs[j])
		return ok && c < 0
	})
}
