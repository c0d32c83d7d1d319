// Package ast defines the mapping-language syntax tree: tagged variants
// for path segments, expressions, and statements, per §3.3. A single
// struct per variant group (rather than an interface hierarchy) mirrors
// how the teacher represents EDN nodes — one shape, a kind tag, and the
// fields relevant to that kind populated.
package ast

import "github.com/morph-lang/morph/internal/lexer"

// PathSegmentKind tags one segment of a Path (§3.2).
type PathSegmentKind int

const (
	SegRoot PathSegmentKind = iota
	SegField
	SegQuotedField
	SegIndex
	SegWildcard
)

// PathSegment is one step of a Path: a field name, a quoted field name,
// an array index (possibly negative), or a wildcard.
type PathSegment struct {
	Kind  PathSegmentKind
	Name  string // SegField, SegQuotedField
	Index int64  // SegIndex
	Span  lexer.Span
}

// Path is a non-empty sequence of segments addressing locations in a UV.
type Path struct {
	Segments []PathSegment
	Span     lexer.Span
}

// String renders the path in its surface syntax, used in diagnostics and
// as select's output key for a path that does not end in a field name.
func (p Path) String() string {
	var b []byte
	for _, seg := range p.Segments {
		switch seg.Kind {
		case SegRoot:
			b = append(b, '.')
		case SegField:
			b = append(b, '.')
			b = append(b, seg.Name...)
		case SegQuotedField:
			b = append(b, ".[\""...)
			b = append(b, seg.Name...)
			b = append(b, "\"]"...)
		case SegIndex:
			b = append(b, '[')
			b = appendInt(b, seg.Index)
			b = append(b, ']')
		case SegWildcard:
			b = append(b, "[*]"...)
		}
	}
	if len(b) == 0 {
		return "."
	}
	return string(b)
}

func appendInt(b []byte, n int64) []byte {
	if n < 0 {
		b = append(b, '-')
		n = -n
	}
	if n == 0 {
		return append(b, '0')
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return append(b, digits[i:]...)
}

// LastFieldName returns the name of the final Field/QuotedField segment,
// used to name output keys in select, flatten and nest.
func (p Path) LastFieldName() (string, bool) {
	if len(p.Segments) == 0 {
		return "", false
	}
	last := p.Segments[len(p.Segments)-1]
	if last.Kind == SegField || last.Kind == SegQuotedField {
		return last.Name, true
	}
	return "", false
}

// CastType names a cast's target variant.
type CastType int

const (
	CastInt CastType = iota
	CastFloat
	CastBool
	CastString
)

func (c CastType) String() string {
	switch c {
	case CastInt:
		return "int"
	case CastFloat:
		return "float"
	case CastBool:
		return "bool"
	default:
		return "string"
	}
}

// BinOp tags a binary operator.
type BinOp int

const (
	OpOr BinOp = iota
	OpAnd
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

// UnaryOp tags a unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

// SortDirection tags one sort key's direction.
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// SortKey is one `<path> [asc|desc]` entry in a sort statement.
type SortKey struct {
	Expr Expr
	Dir  SortDirection
}
