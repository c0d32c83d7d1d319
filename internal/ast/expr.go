package ast

import "github.com/morph-lang/morph/internal/lexer"

// ExprKind tags one variant of Expr.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprPath
	ExprBinary
	ExprUnary
	ExprCall
	ExprInterp
	ExprArray
)

// LiteralKind tags the UV variant of an ExprLiteral.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

// InterpSegment is one piece of a string-interpolation expression: a
// literal run of text, or a path whose stringified value is substituted.
type InterpSegment struct {
	Literal bool
	Text    string
	Path    *Path
}

// Expr is one mapping-language expression node. Like Statement, this is
// a single tagged struct rather than an interface hierarchy: Kind
// selects which of the fields below are meaningful.
type Expr struct {
	Kind ExprKind
	Span lexer.Span

	// ExprLiteral
	LitKind LiteralKind
	Bool    bool
	Int     int64
	Float   float64
	Str     string

	// ExprPath
	Path *Path

	// ExprBinary
	BinOp BinOp
	Left  *Expr
	Right *Expr

	// ExprUnary
	UnaryOp UnaryOp
	Operand *Expr

	// ExprCall
	FuncName string
	Args     []Expr

	// ExprInterp
	Segments []InterpSegment

	// ExprArray
	Elements []Expr
}
