package lexer

import "fmt"

// Span is a 1-based line/column position plus a byte length, spanning
// from the first byte of a token to one past its last. Every AST node in
// internal/ast carries a Span so diagnostics can point at it.
type Span struct {
	Line   int
	Column int
	Length int
}

// Kind tags a Token.
type Kind int

const (
	EOF Kind = iota
	Newline

	// Keywords
	KwRename
	KwSelect
	KwDrop
	KwSet
	KwDefault
	KwCast
	KwAs
	KwWhere
	KwSort
	KwEach
	KwWhen
	KwNot
	KwAnd
	KwOr
	KwFlatten
	KwNest
	KwAsc
	KwDesc
	KwPrefix
	KwTrue
	KwFalse
	KwNull

	// Operators
	Arrow   // ->
	Eq      // =
	EqEq    // ==
	NotEq   // !=
	Gt      // >
	GtEq    // >=
	Lt      // <
	LtEq    // <=
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %
	Semi    // ;

	// Delimiters
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Dot

	// Literals
	Ident
	IntLit
	FloatLit
	StringLit
	InterpString
)

var keywords = map[string]Kind{
	"rename":  KwRename,
	"select":  KwSelect,
	"drop":    KwDrop,
	"set":     KwSet,
	"default": KwDefault,
	"cast":    KwCast,
	"as":      KwAs,
	"where":   KwWhere,
	"sort":    KwSort,
	"each":    KwEach,
	"when":    KwWhen,
	"not":     KwNot,
	"and":     KwAnd,
	"or":      KwOr,
	"flatten": KwFlatten,
	"nest":    KwNest,
	"asc":     KwAsc,
	"desc":    KwDesc,
	"prefix":  KwPrefix,
	"true":    KwTrue,
	"false":   KwFalse,
	"null":    KwNull,
}

// Keywords returns every reserved word, used to seed Levenshtein
// suggestions alongside function names.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	return out
}

// InterpPart is one piece of an interpolated string literal: either a
// literal run of text or a `{<path>}` substitution whose contents are the
// raw path source, parsed later by the parser.
type InterpPart struct {
	Literal bool
	Text    string // literal run, when Literal
	Path    string // path source between { and }, when !Literal
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind    Kind
	Span    Span
	Text    string // raw text for Ident; decoded value for StringLit
	Int     int64
	Float   float64
	Interp  []InterpPart // populated when Kind == InterpString
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q)@%d:%d", t.Kind, t.Text, t.Span.Line, t.Span.Column)
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Newline:
		return "newline"
	case Ident:
		return "identifier"
	case IntLit:
		return "int literal"
	case FloatLit:
		return "float literal"
	case StringLit, InterpString:
		return "string literal"
	case Arrow:
		return "'->'"
	case Eq:
		return "'='"
	case EqEq:
		return "'=='"
	case NotEq:
		return "'!='"
	case Gt:
		return "'>'"
	case GtEq:
		return "'>='"
	case Lt:
		return "'<'"
	case LtEq:
		return "'<='"
	case Plus:
		return "'+'"
	case Minus:
		return "'-'"
	case Star:
		return "'*'"
	case Slash:
		return "'/'"
	case Percent:
		return "'%'"
	case Semi:
		return "';'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Comma:
		return "','"
	case Dot:
		return "'.'"
	default:
		for text, kw := range keywords {
			if kw == k {
				return "'" + text + "'"
			}
		}
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
