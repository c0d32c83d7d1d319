package ast

import "github.com/morph-lang/morph/internal/lexer"

// StatementKind tags one variant of Statement.
type StatementKind int

const (
	StmtRename StatementKind = iota
	StmtSelect
	StmtDrop
	StmtFlatten
	StmtNest
	StmtSet
	StmtDefault
	StmtCast
	StmtWhere
	StmtSort
	StmtEach
	StmtWhen
)

func (k StatementKind) String() string {
	switch k {
	case StmtRename:
		return "rename"
	case StmtSelect:
		return "select"
	case StmtDrop:
		return "drop"
	case StmtFlatten:
		return "flatten"
	case StmtNest:
		return "nest"
	case StmtSet:
		return "set"
	case StmtDefault:
		return "default"
	case StmtCast:
		return "cast"
	case StmtWhere:
		return "where"
	case StmtSort:
		return "sort"
	case StmtEach:
		return "each"
	default:
		return "when"
	}
}

// Statement is one mapping-language directive. As with Expr, a single
// tagged struct carries every variant's fields; Kind selects which are
// populated.
type Statement struct {
	Kind StatementKind
	Span lexer.Span

	// StmtRename: From -> To
	From *Path
	To   *Path

	// StmtSelect, StmtDrop: Paths
	Paths []Path

	// StmtFlatten: Target, Prefix (optional), Keys (optional target list)
	Target            *Path
	Prefix            string
	HasExplicitPrefix bool
	Keys              []Path

	// StmtNest: Keys -> Target
	// (Keys/Target reused from above)

	// StmtSet, StmtDefault: Target = Value
	Value *Expr

	// StmtCast: Target as CastTo
	CastTo CastType

	// StmtWhere, StmtWhen: Cond
	Cond *Expr

	// StmtSort: SortKeys
	SortKeys []SortKey

	// StmtEach, StmtWhen: Body
	Body []Statement
}

// Program is an ordered sequence of statements (§3.3).
type Program struct {
	Statements []Statement
}

// CollectExprs returns every top-level expression a statement directly
// holds (not recursing into a nested each/when Body, which callers walk
// separately via Statements). Used by the streaming driver to detect
// calls to group_by that would force materialization.
func (s *Statement) CollectExprs() []*Expr {
	var out []*Expr
	if s.Value != nil {
		out = append(out, s.Value)
	}
	if s.Cond != nil {
		out = append(out, s.Cond)
	}
	for i := range s.SortKeys {
		out = append(out, &s.SortKeys[i].Expr)
	}
	return out
}
