package parser

import (
	"testing"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/builtin"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseSource(src, builtin.Default)
	require.NoError(t, err)
	return prog
}

func TestParseRename(t *testing.T) {
	prog := parse(t, `rename .n -> .num`)
	require.Len(t, prog.Statements, 1)
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtRename, stmt.Kind)
	require.Equal(t, ".n", stmt.From.String())
	require.Equal(t, ".num", stmt.To.String())
}

func TestParseSelectMultiple(t *testing.T) {
	prog := parse(t, `select .a, .b, .c`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtSelect, stmt.Kind)
	require.Len(t, stmt.Paths, 3)
}

func TestParseWhereThenSelectTwoStatements(t *testing.T) {
	prog := parse(t, "where .a > 1\nselect .b")
	require.Len(t, prog.Statements, 2)
	require.Equal(t, ast.StmtWhere, prog.Statements[0].Kind)
	require.Equal(t, ast.StmtSelect, prog.Statements[1].Kind)
}

func TestParseSemicolonSeparator(t *testing.T) {
	prog := parse(t, `rename .p -> .name ; cast .q as int`)
	require.Len(t, prog.Statements, 2)
}

func TestParseFlattenWithPrefixAndKeys(t *testing.T) {
	prog := parse(t, `flatten .addr -> prefix "loc" -> .city, .zip`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtFlatten, stmt.Kind)
	require.True(t, stmt.HasExplicitPrefix)
	require.Equal(t, "loc", stmt.Prefix)
	require.Len(t, stmt.Keys, 2)
}

func TestParseNest(t *testing.T) {
	prog := parse(t, `nest .addr_city, .addr_zip -> .addr`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtNest, stmt.Kind)
	require.Len(t, stmt.Keys, 2)
	require.Equal(t, ".addr", stmt.Target.String())
}

func TestParseCastValid(t *testing.T) {
	prog := parse(t, `cast .x as int`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtCast, stmt.Kind)
	require.Equal(t, ast.CastInt, stmt.CastTo)
}

func TestParseCastUnknownTargetSuggests(t *testing.T) {
	_, err := ParseSource(`cast .x as itn`, builtin.Default)
	require.Error(t, err)
	require.Contains(t, err.Error(), "int")
}

func TestParseSortWithDirections(t *testing.T) {
	prog := parse(t, `sort .a asc, .b desc`)
	stmt := prog.Statements[0]
	require.Len(t, stmt.SortKeys, 2)
	require.Equal(t, ast.SortAsc, stmt.SortKeys[0].Dir)
	require.Equal(t, ast.SortDesc, stmt.SortKeys[1].Dir)
}

func TestParseEachBlock(t *testing.T) {
	prog := parse(t, "each .items {\n  rename .p -> .name\n  cast .q as int\n}")
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtEach, stmt.Kind)
	require.Len(t, stmt.Body, 2)
}

func TestParseWhenBlock(t *testing.T) {
	prog := parse(t, "when .active {\n  set .status = \"on\"\n}")
	stmt := prog.Statements[0]
	require.Equal(t, ast.StmtWhen, stmt.Kind)
	require.Len(t, stmt.Body, 1)
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog := parse(t, `where .a + 1 * 2 == 3 and not .b or .c`)
	stmt := prog.Statements[0]
	// top-level should be an Or
	require.Equal(t, ast.ExprBinary, stmt.Cond.Kind)
	require.Equal(t, ast.OpOr, stmt.Cond.BinOp)
}

func TestParseFunctionCall(t *testing.T) {
	prog := parse(t, `set .full = join([.first, .last], " ")`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.ExprCall, stmt.Value.Kind)
	require.Equal(t, "join", stmt.Value.FuncName)
	require.Len(t, stmt.Value.Args, 2)
}

func TestParseUnknownFunctionSuggests(t *testing.T) {
	_, err := ParseSource(`set .x = lowr(.y)`, builtin.Default)
	require.Error(t, err)
	require.Contains(t, err.Error(), "lower")
}

func TestParseStringInterpolation(t *testing.T) {
	prog := parse(t, `set .full = "{.first} {.last}"`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.ExprInterp, stmt.Value.Kind)
	require.Len(t, stmt.Value.Segments, 3)
	require.Equal(t, ".first", stmt.Value.Segments[0].Path.String())
	require.True(t, stmt.Value.Segments[1].Literal)
	require.Equal(t, " ", stmt.Value.Segments[1].Text)
	require.Equal(t, ".last", stmt.Value.Segments[2].Path.String())
}

func TestParseWildcardAndIndexPaths(t *testing.T) {
	prog := parse(t, `select .xs[*], .ys[-1]`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.SegWildcard, stmt.Paths[0].Segments[1].Kind)
	require.Equal(t, ast.SegIndex, stmt.Paths[1].Segments[1].Kind)
	require.Equal(t, int64(-1), stmt.Paths[1].Segments[1].Index)
}

func TestParseQuotedFieldPath(t *testing.T) {
	prog := parse(t, `select .["weird key"]`)
	stmt := prog.Statements[0]
	require.Equal(t, ast.SegQuotedField, stmt.Paths[0].Segments[0].Kind)
	require.Equal(t, "weird key", stmt.Paths[0].Segments[0].Name)
}

func TestParseUnknownStatementKeywordSuggests(t *testing.T) {
	_, err := ParseSource(`selct .a`, builtin.Default)
	require.Error(t, err)
	require.Contains(t, err.Error(), "select")
}
