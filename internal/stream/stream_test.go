package stream

import (
	"testing"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/builtin"
	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/eval"
	"github.com/morph-lang/morph/internal/parser"
	"github.com/morph-lang/morph/internal/runtimeenv"
	"github.com/morph-lang/morph/internal/uv"
	"github.com/stretchr/testify/require"
)

func parseProg(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource(src, builtin.Default)
	require.NoError(t, err)
	return prog
}

func TestRequiresMaterializationTrueForSort(t *testing.T) {
	require.True(t, RequiresMaterialization(parseProg(t, `sort .n`)))
}

func TestRequiresMaterializationTrueForRootEach(t *testing.T) {
	require.True(t, RequiresMaterialization(parseProg(t, `each . { set .n = .n + 1 }`)))
}

func TestRequiresMaterializationFalseForFieldEach(t *testing.T) {
	require.False(t, RequiresMaterialization(parseProg(t, `each .items { set .n = .n + 1 }`)))
}

func TestRequiresMaterializationFalseForSimpleSelect(t *testing.T) {
	require.False(t, RequiresMaterialization(parseProg(t, `select .a, .b`)))
}

func TestRequiresMaterializationTrueForNestedGroupBy(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{
			Kind:   ast.StmtEach,
			Target: &ast.Path{Segments: []ast.PathSegment{{Kind: ast.SegField, Name: "items"}}},
			Body: []ast.Statement{
				{
					Kind: ast.StmtSet,
					Target: &ast.Path{Segments: []ast.PathSegment{{Kind: ast.SegField, Name: "g"}}},
					Value: &ast.Expr{
						Kind:     ast.ExprCall,
						FuncName: "group_by",
						Args:     []ast.Expr{{Kind: ast.ExprPath, Path: &ast.Path{}}},
					},
				},
			},
		},
	}}
	require.True(t, RequiresMaterialization(prog))
}

func mapOf(pairs ...interface{}) uv.Value {
	m := uv.NewOrderedMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(uv.Value))
	}
	return uv.NewMap(m)
}

type collectWriter struct {
	records []uv.Value
	all     uv.Value
	sawAll  bool
}

func (c *collectWriter) WriteRecord(v uv.Value) error {
	c.records = append(c.records, v)
	return nil
}
func (c *collectWriter) WriteAll(v uv.Value) error {
	c.all = v
	c.sawAll = true
	return nil
}

func newEvaluator() *eval.Evaluator {
	return eval.New(runtimeenv.FixedClock{}, runtimeenv.MapEnv{}, nil)
}

func TestDriveStreamingWritesRecordsIndividually(t *testing.T) {
	prog := parseProg(t, `set .n = .n + 1`)
	src := NewSliceSource([]uv.Value{mapOf("n", uv.NewInt(1)), mapOf("n", uv.NewInt(2))})
	w := &collectWriter{}
	res, err := Drive(newEvaluator(), prog, src, w, false, false, nil)
	require.NoError(t, err)
	require.False(t, res.Materialized)
	require.Equal(t, 2, res.RecordCount)
	require.Len(t, w.records, 2)
	require.False(t, w.sawAll)
}

func TestDriveMaterializedWritesWholeArrayOnce(t *testing.T) {
	prog := parseProg(t, `sort .n`)
	src := NewSliceSource([]uv.Value{mapOf("n", uv.NewInt(2)), mapOf("n", uv.NewInt(1))})
	w := &collectWriter{}
	res, err := Drive(newEvaluator(), prog, src, w, true, false, nil)
	require.NoError(t, err)
	require.True(t, res.Materialized)
	require.Equal(t, 2, res.RecordCount)
	require.True(t, w.sawAll)
	require.Len(t, w.all.Array, 2)
}

func TestDriveStreamingSkipErrorsDowngradesRecoverableFailures(t *testing.T) {
	prog := parseProg(t, `cast .n as int`)
	src := NewSliceSource([]uv.Value{mapOf("n", uv.NewString("not-a-number")), mapOf("n", uv.NewString("5"))})
	w := &collectWriter{}
	var skipped []int
	res, err := Drive(newEvaluator(), prog, src, w, false, true, func(idx int, _ error) {
		skipped = append(skipped, idx)
	})
	require.NoError(t, err)
	require.Equal(t, []int{0}, skipped)
	require.Equal(t, 1, res.RecordCount)
	require.Len(t, w.records, 1)
}

func TestDriveStreamingStopsOnFailureWithoutSkipErrors(t *testing.T) {
	prog := parseProg(t, `cast .n as int`)
	src := NewSliceSource([]uv.Value{mapOf("n", uv.NewString("not-a-number"))})
	w := &collectWriter{}
	_, err := Drive(newEvaluator(), prog, src, w, false, false, nil)
	require.Error(t, err)
}

func TestRecoverableMatchesDiagKindInterface(t *testing.T) {
	require.True(t, recoverable(&diag.Diagnostic{Kind: "TypeError"}))
	require.True(t, recoverable(&diag.Diagnostic{Kind: "CastError"}))
	require.False(t, recoverable(&diag.Diagnostic{Kind: "ParseError"}))
}
