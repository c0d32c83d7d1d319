// Package stream implements the streaming-vs-materializing contract of
// spec.md §5 and §9, elaborated in SPEC_FULL.md §6.7: feed the
// evaluator one record at a time for JSON-Lines, CSV/TSV, and
// top-level JSON arrays, writing each record before requesting the
// next. A program that needs a global view of the data (`sort`, a
// `group_by` call, or `each` over the implicit root) forces
// materialization instead; the downgrade is always logged, never
// silent.
//
// The per-record pull shape is adapted from the teacher's
// BufferedIterator (datalog/executor/buffered_iterator.go): a Next/
// Value pull loop the driver consumes until exhausted, generalized
// from Tuple to uv.Value.
package stream

import (
	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/eval"
	"github.com/morph-lang/morph/internal/uv"
)

// RecordSource yields UV records one at a time, pull-style.
type RecordSource interface {
	Next() bool
	Value() uv.Value
	Err() error
}

// sliceSource adapts an already-materialized []uv.Value (e.g. the
// result of a non-streaming format's Parse) to RecordSource, so Drive
// has one code path regardless of whether the reader could stream.
type sliceSource struct {
	vals []uv.Value
	pos  int
}

func NewSliceSource(vals []uv.Value) RecordSource { return &sliceSource{vals: vals, pos: -1} }

func (s *sliceSource) Next() bool {
	s.pos++
	return s.pos < len(s.vals)
}
func (s *sliceSource) Value() uv.Value { return s.vals[s.pos] }
func (s *sliceSource) Err() error      { return nil }

// RequiresMaterialization inspects a parsed program for statements that
// need a global view of the data: a sort, a call to group_by, or an each
// whose target path is the document root. Statements nested inside
// each/when bodies are searched as well as top-level ones.
func RequiresMaterialization(prog *ast.Program) bool {
	for i := range prog.Statements {
		if statementRequiresGlobalView(&prog.Statements[i]) {
			return true
		}
	}
	return false
}

func statementRequiresGlobalView(stmt *ast.Statement) bool {
	switch stmt.Kind {
	case ast.StmtSort:
		return true
	case ast.StmtEach:
		if stmt.Target == nil || len(stmt.Target.Segments) == 0 {
			return true
		}
	}
	if exprCallsGroupBy(stmt) {
		return true
	}
	for i := range stmt.Body {
		if statementRequiresGlobalView(&stmt.Body[i]) {
			return true
		}
	}
	return false
}

func exprCallsGroupBy(stmt *ast.Statement) bool {
	for _, e := range stmt.CollectExprs() {
		if callsGroupBy(e) {
			return true
		}
	}
	return false
}

func callsGroupBy(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == ast.ExprCall && e.FuncName == "group_by" {
		return true
	}
	for i := range e.Args {
		if callsGroupBy(&e.Args[i]) {
			return true
		}
	}
	if callsGroupBy(e.Left) || callsGroupBy(e.Right) || callsGroupBy(e.Operand) {
		return true
	}
	for i := range e.Elements {
		if callsGroupBy(&e.Elements[i]) {
			return true
		}
	}
	return false
}

// Result reports what Drive actually did, so the caller can report a
// downgrade honestly rather than implying streaming always happened.
type Result struct {
	Materialized bool
	RecordCount  int
}

// RecordWriter receives each output record as it is produced. In
// materializing mode all records are collected into a single Array and
// handed to WriteAll once instead of WriteRecord per element, since a
// materializing writer (e.g. one that must compute a CSV header from
// every row) needs the whole set anyway.
type RecordWriter interface {
	WriteRecord(v uv.Value) error
	WriteAll(v uv.Value) error
}

// SkipErrorsReporter receives a per-record evaluation failure that
// --skip-errors downgraded to a warning, so the driver doesn't need to
// own diagnostics rendering itself.
type SkipErrorsReporter func(recordIndex int, err error)

// Drive runs prog over src, writing each evaluated record through w.
// When materialize is true (the caller has already decided via
// RequiresMaterialization, or a non-record-oriented format forced it),
// every record is evaluated first and handed to w.WriteAll as a single
// Array; otherwise each record is evaluated and written immediately.
func Drive(ev *eval.Evaluator, prog *ast.Program, src RecordSource, w RecordWriter, materialize bool, skipErrors bool, onSkip SkipErrorsReporter) (Result, error) {
	if materialize {
		return driveMaterialized(ev, prog, src, w)
	}
	return driveStreaming(ev, prog, src, w, skipErrors, onSkip)
}

func driveStreaming(ev *eval.Evaluator, prog *ast.Program, src RecordSource, w RecordWriter, skipErrors bool, onSkip SkipErrorsReporter) (Result, error) {
	res := Result{}
	idx := 0
	for src.Next() {
		rec := src.Value()
		out, err := ev.Run(prog, rec)
		if err != nil {
			if skipErrors && recoverable(err) {
				if onSkip != nil {
					onSkip(idx, err)
				}
				idx++
				continue
			}
			return res, err
		}
		if err := w.WriteRecord(out); err != nil {
			return res, err
		}
		res.RecordCount++
		idx++
	}
	if err := src.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func driveMaterialized(ev *eval.Evaluator, prog *ast.Program, src RecordSource, w RecordWriter) (Result, error) {
	res := Result{Materialized: true}
	var records []uv.Value
	idx := 0
	for src.Next() {
		records = append(records, src.Value())
		idx++
	}
	if err := src.Err(); err != nil {
		return res, err
	}

	root := uv.NewArray(records)
	out, err := ev.Run(prog, root)
	if err != nil {
		return res, err
	}
	res.RecordCount = idx
	if err := w.WriteAll(out); err != nil {
		return res, err
	}
	return res, nil
}

func recoverable(err error) bool {
	type kinded interface{ DiagKind() string }
	if k, ok := err.(kinded); ok {
		switch k.DiagKind() {
		case "TypeError", "CastError", "ReadError":
			return true
		}
	}
	return false
}
