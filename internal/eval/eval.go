// Package eval implements the tree-walking evaluator described in §4.4:
// it runs a parsed Program against a root UV and yields a new UV.
// Statements run top-to-bottom, each folding the current scope into the
// next; `each` rebinds the scope per array element, `when` leaves it
// unchanged. The only side effects — the clock, the environment, and
// diagnostic emission — are reached through injectable providers so a
// run is fully reproducible in tests (§5).
package eval

import (
	"fmt"
	"strings"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/builtin"
	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/pathexpr"
	"github.com/morph-lang/morph/internal/runtimeenv"
	"github.com/morph-lang/morph/internal/uv"
)

// Evaluator holds everything a Run needs beyond the program and root
// value: the function registry for call dispatch, and the three
// injectable providers from §5.
type Evaluator struct {
	Registry *builtin.Registry
	Clock    runtimeenv.Clock
	Env      runtimeenv.Env
	Sink     diag.Sink
}

// New builds an Evaluator with the given providers. A nil Sink
// discards diagnostics.
func New(clock runtimeenv.Clock, env runtimeenv.Env, sink diag.Sink) *Evaluator {
	return &Evaluator{Registry: builtin.Default, Clock: clock, Env: env, Sink: sink}
}

func (e *Evaluator) warn(kind, format string, args ...interface{}) {
	if e.Sink == nil {
		return
	}
	e.Sink.Emit(&diag.Diagnostic{Severity: diag.SeverityWarning, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func simpleError(kind, format string, args ...interface{}) error {
	return &diag.Diagnostic{Severity: diag.SeverityError, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Run executes prog against root and returns the resulting UV.
func (e *Evaluator) Run(prog *ast.Program, root uv.Value) (uv.Value, error) {
	return e.execBlock(prog.Statements, root)
}

// execBlock folds scope through each statement in order. A top-level
// `where` guard that turns falsy short-circuits the block, and its
// result becomes Null (§4.4) — remaining statements in this block do
// not run.
func (e *Evaluator) execBlock(stmts []ast.Statement, scope uv.Value) (uv.Value, error) {
	for _, stmt := range stmts {
		next, stop, err := e.execStatement(stmt, scope)
		if err != nil {
			return scope, err
		}
		scope = next
		if stop {
			return uv.Null, nil
		}
	}
	return scope, nil
}

func (e *Evaluator) execStatement(stmt ast.Statement, scope uv.Value) (uv.Value, bool, error) {
	switch stmt.Kind {
	case ast.StmtRename:
		v, err := e.execRename(stmt, scope)
		return v, false, err
	case ast.StmtSelect:
		v, err := e.execSelect(stmt, scope)
		return v, false, err
	case ast.StmtDrop:
		v, err := e.execDrop(stmt, scope)
		return v, false, err
	case ast.StmtFlatten:
		v, err := e.execFlatten(stmt, scope)
		return v, false, err
	case ast.StmtNest:
		v, err := e.execNest(stmt, scope)
		return v, false, err
	case ast.StmtSet:
		v, err := e.execSetOrDefault(stmt, scope, false)
		return v, false, err
	case ast.StmtDefault:
		v, err := e.execSetOrDefault(stmt, scope, true)
		return v, false, err
	case ast.StmtCast:
		v, err := e.execCast(stmt, scope)
		return v, false, err
	case ast.StmtWhere:
		return e.execWhere(stmt, scope)
	case ast.StmtSort:
		v, err := e.execSort(stmt, scope)
		return v, false, err
	case ast.StmtEach:
		v, err := e.execEach(stmt, scope)
		return v, false, err
	case ast.StmtWhen:
		v, err := e.execWhen(stmt, scope)
		return v, false, err
	default:
		return scope, false, simpleError("TypeError", "unhandled statement kind")
	}
}

func (e *Evaluator) execRename(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	vals := pathexpr.Get(scope, *stmt.From)
	if len(vals) == 0 {
		return scope, nil
	}
	afterDelete, err := pathexpr.Delete(scope, *stmt.From)
	if err != nil {
		return scope, err
	}
	i := 0
	return pathexpr.Set(afterDelete, *stmt.To, func(idx int, cur uv.Value) (uv.Value, error) {
		if i >= len(vals) {
			return cur, nil
		}
		v := vals[i]
		i++
		return v, nil
	})
}

func (e *Evaluator) execSelect(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	return e.selectOne(scope, stmt.Paths)
}

func (e *Evaluator) selectOne(v uv.Value, paths []ast.Path) (uv.Value, error) {
	if v.Kind == uv.KindArray {
		out := make([]uv.Value, len(v.Array))
		for i, el := range v.Array {
			nv, err := e.selectOne(el, paths)
			if err != nil {
				return v, err
			}
			out[i] = nv
		}
		return uv.NewArray(out), nil
	}
	if v.Kind != uv.KindMap {
		return v, simpleError("TypeError", "select requires a map or array scope, found %s", v.TypeOf())
	}
	m := uv.NewOrderedMap()
	for _, p := range paths {
		name, ok := p.LastFieldName()
		if !ok {
			name = p.String()
		}
		vals := pathexpr.Get(v, p)
		if len(vals) == 0 {
			e.warn("SelectWarning", "select: path %s matched nothing", p.String())
			continue
		}
		m.Set(name, vals[0])
	}
	return uv.NewMap(m), nil
}

func (e *Evaluator) execDrop(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	var err error
	for _, p := range stmt.Paths {
		scope, err = pathexpr.Delete(scope, p)
		if err != nil {
			return scope, err
		}
	}
	return scope, nil
}

func parentPath(p ast.Path) ast.Path {
	if len(p.Segments) == 0 {
		return p
	}
	return ast.Path{Segments: p.Segments[:len(p.Segments)-1]}
}

func (e *Evaluator) execFlatten(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	target := *stmt.Target
	if len(target.Segments) == 0 {
		return scope, simpleError("TypeError", "flatten requires a field path")
	}
	last := target.Segments[len(target.Segments)-1]
	if last.Kind != ast.SegField && last.Kind != ast.SegQuotedField {
		return scope, simpleError("TypeError", "flatten target must end in a field, found %s", target.String())
	}
	parent := parentPath(target)
	parentVals := pathexpr.Get(scope, parent)
	if len(parentVals) != 1 || parentVals[0].Kind != uv.KindMap {
		return scope, simpleError("TypeError", "flatten: %s does not resolve to a single map", parent.String())
	}
	parentMap := parentVals[0].Map.Clone()
	sub, ok := parentMap.Get(last.Name)
	if !ok {
		return scope, nil
	}
	if sub.Kind != uv.KindMap {
		return scope, nil
	}
	prefix := stmt.Prefix
	if !stmt.HasExplicitPrefix {
		prefix = last.Name
	}
	parentMap.Delete(last.Name)

	var toPromote []string
	if len(stmt.Keys) > 0 {
		for _, kp := range stmt.Keys {
			if name, ok := kp.LastFieldName(); ok {
				toPromote = append(toPromote, name)
			}
		}
	} else {
		toPromote = sub.Map.Keys()
	}
	for _, k := range toPromote {
		v, ok := sub.Map.Get(k)
		if !ok {
			continue
		}
		parentMap.Set(prefix+"_"+k, v)
	}
	newParent := uv.NewMap(parentMap)
	return pathexpr.Set(scope, parent, func(idx int, cur uv.Value) (uv.Value, error) { return newParent, nil })
}

func (e *Evaluator) execNest(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	if scope.Kind != uv.KindMap {
		return scope, simpleError("TypeError", "nest requires a map scope, found %s", scope.TypeOf())
	}
	m := scope.Map.Clone()
	targetName, _ := stmt.Target.LastFieldName()
	prefix := targetName + "_"
	nested := uv.NewOrderedMap()
	for _, kp := range stmt.Keys {
		name, ok := kp.LastFieldName()
		if !ok {
			continue
		}
		v, ok := m.Get(name)
		if !ok {
			continue
		}
		m.Delete(name)
		nestedKey := name
		if targetName != "" && strings.HasPrefix(name, prefix) {
			nestedKey = name[len(prefix):]
		}
		nested.Set(nestedKey, v)
	}
	base := uv.NewMap(m)
	return pathexpr.Set(base, *stmt.Target, func(idx int, cur uv.Value) (uv.Value, error) {
		if cur.Kind == uv.KindMap {
			return uv.Merge(cur, uv.NewMap(nested)), nil
		}
		return uv.NewMap(nested), nil
	})
}

func (e *Evaluator) execSetOrDefault(stmt ast.Statement, scope uv.Value, isDefault bool) (uv.Value, error) {
	target := *stmt.Target
	siteCount := pathexpr.Count(scope, target)
	if siteCount == 0 && !isDefault {
		siteCount = 1 // set may need to create the location
	}

	result, err := e.evalExpr(stmt.Value, scope)
	if err != nil {
		return scope, err
	}
	zipped := result.Kind == uv.KindArray && len(result.Array) == siteCount && siteCount > 1

	if !isDefault {
		return pathexpr.Set(scope, target, func(idx int, cur uv.Value) (uv.Value, error) {
			if zipped {
				return result.Array[idx], nil
			}
			return result, nil
		})
	}

	sites := pathexpr.GetSites(scope, target)
	idx := 0
	return pathexpr.Set(scope, target, func(i int, cur uv.Value) (uv.Value, error) {
		var existed bool
		if idx < len(sites) {
			existed = sites[idx].Existed
		}
		idx++
		if !cur.IsNull() {
			def := result
			if zipped {
				def = result.Array[i]
			}
			if cur.Kind == uv.KindMap && def.Kind == uv.KindMap {
				return uv.Merge(def, cur), nil
			}
			return cur, nil
		}
		if existed {
			e.warn("DefaultWarning", "default: %s is present but null", target.String())
		}
		if zipped {
			return result.Array[i], nil
		}
		return result, nil
	})
}

func uvKindFromCastType(c ast.CastType) uv.Kind {
	switch c {
	case ast.CastInt:
		return uv.KindInt
	case ast.CastFloat:
		return uv.KindFloat
	case ast.CastBool:
		return uv.KindBool
	default:
		return uv.KindString
	}
}

func (e *Evaluator) execCast(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	target := *stmt.Target
	if pathexpr.Count(scope, target) == 0 {
		return scope, nil
	}
	var castErr error
	out, err := pathexpr.Set(scope, target, func(idx int, cur uv.Value) (uv.Value, error) {
		nv, warning, cerr := uv.Cast(cur, uvKindFromCastType(stmt.CastTo))
		if cerr != nil {
			castErr = &diag.Diagnostic{Severity: diag.SeverityError, Kind: "CastError", Message: cerr.Error()}
			return cur, castErr
		}
		if warning != nil {
			e.warn("CastWarning", "cast %s: %s", target.String(), warning.Message)
		}
		return nv, nil
	})
	if castErr != nil {
		return scope, castErr
	}
	return out, err
}

func (e *Evaluator) execWhere(stmt ast.Statement, scope uv.Value) (uv.Value, bool, error) {
	if scope.Kind == uv.KindArray {
		out := make([]uv.Value, 0, len(scope.Array))
		for _, el := range scope.Array {
			v, err := e.evalExpr(stmt.Cond, el)
			if err != nil {
				return scope, false, err
			}
			if v.Truthy() {
				out = append(out, el)
			}
		}
		return uv.NewArray(out), false, nil
	}
	v, err := e.evalExpr(stmt.Cond, scope)
	if err != nil {
		return scope, false, err
	}
	if !v.Truthy() {
		return uv.Null, true, nil
	}
	return scope, false, nil
}

func (e *Evaluator) execEach(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	target := *stmt.Target
	matches := pathexpr.Get(scope, target)
	if len(matches) != 1 || matches[0].Kind != uv.KindArray {
		return scope, simpleError("TypeError", "each requires an array at %s", target.String())
	}
	arr := matches[0].Array
	out := make([]uv.Value, len(arr))
	for i, el := range arr {
		nv, err := e.execBlock(stmt.Body, el)
		if err != nil {
			return scope, err
		}
		out[i] = nv
	}
	newArr := uv.NewArray(out)
	return pathexpr.Set(scope, target, func(idx int, cur uv.Value) (uv.Value, error) { return newArr, nil })
}

func (e *Evaluator) execWhen(stmt ast.Statement, scope uv.Value) (uv.Value, error) {
	cond, err := e.evalExpr(stmt.Cond, scope)
	if err != nil {
		return scope, err
	}
	if !cond.Truthy() {
		return scope, nil
	}
	return e.execBlock(stmt.Body, scope)
}
