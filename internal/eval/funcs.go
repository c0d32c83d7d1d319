package eval

import (
	"regexp"
	"strings"
	"time"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/uv"
)

// callFunction dispatches a call expression to its builtin
// implementation (§4.6). `if`, `coalesce`, `count`, and `group_by`
// evaluate their operand expressions lazily/per-element; every other
// function evaluates all arguments eagerly first.
func (e *Evaluator) callFunction(call *ast.Expr, scope uv.Value) (uv.Value, error) {
	if err := e.Registry.Validate(call.FuncName, len(call.Args)); err != nil {
		return uv.Null, simpleError("TypeError", "%v", err)
	}

	switch call.FuncName {
	case "if":
		cond, err := e.evalExpr(&call.Args[0], scope)
		if err != nil {
			return uv.Null, err
		}
		if cond.Truthy() {
			return e.evalExpr(&call.Args[1], scope)
		}
		return e.evalExpr(&call.Args[2], scope)
	case "coalesce":
		for i := range call.Args {
			v, err := e.evalExpr(&call.Args[i], scope)
			if err != nil {
				return uv.Null, err
			}
			if !v.IsNull() {
				return v, nil
			}
		}
		return uv.Null, nil
	case "count":
		arr, err := e.evalExpr(&call.Args[0], scope)
		if err != nil {
			return uv.Null, err
		}
		if arr.Kind != uv.KindArray {
			return uv.Null, simpleError("TypeError", "count requires an array, found %s", arr.TypeOf())
		}
		n := 0
		for _, el := range arr.Array {
			v, err := e.evalExpr(&call.Args[1], el)
			if err != nil {
				return uv.Null, err
			}
			if v.Truthy() {
				n++
			}
		}
		return uv.NewInt(int64(n)), nil
	case "group_by":
		arr, err := e.evalExpr(&call.Args[0], scope)
		if err != nil {
			return uv.Null, err
		}
		if arr.Kind != uv.KindArray {
			return uv.Null, simpleError("TypeError", "group_by requires an array, found %s", arr.TypeOf())
		}
		groups := uv.NewOrderedMap()
		for _, el := range arr.Array {
			k, err := e.evalExpr(&call.Args[1], el)
			if err != nil {
				return uv.Null, err
			}
			ks, _, err := uv.Cast(k, uv.KindString)
			if err != nil {
				return uv.Null, simpleError("TypeError", "group_by key must be stringifiable: %v", err)
			}
			existing, ok := groups.Get(ks.Str)
			if !ok {
				existing = uv.NewArray(nil)
			}
			groups.Set(ks.Str, uv.NewArray(append(append([]uv.Value{}, existing.Array...), el)))
		}
		return uv.NewMap(groups), nil
	}

	args := make([]uv.Value, len(call.Args))
	for i := range call.Args {
		v, err := e.evalExpr(&call.Args[i], scope)
		if err != nil {
			return uv.Null, err
		}
		args[i] = v
	}
	return e.callPure(call.FuncName, args)
}

func typeErr(format string, args ...interface{}) error { return simpleError("TypeError", format, args...) }

func (e *Evaluator) callPure(name string, args []uv.Value) (uv.Value, error) {
	switch name {
	case "join":
		return fnJoin(args)
	case "split":
		return fnSplit(args)
	case "lower":
		s, err := wantString(args[0])
		if err != nil {
			return uv.Null, err
		}
		return uv.NewString(strings.ToLower(s)), nil
	case "upper":
		s, err := wantString(args[0])
		if err != nil {
			return uv.Null, err
		}
		return uv.NewString(strings.ToUpper(s)), nil
	case "trim":
		s, err := wantString(args[0])
		if err != nil {
			return uv.Null, err
		}
		return uv.NewString(strings.TrimSpace(s)), nil
	case "replace":
		return fnReplace(args)
	case "starts_with":
		return fnStrBool(args, strings.HasPrefix)
	case "ends_with":
		return fnStrBool(args, strings.HasSuffix)
	case "contains":
		return fnStrBool(args, strings.Contains)
	case "substring":
		return fnSubstring(args)
	case "pad_left":
		return fnPad(args, true)
	case "pad_right":
		return fnPad(args, false)
	case "regex_match":
		return fnRegexMatch(args)
	case "regex_replace":
		return fnRegexReplace(args)

	case "round", "ceil", "floor", "abs":
		return fnMathUnary(name, args)
	case "min":
		return fnMinMax(args, true)
	case "max":
		return fnMinMax(args, false)
	case "sum":
		return fnSum(args)

	case "len":
		return fnLen(args[0])
	case "keys":
		return fnKeys(args[0])
	case "values":
		return fnValues(args[0])
	case "unique":
		return fnUnique(args[0])
	case "reverse":
		return fnReverse(args[0])
	case "first":
		return fnFirstLast(args[0], true)
	case "last":
		return fnFirstLast(args[0], false)
	case "flatten":
		return fnFlattenArray(args[0])

	case "type_of":
		return uv.NewString(args[0].TypeOf()), nil
	case "is_null":
		return uv.NewBool(args[0].Kind == uv.KindNull), nil
	case "is_array":
		return uv.NewBool(args[0].Kind == uv.KindArray), nil
	case "is_object":
		return uv.NewBool(args[0].Kind == uv.KindMap), nil
	case "is_string":
		return uv.NewBool(args[0].Kind == uv.KindString), nil
	case "is_number":
		return uv.NewBool(isNumeric(args[0])), nil

	case "now":
		return uv.NewString(e.Clock.Now().UTC().Format(time.RFC3339)), nil
	case "env":
		name, err := wantString(args[0])
		if err != nil {
			return uv.Null, err
		}
		v, ok := e.Env.Lookup(name)
		if !ok {
			return uv.Null, nil
		}
		return uv.NewString(v), nil
	case "parse_date":
		return fnParseDate(args)
	case "format_date":
		return fnFormatDate(args)
	default:
		return uv.Null, typeErr("unknown function %q", name)
	}
}

func wantString(v uv.Value) (string, error) {
	if v.Kind != uv.KindString {
		return "", typeErr("expected a string, found %s", v.TypeOf())
	}
	return v.Str, nil
}

func wantInt(v uv.Value) (int64, error) {
	if v.Kind != uv.KindInt {
		return 0, typeErr("expected an int, found %s", v.TypeOf())
	}
	return v.Int, nil
}

func fnJoin(args []uv.Value) (uv.Value, error) {
	if args[0].Kind != uv.KindArray {
		return uv.Null, typeErr("join requires an array, found %s", args[0].TypeOf())
	}
	sep := ""
	if len(args) == 2 {
		s, err := wantString(args[1])
		if err != nil {
			return uv.Null, err
		}
		sep = s
	}
	parts := make([]string, len(args[0].Array))
	for i, el := range args[0].Array {
		s, err := wantString(el)
		if err != nil {
			return uv.Null, typeErr("join: element %d is not a string", i)
		}
		parts[i] = s
	}
	return uv.NewString(strings.Join(parts, sep)), nil
}

func fnSplit(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	d, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	parts := strings.Split(s, d)
	out := make([]uv.Value, len(parts))
	for i, p := range parts {
		out[i] = uv.NewString(p)
	}
	return uv.NewArray(out), nil
}

func fnReplace(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	o, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	n, err := wantString(args[2])
	if err != nil {
		return uv.Null, err
	}
	return uv.NewString(strings.ReplaceAll(s, o, n)), nil
}

func fnStrBool(args []uv.Value, f func(s, sub string) bool) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	sub, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	return uv.NewBool(f(s, sub)), nil
}

func fnSubstring(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	start, err := wantInt(args[1])
	if err != nil {
		return uv.Null, err
	}
	length, err := wantInt(args[2])
	if err != nil {
		return uv.Null, err
	}
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > int64(len(r)) {
		start = int64(len(r))
	}
	end := start + length
	if end > int64(len(r)) {
		end = int64(len(r))
	}
	if end < start {
		end = start
	}
	return uv.NewString(string(r[start:end])), nil
}

func fnPad(args []uv.Value, left bool) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	width, err := wantInt(args[1])
	if err != nil {
		return uv.Null, err
	}
	ch, err := wantString(args[2])
	if err != nil {
		return uv.Null, err
	}
	if ch == "" {
		ch = " "
	}
	padChar := []rune(ch)[0]
	r := []rune(s)
	for int64(len(r)) < width {
		if left {
			r = append([]rune{padChar}, r...)
		} else {
			r = append(r, padChar)
		}
	}
	return uv.NewString(string(r)), nil
}

func fnRegexMatch(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	pat, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return uv.Null, typeErr("invalid regular expression %q: %v", pat, err)
	}
	return uv.NewBool(re.MatchString(s)), nil
}

func fnRegexReplace(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	pat, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	rep, err := wantString(args[2])
	if err != nil {
		return uv.Null, err
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return uv.Null, typeErr("invalid regular expression %q: %v", pat, err)
	}
	return uv.NewString(re.ReplaceAllString(s, rep)), nil
}

func fnMathUnary(name string, args []uv.Value) (uv.Value, error) {
	v := args[0]
	if !isNumeric(v) {
		return uv.Null, typeErr("%s requires a number, found %s", name, v.TypeOf())
	}
	if name == "abs" {
		if v.Kind == uv.KindInt {
			if v.Int < 0 {
				return uv.NewInt(-v.Int), nil
			}
			return v, nil
		}
		if v.Float < 0 {
			return uv.NewFloat(-v.Float), nil
		}
		return v, nil
	}
	if v.Kind == uv.KindInt {
		return v, nil
	}
	f := v.Float
	switch name {
	case "round":
		return uv.NewInt(int64(roundHalfAwayFromZero(f))), nil
	case "ceil":
		return uv.NewInt(int64(ceilFloat(f))), nil
	default:
		return uv.NewInt(int64(floorFloat(f))), nil
	}
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return floorFloat(f + 0.5)
	}
	return ceilFloat(f - 0.5)
}

func floorFloat(f float64) float64 {
	i := int64(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}

func ceilFloat(f float64) float64 {
	i := int64(f)
	if f > 0 && float64(i) != f {
		i++
	}
	return float64(i)
}

func fnMinMax(args []uv.Value, wantMin bool) (uv.Value, error) {
	vals := args
	if len(args) == 1 && args[0].Kind == uv.KindArray {
		vals = args[0].Array
	}
	if len(vals) == 0 {
		return uv.Null, typeErr("min/max requires at least one value")
	}
	best := vals[0]
	for _, v := range vals[1:] {
		cmp, ok := uv.Compare(best, v)
		if !ok {
			return uv.Null, typeErr("cannot compare %s and %s", best.TypeOf(), v.TypeOf())
		}
		if (wantMin && cmp > 0) || (!wantMin && cmp < 0) {
			best = v
		}
	}
	return best, nil
}

func fnSum(args []uv.Value) (uv.Value, error) {
	if args[0].Kind != uv.KindArray {
		return uv.Null, typeErr("sum requires an array, found %s", args[0].TypeOf())
	}
	allInt := true
	var fsum float64
	var isum int64
	for _, v := range args[0].Array {
		if !isNumeric(v) {
			return uv.Null, typeErr("sum: element is not a number (%s)", v.TypeOf())
		}
		if v.Kind != uv.KindInt {
			allInt = false
		}
		fsum += asFloatVal(v)
		if v.Kind == uv.KindInt {
			isum += v.Int
		}
	}
	if allInt {
		return uv.NewInt(isum), nil
	}
	return uv.NewFloat(fsum), nil
}

func fnLen(v uv.Value) (uv.Value, error) {
	switch v.Kind {
	case uv.KindString:
		return uv.NewInt(int64(len([]rune(v.Str)))), nil
	case uv.KindArray:
		return uv.NewInt(int64(len(v.Array))), nil
	case uv.KindMap:
		return uv.NewInt(int64(v.Map.Len())), nil
	default:
		return uv.Null, typeErr("len requires a string, array, or map, found %s", v.TypeOf())
	}
}

func fnKeys(v uv.Value) (uv.Value, error) {
	if v.Kind != uv.KindMap {
		return uv.Null, typeErr("keys requires a map, found %s", v.TypeOf())
	}
	ks := v.Map.Keys()
	out := make([]uv.Value, len(ks))
	for i, k := range ks {
		out[i] = uv.NewString(k)
	}
	return uv.NewArray(out), nil
}

func fnValues(v uv.Value) (uv.Value, error) {
	if v.Kind != uv.KindMap {
		return uv.Null, typeErr("values requires a map, found %s", v.TypeOf())
	}
	ks := v.Map.Keys()
	out := make([]uv.Value, len(ks))
	for i, k := range ks {
		val, _ := v.Map.Get(k)
		out[i] = val
	}
	return uv.NewArray(out), nil
}

func fnUnique(v uv.Value) (uv.Value, error) {
	if v.Kind != uv.KindArray {
		return uv.Null, typeErr("unique requires an array, found %s", v.TypeOf())
	}
	var out []uv.Value
	for _, el := range v.Array {
		dup := false
		for _, seen := range out {
			if uv.Equal(el, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, el)
		}
	}
	return uv.NewArray(out), nil
}

func fnReverse(v uv.Value) (uv.Value, error) {
	if v.Kind != uv.KindArray {
		return uv.Null, typeErr("reverse requires an array, found %s", v.TypeOf())
	}
	out := make([]uv.Value, len(v.Array))
	for i, el := range v.Array {
		out[len(v.Array)-1-i] = el
	}
	return uv.NewArray(out), nil
}

func fnFirstLast(v uv.Value, first bool) (uv.Value, error) {
	if v.Kind != uv.KindArray {
		return uv.Null, typeErr("first/last requires an array, found %s", v.TypeOf())
	}
	if len(v.Array) == 0 {
		return uv.Null, nil
	}
	if first {
		return v.Array[0], nil
	}
	return v.Array[len(v.Array)-1], nil
}

func fnFlattenArray(v uv.Value) (uv.Value, error) {
	if v.Kind != uv.KindArray {
		return uv.Null, typeErr("flatten requires an array, found %s", v.TypeOf())
	}
	var out []uv.Value
	for _, el := range v.Array {
		if el.Kind == uv.KindArray {
			out = append(out, el.Array...)
		} else {
			out = append(out, el)
		}
	}
	return uv.NewArray(out), nil
}

// strftimeToGoLayout converts a small, common subset of strftime
// directives to Go's reference-time layout, enough for ISO-8601-style
// dates and times.
func strftimeToGoLayout(fmtStr string) string {
	repl := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "Z0700", "%z", "-0700",
	)
	return repl.Replace(fmtStr)
}

func fnParseDate(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	layoutSrc, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	t, err := time.Parse(strftimeToGoLayout(layoutSrc), s)
	if err != nil {
		return uv.Null, typeErr("parse_date: %v", err)
	}
	return uv.NewString(t.UTC().Format(time.RFC3339)), nil
}

func fnFormatDate(args []uv.Value) (uv.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return uv.Null, err
	}
	layoutSrc, err := wantString(args[1])
	if err != nil {
		return uv.Null, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return uv.Null, typeErr("format_date: %v", err)
	}
	return uv.NewString(t.Format(strftimeToGoLayout(layoutSrc))), nil
}
