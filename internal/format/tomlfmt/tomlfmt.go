// Package tomlfmt adapts TOML to and from the UV model. Both directions
// use hand-written, line-oriented code (key/value pairs, [table] and
// [[array-of-tables]] headers, inline tables and arrays, basic/literal
// strings, integers, floats, bools) instead of go-toml/v2's Unmarshal/
// Encode, which round-trip through a plain Go map and lose UV's
// insertion order in both directions.
package tomlfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

// Parse decodes a TOML document from r into a UV Map.
func Parse(r io.Reader) (uv.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	p := &tomlParser{lines: strings.Split(string(src), "\n")}
	root := uv.NewOrderedMap()
	cur := root
	for p.i < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.i])
		p.i++
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[[") && strings.HasSuffix(line, "]]") {
			path := splitDotted(strings.TrimSpace(line[2 : len(line)-2]))
			cur = appendTableToArray(root, path)
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			path := splitDotted(strings.TrimSpace(line[1 : len(line)-1]))
			cur = ensureTable(root, path)
			continue
		}
		eq := indexUnquoted(line, '=')
		if eq < 0 {
			return uv.Null, format.ReadErr("malformed TOML line %q", line)
		}
		key := strings.TrimSpace(line[:eq])
		valSrc := strings.TrimSpace(line[eq+1:])
		v, err := parseTOMLValue(valSrc)
		if err != nil {
			return uv.Null, format.ReadErr("%v", err)
		}
		path := splitDotted(key)
		dest := cur
		if len(path) > 1 {
			dest = ensureTable(cur, path[:len(path)-1])
		}
		dest.Set(path[len(path)-1], v)
	}
	return uv.NewMap(root), nil
}

type tomlParser struct {
	lines []string
	i     int
}

func splitDotted(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == '.':
			out = append(out, strings.Trim(strings.TrimSpace(cur.String()), `"'`))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, strings.Trim(strings.TrimSpace(cur.String()), `"'`))
	return out
}

func indexUnquoted(s string, target byte) int {
	inQuote := byte(0)
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == target && depth == 0:
			return i
		}
	}
	return -1
}

func ensureTable(root *uv.Map, path []string) *uv.Map {
	cur := root
	for _, k := range path {
		existing, ok := cur.Get(k)
		if ok && existing.Kind == uv.KindMap {
			cur = existing.Map
			continue
		}
		if ok && existing.Kind == uv.KindArray && len(existing.Array) > 0 {
			if last := existing.Array[len(existing.Array)-1]; last.Kind == uv.KindMap {
				cur = last.Map
				continue
			}
		}
		nm := uv.NewOrderedMap()
		cur.Set(k, uv.NewMap(nm))
		cur = nm
	}
	return cur
}

func appendTableToArray(root *uv.Map, path []string) *uv.Map {
	parent := root
	if len(path) > 1 {
		parent = ensureTable(root, path[:len(path)-1])
	}
	last := path[len(path)-1]
	nm := uv.NewOrderedMap()
	existing, ok := parent.Get(last)
	var arr []uv.Value
	if ok && existing.Kind == uv.KindArray {
		arr = existing.Array
	}
	arr = append(arr, uv.NewMap(nm))
	parent.Set(last, uv.NewArray(arr))
	return nm
}

func parseTOMLValue(s string) (uv.Value, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " #"); i >= 0 && indexUnquoted(s[:i], '"') < 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch {
	case s == "true":
		return uv.NewBool(true), nil
	case s == "false":
		return uv.NewBool(false), nil
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`):
		return uv.NewString(unquoteTOMLString(s)), nil
	case strings.HasPrefix(s, "["):
		return parseTOMLArray(s)
	case strings.HasPrefix(s, "{"):
		return parseTOMLInline(s)
	default:
		if i, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64); err == nil {
			return uv.NewInt(i), nil
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64); err == nil {
			return uv.NewFloat(f), nil
		}
		return uv.NewString(s), nil
	}
}

func unquoteTOMLString(s string) string {
	if len(s) < 2 {
		return s
	}
	inner := s[1 : len(s)-1]
	if s[0] == '\'' {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func splitTopLevel(s string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		case c == '[' || c == '{':
			depth++
			cur.WriteByte(c)
		case c == ']' || c == '}':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, cur.String())
	}
	return out
}

func parseTOMLArray(s string) (uv.Value, error) {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return uv.NewArray(nil), nil
	}
	parts := splitTopLevel(inner)
	out := make([]uv.Value, 0, len(parts))
	for _, p := range parts {
		v, err := parseTOMLValue(strings.TrimSpace(p))
		if err != nil {
			return uv.Null, err
		}
		out = append(out, v)
	}
	return uv.NewArray(out), nil
}

func parseTOMLInline(s string) (uv.Value, error) {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	m := uv.NewOrderedMap()
	if inner == "" {
		return uv.NewMap(m), nil
	}
	for _, p := range splitTopLevel(inner) {
		eq := indexUnquoted(p, '=')
		if eq < 0 {
			return uv.Null, format.ReadErr("malformed inline table entry %q", p)
		}
		key := strings.Trim(strings.TrimSpace(p[:eq]), `"'`)
		v, err := parseTOMLValue(strings.TrimSpace(p[eq+1:]))
		if err != nil {
			return uv.Null, err
		}
		m.Set(key, v)
	}
	return uv.NewMap(m), nil
}

// Serialize writes v (expected to be a Map) to w as TOML, walking
// v.Map.Keys() directly so document order matches UV insertion order
// instead of going through a native Go map.
func Serialize(w io.Writer, v uv.Value) error {
	if v.Kind != uv.KindMap {
		return format.WriteErr("TOML root must be a table, found %s", v.TypeOf())
	}
	bw := bufio.NewWriter(w)
	wrote := false
	if err := writeTable(bw, nil, v.Map, &wrote); err != nil {
		return format.WriteErr("%v", err)
	}
	return bw.Flush()
}

// writeTable emits m's scalar/inline-array keys as key = value lines,
// then its nested tables and arrays-of-tables as [path]/[[path]]
// sections, in m's insertion order. wrote tracks whether any line has
// been emitted yet, anywhere in the document, so the first section
// header gets no leading blank line but every one after does.
func writeTable(w *bufio.Writer, path []string, m *uv.Map, wrote *bool) error {
	var tableKeys, arrayTableKeys []string
	for _, k := range m.Keys() {
		child, _ := m.Get(k)
		switch {
		case child.Kind == uv.KindMap:
			tableKeys = append(tableKeys, k)
		case child.Kind == uv.KindArray && isArrayOfTables(child):
			arrayTableKeys = append(arrayTableKeys, k)
		default:
			fmt.Fprintf(w, "%s = %s\n", tomlKey(k), encodeTOMLValue(child))
			*wrote = true
		}
	}
	for _, k := range tableKeys {
		child, _ := m.Get(k)
		sub := append(append([]string(nil), path...), k)
		if *wrote {
			w.WriteByte('\n')
		}
		fmt.Fprintf(w, "[%s]\n", strings.Join(tomlKeyPath(sub), "."))
		*wrote = true
		if err := writeTable(w, sub, child.Map, wrote); err != nil {
			return err
		}
	}
	for _, k := range arrayTableKeys {
		child, _ := m.Get(k)
		sub := append(append([]string(nil), path...), k)
		for _, el := range child.Array {
			if *wrote {
				w.WriteByte('\n')
			}
			fmt.Fprintf(w, "[[%s]]\n", strings.Join(tomlKeyPath(sub), "."))
			*wrote = true
			if err := writeTable(w, sub, el.Map, wrote); err != nil {
				return err
			}
		}
	}
	return nil
}

func isArrayOfTables(v uv.Value) bool {
	if len(v.Array) == 0 {
		return false
	}
	for _, el := range v.Array {
		if el.Kind != uv.KindMap {
			return false
		}
	}
	return true
}

func tomlKeyPath(path []string) []string {
	out := make([]string, len(path))
	for i, k := range path {
		out[i] = tomlKey(k)
	}
	return out
}

func tomlKey(k string) string {
	if k == "" {
		return `""`
	}
	bare := true
	for _, r := range k {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			bare = false
			break
		}
	}
	if bare {
		return k
	}
	return quoteTOMLString(k)
}

func quoteTOMLString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func encodeTOMLValue(v uv.Value) string {
	switch v.Kind {
	case uv.KindNull:
		return `""`
	case uv.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case uv.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case uv.KindFloat:
		return v.String()
	case uv.KindString:
		return quoteTOMLString(v.Str)
	case uv.KindBytes:
		return quoteTOMLString(string(v.Bytes))
	case uv.KindArray:
		parts := make([]string, len(v.Array))
		for i, el := range v.Array {
			parts[i] = encodeTOMLValue(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case uv.KindMap:
		parts := make([]string, 0, v.Map.Len())
		for _, k := range v.Map.Keys() {
			child, _ := v.Map.Get(k)
			parts = append(parts, tomlKey(k)+" = "+encodeTOMLValue(child))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return `""`
	}
}
