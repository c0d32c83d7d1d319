// Package sexpfmt adapts a plain S-expression notation to and from
// the UV model: bare symbols, strings, numbers, and `()`/`[]` lists —
// no keywords, no tagged literals, no sets, unlike the richer EDN
// adapter in ednfmt. It is adapted from the same teacher EDN reader
// (character-at-a-time atom/string scanning) trimmed down to this
// smaller grammar. Lists and vectors always read back as UV Arrays
// (`(point (x 1) (y 2))`-style nesting stays nested Arrays — sexpfmt
// does not infer map structure from lists); instead,
// `{key value key value}`-style braces are accepted as a map literal
// for symmetry with ednfmt's serialized output.
package sexpfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

// Parse reads a single S-expression from r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	toks, err := tokenize(string(src))
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	p := &sexpParser{toks: toks}
	v, err := p.readValue()
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return v, nil
}

type sexpTokKind int

const (
	sxEOF sexpTokKind = iota
	sxString
	sxAtom
	sxLParen
	sxRParen
	sxLBracket
	sxRBracket
	sxLBrace
	sxRBrace
)

type sexpTok struct {
	kind sexpTokKind
	text string
}

func tokenize(src string) ([]sexpTok, error) {
	var toks []sexpTok
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '"':
			start := i
			i++
			var b strings.Builder
			for i < len(src) && src[i] != '"' {
				if src[i] == '\\' && i+1 < len(src) {
					i++
					switch src[i] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(src[i])
					}
					i++
					continue
				}
				b.WriteByte(src[i])
				i++
			}
			if i >= len(src) {
				return nil, fmt.Errorf("unterminated string starting at offset %d", start)
			}
			i++ // closing quote
			toks = append(toks, sexpTok{sxString, b.String()})
		case c == '(':
			toks = append(toks, sexpTok{kind: sxLParen})
			i++
		case c == ')':
			toks = append(toks, sexpTok{kind: sxRParen})
			i++
		case c == '[':
			toks = append(toks, sexpTok{kind: sxLBracket})
			i++
		case c == ']':
			toks = append(toks, sexpTok{kind: sxRBracket})
			i++
		case c == '{':
			toks = append(toks, sexpTok{kind: sxLBrace})
			i++
		case c == '}':
			toks = append(toks, sexpTok{kind: sxRBrace})
			i++
		default:
			start := i
			for i < len(src) && !unicode.IsSpace(rune(src[i])) && strings.IndexByte("()[]{}\";", src[i]) < 0 {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
			toks = append(toks, sexpTok{sxAtom, src[start:i]})
		}
	}
	toks = append(toks, sexpTok{kind: sxEOF})
	return toks, nil
}

type sexpParser struct {
	toks []sexpTok
	pos  int
}

func (p *sexpParser) peek() sexpTok {
	if p.pos >= len(p.toks) {
		return sexpTok{kind: sxEOF}
	}
	return p.toks[p.pos]
}

func (p *sexpParser) next() sexpTok {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *sexpParser) readValue() (uv.Value, error) {
	t := p.peek()
	switch t.kind {
	case sxEOF:
		return uv.Null, fmt.Errorf("unexpected end of input")
	case sxString:
		p.next()
		return uv.NewString(t.text), nil
	case sxAtom:
		p.next()
		return atomToValue(t.text), nil
	case sxLParen:
		return p.readSeq(sxRParen)
	case sxLBracket:
		return p.readSeq(sxRBracket)
	case sxLBrace:
		return p.readMap()
	default:
		return uv.Null, fmt.Errorf("unexpected token")
	}
}

func atomToValue(text string) uv.Value {
	switch text {
	case "nil":
		return uv.Null
	case "true":
		return uv.NewBool(true)
	case "false":
		return uv.NewBool(false)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return uv.NewInt(i)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return uv.NewFloat(f)
	}
	return uv.NewString(text)
}

func (p *sexpParser) readSeq(end sexpTokKind) (uv.Value, error) {
	p.next()
	var out []uv.Value
	for {
		t := p.peek()
		if t.kind == end {
			p.next()
			break
		}
		if t.kind == sxEOF {
			return uv.Null, fmt.Errorf("unterminated list")
		}
		v, err := p.readValue()
		if err != nil {
			return uv.Null, err
		}
		out = append(out, v)
	}
	return uv.NewArray(out), nil
}

func (p *sexpParser) readMap() (uv.Value, error) {
	p.next() // {
	m := uv.NewOrderedMap()
	for {
		t := p.peek()
		if t.kind == sxRBrace {
			p.next()
			break
		}
		if t.kind == sxEOF {
			return uv.Null, fmt.Errorf("unterminated map")
		}
		key, err := p.readValue()
		if err != nil {
			return uv.Null, err
		}
		val, err := p.readValue()
		if err != nil {
			return uv.Null, err
		}
		ks, _, err := uv.Cast(key, uv.KindString)
		if err != nil {
			return uv.Null, err
		}
		m.Set(ks.Str, val)
	}
	return uv.NewMap(m), nil
}

// Serialize writes v to w as an S-expression: Maps as `{key value ...}`,
// Arrays as `(...)`, scalars as bare atoms or quoted strings.
func Serialize(w io.Writer, v uv.Value) error {
	bw := bufio.NewWriter(w)
	if err := writeSexp(bw, v); err != nil {
		return format.WriteErr("%v", err)
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func writeSexp(w *bufio.Writer, v uv.Value) error {
	switch v.Kind {
	case uv.KindNull:
		w.WriteString("nil")
	case uv.KindBool:
		if v.Bool {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}
	case uv.KindInt:
		fmt.Fprintf(w, "%d", v.Int)
	case uv.KindFloat:
		w.WriteString(v.String())
	case uv.KindString:
		writeSexpString(w, v.Str)
	case uv.KindBytes:
		writeSexpString(w, string(v.Bytes))
	case uv.KindArray:
		w.WriteByte('(')
		for i, el := range v.Array {
			if i > 0 {
				w.WriteByte(' ')
			}
			if err := writeSexp(w, el); err != nil {
				return err
			}
		}
		w.WriteByte(')')
	case uv.KindMap:
		w.WriteByte('{')
		for i, k := range v.Map.Keys() {
			if i > 0 {
				w.WriteByte(' ')
			}
			writeSexpString(w, k)
			w.WriteByte(' ')
			child, _ := v.Map.Get(k)
			if err := writeSexp(w, child); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	}
	return nil
}

func writeSexpString(w *bufio.Writer, s string) {
	w.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		default:
			w.WriteRune(r)
		}
	}
	w.WriteByte('"')
}
