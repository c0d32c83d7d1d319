// Package ednfmt adapts EDN (extensible data notation) to and from the
// UV model. The lexer and recursive-descent parser are adapted
// directly from the teacher's hand-written EDN reader: character-at-a-
// time scanning into atoms/strings/delimiters, then classifying atoms
// as nil/bool/int/float/keyword/symbol by pattern, same as the
// original — rewritten here to lower straight into uv.Value instead of
// an intermediate Node tree, since morph has no separate EDN AST to
// keep around afterward. Keywords and symbols both become UV Strings
// (keywords keep their leading colon); sets lower to Arrays, since UV
// has no Set variant.
package ednfmt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/morph-lang/morph/internal/format"
	"github.com/morph-lang/morph/internal/uv"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?([eE][+-]?\d+)?$`)
)

// Parse reads a single EDN value from r into a UV.
func Parse(r io.Reader) (uv.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	p := &parser{lex: newLexer(string(src))}
	if err := p.lex.run(); err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	v, err := p.readValue()
	if err != nil {
		return uv.Null, format.ReadErr("%v", err)
	}
	return v, nil
}

// tokenKind enumerates the lexer's output token types, mirroring the
// teacher's EDN token set minus sets/tags (not needed here: sets fold
// into Arrays and tagged literals are out of scope for this adapter).
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokAtom
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	src    string
	pos    int
	tokens []token
	cur    int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() { l.pos++ }

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.peek()
		if unicode.IsSpace(rune(c)) || c == ',' {
			l.advance()
		} else if c == ';' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

func (l *lexer) run() error {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			break
		}
		c := l.peek()
		switch c {
		case '"':
			s, err := l.readString()
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, token{tokString, s})
		case '(':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokLParen})
		case ')':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokRParen})
		case '[':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokLBracket})
		case ']':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokRBracket})
		case '{':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokLBrace})
		case '}':
			l.advance()
			l.tokens = append(l.tokens, token{kind: tokRBrace})
		case '#':
			// "#{" (set) and "#_" (discard) are reader macros whose
			// second character would otherwise be lexed as its own
			// delimiter token, so splice them into one atom here.
			if l.pos+1 < len(l.src) && (l.src[l.pos+1] == '{' || l.src[l.pos+1] == '_') {
				l.tokens = append(l.tokens, token{tokAtom, l.src[l.pos : l.pos+2]})
				l.pos += 2
			} else {
				l.advance()
				l.tokens = append(l.tokens, token{tokAtom, "#"})
			}
		default:
			atom := l.readAtom()
			if atom == "" {
				return fmt.Errorf("unexpected character %q", c)
			}
			l.tokens = append(l.tokens, token{tokAtom, atom})
		}
	}
	l.tokens = append(l.tokens, token{kind: tokEOF})
	return nil
}

func (l *lexer) readString() (string, error) {
	var b strings.Builder
	l.advance()
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '"' {
			l.advance()
			return b.String(), nil
		}
		if c == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return "", fmt.Errorf("unterminated string")
			}
			switch l.peek() {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return "", fmt.Errorf("invalid escape \\%c", l.peek())
			}
			l.advance()
			continue
		}
		b.WriteByte(c)
		l.advance()
	}
	return "", fmt.Errorf("unterminated string")
}

func isDelim(c byte) bool {
	return c == '(' || c == ')' || c == '[' || c == ']' || c == '{' || c == '}' || c == '"' || c == ';'
}

func (l *lexer) readAtom() string {
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.peek()
		if isDelim(c) || unicode.IsSpace(rune(c)) || c == ',' {
			break
		}
		b.WriteByte(c)
		l.advance()
	}
	return b.String()
}

type parser struct {
	lex *lexer
}

func (p *parser) peek() token {
	if p.lex.cur >= len(p.lex.tokens) {
		return token{kind: tokEOF}
	}
	return p.lex.tokens[p.lex.cur]
}

func (p *parser) next() token {
	t := p.peek()
	if p.lex.cur < len(p.lex.tokens) {
		p.lex.cur++
	}
	return t
}

func (p *parser) readValue() (uv.Value, error) {
	t := p.peek()
	switch t.kind {
	case tokEOF:
		return uv.Null, fmt.Errorf("unexpected end of input")
	case tokString:
		p.next()
		return uv.NewString(t.text), nil
	case tokAtom:
		return p.readAtom()
	case tokLParen:
		return p.readSeq(tokRParen)
	case tokLBracket:
		return p.readSeq(tokRBracket)
	case tokLBrace:
		return p.readMap()
	default:
		return uv.Null, fmt.Errorf("unexpected token")
	}
}

func (p *parser) readAtom() (uv.Value, error) {
	t := p.next()
	switch t.text {
	case "nil":
		return uv.Null, nil
	case "true":
		return uv.NewBool(true), nil
	case "false":
		return uv.NewBool(false), nil
	}
	if t.text == "#{" {
		p.lex.cur-- // readSeq consumes the "#{" atom as its opening delimiter
		return p.readSeq(tokRBrace)
	}
	if strings.HasPrefix(t.text, "#_") {
		_, err := p.readValue()
		if err != nil {
			return uv.Null, err
		}
		return p.readValue()
	}
	if strings.HasPrefix(t.text, ":") {
		return uv.NewString(t.text), nil
	}
	if intPattern.MatchString(t.text) {
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err == nil {
			return uv.NewInt(i), nil
		}
	}
	if floatPattern.MatchString(t.text) {
		f, err := strconv.ParseFloat(t.text, 64)
		if err == nil {
			return uv.NewFloat(f), nil
		}
	}
	return uv.NewString(t.text), nil
}

func (p *parser) readSeq(end tokenKind) (uv.Value, error) {
	p.next() // opening delimiter
	var out []uv.Value
	for {
		t := p.peek()
		if t.kind == end {
			p.next()
			break
		}
		if t.kind == tokEOF {
			return uv.Null, fmt.Errorf("unterminated collection")
		}
		v, err := p.readValue()
		if err != nil {
			return uv.Null, err
		}
		out = append(out, v)
	}
	return uv.NewArray(out), nil
}

func (p *parser) readMap() (uv.Value, error) {
	p.next() // {
	m := uv.NewOrderedMap()
	for {
		t := p.peek()
		if t.kind == tokRBrace {
			p.next()
			break
		}
		if t.kind == tokEOF {
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

// Serialize writes v to w as EDN.
func Serialize(w io.Writer, v uv.Value) error {
	bw := bufio.NewWriter(w)
	if err := writeValue(bw, v); err != nil {
		return format.WriteErr("%v", err)
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func writeValue(w *bufio.Writer, v uv.Value) error {
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
		writeEDNString(w, v.Str)
	case uv.KindBytes:
		writeEDNString(w, string(v.Bytes))
	case uv.KindArray:
		w.WriteByte('[')
		for i, el := range v.Array {
			if i > 0 {
				w.WriteByte(' ')
			}
			if err := writeValue(w, el); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case uv.KindMap:
		w.WriteByte('{')
		for i, k := range v.Map.Keys() {
			if i > 0 {
				w.WriteByte(' ')
			}
			writeEDNString(w, k)
			w.WriteByte(' ')
			child, _ := v.Map.Get(k)
			if err := writeValue(w, child); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	}
	return nil
}

func writeEDNString(w *bufio.Writer, s string) {
	if strings.HasPrefix(s, ":") {
		w.WriteString(s)
		return
	}
	w.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		case '\n':
			w.WriteString(`\n`)
		case '\t':
			w.WriteString(`\t`)
		default:
			w.WriteRune(r)
		}
	}
	w.WriteByte('"')
}
