package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/morph-lang/morph/internal/diag"
)

// Tokenize turns mapping-language source into a token stream. Tokenization
// is greedy and context-free per §4.1: ambiguities like '-' followed by a
// digit resolve to the longest match that yields a valid token, so '-'
// immediately followed by a digit always starts a negative literal and is
// the subtraction operator only when something else follows it.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{input: []byte(src), line: 1, column: 1}
	return l.run()
}

type lexer struct {
	input  []byte
	pos    int
	line   int
	column int
	tokens []Token
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *lexer) here() Span { return Span{Line: l.line, Column: l.column, Length: 1} }

func (l *lexer) errAt(span Span, format string, args ...interface{}) error {
	return &diag.Diagnostic{
		Severity: diag.SeverityError,
		Kind:     "LexError",
		Message:  fmt.Sprintf(format, args...),
		Pos:      diag.Position{Line: span.Line, Column: span.Column},
		SpanLen:  span.Length,
	}
}

func (l *lexer) run() ([]Token, error) {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '\n':
			span := l.here()
			l.advance()
			if last := l.lastKind(); last != Newline && last != -1 {
				l.tokens = append(l.tokens, Token{Kind: Newline, Span: span})
			} else if last == -1 {
				// newline before any token: insignificant
			}
		case ch == '#':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case ch == '"':
			tok, err := l.readString()
			if err != nil {
				return nil, err
			}
			l.tokens = append(l.tokens, tok)
		case isDigit(ch):
			l.tokens = append(l.tokens, l.readNumber(false))
		case ch == '-':
			if err := l.readMinus(); err != nil {
				return nil, err
			}
		case isIdentStart(ch):
			l.tokens = append(l.tokens, l.readIdent())
		default:
			tok, err := l.readOperator()
			if err != nil {
				return nil, err
			}
			l.tokens = append(l.tokens, tok)
		}
	}
	return l.tokens, nil
}

// lastKind returns the kind of the most recently emitted token, or -1 if
// none has been emitted yet.
func (l *lexer) lastKind() Kind {
	if len(l.tokens) == 0 {
		return -1
	}
	return l.tokens[len(l.tokens)-1].Kind
}

func (l *lexer) readMinus() error {
	span := l.here()
	l.advance()
	if l.peek() == '>' {
		l.advance()
		span.Length = 2
		l.tokens = append(l.tokens, Token{Kind: Arrow, Span: span})
		return nil
	}
	if isDigit(l.peek()) {
		l.tokens = append(l.tokens, l.readNumberFrom(span, true))
		return nil
	}
	l.tokens = append(l.tokens, Token{Kind: Minus, Span: span})
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func (l *lexer) readNumber(negative bool) Token {
	return l.readNumberFrom(l.here(), negative)
}

func (l *lexer) readNumberFrom(span Span, negative bool) Token {
	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		savedLine, savedCol := l.line, l.column
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			isFloat = true
			for isDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.column = save, savedLine, savedCol
		}
	}
	text := string(l.input[start:l.pos])
	span.Length = l.pos - start
	if negative {
		span.Length++
	}
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		if negative {
			f = -f
		}
		return Token{Kind: FloatLit, Span: span, Float: f, Text: text}
	}
	n, _ := strconv.ParseInt(text, 10, 64)
	if negative {
		n = -n
	}
	return Token{Kind: IntLit, Span: span, Int: n, Text: text}
}

func (l *lexer) readIdent() Token {
	span := l.here()
	start := l.pos
	for l.pos < len(l.input) && isIdentCont(l.peek()) {
		l.advance()
	}
	text := string(l.input[start:l.pos])
	span.Length = len(text)
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Span: span, Text: text}
	}
	return Token{Kind: Ident, Span: span, Text: text}
}

// readString reads a double-quoted string, decoding \n \t \" \\ \uXXXX
// escapes and \{ \} literal braces. It returns an InterpString token when
// the body contains a `{<path>}` substitution, and a plain StringLit
// otherwise.
func (l *lexer) readString() (Token, error) {
	span := l.here()
	startLine, startCol := l.line, l.column
	startPos := l.pos
	l.advance() // opening quote

	var parts []InterpPart
	var lit strings.Builder
	var plain strings.Builder
	hasInterp := false

	flushLiteral := func() {
		if lit.Len() > 0 {
			parts = append(parts, InterpPart{Literal: true, Text: lit.String()})
			lit.Reset()
		}
	}

	for {
		if l.pos >= len(l.input) {
			return Token{}, l.errAt(Span{Line: startLine, Column: startCol}, "unterminated string literal")
		}
		ch := l.peek()
		if ch == '"' {
			l.advance()
			break
		}
		if ch == '\\' {
			l.advance()
			esc := l.peek()
			switch esc {
			case 'n':
				l.advance()
				lit.WriteByte('\n')
				plain.WriteByte('\n')
			case 't':
				l.advance()
				lit.WriteByte('\t')
				plain.WriteByte('\t')
			case '"':
				l.advance()
				lit.WriteByte('"')
				plain.WriteByte('"')
			case '\\':
				l.advance()
				lit.WriteByte('\\')
				plain.WriteByte('\\')
			case '{':
				l.advance()
				lit.WriteByte('{')
				plain.WriteByte('{')
			case '}':
				l.advance()
				lit.WriteByte('}')
				plain.WriteByte('}')
			case 'u':
				l.advance()
				r, err := l.readUnicodeEscape()
				if err != nil {
					return Token{}, err
				}
				lit.WriteRune(r)
				plain.WriteRune(r)
			default:
				return Token{}, l.errAt(l.here(), "invalid escape sequence '\\%c'", esc)
			}
			continue
		}
		if ch == '{' {
			hasInterp = true
			flushLiteral()
			l.advance()
			pathStart := l.pos
			depth := 1
			for {
				if l.pos >= len(l.input) {
					return Token{}, l.errAt(Span{Line: startLine, Column: startCol}, "unterminated interpolation in string")
				}
				if l.peek() == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				if l.peek() == '{' {
					depth++
				}
				l.advance()
			}
			pathSrc := string(l.input[pathStart:l.pos])
			l.advance() // closing }
			parts = append(parts, InterpPart{Literal: false, Path: pathSrc})
			continue
		}
		if ch == '}' {
			return Token{}, l.errAt(l.here(), "unescaped '}' in string literal; use \\} for a literal brace")
		}
		r, size := utf8.DecodeRune(l.input[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		lit.WriteRune(r)
		plain.WriteRune(r)
	}

	span.Length = l.pos - startPos
	if hasInterp {
		flushLiteral()
		return Token{Kind: InterpString, Span: span, Interp: parts}, nil
	}
	return Token{Kind: StringLit, Span: span, Text: plain.String()}, nil
}

func (l *lexer) readUnicodeEscape() (rune, error) {
	if l.pos+4 > len(l.input) {
		return 0, l.errAt(l.here(), "incomplete \\u escape")
	}
	hex := string(l.input[l.pos : l.pos+4])
	for i := 0; i < 4; i++ {
		l.advance()
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, l.errAt(l.here(), "invalid \\u escape '%s'", hex)
	}
	return rune(n), nil
}

func (l *lexer) readOperator() (Token, error) {
	span := l.here()
	ch := l.advance()
	two := func(next byte, twoKind, oneKind Kind) Token {
		if l.peek() == next {
			l.advance()
			span.Length = 2
			return Token{Kind: twoKind, Span: span}
		}
		return Token{Kind: oneKind, Span: span}
	}
	switch ch {
	case '=':
		return two('=', EqEq, Eq), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			span.Length = 2
			return Token{Kind: NotEq, Span: span}, nil
		}
		return Token{}, l.errAt(span, "unexpected character '!'")
	case '<':
		return two('=', LtEq, Lt), nil
	case '>':
		return two('=', GtEq, Gt), nil
	case '+':
		return Token{Kind: Plus, Span: span}, nil
	case '*':
		return Token{Kind: Star, Span: span}, nil
	case '/':
		return Token{Kind: Slash, Span: span}, nil
	case '%':
		return Token{Kind: Percent, Span: span}, nil
	case ';':
		return Token{Kind: Semi, Span: span}, nil
	case '{':
		return Token{Kind: LBrace, Span: span}, nil
	case '}':
		return Token{Kind: RBrace, Span: span}, nil
	case '(':
		return Token{Kind: LParen, Span: span}, nil
	case ')':
		return Token{Kind: RParen, Span: span}, nil
	case '[':
		return Token{Kind: LBracket, Span: span}, nil
	case ']':
		return Token{Kind: RBracket, Span: span}, nil
	case ',':
		return Token{Kind: Comma, Span: span}, nil
	case '.':
		return Token{Kind: Dot, Span: span}, nil
	default:
		return Token{}, l.errAt(span, "unexpected character '%c'", ch)
	}
}
