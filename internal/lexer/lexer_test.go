package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeStatementKeywords(t *testing.T) {
	toks, err := Tokenize(`rename "old" -> "new"`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KwRename, StringLit, Arrow, StringLit}, kinds(toks))
}

func TestTokenizeNegativeNumberAfterOperator(t *testing.T) {
	toks, err := Tokenize(`set price = -3.5`)
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, FloatLit, toks[3].Kind)
	assert.Equal(t, -3.5, toks[3].Float)
}

func TestTokenizeSubtractionNotConfusedWithNegative(t *testing.T) {
	toks, err := Tokenize(`set x = total - 1`)
	require.NoError(t, err)
	var foundMinus bool
	for _, tok := range toks {
		if tok.Kind == Minus {
			foundMinus = true
		}
	}
	assert.True(t, foundMinus, "expected a standalone Minus token, not a negative literal")
}

func TestTokenizeIntVsFloat(t *testing.T) {
	toks, err := Tokenize(`42 3.14 -7 -2.5e3`)
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, IntLit, toks[0].Kind)
	assert.Equal(t, int64(42), toks[0].Int)
	assert.Equal(t, FloatLit, toks[1].Kind)
	assert.Equal(t, IntLit, toks[2].Kind)
	assert.Equal(t, int64(-7), toks[2].Int)
	assert.Equal(t, FloatLit, toks[3].Kind)
	assert.Equal(t, -2500.0, toks[3].Float)
}

func TestTokenizeComment(t *testing.T) {
	toks, err := Tokenize("select a, b # trailing comment\nselect c")
	require.NoError(t, err)
	assert.NotContains(t, kinds(toks), EOF)
	var newlines int
	for _, k := range kinds(toks) {
		if k == Newline {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestTokenizeCollapsesConsecutiveNewlines(t *testing.T) {
	toks, err := Tokenize("select a\n\n\nselect b")
	require.NoError(t, err)
	var newlines int
	for _, k := range kinds(toks) {
		if k == Newline {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestTokenizePlainString(t *testing.T) {
	toks, err := Tokenize(`"hello\nworld"`)
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, StringLit, toks[0].Kind)
	assert.Equal(t, "hello\nworld", toks[0].Text)
}

func TestTokenizeInterpolatedString(t *testing.T) {
	toks, err := Tokenize(`"hello {name}!"`)
	require.NoError(t, err)
	require.Len(t, toks, 1)
	require.Equal(t, InterpString, toks[0].Kind)
	require.Len(t, toks[0].Interp, 3)
	assert.True(t, toks[0].Interp[0].Literal)
	assert.Equal(t, "hello ", toks[0].Interp[0].Text)
	assert.False(t, toks[0].Interp[1].Literal)
	assert.Equal(t, "name", toks[0].Interp[1].Path)
	assert.True(t, toks[0].Interp[2].Literal)
	assert.Equal(t, "!", toks[0].Interp[2].Text)
}

func TestTokenizeEscapedBraces(t *testing.T) {
	toks, err := Tokenize(`"\{literal\}"`)
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, StringLit, toks[0].Kind)
	assert.Equal(t, "{literal}", toks[0].Text)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := Tokenize(`"no closing quote`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string")
}

func TestTokenizeInvalidEscapeErrors(t *testing.T) {
	_, err := Tokenize(`"bad \q escape"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid escape")
}

func TestTokenizeIdentifierVsKeyword(t *testing.T) {
	toks, err := Tokenize(`where each not x`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KwWhere, KwEach, KwNot, Ident}, kinds(toks))
}

func TestTokenizeComparisonOperators(t *testing.T) {
	toks, err := Tokenize(`== != <= >= < >`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{EqEq, NotEq, LtEq, GtEq, Lt, Gt}, kinds(toks))
}

func TestTokenizeArrowVsMinus(t *testing.T) {
	toks, err := Tokenize(`a -> b - c`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{Ident, Arrow, Ident, Minus, Ident}, kinds(toks))
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, err := Tokenize("select a ~ b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected character")
}

func TestTokenizeSpanTracksLineAndColumn(t *testing.T) {
	toks, err := Tokenize("select a\nrename b -> c")
	require.NoError(t, err)
	var renameTok Token
	for _, tok := range toks {
		if tok.Kind == KwRename {
			renameTok = tok
		}
	}
	assert.Equal(t, 2, renameTok.Span.Line)
	assert.Equal(t, 1, renameTok.Span.Column)
}
