// Package parser implements the mapping language's recursive-descent
// parser with precedence climbing for expressions (§4.2). It dispatches
// on each statement's leading keyword, and resolves function-call names
// against the builtin registry at parse time per §4.6.
package parser

import (
	"fmt"
	"strings"

	"github.com/morph-lang/morph/internal/ast"
	"github.com/morph-lang/morph/internal/builtin"
	"github.com/morph-lang/morph/internal/diag"
	"github.com/morph-lang/morph/internal/lexer"
)

// Parse tokenizes-already source into a Program, resolving function
// names against reg.
func Parse(tokens []lexer.Token, reg *builtin.Registry) (*ast.Program, error) {
	p := &parser{tokens: tokens, reg: reg}
	return p.parseProgram()
}

// ParseSource is a convenience wrapper combining Tokenize and Parse.
func ParseSource(src string, reg *builtin.Registry) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks, reg)
}

type parser struct {
	tokens []lexer.Token
	pos    int
	reg    *builtin.Registry
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) errAt(tok lexer.Token, format string, args ...interface{}) error {
	return &diag.Diagnostic{
		Severity: diag.SeverityError,
		Kind:     "ParseError",
		Message:  fmt.Sprintf(format, args...),
		Pos:      diag.Position{Line: tok.Span.Line, Column: tok.Span.Column},
		SpanLen:  tok.Span.Length,
	}
}

func (p *parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.errAt(p.cur(), "expected %s, found %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

// skipTerminators consumes any run of Newline/Semi tokens.
func (p *parser) skipTerminators() {
	for p.at(lexer.Newline) || p.at(lexer.Semi) {
		p.advance()
	}
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	p.skipTerminators()
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
		if !p.at(lexer.EOF) {
			if !p.at(lexer.Newline) && !p.at(lexer.Semi) && !p.at(lexer.RBrace) {
				return nil, p.errAt(p.cur(), "expected end of statement, found %s", p.cur().Kind)
			}
		}
		p.skipTerminators()
	}
	return prog, nil
}

// parseBlock parses statements up to (but not consuming) a closing
// RBrace, used by `each { … }` and `when { … }`.
func (p *parser) parseBlock() ([]ast.Statement, error) {
	var stmts []ast.Statement
	p.skipTerminators()
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.at(lexer.RBrace) {
			if !p.at(lexer.Newline) && !p.at(lexer.Semi) {
				return nil, p.errAt(p.cur(), "expected end of statement, found %s", p.cur().Kind)
			}
		}
		p.skipTerminators()
	}
	return stmts, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.KwRename:
		return p.parseRename()
	case lexer.KwSelect:
		return p.parseSelectOrDrop(ast.StmtSelect)
	case lexer.KwDrop:
		return p.parseSelectOrDrop(ast.StmtDrop)
	case lexer.KwFlatten:
		return p.parseFlatten()
	case lexer.KwNest:
		return p.parseNest()
	case lexer.KwSet:
		return p.parseSetOrDefault(ast.StmtSet)
	case lexer.KwDefault:
		return p.parseSetOrDefault(ast.StmtDefault)
	case lexer.KwCast:
		return p.parseCast()
	case lexer.KwWhere:
		return p.parseWhere()
	case lexer.KwSort:
		return p.parseSort()
	case lexer.KwEach:
		return p.parseEach()
	case lexer.KwWhen:
		return p.parseWhen()
	case lexer.Ident:
		if suggestion := diag.Suggest(tok.Text, lexer.Keywords(), 2); suggestion != "" {
			return ast.Statement{}, p.errAt(tok, "unknown statement %q; did you mean %q?", tok.Text, suggestion)
		}
		return ast.Statement{}, p.errAt(tok, "unknown statement %q", tok.Text)
	default:
		return ast.Statement{}, p.errAt(tok, "expected a statement, found %s", tok.Kind)
	}
}

func (p *parser) parseRename() (ast.Statement, error) {
	start := p.advance() // rename
	from, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.Arrow); err != nil {
		return ast.Statement{}, err
	}
	to, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtRename, Span: start.Span, From: &from, To: &to}, nil
}

func (p *parser) parseSelectOrDrop(kind ast.StatementKind) (ast.Statement, error) {
	start := p.advance()
	paths, err := p.parsePathList()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: kind, Span: start.Span, Paths: paths}, nil
}

func (p *parser) parseFlatten() (ast.Statement, error) {
	start := p.advance() // flatten
	target, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	stmt := ast.Statement{Kind: ast.StmtFlatten, Span: start.Span, Target: &target}
	for p.at(lexer.Arrow) {
		p.advance()
		if p.at(lexer.KwPrefix) {
			p.advance()
			tok, err := p.expect(lexer.StringLit)
			if err != nil {
				return ast.Statement{}, err
			}
			stmt.Prefix = tok.Text
			stmt.HasExplicitPrefix = true
			continue
		}
		keys, err := p.parsePathList()
		if err != nil {
			return ast.Statement{}, err
		}
		stmt.Keys = keys
	}
	return stmt, nil
}

func (p *parser) parseNest() (ast.Statement, error) {
	start := p.advance() // nest
	keys, err := p.parsePathList()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.Arrow); err != nil {
		return ast.Statement{}, err
	}
	target, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtNest, Span: start.Span, Keys: keys, Target: &target}, nil
}

func (p *parser) parseSetOrDefault(kind ast.StatementKind) (ast.Statement, error) {
	start := p.advance()
	target, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return ast.Statement{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: kind, Span: start.Span, Target: &target, Value: &value}, nil
}

func (p *parser) parseCast() (ast.Statement, error) {
	start := p.advance() // cast
	target, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.KwAs); err != nil {
		return ast.Statement{}, err
	}
	tok, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Statement{}, err
	}
	castTo, ok := castTypeFromName(tok.Text)
	if !ok {
		suggestion := diag.Suggest(tok.Text, []string{"int", "float", "bool", "string"}, 2)
		if suggestion != "" {
			return ast.Statement{}, p.errAt(tok, "unknown cast target %q; did you mean %q?", tok.Text, suggestion)
		}
		return ast.Statement{}, p.errAt(tok, "unknown cast target %q; expected int, float, bool, or string", tok.Text)
	}
	return ast.Statement{Kind: ast.StmtCast, Span: start.Span, Target: &target, CastTo: castTo}, nil
}

func castTypeFromName(name string) (ast.CastType, bool) {
	switch name {
	case "int":
		return ast.CastInt, true
	case "float":
		return ast.CastFloat, true
	case "bool":
		return ast.CastBool, true
	case "string":
		return ast.CastString, true
	default:
		return 0, false
	}
}

func (p *parser) parseWhere() (ast.Statement, error) {
	start := p.advance() // where
	cond, err := p.parseExpr()
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtWhere, Span: start.Span, Cond: &cond}, nil
}

func (p *parser) parseSort() (ast.Statement, error) {
	start := p.advance() // sort
	var keys []ast.SortKey
	for {
		path, err := p.parsePath()
		if err != nil {
			return ast.Statement{}, err
		}
		dir := ast.SortAsc
		if p.at(lexer.KwAsc) {
			p.advance()
		} else if p.at(lexer.KwDesc) {
			p.advance()
			dir = ast.SortDesc
		}
		keys = append(keys, ast.SortKey{Expr: ast.Expr{Kind: ast.ExprPath, Span: path.Span, Path: &path}, Dir: dir})
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return ast.Statement{Kind: ast.StmtSort, Span: start.Span, SortKeys: keys}, nil
}

func (p *parser) parseEach() (ast.Statement, error) {
	start := p.advance() // each
	target, err := p.parsePath()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return ast.Statement{}, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtEach, Span: start.Span, Target: &target, Body: body}, nil
}

func (p *parser) parseWhen() (ast.Statement, error) {
	start := p.advance() // when
	cond, err := p.parseExpr()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return ast.Statement{}, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return ast.Statement{}, err
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{Kind: ast.StmtWhen, Span: start.Span, Cond: &cond, Body: body}, nil
}

// parsePathList parses one or more comma-separated paths.
func (p *parser) parsePathList() ([]ast.Path, error) {
	var paths []ast.Path
	for {
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return paths, nil
}

// parsePath parses a leading-dot path expression (§3.2).
func (p *parser) parsePath() (ast.Path, error) {
	dot, err := p.expect(lexer.Dot)
	if err != nil {
		return ast.Path{}, err
	}
	path := ast.Path{Span: dot.Span}

	for {
		matched := false
		switch {
		case p.at(lexer.LBracket):
			matched = true
			p.advance()
			if p.at(lexer.Star) {
				star := p.advance()
				if _, err := p.expect(lexer.RBracket); err != nil {
					return ast.Path{}, err
				}
				path.Segments = append(path.Segments, ast.PathSegment{Kind: ast.SegWildcard, Span: star.Span})
				break
			}
			tok, err := p.expect(lexer.StringLit)
			if err != nil {
				return ast.Path{}, err
			}
			if _, err := p.expect(lexer.RBracket); err != nil {
				return ast.Path{}, err
			}
			path.Segments = append(path.Segments, ast.PathSegment{Kind: ast.SegQuotedField, Name: tok.Text, Span: tok.Span})
		case p.at(lexer.Ident):
			matched = true
			tok := p.advance()
			path.Segments = append(path.Segments, ast.PathSegment{Kind: ast.SegField, Name: tok.Text, Span: tok.Span})
			for p.at(lexer.LBracket) {
				p.advance()
				if p.at(lexer.Star) {
					star := p.advance()
					path.Segments = append(path.Segments, ast.PathSegment{Kind: ast.SegWildcard, Span: star.Span})
				} else {
					idx, err := p.expect(lexer.IntLit)
					if err != nil {
						return ast.Path{}, err
					}
					path.Segments = append(path.Segments, ast.PathSegment{Kind: ast.SegIndex, Index: idx.Int, Span: idx.Span})
				}
				if _, err := p.expect(lexer.RBracket); err != nil {
					return ast.Path{}, err
				}
			}
		}
		if !matched {
			break
		}
		if p.at(lexer.Dot) {
			p.advance()
			continue
		}
		break
	}
	return path, nil
}

// --- Expressions: precedence climbing per §4.2 ---
// or < and < not(unary) < comparison < additive < multiplicative < unary minus < primary

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(lexer.KwOr) {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Span: tok.Span, BinOp: ast.OpOr, Left: cp(left), Right: cp(right)}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(lexer.KwAnd) {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Span: tok.Span, BinOp: ast.OpAnd, Left: cp(left), Right: cp(right)}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Expr, error) {
	if p.at(lexer.KwNot) {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprUnary, Span: tok.Span, UnaryOp: ast.OpNot, Operand: cp(operand)}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return ast.Expr{}, err
	}
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case lexer.EqEq:
			op = ast.OpEq
		case lexer.NotEq:
			op = ast.OpNotEq
		case lexer.Lt:
			op = ast.OpLt
		case lexer.LtEq:
			op = ast.OpLtEq
		case lexer.Gt:
			op = ast.OpGt
		case lexer.GtEq:
			op = ast.OpGtEq
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Span: tok.Span, BinOp: op, Left: cp(left), Right: cp(right)}
	}
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Kind == lexer.Minus {
			op = ast.OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Span: tok.Span, BinOp: op, Left: cp(left), Right: cp(right)}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnaryMinus()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.at(lexer.Star) || p.at(lexer.Slash) || p.at(lexer.Percent) {
		tok := p.advance()
		var op ast.BinOp
		switch tok.Kind {
		case lexer.Star:
			op = ast.OpMul
		case lexer.Slash:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		right, err := p.parseUnaryMinus()
		if err != nil {
			return ast.Expr{}, err
		}
		left = ast.Expr{Kind: ast.ExprBinary, Span: tok.Span, BinOp: op, Left: cp(left), Right: cp(right)}
	}
	return left, nil
}

func (p *parser) parseUnaryMinus() (ast.Expr, error) {
	if p.at(lexer.Minus) {
		tok := p.advance()
		operand, err := p.parseUnaryMinus()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprUnary, Span: tok.Span, UnaryOp: ast.OpNeg, Operand: cp(operand)}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.KwTrue:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitBool, Bool: true}, nil
	case lexer.KwFalse:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitBool, Bool: false}, nil
	case lexer.KwNull:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitNull}, nil
	case lexer.IntLit:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitInt, Int: tok.Int}, nil
	case lexer.FloatLit:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitFloat, Float: tok.Float}, nil
	case lexer.StringLit:
		p.advance()
		return ast.Expr{Kind: ast.ExprLiteral, Span: tok.Span, LitKind: ast.LitString, Str: tok.Text}, nil
	case lexer.InterpString:
		p.advance()
		return p.buildInterp(tok)
	case lexer.Dot:
		path, err := p.parsePath()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprPath, Span: path.Span, Path: &path}, nil
	case lexer.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return ast.Expr{}, err
		}
		return inner, nil
	case lexer.LBracket:
		return p.parseArrayLiteral()
	case lexer.Ident:
		return p.parseCall()
	default:
		return ast.Expr{}, p.errAt(tok, "expected an expression, found %s", tok.Kind)
	}
}

func (p *parser) parseArrayLiteral() (ast.Expr, error) {
	start := p.advance() // [
	var elems []ast.Expr
	if !p.at(lexer.RBracket) {
		for {
			el, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			elems = append(elems, el)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: ast.ExprArray, Span: start.Span, Elements: elems}, nil
}

func (p *parser) parseCall() (ast.Expr, error) {
	name := p.advance()
	if _, err := p.expect(lexer.LParen); err != nil {
		return ast.Expr{}, err
	}
	var args []ast.Expr
	if !p.at(lexer.RParen) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			args = append(args, arg)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return ast.Expr{}, err
	}

	if _, ok := p.reg.Lookup(name.Text); !ok {
		suggestion := diag.Suggest(name.Text, p.reg.Names(), 2)
		if suggestion != "" {
			return ast.Expr{}, p.errAt(name, "unknown function %q; did you mean %q?", name.Text, suggestion)
		}
		return ast.Expr{}, p.errAt(name, "unknown function %q", name.Text)
	}

	return ast.Expr{Kind: ast.ExprCall, Span: name.Span, FuncName: name.Text, Args: args}, nil
}

// buildInterp turns a lexer InterpString token's parts into an
// ExprInterp, recursively parsing each substitution's path source.
func (p *parser) buildInterp(tok lexer.Token) (ast.Expr, error) {
	var segs []ast.InterpSegment
	for _, part := range tok.Interp {
		if part.Literal {
			segs = append(segs, ast.InterpSegment{Literal: true, Text: part.Text})
			continue
		}
		pathSrc := strings.TrimSpace(part.Path)
		pathToks, err := lexer.Tokenize(pathSrc)
		if err != nil {
			return ast.Expr{}, err
		}
		sub := &parser{tokens: pathToks, reg: p.reg}
		path, err := sub.parsePath()
		if err != nil {
			return ast.Expr{}, err
		}
		segs = append(segs, ast.InterpSegment{Path: &path})
	}
	return ast.Expr{Kind: ast.ExprInterp, Span: tok.Span, Segments: segs}, nil
}

func cp(e ast.Expr) *ast.Expr { return &e }
