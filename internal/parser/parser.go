// Package parser builds a ParseTree from a token stream with one token of
// lookahead recursive descent. There is no Pratt/precedence-climbing
// engine here: the grammar's precedence is fully encoded in the layering
// of the parse* functions below, so a prefix/infix function table would
// add nothing.
package parser

import (
	"github.com/mcgru/curryinterp/internal/ast"
	"github.com/mcgru/curryinterp/internal/diagnostics"
	"github.com/mcgru/curryinterp/internal/lexer"
	"github.com/mcgru/curryinterp/internal/token"
	"github.com/mcgru/curryinterp/internal/values"
)

// Parser holds the state of a single parse: the lexer it pulls from and
// one token of lookahead.
type Parser struct {
	lex      *lexer.Lexer
	curToken token.Token
	err      error
}

// New creates a Parser over lex. The first call to nextToken happens
// during construction so curToken is always valid.
func New(lex *lexer.Lexer) *Parser {
	p := &Parser{lex: lex}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.NextToken()
	if err != nil {
		p.err = err
		return
	}
	p.curToken = tok
}

func (p *Parser) pos() ast.Position {
	return ast.PosFromToken(p.curToken)
}

// expect errors unless curToken's type is one of kinds; it does not
// advance.
func (p *Parser) expect(kinds ...token.TokenType) error {
	for _, k := range kinds {
		if p.curToken.Type == k {
			return nil
		}
	}
	return diagnostics.NewParserError(diagnostics.Position(p.pos()), "unexpected token", string(p.curToken.Type))
}

// consume expects one of kinds, then advances, returning the matched
// token.
func (p *Parser) consume(kinds ...token.TokenType) (token.Token, error) {
	if err := p.expect(kinds...); err != nil {
		return token.Token{}, err
	}
	tok := p.curToken
	p.nextToken()
	return tok, p.err
}

// Parse runs the whole grammar: { declaration } EOF.
func Parse(lex *lexer.Lexer) (*ast.ParseTree, error) {
	p := New(lex)
	if p.err != nil {
		return nil, p.err
	}
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.ParseTree, error) {
	pos := p.pos()
	var decls []ast.Decl
	for p.curToken.Type != token.EOF {
		if p.err != nil {
			return nil, p.err
		}
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return &ast.ParseTree{Position: pos, Declarations: decls}, nil
}

// parseDeclaration dispatches on the first lookahead token: a currency
// type followed by ':=' is a currency declaration; a type keyword or
// currency type otherwise starts a variable or function declaration,
// disambiguated by whether '(' follows the identifier.
func (p *Parser) parseDeclaration() (ast.Decl, error) {
	if p.curToken.Type == token.CURRENCY_TYPE {
		name := p.curToken.Lexeme
		pos := p.pos()
		save := p.curToken
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		if p.curToken.Type == token.COLON_ASSIGN {
			return p.parseCurrencyDeclaration(pos, name)
		}
		// Not a currency declaration after all: it's a currency TYPE
		// starting a variable/function declaration. Re-synthesize the
		// type node from the token we already consumed.
		typ := ast.CurrencyType{Position: ast.PosFromToken(save), Name: name}
		return p.parseVarOrFuncDeclaration(typ)
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return p.parseVarOrFuncDeclaration(typ)
}

func (p *Parser) parseCurrencyDeclaration(pos ast.Position, name string) (ast.Decl, error) {
	if _, err := p.consume(token.COLON_ASSIGN); err != nil {
		return nil, err
	}
	if err := p.expect(token.FLOAT, token.INT); err != nil {
		return nil, err
	}
	rate := literalAsFloat(p.curToken)
	p.nextToken()
	if p.err != nil {
		return nil, p.err
	}
	if _, err := p.consume(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.CurrencyDeclaration{Position: pos, Name: name, Rate: rate}, nil
}

func literalAsFloat(tok token.Token) float64 {
	switch v := tok.Literal.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (p *Parser) parseVarOrFuncDeclaration(typ ast.Type) (ast.Decl, error) {
	idTok, err := p.consume(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.LPAREN {
		return p.parseFunctionDeclaration(typ, idTok)
	}
	decl, err := p.finishVariableDeclaration(typ, idTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) finishVariableDeclaration(typ ast.Type, idTok token.Token) (*ast.VariableDeclaration, error) {
	decl := &ast.VariableDeclaration{Position: ast.PosFromToken(idTok), Type: typ, ID: idTok.Lexeme}
	if p.curToken.Type == token.ASSIGN {
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = expr
	}
	return decl, nil
}

func (p *Parser) parseFunctionDeclaration(typ ast.Type, idTok token.Token) (ast.Decl, error) {
	if _, err := p.consume(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.curToken.Type != token.RPAREN {
		if len(params) > 0 {
			if _, err := p.consume(token.COMMA); err != nil {
				return nil, err
			}
		}
		ptype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		pidTok, err := p.consume(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Position: ast.PosFromToken(pidTok), ID: pidTok.Lexeme, Type: ptype})
	}
	if _, err := p.consume(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{
		Position:   ast.PosFromToken(idTok),
		ReturnType: typ,
		ID:         idTok.Lexeme,
		Params:     params,
		Body:       body,
	}, nil
}

// parseType parses one of the fixed simple type keywords or a currency
// type name.
func (p *Parser) parseType() (ast.Type, error) {
	tok := p.curToken
	pos := ast.PosFromToken(tok)
	switch tok.Type {
	case token.INT_TYPE:
		p.nextToken()
		return ast.SimpleType{Position: pos, Kind: "int"}, p.err
	case token.FLOAT_TYPE:
		p.nextToken()
		return ast.SimpleType{Position: pos, Kind: "float"}, p.err
	case token.STRING_TYPE:
		p.nextToken()
		return ast.SimpleType{Position: pos, Kind: "string"}, p.err
	case token.BOOL_TYPE:
		p.nextToken()
		return ast.SimpleType{Position: pos, Kind: "bool"}, p.err
	case token.VOID_TYPE:
		p.nextToken()
		return ast.SimpleType{Position: pos, Kind: "void"}, p.err
	case token.CURRENCY_TYPE:
		p.nextToken()
		return ast.CurrencyType{Position: pos, Name: tok.Lexeme}, p.err
	default:
		return nil, diagnostics.NewParserError(diagnostics.Position(p.pos()), "expected a type", string(tok.Type))
	}
}

func (p *Parser) parseStatements() (*ast.Statements, error) {
	pos := p.pos()
	stmts := &ast.Statements{Position: pos}
	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts.List = append(stmts.List, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.curToken.Type {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.INT_TYPE, token.FLOAT_TYPE, token.STRING_TYPE, token.BOOL_TYPE, token.VOID_TYPE, token.CURRENCY_TYPE:
		return p.parseVariableDeclarationStatement()
	case token.IDENT:
		return p.parseIdentStatement()
	default:
		return nil, diagnostics.NewParserError(diagnostics.Position(p.pos()), "expected a statement", string(p.curToken.Type))
	}
}

// parseVariableDeclarationStatement handles `type id [= expr];` inside a
// function body. A CURRENCY_TYPE lookahead here is unambiguous: currency
// declarations only ever occur at the top level, keyed off ':=' instead
// of '='.
func (p *Parser) parseVariableDeclarationStatement() (ast.Stmt, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	idTok, err := p.consume(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl, err := p.finishVariableDeclaration(typ, idTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseIdentStatement handles the two statement forms that start with a
// bare identifier: assignment (`id = expr;`) and a call used as a
// statement (`id(args);`).
func (p *Parser) parseIdentStatement() (ast.Stmt, error) {
	idTok, err := p.consume(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.LPAREN {
		call, err := p.finishCall(idTok)
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.SEMICOLON); err != nil {
			return nil, err
		}
		return call, nil
	}
	if _, err := p.consume(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Assignment{Position: ast.PosFromToken(idTok), ID: idTok.Lexeme, Value: value}, nil
}

func (p *Parser) parseIfStatement() (ast.Stmt, error) {
	pos := p.pos()
	if _, err := p.consume(token.IF); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.IfStatement{Position: pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseWhileStatement() (ast.Stmt, error) {
	pos := p.pos()
	if _, err := p.consume(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Position: pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturnStatement() (ast.Stmt, error) {
	pos := p.pos()
	if _, err := p.consume(token.RETURN); err != nil {
		return nil, err
	}
	ret := &ast.ReturnStatement{Position: pos}
	if p.curToken.Type != token.SEMICOLON {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ret.Value = expr
	}
	if _, err := p.consume(token.SEMICOLON); err != nil {
		return nil, err
	}
	return ret, nil
}

// ---- expression grammar: or -> and -> relational -> sum -> mul -> cast -> negation -> factor ----

func (p *Parser) parseExpression() (ast.Expr, error) {
	pos := p.pos()
	first, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}
	operands := []ast.Expr{first}
	for p.curToken.Type == token.OR {
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		next, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &ast.Expression{Position: pos, Operands: operands}, nil
}

func (p *Parser) parseAndExpression() (ast.Expr, error) {
	pos := p.pos()
	first, err := p.parseRelExpression()
	if err != nil {
		return nil, err
	}
	operands := []ast.Expr{first}
	for p.curToken.Type == token.AND {
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		next, err := p.parseRelExpression()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return &ast.AndExpression{Position: pos, Operands: operands}, nil
}

var relOps = map[token.TokenType]bool{
	token.EQ: true, token.NOT_EQ: true,
	token.LT: true, token.GT: true,
	token.LTE: true, token.GTE: true,
}

func (p *Parser) parseRelExpression() (ast.Expr, error) {
	pos := p.pos()
	left, err := p.parseSumExpression()
	if err != nil {
		return nil, err
	}
	if !relOps[p.curToken.Type] {
		return left, nil
	}
	op := p.curToken.Type
	p.nextToken()
	if p.err != nil {
		return nil, p.err
	}
	right, err := p.parseSumExpression()
	if err != nil {
		return nil, err
	}
	return &ast.RelationshipExpression{Position: pos, Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseSumExpression() (ast.Expr, error) {
	pos := p.pos()
	left, err := p.parseMulExpression()
	if err != nil {
		return nil, err
	}
	var rest []ast.BinaryOp
	for p.curToken.Type == token.PLUS || p.curToken.Type == token.MINUS {
		op := p.curToken.Type
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		right, err := p.parseMulExpression()
		if err != nil {
			return nil, err
		}
		rest = append(rest, ast.BinaryOp{Op: op, Right: right})
	}
	if len(rest) == 0 {
		return left, nil
	}
	return &ast.SumExpression{Position: pos, Left: left, Rest: rest}, nil
}

func (p *Parser) parseMulExpression() (ast.Expr, error) {
	pos := p.pos()
	left, err := p.parseCastFactor()
	if err != nil {
		return nil, err
	}
	var rest []ast.BinaryOp
	for p.curToken.Type == token.ASTERISK || p.curToken.Type == token.SLASH || p.curToken.Type == token.PERCENT {
		op := p.curToken.Type
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		right, err := p.parseCastFactor()
		if err != nil {
			return nil, err
		}
		rest = append(rest, ast.BinaryOp{Op: op, Right: right})
	}
	if len(rest) == 0 {
		return left, nil
	}
	return &ast.MultiplyExpression{Position: pos, Left: left, Rest: rest}, nil
}

// parseCastFactor handles an optional leading type directly prefixing a
// negationFactor, e.g. `int x` or `USD 1.0`.
func (p *Parser) parseCastFactor() (ast.Expr, error) {
	pos := p.pos()
	var castType ast.Type
	if isTypeStart(p.curToken.Type) {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		castType = typ
	}
	inner, err := p.parseNegationFactor()
	if err != nil {
		return nil, err
	}
	if castType == nil {
		return inner, nil
	}
	return &ast.TypeCastingFactor{Position: pos, Inner: inner, CastType: castType}, nil
}

func isTypeStart(t token.TokenType) bool {
	return token.IsTypeKeyword(t) || t == token.CURRENCY_TYPE
}

func (p *Parser) parseNegationFactor() (ast.Expr, error) {
	pos := p.pos()
	if p.curToken.Type == token.BANG {
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		factor, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.NegationFactor{Position: pos, Factor: factor, Negated: true}, nil
	}
	return p.parseFactor()
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	pos := p.pos()
	switch p.curToken.Type {
	case token.LPAREN:
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.IDENT:
		idTok := p.curToken
		p.nextToken()
		if p.err != nil {
			return nil, p.err
		}
		if p.curToken.Type == token.LPAREN {
			return p.finishCall(idTok)
		}
		return &ast.Variable{Position: pos, ID: idTok.Lexeme}, nil
	case token.INT:
		n := p.curToken.Literal.(int64)
		p.nextToken()
		return &ast.Constant{Position: pos, Value: values.Int(n)}, p.err
	case token.FLOAT:
		f := p.curToken.Literal.(float64)
		p.nextToken()
		return &ast.Constant{Position: pos, Value: values.Float(f)}, p.err
	case token.STRING:
		s := p.curToken.Literal.(string)
		p.nextToken()
		return &ast.Constant{Position: pos, Value: values.String(s)}, p.err
	case token.BOOL:
		b := p.curToken.Literal.(bool)
		p.nextToken()
		return &ast.Constant{Position: pos, Value: values.Bool(b)}, p.err
	case token.CURRENCY:
		cv := p.curToken.Literal.(values.Currency)
		p.nextToken()
		return &ast.Constant{Position: pos, Value: cv}, p.err
	default:
		return nil, diagnostics.NewParserError(diagnostics.Position(pos), "invalid factor, expected nested expression, constant, variable or function call", string(p.curToken.Type))
	}
}

func (p *Parser) finishCall(idTok token.Token) (*ast.FunctionCall, error) {
	if _, err := p.consume(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.curToken.Type != token.RPAREN {
		if len(args) > 0 {
			if _, err := p.consume(token.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.consume(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Position: ast.PosFromToken(idTok), ID: idTok.Lexeme, Args: args}, nil
}
