// Package parser turns a token stream from pkg/lexer into a pkg/ast.Program
// via recursive descent with Pratt-style operator precedence.
package parser

import (
	"fmt"

	"github.com/chen-lang/chen/pkg/ast"
	"github.com/chen-lang/chen/pkg/lexer"
)

// ParseError is a CompileError-class failure: tokenization or parsing.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type Parser struct {
	toks []lexer.Token
	pos  int
}

func New(src string) *Parser {
	return &Parser{toks: lexer.Tokenize(src)}
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }
func (p *Parser) peekN(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *Parser) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	if !p.check(t) {
		return lexer.Token{}, &ParseError{
			Message: fmt.Sprintf("expected %s, got %q", what, p.cur().Literal),
			Line:    p.cur().Line,
			Column:  p.cur().Column,
		}
	}
	return p.advance(), nil
}

// Parse parses a complete program.
func Parse(src string) (*ast.Program, error) {
	p := New(src)
	prog := &ast.Program{}
	for !p.check(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.LET:
		return p.parseLet()
	case lexer.DEF:
		return p.parseFunctionDecl(false)
	case lexer.ASYNC:
		if p.peekN(1).Type == lexer.DEF {
			p.advance()
			return p.parseFunctionDecl(true)
		}
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	case lexer.BREAK:
		p.advance()
		return &ast.BreakStatement{}, nil
	case lexer.CONTINUE:
		p.advance()
		return &ast.ContinueStatement{}, nil
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.THROW:
		return p.parseThrow()
	case lexer.TRY:
		return p.parseTry()
	case lexer.IMPORT:
		return p.parseImport()
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if p.check(lexer.EQ) {
		p.advance()
		rhs, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Target: expr, Value: rhs}, nil
	}
	return &ast.ExpressionStatement{Expr: expr}, nil
}

func (p *Parser) parseLet() (ast.Statement, error) {
	p.advance()
	name, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQ, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &ast.LetStatement{Name: name.Literal, Value: val}, nil
}

func (p *Parser) parseParamList() ([]string, error) {
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for !p.check(lexer.RPAREN) {
		if len(params) > 0 {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		name, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, name.Literal)
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunctionDecl(isAsync bool) (ast.Statement, error) {
	p.advance() // 'def'
	name, err := p.expect(lexer.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if isAsync {
		return &ast.AsyncFunctionDecl{Name: name.Literal, Params: params, Body: body}, nil
	}
	return &ast.FunctionDecl{Name: name.Literal, Params: params, Body: body}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	p.advance() // 'if'
	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Cond: cond, Then: then}
	if p.check(lexer.ELSE) {
		p.advance()
		if p.check(lexer.IF) {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = []ast.Statement{elseIf}
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	p.advance() // 'for'
	if p.check(lexer.LBRACE) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.ForStatement{Body: body}, nil
	}
	if p.check(lexer.IDENT) && p.peekN(1).Type == lexer.IN {
		varName := p.advance().Literal
		p.advance() // 'in'
		iter, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.ForStatement{IterVar: varName, Iter: iter, Body: body}, nil
	}
	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStatement{Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	p.advance()
	if p.check(lexer.RBRACE) || p.check(lexer.EOF) {
		return &ast.ReturnStatement{}, nil
	}
	val, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Value: val}, nil
}

func (p *Parser) parseThrow() (ast.Statement, error) {
	p.advance()
	val, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return &ast.ThrowStatement{Value: val}, nil
}

func (p *Parser) parseTry() (ast.Statement, error) {
	p.advance() // 'try'
	tryBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{Try: tryBody}
	if p.check(lexer.CATCH) {
		p.advance()
		stmt.HasCatch = true
		if p.check(lexer.IDENT) {
			stmt.CatchName = p.advance().Literal
		}
		catchBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Catch = catchBody
	}
	if p.check(lexer.FINALLY) {
		p.advance()
		stmt.HasFinally = true
		finallyBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Finally = finallyBody
	}
	return stmt, nil
}

func (p *Parser) parseImport() (ast.Statement, error) {
	p.advance() // 'import'
	pathTok, err := p.expect(lexer.STRING, "module path string")
	if err != nil {
		return nil, err
	}
	stmt := &ast.ImportStatement{Path: pathTok.Literal}
	if p.check(lexer.AS) {
		p.advance()
		name, err := p.expect(lexer.IDENT, "identifier")
		if err != nil {
			return nil, err
		}
		stmt.As = name.Literal
	}
	return stmt, nil
}

// ---- Expressions (Pratt parser) ----

var precedence = map[lexer.TokenType]int{
	lexer.OR:         1,
	lexer.AND:        2,
	lexer.EQ_EQ:      3,
	lexer.NOT_EQ:     3,
	lexer.LESS:       4,
	lexer.LESS_EQ:    4,
	lexer.GREATER:    4,
	lexer.GREATER_EQ: 4,
	lexer.PLUS:       5,
	lexer.MINUS:      5,
	lexer.STAR:       6,
	lexer.SLASH:      6,
	lexer.PERCENT:    6,
}

var opSymbols = map[lexer.TokenType]string{
	lexer.OR: "||", lexer.AND: "&&", lexer.EQ_EQ: "==", lexer.NOT_EQ: "!=",
	lexer.LESS: "<", lexer.LESS_EQ: "<=", lexer.GREATER: ">", lexer.GREATER_EQ: ">=",
	lexer.PLUS: "+", lexer.MINUS: "-", lexer.STAR: "*", lexer.SLASH: "/", lexer.PERCENT: "%",
}

func (p *Parser) parseExpression(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedence[p.cur().Type]
		if !ok || prec < minPrec {
			break
		}
		opTok := p.advance()
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: opSymbols[opTok.Type], Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(lexer.MINUS) || p.check(lexer.BANG) {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := "-"
		if opTok.Type == lexer.BANG {
			op = "!"
		}
		return &ast.UnaryOp{Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case lexer.DOT:
			p.advance()
			name, err := p.expect(lexer.IDENT, "field name")
			if err != nil {
				return nil, err
			}
			if p.check(lexer.LPAREN) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				expr = &ast.CallExpr{Callee: &ast.FieldAccess{Object: expr, Field: name.Literal}, Args: args}
			} else {
				expr = &ast.FieldAccess{Object: expr, Field: name.Literal}
			}
		case lexer.COLON:
			p.advance()
			name, err := p.expect(lexer.IDENT, "method name")
			if err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.MethodCallExpr{Receiver: expr, Method: name.Literal, Args: args}
		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Object: expr, Index: idx}
		case lexer.LPAREN:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.check(lexer.RPAREN) {
		if len(args) > 0 {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		var v int64
		fmt.Sscanf(tok.Literal, "%d", &v)
		return &ast.IntLiteral{Value: v}, nil
	case lexer.DECIMAL:
		p.advance()
		return &ast.DecimalLiteral{Raw: tok.Literal}, nil
	case lexer.STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Literal}, nil
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true}, nil
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false}, nil
	case lexer.NULL:
		p.advance()
		return &ast.NullLiteral{}, nil
	case lexer.IDENT:
		p.advance()
		return &ast.Identifier{Name: tok.Literal}, nil
	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.DOLLAR_BRACE:
		return p.parseObjectLiteral()
	case lexer.DEF:
		return p.parseFunctionLiteral()
	case lexer.ASYNC:
		return p.parseAsyncExpr()
	case lexer.AWAIT:
		p.advance()
		val, err := p.parseExpression(6)
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpr{Value: val}, nil
	}
	return nil, &ParseError{Message: fmt.Sprintf("unexpected token %q", tok.Literal), Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	p.advance() // '['
	var elems []ast.Expr
	for !p.check(lexer.RBRACKET) {
		if len(elems) > 0 {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Elements: elems}, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expr, error) {
	p.advance() // '${'
	var entries []ast.ObjectEntry
	for !p.check(lexer.RBRACE) {
		if len(entries) > 0 {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		key, err := p.expect(lexer.IDENT, "field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.ObjectEntry{Key: key.Literal, Value: val})
	}
	if _, err := p.expect(lexer.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &ast.ObjectLiteral{Entries: entries}, nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expr, error) {
	p.advance() // 'def'
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionLiteral{Params: params, Body: body}, nil
}

func (p *Parser) parseAsyncExpr() (ast.Expr, error) {
	p.advance() // 'async'
	if _, err := p.expect(lexer.DEF, "'def'"); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.AsyncExpr{Params: params, Body: body}, nil
}
