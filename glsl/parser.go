// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"math"
	"strconv"
	"strings"
)

// Parser builds a TranslationUnit from preprocessed tokens.
type Parser struct {
	tokens  []Token
	current int
	structs map[string]bool
}

// NewParser creates a parser over a token stream ending in TokenEOF.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		tokens = append(tokens, Token{Kind: TokenEOF})
	}
	return &Parser{tokens: tokens, structs: make(map[string]bool)}
}

// Parse parses the whole translation unit.
func (p *Parser) Parse() (*TranslationUnit, error) {
	unit := &TranslationUnit{}
	for !p.isAtEnd() {
		decl, err := p.externalDecl()
		if err != nil {
			return nil, err
		}
		if decl != nil {
			unit.Decls = append(unit.Decls, decl)
		}
	}
	return unit, nil
}

var qualifierWords = map[string]bool{
	"const": true, "in": true, "out": true, "inout": true, "uniform": true,
	"buffer": true, "shared": true, "attribute": true, "varying": true,
	"centroid": true, "sample": true, "patch": true,
	"flat": true, "smooth": true, "noperspective": true,
	"highp": true, "mediump": true, "lowp": true,
	"invariant": true, "precise": true,
	"readonly": true, "writeonly": true, "coherent": true, "volatile": true, "restrict": true,
	"layout": true,
}

func (p *Parser) externalDecl() (Decl, error) {
	if p.match(";") {
		return nil, nil
	}
	start := p.peek()
	if start.is("precision") {
		return nil, p.skipPast(";")
	}

	quals, err := p.qualifiers()
	if err != nil {
		return nil, err
	}

	if p.check("struct") {
		return p.structDecl(quals)
	}

	tok := p.peek()
	if tok.Kind == TokenIdent && !p.isTypeName(tok.Lexeme) && p.peekAt(1).is("{") {
		switch quals.Storage {
		case "uniform", "buffer", "in", "out":
			return p.blockDecl(quals, start.pos())
		}
	}

	// Qualifier-only declarations such as "layout(early_fragment_tests) in;"
	// or "invariant gl_Position;".
	if p.check(";") || (tok.Kind == TokenIdent && !p.isTypeName(tok.Lexeme) &&
		(p.peekAt(1).is(";") || p.peekAt(1).is(","))) {
		return nil, p.skipPast(";")
	}

	ts, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("declaration name")
	if err != nil {
		return nil, err
	}
	if p.check("(") {
		return p.functionDecl(ts, name)
	}
	return p.varDecl(quals, ts, name, start.pos())
}

func (p *Parser) qualifiers() (Qualifiers, error) {
	var q Qualifiers
	for {
		tok := p.peek()
		if tok.Kind != TokenIdent || !qualifierWords[tok.Lexeme] {
			return q, nil
		}
		p.advance()
		switch tok.Lexeme {
		case "layout":
			layout, err := p.layoutQualifier()
			if err != nil {
				return q, err
			}
			q.Layout = append(q.Layout, layout...)
		case "const", "in", "out", "inout", "uniform", "buffer", "shared":
			if q.Storage != "" && !(q.Storage == "const" && tok.Lexeme == "in") {
				return q, errorf(tok.pos(), "conflicting storage qualifiers '%s' and '%s'", q.Storage, tok.Lexeme)
			}
			q.Storage = tok.Lexeme
		case "attribute", "varying":
			q.Storage = "in"
		case "flat", "smooth", "noperspective":
			q.Interp = tok.Lexeme
		case "highp", "mediump", "lowp":
			q.Precision = tok.Lexeme
		case "invariant", "precise":
			q.Invariant = true
		case "readonly", "writeonly", "coherent", "volatile", "restrict":
			q.Memory = append(q.Memory, tok.Lexeme)
		}
	}
}

func (p *Parser) layoutQualifier() ([]LayoutQualifier, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var out []LayoutQualifier
	for {
		name, err := p.expectIdent("layout qualifier")
		if err != nil {
			return nil, err
		}
		lq := LayoutQualifier{Name: name.Lexeme, Position: name.pos()}
		if p.match("=") {
			if lq.Value, err = p.conditional(); err != nil {
				return nil, err
			}
		}
		out = append(out, lq)
		if !p.match(",") {
			break
		}
	}
	return out, p.expect(")")
}

func (p *Parser) structDecl(quals Qualifiers) (Decl, error) {
	start := p.advance() // struct
	name, err := p.expectIdent("struct name")
	if err != nil {
		return nil, err
	}
	p.structs[name.Lexeme] = true

	members, err := p.memberList()
	if err != nil {
		return nil, err
	}
	sd := &StructDecl{Name: name.Lexeme, Members: members, Position: start.pos()}
	if p.match(";") {
		return sd, nil
	}
	first, err := p.expectIdent("variable name")
	if err != nil {
		return nil, err
	}
	vd, err := p.varDecl(quals, TypeSpec{Name: name.Lexeme, Position: name.pos()}, first, first.pos())
	if err != nil {
		return nil, err
	}
	sd.Vars = vd
	return sd, nil
}

// memberList parses "{ type a, b; type c[2]; }".
func (p *Parser) memberList() ([]*VarDecl, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var members []*VarDecl
	for !p.check("}") {
		if p.isAtEnd() {
			return nil, errorf(p.peek().pos(), "unexpected end of input in member list")
		}
		start := p.peek()
		quals, err := p.qualifiers()
		if err != nil {
			return nil, err
		}
		ts, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent("member name")
		if err != nil {
			return nil, err
		}
		vd, err := p.varDecl(quals, ts, name, start.pos())
		if err != nil {
			return nil, err
		}
		for _, d := range vd.Vars {
			if d.Init != nil {
				return nil, errorf(d.Position, "member %s cannot have an initializer", d.Name)
			}
		}
		members = append(members, vd)
	}
	p.advance() // }
	return members, nil
}

func (p *Parser) blockDecl(quals Qualifiers, pos Position) (Decl, error) {
	name := p.advance()
	members, err := p.memberList()
	if err != nil {
		return nil, err
	}
	bd := &BlockDecl{Quals: quals, Name: name.Lexeme, Members: members, Position: pos}
	if inst := p.peek(); inst.Kind == TokenIdent {
		p.advance()
		bd.Instance = inst.Lexeme
		if p.check("[") {
			return nil, errorf(p.peek().pos(), "arrays of interface blocks are not supported")
		}
	}
	return bd, p.expect(";")
}

func (p *Parser) functionDecl(ret TypeSpec, name Token) (Decl, error) {
	fd := &FunctionDecl{Return: ret, Name: name.Lexeme, Position: ret.Position}
	p.advance() // (

	if p.check("void") && p.peekAt(1).is(")") {
		p.advance()
	}
	for !p.check(")") {
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		fd.Params = append(fd.Params, param)
		if !p.match(",") {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	if p.match(";") {
		return fd, nil
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	fd.Body = body
	return fd, nil
}

func (p *Parser) param() (Param, error) {
	start := p.peek()
	prm := Param{Position: start.pos()}
loop:
	for tok := p.peek(); tok.Kind == TokenIdent; tok = p.peek() {
		switch tok.Lexeme {
		case "const":
			prm.Const = true
		case "in", "out", "inout":
			prm.Storage = tok.Lexeme
		case "highp", "mediump", "lowp", "readonly", "writeonly", "coherent", "volatile", "restrict", "precise":
		default:
			break loop
		}
		p.advance()
	}
	ts, err := p.typeSpec()
	if err != nil {
		return prm, err
	}
	prm.Type = ts
	if p.peek().Kind == TokenIdent {
		prm.Name = p.advance().Lexeme
		if p.match("[") {
			if prm.Type.Array {
				return prm, errorf(p.previous().pos(), "arrays of arrays are not supported")
			}
			prm.Type.Array = true
			if !p.check("]") {
				if prm.Type.ArraySize, err = p.conditional(); err != nil {
					return prm, err
				}
			}
			if err := p.expect("]"); err != nil {
				return prm, err
			}
		}
	}
	return prm, nil
}

// varDecl parses the declarator list after the first name.
func (p *Parser) varDecl(quals Qualifiers, ts TypeSpec, name Token, pos Position) (*VarDecl, error) {
	vd := &VarDecl{Quals: quals, Type: ts, Position: pos}
	for {
		d := Declarator{Name: name.Lexeme, Position: name.pos()}
		if p.match("[") {
			if ts.Array {
				return nil, errorf(p.previous().pos(), "arrays of arrays are not supported")
			}
			d.Array = true
			if !p.check("]") {
				size, err := p.conditional()
				if err != nil {
					return nil, err
				}
				d.ArraySize = size
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
		}
		if p.match("=") {
			init, err := p.initializer()
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		vd.Vars = append(vd.Vars, d)
		if !p.match(",") {
			break
		}
		var err error
		if name, err = p.expectIdent("variable name"); err != nil {
			return nil, err
		}
	}
	return vd, p.expect(";")
}

// initializer parses an assignment expression or a brace list. Brace lists
// become constructor calls named "{}" whose type comes from the declaration.
func (p *Parser) initializer() (Expr, error) {
	if !p.check("{") {
		return p.assignment()
	}
	open := p.advance()
	call := &CallExpr{Callee: "{}", Position: open.pos()}
	for !p.check("}") {
		arg, err := p.initializer()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.match(",") {
			break
		}
	}
	return call, p.expect("}")
}

func (p *Parser) typeSpec() (TypeSpec, error) {
	tok := p.peek()
	if tok.Kind != TokenIdent || !p.isTypeName(tok.Lexeme) {
		return TypeSpec{}, errorf(tok.pos(), "expected type, found %s", tok.describe())
	}
	p.advance()
	ts := TypeSpec{Name: tok.Lexeme, Position: tok.pos()}
	if p.match("[") {
		ts.Array = true
		if !p.check("]") {
			size, err := p.conditional()
			if err != nil {
				return ts, err
			}
			ts.ArraySize = size
		}
		if err := p.expect("]"); err != nil {
			return ts, err
		}
		if p.check("[") {
			return ts, errorf(p.peek().pos(), "arrays of arrays are not supported")
		}
	}
	return ts, nil
}

func (p *Parser) isTypeName(name string) bool {
	_, builtin := builtinTypes[name]
	return builtin || p.structs[name]
}

// Statements.

func (p *Parser) block() (*BlockStmt, error) {
	open := p.peek()
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	b := &BlockStmt{Position: open.pos()}
	for !p.check("}") {
		if p.isAtEnd() {
			return nil, errorf(open.pos(), "unterminated block")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	p.advance()
	return b, nil
}

func (p *Parser) statement() (Stmt, error) {
	tok := p.peek()
	pos := tok.pos()
	switch {
	case tok.is("{"):
		return p.block()
	case tok.is(";"):
		p.advance()
		return &EmptyStmt{Position: pos}, nil
	case tok.is("precision"):
		return &EmptyStmt{Position: pos}, p.skipPast(";")
	case tok.is("if"):
		return p.ifStmt()
	case tok.is("for"):
		return p.forStmt()
	case tok.is("while"):
		p.advance()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body, Position: pos}, nil
	case tok.is("do"):
		p.advance()
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		if err := p.expect("while"); err != nil {
			return nil, err
		}
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		return &DoStmt{Body: body, Cond: cond, Position: pos}, p.expect(";")
	case tok.is("switch"):
		return p.switchStmt()
	case tok.is("case"):
		p.advance()
		v, err := p.conditional()
		if err != nil {
			return nil, err
		}
		return &CaseStmt{Value: v, Position: pos}, p.expect(":")
	case tok.is("default"):
		p.advance()
		return &CaseStmt{Position: pos}, p.expect(":")
	case tok.is("break"), tok.is("continue"), tok.is("discard"):
		p.advance()
		return &BranchStmt{Keyword: tok.Lexeme, Position: pos}, p.expect(";")
	case tok.is("return"):
		p.advance()
		r := &ReturnStmt{Position: pos}
		if !p.check(";") {
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			r.Value = v
		}
		return r, p.expect(";")
	case p.isDeclStart():
		return p.declStmt()
	}

	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: x, Position: pos}, p.expect(";")
}

func (p *Parser) isDeclStart() bool {
	tok := p.peek()
	if tok.Kind != TokenIdent {
		return false
	}
	if tok.Lexeme == "struct" || qualifierWords[tok.Lexeme] {
		return true
	}
	if !p.isTypeName(tok.Lexeme) {
		return false
	}
	next := p.peekAt(1)
	if next.Kind == TokenIdent {
		return true
	}
	if !next.is("[") {
		return false
	}
	// "float[3] a" declares, "float[3](...)" constructs.
	depth := 0
	for i := p.current + 1; i < len(p.tokens); i++ {
		t := p.tokens[i]
		switch {
		case t.is("["):
			depth++
		case t.is("]"):
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Kind == TokenIdent
			}
		case t.Kind == TokenEOF:
			return false
		}
	}
	return false
}

func (p *Parser) declStmt() (Stmt, error) {
	start := p.peek()
	quals, err := p.qualifiers()
	if err != nil {
		return nil, err
	}
	if p.check("struct") {
		d, err := p.structDecl(quals)
		if err != nil {
			return nil, err
		}
		return &DeclStmt{Struct: d.(*StructDecl), Position: start.pos()}, nil
	}
	ts, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("variable name")
	if err != nil {
		return nil, err
	}
	vd, err := p.varDecl(quals, ts, name, start.pos())
	if err != nil {
		return nil, err
	}
	return &DeclStmt{Var: vd, Position: start.pos()}, nil
}

func (p *Parser) ifStmt() (Stmt, error) {
	start := p.advance()
	cond, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	s := &IfStmt{Cond: cond, Then: then, Position: start.pos()}
	if p.match("else") {
		if s.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) forStmt() (Stmt, error) {
	start := p.advance()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	s := &ForStmt{Position: start.pos()}

	switch {
	case p.match(";"):
	case p.isDeclStart():
		init, err := p.declStmt()
		if err != nil {
			return nil, err
		}
		s.Init = init
	default:
		pos := p.peek().pos()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		s.Init = &ExprStmt{X: x, Position: pos}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}

	if !p.check(";") {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		s.Cond = cond
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.check(")") {
		post, err := p.expression()
		if err != nil {
			return nil, err
		}
		s.Post = post
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (p *Parser) switchStmt() (Stmt, error) {
	start := p.advance()
	tag, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &SwitchStmt{Tag: tag, Body: body.Stmts, Position: start.pos()}, nil
}

func (p *Parser) parenExpr() (Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	return x, p.expect(")")
}

// Expressions.

func (p *Parser) expression() (Expr, error) {
	x, err := p.assignment()
	if err != nil {
		return nil, err
	}
	for p.check(",") {
		comma := p.advance()
		right, err := p.assignment()
		if err != nil {
			return nil, err
		}
		x = &CommaExpr{Left: x, Right: right, Position: comma.pos()}
	}
	return x, nil
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "^=": true, "|=": true,
}

func (p *Parser) assignment() (Expr, error) {
	left, err := p.conditional()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == TokenOperator && assignOps[tok.Lexeme] {
		p.advance()
		right, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Op: tok.Lexeme, Left: left, Right: right, Position: tok.pos()}, nil
	}
	return left, nil
}

func (p *Parser) conditional() (Expr, error) {
	cond, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if !p.check("?") {
		return cond, nil
	}
	q := p.advance()
	then, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.assignment()
	if err != nil {
		return nil, err
	}
	return &TernaryExpr{Cond: cond, Then: then, Else: els, Position: q.pos()}, nil
}

var binaryPrecedence = map[string]int{
	"||": 1, "^^": 2, "&&": 3, "|": 4, "^": 5, "&": 6,
	"==": 7, "!=": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8,
	"<<": 9, ">>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
}

func (p *Parser) binary(minPrec int) (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Lexeme]
		if tok.Kind != TokenOperator || !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Lexeme, Left: left, Right: right, Position: tok.pos()}
	}
}

func (p *Parser) unary() (Expr, error) {
	tok := p.peek()
	if tok.Kind == TokenOperator {
		switch tok.Lexeme {
		case "+", "-", "!", "~", "++", "--":
			p.advance()
			operand, err := p.unary()
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{Op: tok.Lexeme, Operand: operand, Position: tok.pos()}, nil
		}
	}
	return p.postfix()
}

func (p *Parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.is("["):
			p.advance()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{Base: x, Index: idx, Position: tok.pos()}
		case tok.is("."):
			p.advance()
			field, err := p.expectIdent("field name")
			if err != nil {
				return nil, err
			}
			if field.Lexeme == "length" && p.check("(") {
				p.advance()
				if err := p.expect(")"); err != nil {
					return nil, err
				}
				x = &CallExpr{Callee: ".length", Args: []Expr{x}, Position: field.pos()}
				continue
			}
			x = &FieldExpr{Base: x, Field: field.Lexeme, Position: field.pos()}
		case tok.is("++"), tok.is("--"):
			p.advance()
			x = &PostfixExpr{Op: tok.Lexeme, Operand: x, Position: tok.pos()}
		default:
			return x, nil
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return parseIntLit(tok)
	case TokenFloatLiteral:
		p.advance()
		return parseFloatLit(tok)
	case TokenIdent:
		switch {
		case tok.Lexeme == "true" || tok.Lexeme == "false":
			p.advance()
			return &BoolLit{Value: tok.Lexeme == "true", Position: tok.pos()}, nil
		case p.isTypeName(tok.Lexeme):
			ts, err := p.typeSpec()
			if err != nil {
				return nil, err
			}
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Callee: ts.Name, Type: &ts, Args: args, Position: tok.pos()}, nil
		case p.peekAt(1).is("("):
			p.advance()
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Callee: tok.Lexeme, Args: args, Position: tok.pos()}, nil
		}
		p.advance()
		return &Ident{Name: tok.Lexeme, Position: tok.pos()}, nil
	case TokenOperator:
		if tok.is("(") {
			p.advance()
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			return x, p.expect(")")
		}
	}
	return nil, errorf(tok.pos(), "unexpected %s in expression", tok.describe())
}

func (p *Parser) arguments() ([]Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Expr
	if p.check("void") && p.peekAt(1).is(")") {
		p.advance()
	}
	for !p.check(")") {
		arg, err := p.assignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(",") {
			break
		}
	}
	return args, p.expect(")")
}

func parseIntLit(tok Token) (Expr, error) {
	text := tok.Lexeme
	unsigned := strings.HasSuffix(text, "u") || strings.HasSuffix(text, "U")
	if unsigned {
		text = text[:len(text)-1]
	}
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil || v > math.MaxUint32 {
		return nil, errorf(tok.pos(), "integer literal %s is out of range", tok.Lexeme)
	}
	return &IntLit{Text: text, Value: v, Unsigned: unsigned, Position: tok.pos()}, nil
}

func parseFloatLit(tok Token) (Expr, error) {
	text := strings.TrimRight(tok.Lexeme, "fFlL")
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return nil, errorf(tok.pos(), "float literal %s is out of range", tok.Lexeme)
	}
	return &FloatLit{Text: text, Value: v, Position: tok.pos()}, nil
}

// Helper methods

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(lexeme string) bool {
	return p.peek().is(lexeme)
}

func (p *Parser) match(lexeme string) bool {
	if p.check(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(lexeme string) error {
	if p.match(lexeme) {
		return nil
	}
	tok := p.peek()
	return errorf(tok.pos(), "expected '%s', found %s", lexeme, tok.describe())
}

func (p *Parser) expectIdent(what string) (Token, error) {
	tok := p.peek()
	if tok.Kind != TokenIdent {
		return tok, errorf(tok.pos(), "expected %s, found %s", what, tok.describe())
	}
	return p.advance(), nil
}

func (p *Parser) skipPast(lexeme string) error {
	start := p.peek()
	for !p.isAtEnd() {
		if p.advance().is(lexeme) {
			return nil
		}
	}
	return errorf(start.pos(), "expected '%s' before end of input", lexeme)
}
