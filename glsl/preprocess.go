// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type macro struct {
	name     string
	function bool
	params   []string
	body     []Token
}

type condFrame struct {
	active  bool // lines in the current branch are emitted
	taken   bool // some branch of the group has been selected
	parent  bool // the enclosing group is active
	sawElse bool
	pos     Position
}

type preprocessor struct {
	macros  map[string]*macro
	conds   []condFrame
	version int
	pending []Token
	out     []Token
}

// predefined macros, before caller defines are applied.
var predefined = map[string]string{
	"GL_core_profile": "1",
	"VULKAN":          "100",
	"GL_SPIRV":        "100",
	"__VERSION__":     "450",
}

// Preprocess runs the preprocessor over source and returns the expanded
// token stream, terminated by an EOF token, and the declared #version
// (450 when absent).
func Preprocess(source string, defines map[string]string) ([]Token, int, error) {
	pp := &preprocessor{
		macros:  make(map[string]*macro),
		version: 450,
	}
	for name, value := range predefined {
		if err := pp.defineValue(name, value); err != nil {
			return nil, 0, err
		}
	}
	// Sorted so that a broken define is reported deterministically.
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := pp.defineValue(name, defines[name]); err != nil {
			return nil, 0, fmt.Errorf("define %s: %w", name, err)
		}
	}

	text, err := stripComments(source)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(text, "\n")
	lastLine := len(lines)
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimRight(lines[i], "\r")
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + strings.TrimRight(lines[i], "\r")
		}

		if trimmed := strings.TrimLeft(line, " \t"); strings.HasPrefix(trimmed, "#") {
			if err := pp.flush(); err != nil {
				return nil, 0, err
			}
			col := len(line) - len(trimmed) + 1
			if err := pp.directive(trimmed[1:], lineNo, col+1); err != nil {
				return nil, 0, err
			}
			continue
		}
		if !pp.active() {
			continue
		}
		tokens, err := NewLexer(line, lineNo).Tokenize()
		if err != nil {
			return nil, 0, err
		}
		pp.pending = append(pp.pending, tokens...)
	}

	if len(pp.conds) > 0 {
		return nil, 0, errorf(pp.conds[len(pp.conds)-1].pos, "unterminated conditional directive")
	}
	if err := pp.flush(); err != nil {
		return nil, 0, err
	}
	pp.out = append(pp.out, Token{Kind: TokenEOF, Line: lastLine, Column: 1})
	return pp.out, pp.version, nil
}

// stripComments replaces comments with a space, keeping line breaks so that
// token positions still match the source.
func stripComments(src string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(src))
	line := 1
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			sb.WriteByte(' ')
			if i < len(src) {
				sb.WriteByte('\n')
				line++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return "", errorf(Position{Line: start, Column: 1}, "unterminated block comment")
			}
			comment := src[i : i+2+end+2]
			sb.WriteByte(' ')
			for n := strings.Count(comment, "\n"); n > 0; n-- {
				sb.WriteByte('\n')
				line++
			}
			i += len(comment) - 1
		default:
			if c == '\n' {
				line++
			}
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func (pp *preprocessor) active() bool {
	return len(pp.conds) == 0 || pp.conds[len(pp.conds)-1].active
}

func (pp *preprocessor) flush() error {
	if len(pp.pending) == 0 {
		return nil
	}
	expanded, err := pp.expand(pp.pending)
	if err != nil {
		return err
	}
	pp.out = append(pp.out, expanded...)
	pp.pending = pp.pending[:0]
	return nil
}

func (pp *preprocessor) defineValue(name, value string) error {
	body, err := NewLexer(value, 0).Tokenize()
	if err != nil {
		return err
	}
	pp.macros[name] = &macro{name: name, body: body}
	return nil
}

// directive handles the text following '#'. col is the column of that text.
func (pp *preprocessor) directive(text string, line, col int) error {
	pos := Position{Line: line, Column: col}
	rest := strings.TrimLeft(text, " \t")
	n := 0
	for n < len(rest) && isAlphaNumeric(rest[n]) {
		n++
	}
	name := rest[:n]
	argText := rest[n:]
	argCol := col + (len(text) - len(rest)) + n

	switch name {
	case "if", "ifdef", "ifndef":
		parent := pp.active()
		cond := false
		if parent {
			var err error
			if cond, err = pp.condition(name, argText, line, argCol); err != nil {
				return err
			}
		}
		pp.conds = append(pp.conds, condFrame{active: parent && cond, taken: cond, parent: parent, pos: pos})
		return nil
	case "elif":
		if len(pp.conds) == 0 {
			return errorf(pos, "#elif without #if")
		}
		top := &pp.conds[len(pp.conds)-1]
		if top.sawElse {
			return errorf(pos, "#elif after #else")
		}
		if !top.parent || top.taken {
			top.active = false
			return nil
		}
		cond, err := pp.condition("if", argText, line, argCol)
		if err != nil {
			return err
		}
		top.active, top.taken = cond, cond
		return nil
	case "else":
		if len(pp.conds) == 0 {
			return errorf(pos, "#else without #if")
		}
		top := &pp.conds[len(pp.conds)-1]
		if top.sawElse {
			return errorf(pos, "duplicate #else")
		}
		top.active = top.parent && !top.taken
		top.taken = true
		top.sawElse = true
		return nil
	case "endif":
		if len(pp.conds) == 0 {
			return errorf(pos, "#endif without #if")
		}
		pp.conds = pp.conds[:len(pp.conds)-1]
		return nil
	}

	if !pp.active() {
		return nil
	}

	switch name {
	case "":
		return nil
	case "version":
		fields := strings.Fields(argText)
		if len(fields) == 0 {
			return errorf(pos, "#version requires a number")
		}
		v, err := strconv.Atoi(fields[0])
		if err != nil {
			return errorf(pos, "invalid #version %q", fields[0])
		}
		if v < 300 {
			return errorf(pos, "unsupported #version %d", v)
		}
		pp.version = v
		return pp.defineValue("__VERSION__", fields[0])
	case "extension", "pragma", "line":
		return nil
	case "error":
		return errorf(pos, "#error%s", strings.TrimRight(argText, " \t"))
	case "define":
		return pp.define(argText, line, argCol)
	case "undef":
		fields := strings.Fields(argText)
		if len(fields) != 1 {
			return errorf(pos, "#undef requires a macro name")
		}
		delete(pp.macros, fields[0])
		return nil
	case "include":
		return errorf(pos, "#include is not supported")
	default:
		return errorf(pos, "unknown preprocessor directive #%s", name)
	}
}

func (pp *preprocessor) define(text string, line, col int) error {
	tokens, err := lexAt(text, line, col)
	if err != nil {
		return err
	}
	if len(tokens) == 0 || tokens[0].Kind != TokenIdent {
		return errorf(Position{Line: line, Column: col}, "#define requires a macro name")
	}
	name := tokens[0]
	if strings.HasPrefix(name.Lexeme, "GL_") || strings.Contains(name.Lexeme, "__") {
		return errorf(name.pos(), "macro name %s is reserved", name.Lexeme)
	}

	m := &macro{name: name.Lexeme}
	body := tokens[1:]

	// A parameter list must follow the name without whitespace.
	if len(body) > 0 && body[0].is("(") && body[0].Column == name.Column+len(name.Lexeme) {
		m.function = true
		i := 1
		for ; i < len(body) && !body[i].is(")"); i++ {
			tok := body[i]
			if tok.is(",") {
				continue
			}
			if tok.Kind != TokenIdent {
				return errorf(tok.pos(), "expected macro parameter name, found %s", tok.describe())
			}
			m.params = append(m.params, tok.Lexeme)
		}
		if i == len(body) {
			return errorf(name.pos(), "unterminated parameter list for macro %s", name.Lexeme)
		}
		body = body[i+1:]
	}
	m.body = append([]Token(nil), body...)
	pp.macros[m.name] = m
	return nil
}

// lexAt tokenizes text that starts at column col of line.
func lexAt(text string, line, col int) ([]Token, error) {
	tokens, err := NewLexer(text, line).Tokenize()
	if err != nil {
		if se, ok := err.(*SourceError); ok {
			se.Pos.Column += col - 1
		}
		return nil, err
	}
	for i := range tokens {
		tokens[i].Column += col - 1
	}
	return tokens, nil
}

// expand performs macro replacement over a token list.
func (pp *preprocessor) expand(input []Token) ([]Token, error) {
	out := make([]Token, 0, len(input))
	for len(input) > 0 {
		tok := input[0]
		input = input[1:]

		if tok.Kind != TokenIdent {
			out = append(out, tok)
			continue
		}
		if tok.Lexeme == "__LINE__" {
			out = append(out, Token{Kind: TokenIntLiteral, Lexeme: strconv.Itoa(tok.Line), Line: tok.Line, Column: tok.Column})
			continue
		}
		m := pp.macros[tok.Lexeme]
		if m == nil || tok.hidden(m.name) {
			out = append(out, tok)
			continue
		}

		hide := append(append([]string(nil), tok.hide...), m.name)

		if !m.function {
			body, err := paste(instantiate(m.body, tok, hide))
			if err != nil {
				return nil, err
			}
			input = append(body, input...)
			continue
		}

		if len(input) == 0 || !input[0].is("(") {
			out = append(out, tok)
			continue
		}
		args, rest, err := collectArgs(input[1:], tok)
		if err != nil {
			return nil, err
		}
		input = rest
		if len(m.params) == 0 && len(args) == 1 && len(args[0]) == 0 {
			args = nil
		}
		if len(args) != len(m.params) {
			return nil, errorf(tok.pos(), "macro %s expects %d argument(s), got %d", m.name, len(m.params), len(args))
		}

		expanded := make([][]Token, len(args))
		for i, arg := range args {
			if expanded[i], err = pp.expand(arg); err != nil {
				return nil, err
			}
		}

		body, err := paste(substitute(m, args, expanded, tok, hide))
		if err != nil {
			return nil, err
		}
		input = append(body, input...)
	}
	return out, nil
}

// instantiate copies a macro body to the invocation site.
func instantiate(body []Token, at Token, hide []string) []Token {
	out := make([]Token, len(body))
	for i, t := range body {
		t.Line, t.Column = at.Line, at.Column
		t.hide = hide
		out[i] = t
	}
	return out
}

func substitute(m *macro, raw, expanded [][]Token, at Token, hide []string) []Token {
	var out []Token
	for i, t := range m.body {
		k := -1
		if t.Kind == TokenIdent {
			for j, p := range m.params {
				if p == t.Lexeme {
					k = j
					break
				}
			}
		}
		if k < 0 {
			out = append(out, instantiate([]Token{t}, at, hide)...)
			continue
		}
		pasted := (i > 0 && m.body[i-1].Kind == TokenHashHash) ||
			(i+1 < len(m.body) && m.body[i+1].Kind == TokenHashHash)
		arg := expanded[k]
		if pasted {
			arg = raw[k]
		}
		for _, a := range arg {
			a.hide = append(append([]string(nil), a.hide...), hide...)
			out = append(out, a)
		}
	}
	return out
}

// paste applies ## token concatenation.
func paste(tokens []Token) ([]Token, error) {
	hasPaste := false
	for _, t := range tokens {
		if t.Kind == TokenHashHash {
			hasPaste = true
			break
		}
	}
	if !hasPaste {
		return tokens, nil
	}

	var out []Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Kind != TokenHashHash {
			out = append(out, t)
			continue
		}
		if len(out) == 0 || i+1 >= len(tokens) {
			return nil, errorf(t.pos(), "'##' cannot appear at either end of a macro expansion")
		}
		left := out[len(out)-1]
		right := tokens[i+1]
		i++
		joined, err := NewLexer(left.Lexeme+right.Lexeme, left.Line).Tokenize()
		if err != nil || len(joined) != 1 {
			return nil, errorf(t.pos(), "pasting %s and %s does not give a valid token", left.describe(), right.describe())
		}
		j := joined[0]
		j.Line, j.Column, j.hide = left.Line, left.Column, left.hide
		out[len(out)-1] = j
	}
	return out, nil
}

// collectArgs splits the arguments of a function-like macro invocation.
// input starts just after the opening parenthesis.
func collectArgs(input []Token, at Token) ([][]Token, []Token, error) {
	var args [][]Token
	var cur []Token
	depth := 0
	for i, t := range input {
		switch {
		case t.is("("):
			depth++
		case t.is(")"):
			if depth == 0 {
				args = append(args, cur)
				return args, input[i+1:], nil
			}
			depth--
		case t.is(",") && depth == 0:
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return nil, nil, errorf(at.pos(), "unterminated invocation of macro %s", at.Lexeme)
}

// condition evaluates the argument of #if, #ifdef or #ifndef.
func (pp *preprocessor) condition(kind, text string, line, col int) (bool, error) {
	pos := Position{Line: line, Column: col}
	if kind == "ifdef" || kind == "ifndef" {
		fields := strings.Fields(text)
		if len(fields) != 1 {
			return false, errorf(pos, "#%s requires a macro name", kind)
		}
		_, ok := pp.macros[fields[0]]
		return ok == (kind == "ifdef"), nil
	}

	tokens, err := lexAt(text, line, col)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, errorf(pos, "#if requires an expression")
	}

	// defined must be resolved before macro expansion.
	var resolved []Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if !t.is("defined") {
			resolved = append(resolved, t)
			continue
		}
		var name Token
		switch {
		case i+1 < len(tokens) && tokens[i+1].Kind == TokenIdent:
			name = tokens[i+1]
			i++
		case i+3 < len(tokens) && tokens[i+1].is("(") && tokens[i+2].Kind == TokenIdent && tokens[i+3].is(")"):
			name = tokens[i+2]
			i += 3
		default:
			return false, errorf(t.pos(), "malformed defined() operator")
		}
		value := "0"
		if _, ok := pp.macros[name.Lexeme]; ok {
			value = "1"
		}
		resolved = append(resolved, Token{Kind: TokenIntLiteral, Lexeme: value, Line: t.Line, Column: t.Column})
	}

	expanded, err := pp.expand(resolved)
	if err != nil {
		return false, err
	}
	ev := &condEval{tokens: expanded, pos: pos}
	v, err := ev.binary(1)
	if err != nil {
		return false, err
	}
	if ev.cur < len(ev.tokens) {
		return false, errorf(ev.tokens[ev.cur].pos(), "unexpected %s in #if expression", ev.tokens[ev.cur].describe())
	}
	return v != 0, nil
}

var condPrecedence = map[string]int{
	"||": 1, "&&": 2, "|": 3, "^": 4, "&": 5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// condEval is a precedence-climbing evaluator for #if expressions.
// Identifiers left after expansion evaluate to 0.
type condEval struct {
	tokens []Token
	cur    int
	pos    Position
}

func (e *condEval) peek() (Token, bool) {
	if e.cur >= len(e.tokens) {
		return Token{}, false
	}
	return e.tokens[e.cur], true
}

func (e *condEval) binary(minPrec int) (int64, error) {
	left, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := e.peek()
		if !ok || t.Kind != TokenOperator {
			return left, nil
		}
		prec, isBinary := condPrecedence[t.Lexeme]
		if !isBinary || prec < minPrec {
			return left, nil
		}
		e.cur++
		right, err := e.binary(prec + 1)
		if err != nil {
			return 0, err
		}
		if left, err = applyCondOp(t, left, right); err != nil {
			return 0, err
		}
	}
}

func (e *condEval) unary() (int64, error) {
	t, ok := e.peek()
	if !ok {
		return 0, errorf(e.pos, "incomplete #if expression")
	}
	e.cur++
	switch {
	case t.is("("):
		v, err := e.binary(1)
		if err != nil {
			return 0, err
		}
		if c, ok := e.peek(); !ok || !c.is(")") {
			return 0, errorf(t.pos(), "missing ')' in #if expression")
		}
		e.cur++
		return v, nil
	case t.is("-"):
		v, err := e.unary()
		return -v, err
	case t.is("+"):
		return e.unary()
	case t.is("!"):
		v, err := e.unary()
		return boolInt(v == 0), err
	case t.is("~"):
		v, err := e.unary()
		return ^v, err
	case t.Kind == TokenIntLiteral:
		text := strings.TrimRight(t.Lexeme, "uU")
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return 0, errorf(t.pos(), "invalid integer %s in #if expression", t.Lexeme)
		}
		return v, nil
	case t.Kind == TokenIdent:
		if t.Lexeme == "true" {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errorf(t.pos(), "unexpected %s in #if expression", t.describe())
}

func applyCondOp(op Token, a, b int64) (int64, error) {
	switch op.Lexeme {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, errorf(op.pos(), "division by zero in #if expression")
		}
		if op.Lexeme == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, errorf(op.pos(), "unsupported operator %s in #if expression", op.Lexeme)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
