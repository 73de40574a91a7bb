// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// Lexer tokenizes one logical line of comment-free GLSL.
type Lexer struct {
	source string
	pos    int
	line   int
	start  int
	tokens []Token
}

// NewLexer creates a lexer for a single line reported as line.
func NewLexer(source string, line int) *Lexer {
	return &Lexer{
		source: source,
		line:   line,
		tokens: make([]Token, 0, len(source)/4+1),
	}
}

// Tokenize returns all tokens of the line, without a trailing EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	return l.tokens, nil
}

// threeCharOps and twoCharOps are matched longest first.
var threeCharOps = map[string]bool{"<<=": true, ">>=": true}

var twoCharOps = map[string]bool{
	"++": true, "--": true, "+=": true, "-=": true, "*=": true, "/=": true,
	"%=": true, "&=": true, "|=": true, "^=": true, "<<": true, ">>": true,
	"<=": true, ">=": true, "==": true, "!=": true, "&&": true, "||": true,
	"^^": true,
}

func (l *Lexer) scanToken() error {
	c := l.advance()

	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
		return nil
	case isAlpha(c):
		l.identifier()
		return nil
	case isDigit(c), c == '.' && isDigit(l.peek()):
		return l.number()
	case c == '#':
		if l.match('#') {
			l.addToken(TokenHashHash)
		} else {
			l.addToken(TokenHash)
		}
		return nil
	}

	if l.start+3 <= len(l.source) && threeCharOps[l.source[l.start:l.start+3]] {
		l.pos = l.start + 3
		l.addToken(TokenOperator)
		return nil
	}
	if l.start+2 <= len(l.source) && twoCharOps[l.source[l.start:l.start+2]] {
		l.pos = l.start + 2
		l.addToken(TokenOperator)
		return nil
	}

	switch c {
	case '(', ')', '{', '}', '[', ']', ',', '.', ';', ':', '?', '~', '!',
		'+', '-', '*', '/', '%', '<', '>', '=', '&', '|', '^':
		l.addToken(TokenOperator)
		return nil
	}

	return errorf(Position{Line: l.line, Column: l.start + 1}, "unexpected character %q", c)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	l.addToken(TokenIdent)
}

// number scans decimal, octal and hexadecimal integers with an optional
// u suffix, and floats with an optional exponent and f or lf suffix.
func (l *Lexer) number() error {
	first := l.source[l.start]

	if first == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		if !isHexDigit(l.peek()) {
			return errorf(Position{Line: l.line, Column: l.start + 1}, "malformed hexadecimal literal")
		}
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.match('u')
		l.match('U')
		l.addToken(TokenIntLiteral)
		return nil
	}

	isFloat := first == '.'
	for isDigit(l.peek()) {
		l.advance()
	}
	if !isFloat && l.peek() == '.' {
		isFloat = true
		l.advance()
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	if isFloat {
		switch {
		case l.peek() == 'f' || l.peek() == 'F':
			l.advance()
		case (l.peek() == 'l' || l.peek() == 'L') && (l.peekAt(1) == 'f' || l.peekAt(1) == 'F'):
			l.advance()
			l.advance()
		}
		l.addToken(TokenFloatLiteral)
		return nil
	}

	if l.peek() == 'f' || l.peek() == 'F' {
		// 1f is a float in GLSL
		l.advance()
		l.addToken(TokenFloatLiteral)
		return nil
	}
	if !l.match('u') {
		l.match('U')
	}
	if isAlpha(l.peek()) {
		return errorf(Position{Line: l.line, Column: l.start + 1}, "invalid suffix on numeric literal")
	}
	l.addToken(TokenIntLiteral)
	return nil
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.start + 1,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	return c
}

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
