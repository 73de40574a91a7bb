// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenOperator // punctuation and operators, by lexeme
	TokenHash     // #
	TokenHashHash // ##
)

var tokenKindNames = [...]string{
	TokenEOF:          "end of input",
	TokenIdent:        "identifier",
	TokenIntLiteral:   "integer literal",
	TokenFloatLiteral: "float literal",
	TokenOperator:     "operator",
	TokenHash:         "'#'",
	TokenHashHash:     "'##'",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int

	// hide lists the macros that must not expand this token again.
	hide []string
}

func (t Token) pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}

func (t Token) is(lexeme string) bool {
	return (t.Kind == TokenOperator || t.Kind == TokenIdent) && t.Lexeme == lexeme
}

func (t Token) hidden(name string) bool {
	for _, h := range t.hide {
		if h == name {
			return true
		}
	}
	return false
}

func (t Token) describe() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}
