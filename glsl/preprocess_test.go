// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"
	"testing"
)

// lexemes joins the non-EOF tokens with single spaces.
func lexemes(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenEOF {
			continue
		}
		parts = append(parts, tok.Lexeme)
	}
	return strings.Join(parts, " ")
}

func TestPreprocessExpansion(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		defines map[string]string
		want    string
	}{
		{
			name:   "object macro",
			source: "#define PI 3.14159\nfloat x = PI;",
			want:   "float x = 3.14159 ;",
		},
		{
			name:   "function macro",
			source: "#define SQ(x) ((x)*(x))\nfloat y = SQ(a+1);",
			want:   "float y = ( ( a + 1 ) * ( a + 1 ) ) ;",
		},
		{
			name:   "nested arguments",
			source: "#define MAX2(a, b) max(a, b)\nv = MAX2(f(1, 2), 3);",
			want:   "v = max ( f ( 1 , 2 ) , 3 ) ;",
		},
		{
			name:   "space before paren is object-like",
			source: "#define A (1)\nx = A;",
			want:   "x = ( 1 ) ;",
		},
		{
			name:   "function macro without call",
			source: "#define F(x) x\nint F;",
			want:   "int F ;",
		},
		{
			name:   "recursive macro stops",
			source: "#define foo foo + 1\nx = foo;",
			want:   "x = foo + 1 ;",
		},
		{
			name:   "token pasting",
			source: "#define CAT(a, b) a ## b\nint CAT(my, Var) = 1;",
			want:   "int myVar = 1 ;",
		},
		{
			name:   "line macro",
			source: "\n\nint l = __LINE__;",
			want:   "int l = 3 ;",
		},
		{
			name:   "undef",
			source: "#define X 1\n#undef X\nint a = X;",
			want:   "int a = X ;",
		},
		{
			name:    "caller defines",
			source:  "float s = SCALE;",
			defines: map[string]string{"SCALE": "2.0"},
			want:    "float s = 2.0 ;",
		},
		{
			name:   "comments",
			source: "int a /* block\ncomment */ = 1; // tail\nint b = 2;",
			want:   "int a = 1 ; int b = 2 ;",
		},
		{
			name:   "line continuation",
			source: "#define LONG 1 + \\\n 2\nint c = LONG;",
			want:   "int c = 1 + 2 ;",
		},
		{
			name:   "ignored directives",
			source: "#extension GL_GOOGLE_include_directive : enable\n#pragma optimize(on)\n#\nint d;",
			want:   "int d ;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _, err := Preprocess(tt.source, tt.defines)
			if err != nil {
				t.Fatalf("Preprocess failed: %v", err)
			}
			if got := lexemes(tokens); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if tokens[len(tokens)-1].Kind != TokenEOF {
				t.Errorf("expected trailing EOF token")
			}
		})
	}
}

func TestPreprocessConditionals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "ifdef taken",
			source: "#define A\n#ifdef A\nyes\n#else\nno\n#endif",
			want:   "yes",
		},
		{
			name:   "ifndef",
			source: "#ifndef A\nyes\n#endif",
			want:   "yes",
		},
		{
			name:   "elif chain",
			source: "#define N 2\n#if N == 1\none\n#elif N == 2\ntwo\n#elif N == 2\nagain\n#else\nother\n#endif",
			want:   "two",
		},
		{
			name:   "defined operator",
			source: "#define B\n#if defined(A) || defined B\nyes\n#endif",
			want:   "yes",
		},
		{
			name:   "arithmetic",
			source: "#if (1 << 3) + 2 * 3 - 14 == 0 && !0\nyes\n#else\nno\n#endif",
			want:   "yes",
		},
		{
			name:   "unknown identifier is zero",
			source: "#if UNKNOWN\nno\n#else\nyes\n#endif",
			want:   "yes",
		},
		{
			name:   "nested inactive",
			source: "#if 0\n#if 1\nno\n#else\nno\n#endif\n#else\nyes\n#endif",
			want:   "yes",
		},
		{
			name:   "predefined vulkan",
			source: "#if defined(VULKAN) && GL_core_profile\nyes\n#endif",
			want:   "yes",
		},
		{
			name:   "error in inactive branch",
			source: "#if 0\n#error never\n#endif\nok",
			want:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _, err := Preprocess(tt.source, nil)
			if err != nil {
				t.Fatalf("Preprocess failed: %v", err)
			}
			if got := lexemes(tokens); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPreprocessVersion(t *testing.T) {
	_, version, err := Preprocess("#version 460\nvoid main() {}", nil)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if version != 460 {
		t.Errorf("expected version 460, got %d", version)
	}

	_, version, err = Preprocess("void main() {}", nil)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if version != 450 {
		t.Errorf("expected default version 450, got %d", version)
	}
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errMsg string
	}{
		{"error directive", "#error stop here", "#error stop here"},
		{"unterminated if", "#if 1\nint a;", "unterminated conditional directive"},
		{"stray endif", "#endif", "#endif without #if"},
		{"stray else", "#else", "#else without #if"},
		{"elif after else", "#if 0\n#else\n#elif 1\n#endif", "#elif after #else"},
		{"duplicate else", "#if 0\n#else\n#else\n#endif", "duplicate #else"},
		{"reserved GL prefix", "#define GL_FOO 1", "macro name GL_FOO is reserved"},
		{"reserved double underscore", "#define A__B 1", "macro name A__B is reserved"},
		{"argument count", "#define F(a, b) a\nint x = F(1);", "macro F expects 2 argument(s), got 1"},
		{"unterminated call", "#define F(a) a\nint x = F(1;", "unterminated invocation of macro F"},
		{"division by zero", "#if 1 / 0\n#endif", "division by zero in #if expression"},
		{"include", "#include \"common.glsl\"", "#include is not supported"},
		{"unknown directive", "#frobnicate", "unknown preprocessor directive #frobnicate"},
		{"old version", "#version 100", "unsupported #version 100"},
		{"unterminated comment", "int a; /* open", "unterminated block comment"},
		{"bad paste", "#define P(a) a ## +\nint x = P(1);", "does not give a valid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Preprocess(tt.source, nil)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestPreprocessPositions(t *testing.T) {
	tokens, _, err := Preprocess("int a;\n  float b;", nil)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	// int a ; float b ; EOF
	if len(tokens) != 7 {
		t.Fatalf("Expected 7 tokens, got %d", len(tokens))
	}
	if tokens[3].Line != 2 || tokens[3].Column != 3 {
		t.Errorf("expected float at 2:3, got %d:%d", tokens[3].Line, tokens[3].Column)
	}

	_, _, err = Preprocess("int a;\n#error boom", nil)
	if err == nil || !strings.HasPrefix(err.Error(), "2:") {
		t.Errorf("expected error on line 2, got %v", err)
	}
}
