// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

const testHeader = `#version 450

layout(location = 0) in vec2 fragCoord;
layout(location = 0) out vec4 fragColor;

layout(binding = 0) uniform UniformBufferObject {
    vec3 iResolution;
    float iTime;
    vec4 iMouse;
} ubo;

layout(binding = 1) uniform sampler2D iChannel0;

`

func translateGLSL(t *testing.T, body string) string {
	t.Helper()
	fe := NewFrontend(DefaultOptions())
	out, err := fe.Translate(gputypes.ShaderSourceGLSL{
		Code:  testHeader + body,
		Stage: gputypes.ShaderStageFragment,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	return out
}

func TestTranslateHeaderBindings(t *testing.T) {
	out := translateGLSL(t, `
void main() {
    vec2 uv = fragCoord / ubo.iResolution.xy;
    fragColor = texture(iChannel0, uv);
}
`)

	want := []string{
		"struct UniformBufferObject {",
		"iResolution: vec3<f32>,",
		"@group(0) @binding(0) var<uniform> ubo: UniformBufferObject;",
		"@group(0) @binding(1) var iChannel0: texture_2d<f32>;",
		"@group(0) @binding(17) var gl_sampler_iChannel0: sampler;",
		"var<private> fragCoord: vec2<f32>;",
		"var<private> fragColor: vec4<f32>;",
		"fn gl_main() {",
		"var uv: vec2<f32> = (fragCoord / ubo.iResolution.xy);",
		"fragColor = textureSample(iChannel0, gl_sampler_iChannel0, uv);",
		"@fragment",
		"fn main(@location(0) gl_in_fragCoord: vec2<f32>) -> @location(0) vec4<f32> {",
		"fragCoord = gl_in_fragCoord;",
		"gl_main();",
		"return fragColor;",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
}

func TestTranslateSamplerBindingBase(t *testing.T) {
	fe := NewFrontend(Options{SamplerBindingBase: 8})
	out, err := fe.Translate(gputypes.ShaderSourceGLSL{
		Code:  testHeader + "void main() { fragColor = texture(iChannel0, fragCoord); }",
		Stage: gputypes.ShaderStageFragment,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if !strings.Contains(out, "@group(0) @binding(9) var gl_sampler_iChannel0: sampler;") {
		t.Errorf("expected sampler at binding 9\n%s", out)
	}
}

func TestTranslateExpressions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "ternary becomes select",
			body: "void main() { float v = fragCoord.x > 0.5 ? 1.0 : 0.0; fragColor = vec4(v); }",
			want: []string{"select(0.0, 1.0, (fragCoord.x > 0.5))", "vec4<f32>(v)"},
		},
		{
			name: "mod expands with floor",
			body: "void main() { float m = mod(ubo.iTime, 2.0); fragColor = vec4(m); }",
			want: []string{"floor(", " - "},
		},
		{
			name: "scalar constant is inlined",
			body: "const float PI = 3.14159;\nvoid main() { fragColor = vec4(PI); }",
			want: []string{"const PI: f32 = 3.14159;", "vec4<f32>(3.14159)"},
		},
		{
			name: "private initializer runs in the entry point",
			body: "float g = 2.0;\nvoid main() { fragColor = vec4(g); }",
			want: []string{"var<private> g: f32;", "g = 2.0;"},
		},
		{
			name: "int to float conversion",
			body: "void main() { int i = 3; float f = float(i) + 1.0; fragColor = vec4(f); }",
			want: []string{"var i: i32 = 3;", "(f32(i) + 1.0)"},
		},
		{
			name: "builtin renames",
			body: "void main() { float a = inversesqrt(2.0) + atan(1.0, 2.0); fragColor = vec4(a); }",
			want: []string{"inverseSqrt(2.0)", "atan2(1.0, 2.0)"},
		},
		{
			name: "frag coord builtin",
			body: "void main() { fragColor = vec4(gl_FragCoord.xy, 0.0, 1.0); }",
			want: []string{"@builtin(position) gl_in_FragCoord: vec4<f32>", "gl_FragCoord = gl_in_FragCoord;"},
		},
		{
			name: "matrix times vector",
			body: "void main() { mat2 r = mat2(1.0); fragColor = vec4(r * fragCoord, 0.0, 1.0); }",
			want: []string{"var r: mat2x2<f32>", "(r * fragCoord)"},
		},
		{
			name: "equality of vectors",
			body: "void main() { if (fragCoord == vec2(0.0)) { discard; } fragColor = vec4(1.0); }",
			want: []string{"all(fragCoord == vec2<f32>(0.0))", "discard;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := translateGLSL(t, tt.body)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q\n%s", w, out)
				}
			}
		})
	}
}

func TestTranslateFunctions(t *testing.T) {
	out := translateGLSL(t, `
float f(float x) { return x * 2.0; }
float f(vec2 x) { return x.x; }
void g(out float r) { r = 1.0; }
vec3 palette(float t) {
    t += 0.5;
    return vec3(t);
}
void main() {
    float a;
    g(a);
    fragColor = vec4(palette(f(a) + f(fragCoord)), 1.0);
}
`)
	want := []string{
		"fn gl_f_float(x: f32) -> f32 {",
		"fn gl_f_vec2(x: vec2<f32>) -> f32 {",
		"fn g(r: ptr<function, f32>) {",
		"(*r) = 1.0;",
		"fn palette(gl_arg_t: f32) -> vec3<f32> {",
		"var t: f32 = gl_arg_t;",
		"g(&a);",
		"gl_f_float(a)",
		"gl_f_vec2(fragCoord)",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
}

func TestTranslateControlFlow(t *testing.T) {
	out := translateGLSL(t, `
void main() {
    float s = 0.0;
    for (int i = 0; i < 4; i++) {
        if (i == 2) continue;
        s += float(i);
    }
    int k = 0;
    while (k < 3) { k++; }
    do { k--; } while (k > 0);
    switch (k) {
    case 0:
    case 1:
        s = 1.0;
        break;
    default:
        s = 2.0;
    }
    fragColor = vec4(s);
}
`)
	want := []string{
		"for (var i: i32 = 0; (i < 4); i = (i + 1)) {",
		"continue;",
		"while (k < 3) {",
		"loop {",
		"break if !((k > 0));",
		"switch k {",
		"case 0, 1: {",
		"default: {",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errMsg string
	}{
		{"no main", testHeader + "void f() {}", "no main function defined"},
		{"undefined function", testHeader + "void main() { foo(); }", "undefined function foo"},
		{"undefined identifier", testHeader + "void main() { fragColor = vec4(nope); }", "nope"},
		{"redefinition", testHeader + "float a; float a;\nvoid main() {}", "redefinition of a"},
		{"binding collision", testHeader + "layout(binding = 1) uniform sampler2D iChannel1;\nvoid main() {}", "binding 1 in set 0 is used by both iChannel0 and iChannel1"},
		{"float modulo", testHeader + "void main() { float x = 1.0 % 2.0; }", "use mod() for floats"},
		{"bad main", testHeader + "int main() { return 0; }", "main must be declared as void main()"},
		{"prototype only", testHeader + "float h(float x);\nvoid main() { fragColor = vec4(h(1.0)); }", "function h is declared but never defined"},
		{"unsupported builtin", testHeader + "void main() { float x = interpolateAtCentroid(fragCoord.x); }", "is not supported"},
		{"assign to input", testHeader + "void main() { fragCoord = vec2(0.0); }", "fragCoord"},
	}

	fe := NewFrontend(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fe.Translate(gputypes.ShaderSourceGLSL{Code: tt.source, Stage: gputypes.ShaderStageFragment})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestWriterRawLines(t *testing.T) {
	var w writer
	w.writeLine("fn f(a: i32, b: i32) -> i32 {")
	w.pushIndent()
	w.writeRaw("let m = a % b;")
	w.writeLine("return m %% %d;", 4)
	w.popIndent()
	w.writeLine("}")

	want := "fn f(a: i32, b: i32) -> i32 {\n    let m = a % b;\n    return m % 4;\n}\n"
	if got := w.String(); got != want {
		t.Errorf("writer output = %q, want %q", got, want)
	}
}
