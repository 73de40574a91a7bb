package rewrite

import (
	"regexp"
	"strings"
	"testing"
)

const plasma = `// http://www.pouet.net/prod.php?which=12345
#define t iTime
#define r iResolution.xy

void mainImage( out vec4 fragColor, in vec2 fragCoord )
{
    vec2 uv = fragCoord / r;
    float v = sin(uv.x * 10.0 + t) + cos(uv.y * 10.0 + iTime);



    fragColor = vec4(v, iMouse.x / iResolution.x, float(iFrame), 1.0);
}
`

func TestRewriteExample(t *testing.T) {
	out := Rewrite("void mainImage(out vec4 c, in vec2 p){ c = vec4(sin(iTime)); }")

	if !strings.HasPrefix(out, Header) {
		t.Fatalf("output does not start with the header:\n%s", out)
	}
	if !strings.Contains(out, "void main()") {
		t.Errorf("missing main signature:\n%s", out)
	}
	if !strings.Contains(out, "ubo.iTime") {
		t.Errorf("iTime not qualified:\n%s", out)
	}
	if strings.Contains(out, "mainImage") {
		t.Errorf("mainImage left in output:\n%s", out)
	}
}

func TestRewriteExactOutput(t *testing.T) {
	in := "void mainImage(out vec4 fragColor, in vec2 fragCoord)\n{\n    fragColor = vec4(fragCoord / iResolution.xy, 0.5 + 0.5 * sin(iTime), 1.0);\n}\n"
	want := Header +
		"void main()\n{\n    fragColor = vec4(fragCoord / ubo.iResolution.xy, 0.5 + 0.5 * sin(ubo.iTime), 1.0);\n}\n"

	if got := Rewrite(in); got != want {
		t.Errorf("Rewrite mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRewriteProperties(t *testing.T) {
	inputs := map[string]string{
		"plasma":      plasma,
		"empty":       "",
		"blank":       "\n\n\n\n",
		"spaces":      "   \n\n",
		"crlf":        "void mainImage(out vec4 o, in vec2 u)\r\n{\r\n\r\n\r\n\r\n    o = vec4(iTime);\r\n}\r\n",
		"trailing ws": "float f() { return iTime; }   \n\n\t\n",
	}

	unqualified := regexp.MustCompile(`(^|[^.\w])(iTime|iResolution|iMouse)\b`)
	threeBlank := regexp.MustCompile(`\n[ \t]*\n[ \t]*\n[ \t]*\n`)

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			out := Rewrite(in)

			if !strings.HasPrefix(out, Header) {
				t.Error("missing header prefix")
			}
			if strings.Count(out, "#version 450") != 1 {
				t.Error("expected exactly one header")
			}
			if strings.TrimSpace(in) == "" {
				if out != Header {
					t.Errorf("blank input should produce the bare header, got %q", strings.TrimPrefix(out, Header))
				}
			} else if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
				t.Errorf("output must end with exactly one newline: %q", out[max(0, len(out)-20):])
			}
			if threeBlank.MatchString(out) {
				t.Error("output contains a run of blank lines")
			}
			if strings.Contains(out, "\r") {
				t.Error("carriage return left in output")
			}
			body := strings.TrimPrefix(out, Header)
			if m := unqualified.FindString(body); m != "" {
				t.Errorf("unqualified uniform %q in body:\n%s", m, body)
			}
		})
	}
}

func TestRewriteRemovesShorthandDefines(t *testing.T) {
	out := Rewrite(plasma)

	for _, gone := range []string{"#define t iTime", "#define r iResolution.xy", "pouet.net"} {
		if strings.Contains(out, gone) {
			t.Errorf("%q survived the rewrite", gone)
		}
	}
	for _, want := range []string{
		"fragCoord / ubo.iResolution.xy",
		"uv.x * 10.0 + ubo.iTime",
		"ubo.iMouse.x / ubo.iResolution.x",
		"float(int(ubo.iTime * 60.0))",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRewriteApproximations(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"float d = iTimeDelta;", "float d = 0.016;"},
		{"int f = iFrame;", "int f = int(ubo.iTime * 60.0);"},
		{"float fr = iFrameRate;", "float fr = 60.0;"},
		{"vec4 d = iDate;", "vec4 d = vec4(2024.0, 1.0, 1.0, 0.0);"},
		{"float s = iSampleRate;", "float s = 44100.0;"},
	}
	for _, tt := range tests {
		out := New(WithShorthand(false)).Rewrite(tt.in)
		if got := strings.TrimPrefix(out, Header); got != tt.want+"\n" {
			t.Errorf("Rewrite(%q) body = %q, want %q", tt.in, got, tt.want+"\n")
		}
	}
}

func TestRewriteMainImageSpacing(t *testing.T) {
	sigs := []string{
		"void mainImage(out vec4 fragColor, in vec2 fragCoord)",
		"void  mainImage ( out  vec4  O ,in vec2 U )",
		"void mainImage(\n    out vec4 col,\n    in vec2 pos\n)",
	}
	for _, sig := range sigs {
		out := Rewrite(sig + " {}")
		if !strings.Contains(out, "void main() {}") {
			t.Errorf("signature %q not replaced:\n%s", sig, out)
		}
	}
}

func TestRewriteNotIdempotent(t *testing.T) {
	once := Rewrite(plasma)
	twice := Rewrite(once)

	if once == twice {
		t.Fatal("rewriting twice produced identical output")
	}
	if strings.Count(twice, "#version 450") != 2 {
		t.Errorf("expected the header twice after a second pass")
	}
	if !strings.Contains(twice, "ubo.ubo.iTime") {
		t.Errorf("expected double qualification after a second pass")
	}
}

func TestShorthandToggle(t *testing.T) {
	in := "float f(float t, vec4 c) { return t + c.r; }"

	on := New().RewriteWithReport(in)
	if !strings.Contains(on.Text, "float ubo.iTime") || !strings.Contains(on.Text, "c.ubo.iResolution.xy") {
		t.Errorf("shorthand rules did not fire:\n%s", on.Text)
	}
	if on.Count("shorthand-t") != 2 || on.Count("shorthand-r") != 1 {
		t.Errorf("unexpected hits: %+v", on.Hits)
	}
	if len(on.Warnings) != 2 {
		t.Errorf("expected a warning per shorthand rule, got %v", on.Warnings)
	}

	off := New(WithShorthand(false)).RewriteWithReport(in)
	if !strings.Contains(off.Text, in) {
		t.Errorf("shorthand disabled but text changed:\n%s", off.Text)
	}
	if len(off.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", off.Warnings)
	}
}

func TestRewriteReportsLossyRules(t *testing.T) {
	rep := New().RewriteWithReport("void mainImage(out vec4 fragColor, in vec2 fragCoord) { fragColor = vec4(iTimeDelta, float(iFrame), 0, 1); }")

	if rep.Count("mainImage") != 1 {
		t.Errorf("mainImage hit missing: %+v", rep.Hits)
	}
	var delta, frame bool
	for _, w := range rep.Warnings {
		delta = delta || strings.HasPrefix(w, "iTimeDelta:")
		frame = frame || strings.HasPrefix(w, "iFrame:")
	}
	if !delta || !frame {
		t.Errorf("expected warnings for iTimeDelta and iFrame, got %v", rep.Warnings)
	}
}

func TestRulesOrder(t *testing.T) {
	var names []string
	for _, r := range New().Rules() {
		names = append(names, r.Name)
	}
	order := []string{"promo-comment", "define-t", "iTime", "iTimeDelta", "mainImage", "shorthand-t", "shorthand-r", "blank-lines"}
	pos := -1
	for _, want := range order {
		found := -1
		for i := pos + 1; i < len(names); i++ {
			if names[i] == want {
				found = i
				break
			}
		}
		if found < 0 {
			t.Fatalf("rule %q missing or out of order in %v", want, names)
		}
		pos = found
	}
	if names[len(names)-1] != "blank-lines" {
		t.Errorf("blank line collapse must run last, got %v", names)
	}
}

func TestBookOfShaders(t *testing.T) {
	in := `#ifdef GL_ES
precision mediump float;
#endif

uniform vec2 u_resolution;
uniform vec2 u_mouse;
uniform float u_time;

void main() {
    vec2 st = gl_FragCoord.xy / u_resolution;
    gl_FragColor = vec4(st.x, abs(sin(u_time)), u_mouse.x, 1.0);
}
`
	rep := New(WithDialect(BookOfShaders)).RewriteWithReport(in)
	out := rep.Text

	if !strings.HasPrefix(out, bookHeader) {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, gone := range []string{"GL_ES", "precision", "uniform vec2 u_", "uniform float", "gl_FragColor", "gl_FragCoord"} {
		if strings.Contains(out, gone) {
			t.Errorf("%q survived:\n%s", gone, out)
		}
	}
	for _, want := range []string{
		"vec2 st = fragCoord.xy / ubo.iResolution.xy;",
		"fragColor = vec4(st.x, abs(sin(ubo.iTime)), ubo.iMouse.xy.x, 1.0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	missing := New(WithDialect(BookOfShaders)).RewriteWithReport("float f() { return 1.0; }")
	if len(missing.Warnings) == 0 || missing.Warnings[0] != "no main() function found" {
		t.Errorf("expected missing main warning, got %v", missing.Warnings)
	}
}

func TestGolf(t *testing.T) {
	in := "vec2 p=(FC*2.-r.xy)/r.y;\no+=vec4(p,sin(t),1);"
	out := New(WithDialect(Golf)).Rewrite(in)

	if !strings.HasPrefix(out, golfHeader) {
		t.Fatalf("missing golf header:\n%s", out)
	}
	for _, want := range []string{
		"void main() {",
		"vec2 FC = fragCoord;",
		"vec3 r = ubo.iResolution;",
		"float t = ubo.iTime;",
		"vec4 o = vec4(0.0);",
		"    vec2 p=(FC*2.-r.xy)/r.y;\n    o+=vec4(p,sin(t),1);",
		"fragColor = o;\n}\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "vec4 m = ubo.iMouse;") {
		t.Errorf("mouse alias declared without use:\n%s", out)
	}
}

func TestGolfTextureAndFragCoord(t *testing.T) {
	out := New(WithDialect(Golf)).Rewrite("o=texture2D(iChannel0,gl_FragCoord.xy/r.xy);")
	if !strings.Contains(out, "o=texture(iChannel0,FC.xy/r.xy);") {
		t.Errorf("golf fixups not applied:\n%s", out)
	}
	if !strings.Contains(out, "vec2 FC = fragCoord;") {
		t.Errorf("FC alias missing:\n%s", out)
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"shadertoy", Shadertoy, false},
		{"Book", BookOfShaders, false},
		{"golf", Golf, false},
		{"hlsl", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDialect(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Golf.String() != "golf" || Dialect(9).String() != "Dialect(9)" {
		t.Error("unexpected Dialect.String output")
	}
}
