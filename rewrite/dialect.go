package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect identifies the conventions of the input shader.
type Dialect int

const (
	// Shadertoy shaders use iTime, iResolution, iMouse and mainImage.
	Shadertoy Dialect = iota
	// BookOfShaders shaders declare u_time, u_resolution and u_mouse and
	// write gl_FragColor from main.
	BookOfShaders
	// Golf shaders are a bare statement list using the aliases FC, r, t, o
	// and m without any function around them.
	Golf
)

var dialectNames = map[Dialect]string{
	Shadertoy:     "shadertoy",
	BookOfShaders: "book",
	Golf:          "golf",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// ParseDialect maps a dialect name to its value.
func ParseDialect(name string) (Dialect, error) {
	for d, n := range dialectNames {
		if strings.EqualFold(n, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dialect %q (want shadertoy, book or golf)", name)
}

func (d Dialect) header() string {
	switch d {
	case BookOfShaders:
		return bookHeader
	case Golf:
		return golfHeader
	default:
		return Header
	}
}

type golfAlias struct {
	used func(string) bool
	decl string
}

func wordUsed(w string) func(string) bool {
	re := regexp.MustCompile(`\b` + w + `\b`)
	return re.MatchString
}

var golfAliases = []golfAlias{
	{func(s string) bool { return strings.Contains(s, "FC") || strings.Contains(s, "gl_FragCoord") },
		"vec2 FC = fragCoord;"},
	{wordUsed("r"), "vec3 r = ubo.iResolution;"},
	{wordUsed("t"), "float t = ubo.iTime;"},
	{wordUsed("o"), "vec4 o = vec4(0.0);"},
	{wordUsed("m"), "vec4 m = ubo.iMouse;"},
}

var golfOutput = wordUsed("o")

// wrapGolf puts a golf body into main, declaring the aliases it uses.
func wrapGolf(body string) string {
	body = strings.TrimSpace(body)

	var b strings.Builder
	b.WriteString("/*\n    Code Golf Shader (Twitter/Pouet style)\n    Converted from compact format\n*/\n\n")
	b.WriteString("void main() {\n")
	for _, a := range golfAliases {
		if a.used(body) {
			b.WriteString("    " + a.decl + "\n")
		}
	}
	b.WriteString("\n    ")
	b.WriteString(strings.ReplaceAll(body, "\n", "\n    "))
	if golfOutput(body) {
		b.WriteString("\n    fragColor = o;")
	}
	b.WriteString("\n}\n")
	return b.String()
}
