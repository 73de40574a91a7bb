package rewrite

import "regexp"

// Rule is one ordered text substitution.
//
// Every rule scans the whole current text and replaces all matches; rules
// run in table order, so a later rule sees the output of the earlier ones.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string

	// Lossy marks substitutions that approximate a runtime value or guess at
	// intent. Matches of a lossy rule are reported as warnings.
	Lossy bool
	Note  string
}

// Apply runs the rule over text and returns the result and the match count.
func (r Rule) Apply(text string) (string, int) {
	n := len(r.Pattern.FindAllStringIndex(text, -1))
	if n == 0 {
		return text, 0
	}
	return r.Pattern.ReplaceAllLiteralString(text, r.Replacement), n
}

// Word builds a rule replacing the whole word w.
func Word(name, w, replacement string) Rule {
	return Rule{
		Name:        name,
		Pattern:     regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		Replacement: replacement,
	}
}

// Pattern builds a rule from a regular expression.
func Pattern(name, expr, replacement string) Rule {
	return Rule{
		Name:        name,
		Pattern:     regexp.MustCompile(expr),
		Replacement: replacement,
	}
}

// lossy marks r as an approximation with the given note.
func lossy(r Rule, note string) Rule {
	r.Lossy = true
	r.Note = note
	return r
}

var (
	lineEndings = Pattern("line-endings", `\r\n?`, "\n")
	blankRuns   = Pattern("blank-lines", `\n(?:[ \t]*\n){2,}`, "\n\n")
)

// shadertoyRules is the conversion table for playground shaders.
var shadertoyRules = []Rule{
	lineEndings,
	Pattern("promo-comment", `// http://www\.pouet\.net.*\n`, ""),
	Pattern("define-t", `#define\s+t\s+iTime`, ""),
	Pattern("define-r", `#define\s+r\s+iResolution\.xy`, ""),

	Word("iTime", "iTime", "ubo.iTime"),
	Word("iResolution", "iResolution", "ubo.iResolution"),
	Word("iMouse", "iMouse", "ubo.iMouse"),

	lossy(Word("iTimeDelta", "iTimeDelta", "0.016"),
		"frame delta fixed at 0.016s"),
	lossy(Word("iFrame", "iFrame", "int(ubo.iTime * 60.0)"),
		"frame counter derived from time at 60 fps"),
	lossy(Word("iFrameRate", "iFrameRate", "60.0"),
		"frame rate fixed at 60"),
	lossy(Word("iDate", "iDate", "vec4(2024.0, 1.0, 1.0, 0.0)"),
		"date fixed at 2024-01-01 00:00"),
	lossy(Word("iSampleRate", "iSampleRate", "44100.0"),
		"sample rate fixed at 44100 Hz"),

	Pattern("mainImage",
		`void\s+mainImage\s*\(\s*out\s+vec4\s+\w+\s*,\s*in\s+vec2\s+\w+\s*\)`,
		"void main()"),
}

// shorthandRules expand the single-letter aliases of code-golfed shaders.
// They match any standalone t or r, including locals and swizzles such as c.r.
var shorthandRules = []Rule{
	lossy(Word("shorthand-t", "t", "ubo.iTime"),
		"bare t assumed to mean iTime"),
	lossy(Word("shorthand-r", "r", "ubo.iResolution.xy"),
		"bare r assumed to mean iResolution.xy (also hits .r swizzles)"),
}

// bookRules convert shaders written against the u_time/u_resolution convention.
var bookRules = []Rule{
	lineEndings,
	Pattern("gl-es-precision", `#ifdef GL_ES\s+precision mediump float;\s+#endif`, ""),
	Pattern("processing-define", `#define\s+PROCESSING_\w+`, ""),
	Pattern("uniform-decl", `(?m)^[ \t]*uniform\s+(?:float|vec2|vec3|vec4|sampler2D)\s+\w+\s*;`, ""),

	Word("u_time", "u_time", "ubo.iTime"),
	Word("u_resolution", "u_resolution", "ubo.iResolution.xy"),
	lossy(Word("u_mouse", "u_mouse", "ubo.iMouse.xy"),
		"mouse reduced to its xy position"),
	Word("u_tex0", "u_tex0", "iChannel0"),

	lossy(Word("gl_FragCoord", "gl_FragCoord", "fragCoord"),
		"gl_FragCoord narrowed to the vec2 fragCoord input"),
	Word("gl_FragColor", "gl_FragColor", "fragColor"),
	Word("texture2D", "texture2D", "texture"),
}

// golfRules run after the golf body has been wrapped into main.
var golfRules = []Rule{
	Word("gl_FragCoord", "gl_FragCoord", "FC"),
	Word("texture2D", "texture2D", "texture"),
}
