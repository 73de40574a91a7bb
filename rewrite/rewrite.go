// Package rewrite converts playground-style fragment shaders into Vulkan GLSL
// with explicit bindings.
//
// The conversion is purely textual. An ordered table of whole-word and
// pattern substitutions qualifies the implicit uniforms with the uniform
// block instance, approximates the uniforms the header does not provide, and
// replaces the mainImage entry point with main. A fixed header is prepended.
//
// Rewriting is not idempotent: feeding the output back in prepends a second
// header and turns ubo.iTime into ubo.ubo.iTime.
package rewrite

import (
	"fmt"
	"strings"
)

// Hit records how often a rule matched.
type Hit struct {
	Rule  string
	Count int
}

// Report is the outcome of a rewrite.
type Report struct {
	Text     string
	Hits     []Hit
	Warnings []string
}

// Rewriter applies a dialect's rule table.
type Rewriter struct {
	dialect   Dialect
	shorthand bool
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithDialect selects the source dialect.
func WithDialect(d Dialect) Option {
	return func(r *Rewriter) { r.dialect = d }
}

// WithShorthand enables or disables expansion of the bare t and r aliases
// in the Shadertoy dialect. It is enabled by default.
func WithShorthand(enabled bool) Option {
	return func(r *Rewriter) { r.shorthand = enabled }
}

// New returns a Rewriter for the Shadertoy dialect with shorthand expansion.
func New(opts ...Option) *Rewriter {
	r := &Rewriter{dialect: Shadertoy, shorthand: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite converts source with the default settings.
func Rewrite(source string) string {
	return New().Rewrite(source)
}

// Rewrite converts source. It never fails.
func (r *Rewriter) Rewrite(source string) string {
	return r.RewriteWithReport(source).Text
}

// Rules returns the effective rule table in application order.
func (r *Rewriter) Rules() []Rule {
	var rules []Rule
	switch r.dialect {
	case BookOfShaders:
		rules = append(rules, bookRules...)
	case Golf:
		rules = append(rules, golfRules...)
	default:
		rules = append(rules, shadertoyRules...)
		if r.shorthand {
			rules = append(rules, shorthandRules...)
		}
	}
	return append(rules, blankRuns)
}

// RewriteWithReport converts source and reports which rules fired.
func (r *Rewriter) RewriteWithReport(source string) Report {
	var rep Report
	text := source

	switch r.dialect {
	case BookOfShaders:
		if !strings.Contains(source, "void main") {
			rep.Warnings = append(rep.Warnings, "no main() function found")
		}
	case Golf:
		text = wrapGolf(lineEndings.Pattern.ReplaceAllString(source, "\n"))
	}

	for _, rule := range r.Rules() {
		var n int
		text, n = rule.Apply(text)
		if n == 0 {
			continue
		}
		rep.Hits = append(rep.Hits, Hit{Rule: rule.Name, Count: n})
		if rule.Lossy {
			rep.Warnings = append(rep.Warnings,
				fmt.Sprintf("%s: %d replacement(s), %s", rule.Name, n, rule.Note))
		}
	}

	// An empty body leaves the header as is, ending in its blank line.
	rep.Text = r.dialect.header()
	if body := strings.TrimSpace(text); body != "" {
		rep.Text += body + "\n"
	}
	return rep
}

// Count returns the number of matches recorded for the named rule.
func (rep Report) Count(rule string) int {
	for _, h := range rep.Hits {
		if h.Rule == rule {
			return h.Count
		}
	}
	return 0
}
