// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/wgsl"
)

// Options configures the GLSL frontend.
type Options struct {
	// SamplerBindingBase is added to the binding of a combined image
	// sampler to place its separate sampler (default: 16).
	SamplerBindingBase uint32
}

// DefaultOptions returns the options used by the compile pipeline.
func DefaultOptions() Options {
	return Options{SamplerBindingBase: 16}
}

// Frontend turns Vulkan GLSL fragment shaders into naga IR.
type Frontend struct {
	opts Options
}

// NewFrontend creates a frontend with the given options.
func NewFrontend(opts Options) *Frontend {
	return &Frontend{opts: opts}
}

// ParseSource preprocesses and parses GLSL source into a syntax tree.
func ParseSource(source string, defines map[string]string) (*TranslationUnit, error) {
	tokens, version, err := Preprocess(source, defines)
	if err != nil {
		return nil, withSource(err, source)
	}
	unit, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, withSource(err, source)
	}
	unit.Version = version
	return unit, nil
}

// Translate converts a GLSL fragment shader into equivalent WGSL source
// with a @fragment entry point named main.
func (f *Frontend) Translate(src gputypes.ShaderSourceGLSL) (string, error) {
	if src.Stage != gputypes.ShaderStageFragment {
		return "", fmt.Errorf("unsupported shader stage %s: only fragment shaders are supported", src.Stage)
	}
	unit, err := ParseSource(src.Code, src.Defines)
	if err != nil {
		return "", err
	}
	out, err := translate(unit, f.opts)
	if err != nil {
		return "", withSource(err, src.Code)
	}
	return out, nil
}

// Parse converts a GLSL fragment shader into a naga IR module.
//
// The pipeline is:
//  1. Preprocess and parse the GLSL source
//  2. Translate it to WGSL
//  3. Tokenize, parse and lower the WGSL with naga
func (f *Frontend) Parse(src gputypes.ShaderSourceGLSL) (*ir.Module, error) {
	code, err := f.Translate(src)
	if err != nil {
		return nil, err
	}
	return LowerWGSL(code)
}

// LowerWGSL lowers translated WGSL source to IR.
func LowerWGSL(code string) (*ir.Module, error) {
	tokens, err := wgsl.NewLexer(code).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("tokenization error: %w", err)
	}
	ast, err := wgsl.NewParser(tokens).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	module, err := wgsl.LowerWithSource(ast, code)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	return module, nil
}
