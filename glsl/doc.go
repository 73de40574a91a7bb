// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl implements a GLSL frontend for Vulkan fragment shaders.
//
// It covers the subset of GLSL 4.50 used by converted playground shaders:
// the preprocessor, global in/out variables, uniform and buffer blocks,
// combined image samplers, structs, overloaded functions with in/out/inout
// parameters, the usual statements and most built-in functions.
//
// Shaders are translated to WGSL and lowered with naga's WGSL frontend, so
// the result is an ir.Module that can be validated and passed to any naga
// backend:
//
//	fe := glsl.NewFrontend(glsl.DefaultOptions())
//	module, err := fe.Parse(gputypes.ShaderSourceGLSL{
//	    Code:  source,
//	    Stage: gputypes.ShaderStageFragment,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Combined samplers such as sampler2D are split into a texture at the
// declared binding and a sampler at the binding plus
// Options.SamplerBindingBase in the same descriptor set.
//
// Constructs outside the subset are reported as *SourceError values with
// line and column information; FormatWithContext renders the offending
// line with a caret.
package glsl
