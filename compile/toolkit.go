package compile

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gogpu/shaderport/glsl"
	"github.com/gogpu/shaderport/internal/spvinfo"
)

// Toolkit is an in-process shader compiler.
type Toolkit interface {
	// Parse builds an IR module from GLSL source for the given stage.
	Parse(stage gputypes.ShaderStage, defines map[string]string, source string) (*ir.Module, error)
	// Validate checks a module and summarizes it.
	Validate(module *ir.Module) (*ModuleInfo, error)
	// Emit generates SPIR-V words for a validated module.
	Emit(module *ir.Module, info *ModuleInfo, opts EmitOptions) ([]uint32, error)
}

// ModuleInfo summarizes a validated module.
type ModuleInfo struct {
	EntryPoints []string
	Functions   int
	Globals     int
	Types       int
}

// EmitOptions configures SPIR-V generation.
type EmitOptions struct {
	// Version is the target SPIR-V version (default: 1.3).
	Version spirv.Version
	// Debug emits OpName and OpSource debug information.
	Debug bool
}

// DefaultEmitOptions returns the options used when none are given.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{Version: spirv.Version1_3}
}

// NagaToolkit implements Toolkit with the glsl frontend and the naga
// validator and SPIR-V backend.
type NagaToolkit struct {
	frontend *glsl.Frontend
	log      *zap.Logger
	// wgsl receives the intermediate WGSL text when set.
	wgsl func(string)
}

// NagaOption configures a NagaToolkit.
type NagaOption func(*NagaToolkit)

// WithFrontendOptions sets the GLSL frontend options.
func WithFrontendOptions(opts glsl.Options) NagaOption {
	return func(t *NagaToolkit) {
		t.frontend = glsl.NewFrontend(opts)
	}
}

// WithToolkitLogger sets the logger used for stage diagnostics.
func WithToolkitLogger(log *zap.Logger) NagaOption {
	return func(t *NagaToolkit) {
		t.log = log
	}
}

// WithWGSLSink registers a callback that receives the translated WGSL.
func WithWGSLSink(sink func(string)) NagaOption {
	return func(t *NagaToolkit) {
		t.wgsl = sink
	}
}

// NewNagaToolkit creates the default in-process toolkit.
func NewNagaToolkit(opts ...NagaOption) *NagaToolkit {
	t := &NagaToolkit{
		frontend: glsl.NewFrontend(glsl.DefaultOptions()),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Parse translates GLSL to WGSL and lowers it to IR.
func (t *NagaToolkit) Parse(stage gputypes.ShaderStage, defines map[string]string, source string) (*ir.Module, error) {
	code, err := t.frontend.Translate(gputypes.ShaderSourceGLSL{
		Code:    source,
		Stage:   stage,
		Defines: defines,
	})
	if err != nil {
		return nil, err
	}
	t.log.Debug("translated GLSL", zap.Int("wgsl_bytes", len(code)))
	if t.wgsl != nil {
		t.wgsl(code)
	}
	return glsl.LowerWGSL(code)
}

// Validate runs the IR validator. Every validation error is reported.
func (t *NagaToolkit) Validate(module *ir.Module) (*ModuleInfo, error) {
	validationErrors, err := ir.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(validationErrors) > 0 {
		var errs error
		for _, ve := range validationErrors {
			errs = multierr.Append(errs, ve)
		}
		return nil, fmt.Errorf("validation failed: %w", errs)
	}

	info := &ModuleInfo{
		Functions: len(module.Functions),
		Globals:   len(module.GlobalVariables),
		Types:     len(module.Types),
	}
	for _, ep := range module.EntryPoints {
		info.EntryPoints = append(info.EntryPoints, ep.Name)
	}
	return info, nil
}

// Emit generates SPIR-V and returns it as words.
func (t *NagaToolkit) Emit(module *ir.Module, info *ModuleInfo, opts EmitOptions) ([]uint32, error) {
	if info == nil {
		return nil, fmt.Errorf("module was not validated")
	}
	if len(info.EntryPoints) == 0 {
		return nil, fmt.Errorf("module has no entry point")
	}
	version := opts.Version
	if version == (spirv.Version{}) {
		version = spirv.Version1_3
	}
	backend := spirv.NewBackend(spirv.Options{
		Version:           version,
		Debug:             opts.Debug,
		Validation:        true,
		ForceLoopBounding: true,
	})
	spirvBytes, err := backend.Compile(module)
	if err != nil {
		return nil, fmt.Errorf("SPIR-V generation error: %w", err)
	}
	words, err := spvinfo.Decode(spirvBytes)
	if err != nil {
		return nil, fmt.Errorf("SPIR-V generation error: %w", err)
	}
	return words, nil
}
