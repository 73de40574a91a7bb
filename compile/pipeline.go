// Package compile turns rewritten Vulkan GLSL into a SPIR-V artifact.
//
// Compilation runs in-process first (GLSL frontend, naga IR validation, naga
// SPIR-V backend). When that fails the rewritten source file is handed to an
// external glslangValidator. When both fail, a *CombinedError carries both
// causes.
//
// Example usage:
//
//	p := compile.New(compile.DefaultOptions())
//	res, err := p.Compile(ctx, "shader.frag", source, "shader.frag.spv")
//	if err != nil {
//	    var ce *compile.CombinedError
//	    if errors.As(err, &ce) {
//	        // both strategies failed; shader.frag is still on disk
//	    }
//	}
//	fmt.Println(res.Strategy, len(res.Words))
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"github.com/gogpu/shaderport/internal/shaderio"
	"github.com/gogpu/shaderport/internal/spvinfo"
)

// Options configures a Pipeline.
type Options struct {
	// Toolkit is the in-process compiler (default: NewNagaToolkit()).
	Toolkit Toolkit
	// External is the fallback compiler (default: NewGlslang()).
	External Compiler

	DisableInProcess bool
	DisableExternal  bool

	// Defines are passed to the GLSL preprocessor.
	Defines map[string]string
	Emit    EmitOptions

	Logger *zap.Logger
}

// DefaultOptions returns options that try naga first and glslangValidator
// second.
func DefaultOptions() Options {
	return Options{
		Toolkit:  NewNagaToolkit(),
		External: NewGlslang(),
		Emit:     DefaultEmitOptions(),
		Logger:   zap.NewNop(),
	}
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy Strategy
	Err      error
	Duration time.Duration
}

// Result describes a successful compilation.
type Result struct {
	Strategy   Strategy
	Words      []uint32
	OutputPath string
	Attempts   []Attempt
	// Info is nil if the artifact could not be inspected.
	Info *spvinfo.Info
}

// SPIRV returns the artifact as a shader source.
func (r *Result) SPIRV() gputypes.ShaderSourceSPIRV {
	return gputypes.ShaderSourceSPIRV{Code: r.Words}
}

// Pipeline runs the in-process compiler with an external fallback.
type Pipeline struct {
	opts Options
	log  *zap.Logger
}

// New creates a pipeline. Nil fields of opts take their defaults.
func New(opts Options) *Pipeline {
	if opts.Toolkit == nil {
		opts.Toolkit = NewNagaToolkit()
	}
	if opts.External == nil {
		opts.External = NewGlslang()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, log: opts.Logger}
}

// Compile compiles sourceText, which must also be saved at sourcePath for
// the external compiler, and writes the artifact to outputPath.
//
// A failure to write the artifact is returned as is and does not trigger
// the fallback. When every enabled strategy fails, the error is a
// *CombinedError.
func (p *Pipeline) Compile(ctx context.Context, sourcePath, sourceText, outputPath string) (*Result, error) {
	res := &Result{OutputPath: outputPath}
	log := p.log.With(zap.String("source", sourcePath), zap.String("output", outputPath))

	var inErr error
	if p.opts.DisableInProcess {
		inErr = &StageError{Strategy: InProcess, Kind: ErrInProcessDisabled}
	} else {
		start := time.Now()
		words, err := p.inProcess(sourceText)
		res.Attempts = append(res.Attempts, Attempt{Strategy: InProcess, Err: err, Duration: time.Since(start)})
		if err == nil {
			if err := shaderio.WriteFile(outputPath, spvinfo.Encode(words)); err != nil {
				return nil, err
			}
			res.Strategy = InProcess
			res.Words = words
			res.Info = p.inspect(words, log)
			log.Info("compiled in-process", zap.Int("words", len(words)), zap.Duration("took", time.Since(start)))
			return res, nil
		}
		inErr = err
		log.Info("in-process compilation failed", zap.Error(err))
	}

	var extErr error
	if p.opts.DisableExternal {
		extErr = &StageError{Strategy: External, Kind: ErrExternalUnavailable, Err: errors.New("disabled by configuration")}
	} else {
		start := time.Now()
		words, err := p.external(ctx, sourcePath, outputPath)
		res.Attempts = append(res.Attempts, Attempt{Strategy: External, Err: err, Duration: time.Since(start)})
		if err == nil {
			res.Strategy = External
			res.Words = words
			res.Info = p.inspect(words, log)
			log.Info("compiled with external compiler", zap.Int("words", len(words)), zap.Duration("took", time.Since(start)))
			return res, nil
		}
		extErr = err
		log.Info("external compilation failed", zap.Error(err))
	}

	return nil, &CombinedError{SourcePath: sourcePath, InProcess: inErr, External: extErr}
}

// inProcess runs parse, validate and emit. A panic in any stage is
// reported as a failure of that stage.
func (p *Pipeline) inProcess(source string) (words []uint32, err error) {
	kind := ErrParse
	defer func() {
		if r := recover(); r != nil {
			words = nil
			err = &StageError{Strategy: InProcess, Kind: kind, Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	module, err := p.opts.Toolkit.Parse(gputypes.ShaderStageFragment, p.opts.Defines, source)
	if err != nil {
		return nil, &StageError{Strategy: InProcess, Kind: ErrParse, Err: err}
	}

	kind = ErrValidation
	info, err := p.opts.Toolkit.Validate(module)
	if err != nil {
		return nil, &StageError{Strategy: InProcess, Kind: ErrValidation, Err: err}
	}

	kind = ErrBackend
	words, err = p.opts.Toolkit.Emit(module, info, p.opts.Emit)
	if err != nil {
		return nil, &StageError{Strategy: InProcess, Kind: ErrBackend, Err: err}
	}
	if len(words) == 0 {
		return nil, &StageError{Strategy: InProcess, Kind: ErrBackend, Err: errors.New("empty module")}
	}
	return words, nil
}

// external runs the fallback compiler and reads back its artifact. An
// artifact that is not SPIR-V is removed.
func (p *Pipeline) external(ctx context.Context, sourcePath, outputPath string) ([]uint32, error) {
	if err := p.opts.External.CompileFile(ctx, sourcePath, outputPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, &StageError{Strategy: External, Kind: ErrExternalExit, Err: fmt.Errorf("no readable output: %w", err)}
	}
	words, err := spvinfo.Decode(data)
	if err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil {
			p.log.Warn("could not remove invalid artifact", zap.String("output", outputPath), zap.Error(rmErr))
		}
		return nil, &StageError{Strategy: External, Kind: ErrExternalExit, Err: fmt.Errorf("invalid output %s: %w", outputPath, err)}
	}
	return words, nil
}

func (p *Pipeline) inspect(words []uint32, log *zap.Logger) *spvinfo.Info {
	info, err := spvinfo.Inspect(words)
	if err != nil {
		log.Warn("could not inspect SPIR-V", zap.Error(err))
		return nil
	}
	if !info.HasEntryPoint("Fragment") {
		log.Warn("SPIR-V module has no fragment entry point")
	}
	return info
}
