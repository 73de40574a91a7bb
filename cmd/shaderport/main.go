// Command shaderport converts playground fragment shaders to Vulkan GLSL and
// compiles them to SPIR-V.
//
// Usage:
//
//	shaderport [options] <input> [output]
//
// Examples:
//
//	shaderport shaders/creation_raw.glsl              # writes creation.frag and creation.frag.spv
//	shaderport in.glsl out/shader.frag                # explicit output path
//	shaderport -no-fallback -info in.glsl             # in-process only, print SPIR-V summary
//	shaderport -wgsl shader.wgsl in.glsl              # keep the intermediate WGSL
//	shaderport -disasm in.glsl                        # print the SPIR-V listing
//	shaderport -no-fallback -save-config fast.yaml    # write a profile for -config
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gogpu/naga/spirv"
	"go.uber.org/zap"

	"github.com/gogpu/shaderport/compile"
	"github.com/gogpu/shaderport/glsl"
	"github.com/gogpu/shaderport/internal/config"
	"github.com/gogpu/shaderport/internal/logger"
	"github.com/gogpu/shaderport/internal/shaderio"
	"github.com/gogpu/shaderport/internal/spvinfo"
	"github.com/gogpu/shaderport/rewrite"
)

const shaderportVersion = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	configPath   string
	saveConfig   string
	dialect      string
	noShorthand  bool
	glslang      string
	timeout      time.Duration
	noFallback   bool
	spirvVersion string
	info         bool
	disasm       bool
	wgslPath     string
	logLevel     string
	logFile      string
	version      bool
}

func newFlagSet(f *flags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("shaderport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "YAML conversion profile")
	fs.StringVar(&f.saveConfig, "save-config", "", "write the effective profile to this file")
	fs.StringVar(&f.dialect, "dialect", "shadertoy", "input dialect: shadertoy, book or golf")
	fs.BoolVar(&f.noShorthand, "no-shorthand", false, "do not rewrite the bare t and r aliases")
	fs.StringVar(&f.glslang, "glslang", "glslangValidator", "fallback compiler executable")
	fs.DurationVar(&f.timeout, "timeout", compile.DefaultTimeout, "fallback compiler time limit")
	fs.BoolVar(&f.noFallback, "no-fallback", false, "do not run the fallback compiler")
	fs.StringVar(&f.spirvVersion, "spirv-version", "1.3", "target SPIR-V version")
	fs.BoolVar(&f.info, "info", false, "print a summary of the SPIR-V module")
	fs.BoolVar(&f.disasm, "disasm", false, "print a SPIR-V listing")
	fs.StringVar(&f.wgslPath, "wgsl", "", "write the intermediate WGSL to this file")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "also log to this file (rotated)")
	fs.BoolVar(&f.version, "version", false, "print version")
	fs.Usage = func() { usage(fs, stderr) }
	return fs
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var f flags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if f.version {
		fmt.Fprintf(stdout, "shaderport version %s\n", shaderportVersion)
		return 0
	}

	if fs.NArg() < 1 && f.saveConfig == "" {
		usage(fs, stderr)
		return 1
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(fs, &f, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if f.saveConfig != "" {
		if err := cfg.Save(f.saveConfig); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ Saved profile: %s\n", f.saveConfig)
		if fs.NArg() < 1 {
			return 0
		}
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	paths := shaderio.DerivePaths(fs.Arg(0), fs.Arg(1))
	if err := convert(context.Background(), cfg, paths, f, stdout, stderr); err != nil {
		return 1
	}
	return 0
}

// applyFlags copies explicitly set flags over the profile.
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "dialect":
			cfg.Rewrite.Dialect = f.dialect
		case "no-shorthand":
			cfg.Rewrite.Shorthand = !f.noShorthand
		case "glslang":
			cfg.External.Binary = f.glslang
		case "timeout":
			cfg.External.Timeout = f.timeout
		case "no-fallback":
			cfg.External.Enabled = !f.noFallback
		case "spirv-version":
			cfg.Compile.SPIRVVersion = f.spirvVersion
		case "log-level":
			cfg.Logging.Level = f.logLevel
		case "log-file":
			cfg.Logging.LogFile = f.logFile
		}
	})
}

func convert(ctx context.Context, cfg *config.Config, paths shaderio.Paths, f flags, stdout, stderr io.Writer) error {
	log := logger.Named("convert")

	source, err := shaderio.ReadSource(paths.Input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}

	fmt.Fprintf(stdout, "Converting: %s\n", paths.Input)
	fmt.Fprintf(stdout, "Output:     %s\n", paths.Source)
	fmt.Fprintf(stdout, "SPIR-V:     %s\n", paths.SPIRV)
	fmt.Fprintln(stdout)

	dialect, err := rewrite.ParseDialect(cfg.Rewrite.Dialect)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	rep := rewrite.New(rewrite.WithDialect(dialect), rewrite.WithShorthand(cfg.Rewrite.Shorthand)).RewriteWithReport(source)
	for _, w := range rep.Warnings {
		log.Warn("lossy rewrite", zap.String("detail", w))
	}
	for _, h := range rep.Hits {
		log.Debug("rule applied", zap.String("rule", h.Rule), zap.Int("count", h.Count))
	}

	if err := shaderio.WriteText(paths.Source, rep.Text); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintf(stdout, "✓ Converted to Vulkan GLSL: %s\n", paths.Source)

	pipeline, err := newPipeline(cfg, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}

	res, err := pipeline.Compile(ctx, paths.Source, rep.Text, paths.SPIRV)
	if err != nil {
		var ce *compile.CombinedError
		if !errors.As(err, &ce) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return err
		}
		if cfg.Compile.InProcess {
			fmt.Fprintln(stdout, "⚠ naga compilation failed, trying glslangValidator...")
		}
		fmt.Fprintln(stderr, "❌ Both naga and glslangValidator failed!")
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "naga error: %v\n", ce.InProcess)
		var se *glsl.SourceError
		if errors.As(ce.InProcess, &se) && se.Source != "" {
			fmt.Fprintln(stderr)
			fmt.Fprint(stderr, se.FormatWithContext())
		}
		fmt.Fprintf(stderr, "glslangValidator error: %v\n", ce.External)
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "Note: The Vulkan GLSL file was still created at: %s\n", ce.SourcePath)
		return err
	}

	if res.Strategy == compile.External && cfg.Compile.InProcess {
		fmt.Fprintln(stdout, "⚠ naga compilation failed, trying glslangValidator...")
	}
	fmt.Fprintf(stdout, "✓ Compiled to SPIR-V (via %s): %s\n", res.Strategy, paths.SPIRV)
	if f.info && res.Info != nil {
		fmt.Fprintln(stdout)
		res.Info.Describe(stdout)
	}
	if f.disasm {
		fmt.Fprintln(stdout)
		if err := spvinfo.Disassemble(stdout, res.Words); err != nil {
			log.Warn("could not disassemble SPIR-V", zap.Error(err))
		}
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "✓ Conversion complete!")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintf(stdout, "  1. Review: cat %s\n", paths.Source)
	fmt.Fprintf(stdout, "  2. Load %s as the fragment stage of your Vulkan pipeline\n", paths.SPIRV)
	return nil
}

func newPipeline(cfg *config.Config, f flags) (*compile.Pipeline, error) {
	v, err := config.ParseSPIRVVersion(cfg.Compile.SPIRVVersion)
	if err != nil {
		return nil, err
	}

	toolkitOpts := []compile.NagaOption{
		compile.WithFrontendOptions(glsl.Options{SamplerBindingBase: cfg.Compile.SamplerBindingBase}),
		compile.WithToolkitLogger(logger.Named("naga")),
	}
	if f.wgslPath != "" {
		log := logger.Named("wgsl")
		toolkitOpts = append(toolkitOpts, compile.WithWGSLSink(func(code string) {
			if err := shaderio.WriteText(f.wgslPath, code); err != nil {
				log.Warn("could not write WGSL", zap.Error(err))
			}
		}))
	}

	return compile.New(compile.Options{
		Toolkit:          compile.NewNagaToolkit(toolkitOpts...),
		External:         &compile.Glslang{Bin: cfg.External.Binary, Timeout: cfg.External.Timeout},
		DisableInProcess: !cfg.Compile.InProcess,
		DisableExternal:  !cfg.External.Enabled,
		Emit: compile.EmitOptions{
			Version: spirv.Version{Major: v[0], Minor: v[1]},
			Debug:   cfg.Compile.Debug,
		},
		Logger: logger.Named("compile"),
	}), nil
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "ShaderToy to Vulkan SPIR-V Converter")
	fmt.Fprintln(w, "====================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: shaderport [options] <input_file> [output_file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  shaderport shaders/creation_by_silexars_raw.glsl")
	fmt.Fprintln(w, "  shaderport shaders/creation_by_silexars_raw.glsl shaders/creation.frag")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Converts ShaderToy GLSL to Vulkan GLSL + SPIR-V with:")
	fmt.Fprintln(w, "  - Vulkan #version 450 header")
	fmt.Fprintln(w, "  - Uniform buffer object declarations")
	fmt.Fprintln(w, "  - main() instead of mainImage()")
	fmt.Fprintln(w, "  - ubo.iTime, ubo.iResolution, ubo.iMouse prefixes")
	fmt.Fprintln(w, "  - SPIR-V compilation via naga, glslangValidator as fallback")
}
