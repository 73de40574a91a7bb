package compile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gogpu/shaderport/internal/spvinfo"
	"github.com/gogpu/shaderport/rewrite"
)

const gradient = `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    vec2 uv = fragCoord / iResolution.xy;
    vec3 col = 0.5 + 0.5 * cos(iTime + uv.xyx + vec3(0, 2, 4));
    fragColor = vec4(col, 1.0);
}
`

// headerOnly is the smallest module spvinfo accepts.
var headerOnly = []uint32{spvinfo.Magic, 0x00010000, 0, 1, 0}

var (
	_ Compiler = (*Glslang)(nil)
	_ Compiler = (*fakeExternal)(nil)
)

// fakeExternal records calls and optionally writes an artifact.
type fakeExternal struct {
	calls  int
	output []byte
	err    error
}

func (f *fakeExternal) CompileFile(ctx context.Context, inputPath, outputPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.output != nil {
		return os.WriteFile(outputPath, f.output, 0o644)
	}
	return nil
}

// panicToolkit fails inside Validate.
type panicToolkit struct{}

func (panicToolkit) Parse(gputypes.ShaderStage, map[string]string, string) (*ir.Module, error) {
	return &ir.Module{}, nil
}

func (panicToolkit) Validate(*ir.Module) (*ModuleInfo, error) {
	panic("index out of range")
}

func (panicToolkit) Emit(*ir.Module, *ModuleInfo, EmitOptions) ([]uint32, error) {
	return nil, nil
}

func paths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "shader.frag"), filepath.Join(dir, "shader.frag.spv")
}

func TestCompileInProcess(t *testing.T) {
	src, out := paths(t)
	ext := &fakeExternal{}
	p := New(Options{External: ext, Emit: DefaultEmitOptions()})

	res, err := p.Compile(context.Background(), src, rewrite.Rewrite(gradient), out)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if res.Strategy != InProcess {
		t.Errorf("Strategy = %v, want naga", res.Strategy)
	}
	if ext.calls != 0 {
		t.Errorf("external compiler called %d times", ext.calls)
	}
	if len(res.Words) == 0 || res.Words[0] != spvinfo.Magic {
		t.Fatalf("unexpected words: %d", len(res.Words))
	}
	if len(res.SPIRV().Code) != len(res.Words) {
		t.Errorf("SPIRV() code length mismatch")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if len(data) != len(res.Words)*4 {
		t.Errorf("artifact size = %d, want %d", len(data), len(res.Words)*4)
	}
	if res.Info == nil || !res.Info.HasEntryPoint("Fragment") {
		t.Errorf("expected a fragment entry point, got %+v", res.Info)
	}
	if res.Info != nil && (res.Info.Major != 1 || res.Info.Minor != 3) {
		t.Errorf("version = %d.%d, want 1.3", res.Info.Major, res.Info.Minor)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Err != nil {
		t.Errorf("attempts = %+v", res.Attempts)
	}
}

func TestCompileFallback(t *testing.T) {
	src, out := paths(t)
	ext := &fakeExternal{output: spvinfo.Encode(headerOnly)}
	p := New(Options{External: ext})

	res, err := p.Compile(context.Background(), src, "#version 450\nvoid main() { undefined(); }\n", out)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if res.Strategy != External {
		t.Errorf("Strategy = %v, want glslangValidator", res.Strategy)
	}
	if ext.calls != 1 {
		t.Errorf("external compiler called %d times, want 1", ext.calls)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(res.Attempts))
	}
	if !errors.Is(res.Attempts[0].Err, ErrParse) {
		t.Errorf("first attempt error = %v, want ErrParse", res.Attempts[0].Err)
	}
	if len(res.Words) != len(headerOnly) {
		t.Errorf("words = %d, want %d", len(res.Words), len(headerOnly))
	}
}

func TestCompileBothFail(t *testing.T) {
	src, out := paths(t)
	extErr := &StageError{Strategy: External, Kind: ErrExternalExit, Err: errors.New("exited with status 2"), Stderr: "ERROR: 0:2: 'undefined' : no matching overloaded function found"}
	p := New(Options{External: &fakeExternal{err: extErr}})

	_, err := p.Compile(context.Background(), src, "#version 450\nvoid main() { undefined(); }\n", out)
	var ce *CombinedError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CombinedError, got %T: %v", err, err)
	}
	if ce.SourcePath != src {
		t.Errorf("SourcePath = %q, want %q", ce.SourcePath, src)
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected errors.Is(err, ErrParse)")
	}
	if !errors.Is(err, ErrExternalExit) {
		t.Errorf("expected errors.Is(err, ErrExternalExit)")
	}
	msg := err.Error()
	for _, want := range []string{"naga error:", "glslangValidator error:", "no matching overloaded function", src} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q:\n%s", want, msg)
		}
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("artifact should not exist, stat err = %v", statErr)
	}
}

func TestCompileExternalDisabled(t *testing.T) {
	src, out := paths(t)
	ext := &fakeExternal{}
	p := New(Options{External: ext, DisableExternal: true})

	_, err := p.Compile(context.Background(), src, "not glsl", out)
	if !errors.Is(err, ErrExternalUnavailable) {
		t.Fatalf("expected ErrExternalUnavailable, got %v", err)
	}
	if ext.calls != 0 {
		t.Errorf("external compiler called %d times", ext.calls)
	}
}

func TestCompileInProcessDisabled(t *testing.T) {
	src, out := paths(t)
	ext := &fakeExternal{output: spvinfo.Encode(headerOnly)}
	p := New(Options{External: ext, DisableInProcess: true})

	res, err := p.Compile(context.Background(), src, rewrite.Rewrite(gradient), out)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if res.Strategy != External {
		t.Errorf("Strategy = %v, want glslangValidator", res.Strategy)
	}
	if len(res.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(res.Attempts))
	}
}

func TestCompileExternalBadOutput(t *testing.T) {
	tests := []struct {
		name   string
		output []byte
	}{
		{"missing", nil},
		{"garbage", []byte("not spirv at all")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, out := paths(t)
			p := New(Options{External: &fakeExternal{output: tt.output}, DisableInProcess: true})
			_, err := p.Compile(context.Background(), src, "", out)
			if !errors.Is(err, ErrExternalExit) {
				t.Fatalf("expected ErrExternalExit, got %v", err)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Errorf("invalid artifact left at %s: %v", out, statErr)
			}
		})
	}
}

func TestCompilePanicFallsBack(t *testing.T) {
	src, out := paths(t)
	ext := &fakeExternal{output: spvinfo.Encode(headerOnly)}
	p := New(Options{Toolkit: panicToolkit{}, External: ext})

	res, err := p.Compile(context.Background(), src, "", out)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if res.Strategy != External {
		t.Errorf("Strategy = %v, want glslangValidator", res.Strategy)
	}
	first := res.Attempts[0].Err
	if !errors.Is(first, ErrValidation) {
		t.Errorf("panic reported as %v, want ErrValidation", first)
	}
	if !strings.Contains(first.Error(), "index out of range") {
		t.Errorf("panic value missing from %q", first.Error())
	}
}

func TestCompileWriteFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "shader.frag")
	out := filepath.Join(dir, "missing", "shader.frag.spv")
	ext := &fakeExternal{}
	p := New(Options{External: ext})

	_, err := p.Compile(context.Background(), src, rewrite.Rewrite(gradient), out)
	if err == nil {
		t.Fatal("expected write error")
	}
	var ce *CombinedError
	if errors.As(err, &ce) {
		t.Errorf("write failure must not be combined: %v", err)
	}
	if ext.calls != 0 {
		t.Errorf("write failure must not trigger the fallback")
	}
}

func TestCompileLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	src, out := paths(t)
	p := New(Options{
		External: &fakeExternal{output: spvinfo.Encode(headerOnly)},
		Logger:   zap.New(core),
	})

	if _, err := p.Compile(context.Background(), src, "garbage", out); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	warn := logs.FilterMessage("in-process compilation failed").All()
	if len(warn) != 1 {
		t.Fatalf("expected one in-process failure entry, got %d", len(warn))
	}
	if got := warn[0].ContextMap()["source"]; got != src {
		t.Errorf("source field = %v, want %s", got, src)
	}
	if logs.FilterMessage("compiled with external compiler").Len() != 1 {
		t.Errorf("missing success log")
	}
	// The header-only artifact has no entry point.
	if logs.FilterMessage("SPIR-V module has no fragment entry point").Len() != 1 {
		t.Errorf("missing entry point warning")
	}
}

func TestWGSLSink(t *testing.T) {
	var wgsl string
	tk := NewNagaToolkit(WithWGSLSink(func(code string) { wgsl = code }))
	module, err := tk.Parse(gputypes.ShaderStageFragment, nil, rewrite.Rewrite(gradient))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.Contains(wgsl, "@fragment") {
		t.Errorf("WGSL sink did not receive the translation:\n%s", wgsl)
	}
	info, err := tk.Validate(module)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(info.EntryPoints) != 1 || info.EntryPoints[0] != "main" {
		t.Errorf("entry points = %v", info.EntryPoints)
	}
}

func TestEmitRequiresValidation(t *testing.T) {
	tk := NewNagaToolkit()
	if _, err := tk.Emit(&ir.Module{}, nil, DefaultEmitOptions()); err == nil {
		t.Error("expected error for unvalidated module")
	}
	if _, err := tk.Emit(&ir.Module{}, &ModuleInfo{}, DefaultEmitOptions()); err == nil {
		t.Error("expected error for module without entry points")
	}
}
