package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/shaderport/internal/config"
)

const plasma = `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    vec2 uv = fragCoord / iResolution.xy;
    float v = sin(uv.x * 10.0 + iTime) + cos(uv.y * 10.0 - iTime);
    fragColor = vec4(vec3(0.5 + 0.5 * v), 1.0);
}
`

func writeInput(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Usage: shaderport") {
		t.Errorf("usage not printed:\n%s", stderr.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "shaderport version ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunMissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "nope.glsl")
	if code := run([]string{missing}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), missing) {
		t.Errorf("error does not name the input:\n%s", stderr.String())
	}
}

func TestRunConverts(t *testing.T) {
	input := writeInput(t, "plasma_raw.glsl", plasma)
	dir := filepath.Dir(input)
	wgslPath := filepath.Join(dir, "plasma.wgsl")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-no-fallback", "-info", "-disasm", "-wgsl", wgslPath, input}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}

	frag, err := os.ReadFile(filepath.Join(dir, "plasma.frag"))
	if err != nil {
		t.Fatalf("rewritten source missing: %v", err)
	}
	if !strings.HasPrefix(string(frag), "#version 450") {
		t.Errorf("rewritten source lacks header:\n%s", frag)
	}
	if !strings.Contains(string(frag), "ubo.iTime") {
		t.Errorf("iTime not qualified:\n%s", frag)
	}

	spv, err := os.ReadFile(filepath.Join(dir, "plasma.frag.spv"))
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if len(spv) == 0 || len(spv)%4 != 0 {
		t.Errorf("artifact size = %d", len(spv))
	}

	if _, err := os.Stat(wgslPath); err != nil {
		t.Errorf("WGSL not written: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"Converting: " + input,
		"✓ Compiled to SPIR-V (via naga)",
		"entry point:  Fragment \"main\"",
		"OpEntryPoint Fragment",
		"✓ Conversion complete!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestRunBothFail(t *testing.T) {
	input := writeInput(t, "broken.glsl", `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = notAFunction(fragCoord);
}
`)
	dir := filepath.Dir(input)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-glslang", filepath.Join(dir, "no-such-compiler"), input}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	errOut := stderr.String()
	for _, want := range []string{
		"❌ Both naga and glslangValidator failed!",
		"naga error: failed to parse GLSL shader",
		"error: undefined function notAFunction",
		"fragColor = notAFunction(fragCoord);",
		"glslangValidator error: external compiler could not be started",
		"Note: The Vulkan GLSL file was still created at: " + filepath.Join(dir, "broken.frag"),
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
	if !strings.Contains(errOut, "   |     ") || !strings.Contains(errOut, "^\n") {
		t.Errorf("no caret under the failing call:\n%s", errOut)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.frag")); err != nil {
		t.Errorf("rewritten source should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.frag.spv")); !os.IsNotExist(err) {
		t.Errorf("artifact should not exist: %v", err)
	}
}

func TestRunConfigProfile(t *testing.T) {
	input := writeInput(t, "plasma.glsl", plasma)
	dir := filepath.Dir(input)
	profile := filepath.Join(dir, "profile.yaml")
	yaml := "compile:\n  spirv_version: \"1.0\"\nexternal:\n  enabled: false\n"
	if err := os.WriteFile(profile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "out", "shader.frag")
	if err := os.Mkdir(filepath.Dir(output), 0o755); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", profile, "-info", input, output}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "SPIR-V 1.0") {
		t.Errorf("profile version not applied:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "shader.frag.spv")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestRunSaveConfig(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "fast.yaml")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-no-fallback", "-spirv-version", "1.0", "-save-config", profile}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Saved profile: "+profile) {
		t.Errorf("stdout = %q", stdout.String())
	}

	cfg, err := config.Load(profile)
	if err != nil {
		t.Fatalf("saved profile does not load: %v", err)
	}
	if cfg.External.Enabled {
		t.Error("saved profile kept the fallback enabled")
	}
	if cfg.Compile.SPIRVVersion != "1.0" {
		t.Errorf("SPIRVVersion = %q, want 1.0", cfg.Compile.SPIRVVersion)
	}

	input := writeInput(t, "plasma.glsl", plasma)
	stdout.Reset()
	if code := run([]string{"-config", profile, "-info", input}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "SPIR-V 1.0") {
		t.Errorf("saved version not applied:\n%s", stdout.String())
	}
}

func TestRunInvalidSettings(t *testing.T) {
	input := writeInput(t, "plasma.glsl", plasma)
	tests := [][]string{
		{"-dialect", "hlsl", input},
		{"-spirv-version", "2.0", input},
		{"-log-level", "loud", input},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 1 {
			t.Errorf("run(%v) = %d, want 1", args, code)
		}
	}
}
