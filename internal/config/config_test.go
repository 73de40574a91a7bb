package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Rewrite.Dialect != "shadertoy" {
		t.Errorf("expected dialect shadertoy, got %s", cfg.Rewrite.Dialect)
	}
	if !cfg.Rewrite.Shorthand {
		t.Error("expected shorthand rewriting to be enabled by default")
	}
	if !cfg.Compile.InProcess {
		t.Error("expected in-process compilation to be enabled by default")
	}
	if cfg.External.Binary != "glslangValidator" {
		t.Errorf("expected glslangValidator, got %s", cfg.External.Binary)
	}
	if cfg.External.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.External.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compile.SPIRVVersion != "1.3" {
		t.Errorf("expected default SPIR-V version, got %s", cfg.Compile.SPIRVVersion)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
rewrite:
  dialect: golf
  shorthand: false
external:
  binary: /opt/vulkan/bin/glslangValidator
  timeout: 5s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Rewrite.Dialect != "golf" {
		t.Errorf("expected dialect golf, got %s", cfg.Rewrite.Dialect)
	}
	if cfg.Rewrite.Shorthand {
		t.Error("expected shorthand to be disabled")
	}
	if cfg.External.Binary != "/opt/vulkan/bin/glslangValidator" {
		t.Errorf("unexpected binary %s", cfg.External.Binary)
	}
	if cfg.External.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.External.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	// Unset sections keep their defaults.
	if !cfg.Compile.InProcess || cfg.Compile.SamplerBindingBase != 16 {
		t.Errorf("compile section lost its defaults: %+v", cfg.Compile)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "rewrite: [unterminated"},
		{"unknown dialect", "rewrite:\n  dialect: hlsl\n"},
		{"bad spirv version", "compile:\n  spirv_version: \"2.0\"\n"},
		{"nothing enabled", "compile:\n  in_process: false\nexternal:\n  enabled: false\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "p"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing profile")
	}
}

func TestParseSPIRVVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    [2]uint8
		wantErr bool
	}{
		{"1.0", [2]uint8{1, 0}, false},
		{"1.3", [2]uint8{1, 3}, false},
		{"1.6", [2]uint8{1, 6}, false},
		{"1.7", [2]uint8{}, true},
		{"2.0", [2]uint8{}, true},
		{"latest", [2]uint8{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSPIRVVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSPIRVVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSPIRVVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.External.Timeout = 2 * time.Minute
	cfg.Rewrite.Dialect = "book"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.External.Timeout != 2*time.Minute || loaded.Rewrite.Dialect != "book" {
		t.Errorf("saved profile not restored: %+v", loaded)
	}
}
