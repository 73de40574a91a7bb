package shaderio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDerivePaths(t *testing.T) {
	tests := []struct {
		name, input, output string
		wantSource          string
		wantSPIRV           string
	}{
		{
			name:       "raw marker stripped",
			input:      filepath.Join("shaders", "tunnel_raw.glsl"),
			wantSource: filepath.Join("shaders", "tunnel.frag"),
			wantSPIRV:  filepath.Join("shaders", "tunnel.frag.spv"),
		},
		{
			name:       "plain stem",
			input:      "plasma.txt",
			wantSource: "plasma.frag",
			wantSPIRV:  "plasma.frag.spv",
		},
		{
			name:       "no extension",
			input:      filepath.Join("in", "clouds_raw"),
			wantSource: filepath.Join("in", "clouds.frag"),
			wantSPIRV:  filepath.Join("in", "clouds.frag.spv"),
		},
		{
			name:       "explicit output",
			input:      "a.glsl",
			output:     filepath.Join("out", "b.frag"),
			wantSource: filepath.Join("out", "b.frag"),
			wantSPIRV:  filepath.Join("out", "b.frag.spv"),
		},
		{
			name:       "explicit output with other extension",
			input:      "a.glsl",
			output:     "result.glsl",
			wantSource: "result.glsl",
			wantSPIRV:  "result.frag.spv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePaths(tt.input, tt.output)
			if got.Input != tt.input {
				t.Errorf("Input = %q, want %q", got.Input, tt.input)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.SPIRV != tt.wantSPIRV {
				t.Errorf("SPIRV = %q, want %q", got.SPIRV, tt.wantSPIRV)
			}
		})
	}
}

func TestReadSourceMissing(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "nope.glsl"))
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	var pe *PathError
	if !errors.As(err, &pe) || pe.Path == "" {
		t.Errorf("expected a PathError carrying the path, got %T", err)
	}
}

func TestReadSourceDirectory(t *testing.T) {
	_, err := ReadSource(t.TempDir())
	if !errors.Is(err, ErrReadFailure) {
		t.Fatalf("expected ErrReadFailure for a directory, got %v", err)
	}
}

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("void main(){}"), "void main(){}"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "float x;"...), "float x;"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'v', 0, 'e', 0, 'c', 0, '2', 0}, "vec2"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'i', 0, 'n', 0, 't'}, "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSource(bytes.NewReader(tt.in))
			if err != nil {
				t.Fatalf("DecodeSource: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shader.frag.spv")

	if err := WriteFile(path, []byte{1, 2, 3}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFile(path, []byte{4, 5}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, []byte{4, 5}) {
		t.Errorf("got %v, want [4 5]", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	err := WriteText(filepath.Join(t.TempDir(), "no", "such", "dir", "x.frag"), "x")
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("expected ErrWriteFailure, got %v", err)
	}
}
