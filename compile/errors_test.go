package compile

import (
	"errors"
	"strings"
	"testing"
)

func TestStageErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *StageError
		want string
	}{
		{
			name: "kind only",
			err:  &StageError{Strategy: InProcess, Kind: ErrInProcessDisabled},
			want: "in-process compiler disabled",
		},
		{
			name: "with cause",
			err:  &StageError{Strategy: InProcess, Kind: ErrParse, Err: errors.New("parse error: unexpected token")},
			want: "failed to parse GLSL shader: parse error: unexpected token",
		},
		{
			name: "with diagnostics",
			err:  &StageError{Strategy: External, Kind: ErrExternalExit, Err: errors.New("exited with status 2"), Stderr: "ERROR: 1 compilation errors\n\n"},
			want: "external compiler failed: exited with status 2:\nERROR: 1 compilation errors",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, tt.err.Kind) {
				t.Errorf("errors.Is(kind) = false")
			}
		})
	}
}

func TestStageErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := &StageError{Strategy: InProcess, Kind: ErrBackend, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable with errors.Is")
	}
	if errors.Is(err, ErrParse) {
		t.Error("unexpected match for a different kind")
	}
}

func TestCombinedError(t *testing.T) {
	err := &CombinedError{
		SourcePath: "shader.frag",
		InProcess:  &StageError{Strategy: InProcess, Kind: ErrValidation, Err: errors.New("type mismatch")},
		External:   &StageError{Strategy: External, Kind: ErrExternalLaunch, Err: errors.New("glslangValidator (is it installed?)")},
	}
	msg := err.Error()
	lines := strings.Split(msg, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), msg)
	}
	if lines[0] != "both naga and glslangValidator failed" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "naga error: shader validation failed") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "glslangValidator error: external compiler could not be started") {
		t.Errorf("line 2 = %q", lines[2])
	}
	if lines[3] != "the Vulkan GLSL file was still created at: shader.frag" {
		t.Errorf("line 3 = %q", lines[3])
	}

	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrExternalLaunch) {
		t.Error("causes not reachable with errors.Is")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Strategy != InProcess {
		t.Errorf("errors.As found %+v, want the in-process error first", se)
	}
}

func TestStrategyString(t *testing.T) {
	if InProcess.String() != "naga" || External.String() != "glslangValidator" {
		t.Errorf("unexpected names %q %q", InProcess, External)
	}
	if got := Strategy(7).String(); got != "Strategy(7)" {
		t.Errorf("String() = %q", got)
	}
}
