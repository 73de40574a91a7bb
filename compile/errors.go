package compile

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Error kinds. Match with errors.Is.
var (
	ErrParse      = errors.New("failed to parse GLSL shader")
	ErrValidation = errors.New("shader validation failed")
	ErrBackend    = errors.New("failed to generate SPIR-V")

	ErrExternalLaunch      = errors.New("external compiler could not be started")
	ErrExternalExit        = errors.New("external compiler failed")
	ErrExternalTimeout     = errors.New("external compiler timed out")
	ErrExternalUnavailable = errors.New("external compiler unavailable")
	ErrInProcessDisabled   = errors.New("in-process compiler disabled")
)

// Strategy identifies a compilation path.
type Strategy int

const (
	// InProcess is the GLSL frontend, IR validation and SPIR-V backend.
	InProcess Strategy = iota
	// External is the glslangValidator process.
	External
)

func (s Strategy) String() string {
	switch s {
	case InProcess:
		return "naga"
	case External:
		return "glslangValidator"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// StageError is a failure of one compilation strategy.
type StageError struct {
	Strategy Strategy
	Kind     error
	Err      error
	// Stderr holds the diagnostic text of an external compiler.
	Stderr string
}

func (e *StageError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		sb.WriteString(":\n")
		sb.WriteString(stderr)
	}
	return sb.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// CombinedError reports that every enabled strategy failed. The rewritten
// source at SourcePath was still written and can be inspected.
type CombinedError struct {
	SourcePath string
	InProcess  error
	External   error
}

func (e *CombinedError) Error() string {
	var sb strings.Builder
	sb.WriteString("both naga and glslangValidator failed")
	if e.InProcess != nil {
		fmt.Fprintf(&sb, "\nnaga error: %v", e.InProcess)
	}
	if e.External != nil {
		fmt.Fprintf(&sb, "\nglslangValidator error: %v", e.External)
	}
	if e.SourcePath != "" {
		fmt.Fprintf(&sb, "\nthe Vulkan GLSL file was still created at: %s", e.SourcePath)
	}
	return sb.String()
}

// Unwrap returns the individual causes.
func (e *CombinedError) Unwrap() []error {
	return multierr.Errors(multierr.Combine(e.InProcess, e.External))
}
