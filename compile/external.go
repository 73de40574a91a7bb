package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Compiler compiles a source file with a separate compiler process.
type Compiler interface {
	CompileFile(ctx context.Context, inputPath, outputPath string) error
}

// DefaultTimeout bounds one external compiler run.
const DefaultTimeout = 30 * time.Second

// Glslang runs glslangValidator. It must be on the PATH unless Bin is a
// path.
type Glslang struct {
	// Bin is the glslangValidator executable (default: "glslangValidator").
	Bin string
	// Timeout bounds the process run time. Zero means no limit.
	Timeout time.Duration
}

// NewGlslang returns a runner for the glslangValidator on the PATH.
func NewGlslang() *Glslang {
	return &Glslang{Bin: "glslangValidator", Timeout: DefaultTimeout}
}

// CompileFile runs "glslangValidator -V inputPath -o outputPath".
// On timeout or cancellation the whole process group is killed.
func (g *Glslang) CompileFile(ctx context.Context, inputPath, outputPath string) error {
	bin := g.Bin
	if bin == "" {
		bin = "glslangValidator"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return &StageError{Strategy: External, Kind: ErrExternalLaunch, Err: fmt.Errorf("%s (is it installed?): %w", bin, err)}
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	cmd := exec.Command(path, "-V", inputPath, "-o", outputPath)
	setProcessGroup(cmd)
	// glslangValidator prints its diagnostics on stdout.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return &StageError{Strategy: External, Kind: ErrExternalLaunch, Err: fmt.Errorf("failed to run %s: %w", bin, err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &StageError{Strategy: External, Kind: ErrExternalTimeout, Err: fmt.Errorf("%s killed after %v", bin, g.Timeout), Stderr: output.String()}
		}
		return &StageError{Strategy: External, Kind: ErrExternalExit, Err: ctx.Err(), Stderr: output.String()}
	case err = <-done:
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &StageError{
				Strategy: External,
				Kind:     ErrExternalExit,
				Err:      fmt.Errorf("%s exited with status %d", bin, exitErr.ExitCode()),
				Stderr:   output.String(),
			}
		}
		return &StageError{Strategy: External, Kind: ErrExternalLaunch, Err: err}
	}
	return nil
}
