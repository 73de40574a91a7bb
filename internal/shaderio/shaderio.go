// Package shaderio reads shader sources and writes conversion outputs.
package shaderio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Error kinds. Match with errors.Is.
var (
	ErrInputNotFound = errors.New("input file not found")
	ErrReadFailure   = errors.New("read failed")
	ErrWriteFailure  = errors.New("write failed")
)

// PathError is an I/O failure tied to a file.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ReadSource reads a shader source file as text.
// A UTF-8 byte order mark is dropped; UTF-16 files with a byte order mark
// are transcoded to UTF-8.
func ReadSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &PathError{Kind: ErrInputNotFound, Path: path}
		}
		return "", &PathError{Kind: ErrReadFailure, Path: path, Err: err}
	}
	defer f.Close()

	text, err := DecodeSource(f)
	if err != nil {
		return "", &PathError{Kind: ErrReadFailure, Path: path, Err: err}
	}
	return text, nil
}

// DecodeSource reads all of r, honoring a leading byte order mark.
func DecodeSource(r io.Reader) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText writes text to path.
func WriteText(path, text string) error {
	return WriteFile(path, []byte(text))
}

// WriteFile writes data to path through a temporary file in the same
// directory, so a failed write never leaves a truncated artifact behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &PathError{Kind: ErrWriteFailure, Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PathError{Kind: ErrWriteFailure, Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PathError{Kind: ErrWriteFailure, Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &PathError{Kind: ErrWriteFailure, Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PathError{Kind: ErrWriteFailure, Path: path, Err: err}
	}
	return nil
}

// Paths holds the files involved in one conversion.
type Paths struct {
	Input  string // shader as written for the playground
	Source string // rewritten Vulkan GLSL
	SPIRV  string // compiled artifact
}

// DerivePaths fills in the default output locations.
//
// Without an explicit output, the rewritten source sits next to the input,
// named after the input stem with any "_raw" marker removed and a ".frag"
// extension. The artifact path replaces the extension of the rewritten source
// path with ".frag.spv".
func DerivePaths(input, output string) Paths {
	if output == "" {
		dir := filepath.Dir(input)
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		stem = strings.ReplaceAll(stem, "_raw", "")
		output = filepath.Join(dir, stem+".frag")
	}
	return Paths{
		Input:  input,
		Source: output,
		SPIRV:  strings.TrimSuffix(output, filepath.Ext(output)) + ".frag.spv",
	}
}
