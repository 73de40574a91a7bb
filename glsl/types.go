// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

// Kind classifies a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindScalar
	KindVector
	KindMatrix
	KindArray
	KindStruct
	KindTexture // sampled image, combined with a sampler when Type.Combined is set
	KindSampler // separate sampler state
)

// ScalarKind is the component type of scalars, vectors and matrices.
type ScalarKind uint8

const (
	Bool ScalarKind = iota
	Int
	Uint
	Float
)

// Type is a GLSL type as seen by the translator.
type Type struct {
	Kind     Kind
	Scalar   ScalarKind
	Size     int // vector components, or matrix columns
	Rows     int // matrix rows
	Elem     *Type
	Len      int // array length
	Struct   *structType
	Dim      string // 2d, 3d, cube, 2d_array
	Combined bool
}

type structType struct {
	name   string
	wgsl   string
	fields []field
}

type field struct {
	name string
	wgsl string
	typ  *Type
}

func (s *structType) field(name string) (field, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

var (
	tVoid  = &Type{Kind: KindVoid}
	tBool  = scalarType(Bool)
	tInt   = scalarType(Int)
	tUint  = scalarType(Uint)
	tFloat = scalarType(Float)
)

func scalarType(k ScalarKind) *Type { return &Type{Kind: KindScalar, Scalar: k, Size: 1} }

func vectorType(k ScalarKind, n int) *Type {
	if n == 1 {
		return scalarType(k)
	}
	return &Type{Kind: KindVector, Scalar: k, Size: n}
}

func matrixType(cols, rows int) *Type {
	return &Type{Kind: KindMatrix, Scalar: Float, Size: cols, Rows: rows}
}

func arrayType(elem *Type, n int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// builtinTypes maps GLSL type names to their description.
var builtinTypes = func() map[string]*Type {
	m := map[string]*Type{
		"void":  tVoid,
		"bool":  tBool,
		"int":   tInt,
		"uint":  tUint,
		"float": tFloat,

		"sampler2D":      {Kind: KindTexture, Dim: "2d", Combined: true},
		"sampler3D":      {Kind: KindTexture, Dim: "3d", Combined: true},
		"samplerCube":    {Kind: KindTexture, Dim: "cube", Combined: true},
		"sampler2DArray": {Kind: KindTexture, Dim: "2d_array", Combined: true},
		"texture2D":      {Kind: KindTexture, Dim: "2d"},
		"texture3D":      {Kind: KindTexture, Dim: "3d"},
		"textureCube":    {Kind: KindTexture, Dim: "cube"},
		"texture2DArray": {Kind: KindTexture, Dim: "2d_array"},
		"sampler":        {Kind: KindSampler},
	}
	prefixes := map[string]ScalarKind{"": Float, "i": Int, "u": Uint, "b": Bool}
	for prefix, k := range prefixes {
		for n := 2; n <= 4; n++ {
			m[fmt.Sprintf("%svec%d", prefix, n)] = vectorType(k, n)
		}
	}
	for c := 2; c <= 4; c++ {
		m[fmt.Sprintf("mat%d", c)] = matrixType(c, c)
		for r := 2; r <= 4; r++ {
			m[fmt.Sprintf("mat%dx%d", c, r)] = matrixType(c, r)
		}
	}
	return m
}()

func (t *Type) isScalar() bool  { return t.Kind == KindScalar }
func (t *Type) isVector() bool  { return t.Kind == KindVector }
func (t *Type) isMatrix() bool  { return t.Kind == KindMatrix }
func (t *Type) isNumeric() bool { return (t.isScalar() || t.isVector()) && t.Scalar != Bool }

// isScalarOrVector reports whether t is a scalar or vector of kind k.
func (t *Type) isScalarOrVector(k ScalarKind) bool {
	return (t.isScalar() || t.isVector()) && t.Scalar == k
}

// width is the component count of a scalar or vector.
func (t *Type) width() int {
	if t.isScalar() {
		return 1
	}
	return t.Size
}

// components is the number of scalar components of a numeric type.
func (t *Type) components() int {
	switch t.Kind {
	case KindScalar:
		return 1
	case KindVector:
		return t.Size
	case KindMatrix:
		return t.Size * t.Rows
	}
	return 0
}

// withScalar returns a type of the same shape with component kind k.
func (t *Type) withScalar(k ScalarKind) *Type {
	switch t.Kind {
	case KindScalar:
		return scalarType(k)
	case KindVector:
		return vectorType(k, t.Size)
	}
	return t
}

// column is the column vector type of a matrix.
func (t *Type) column() *Type {
	return vectorType(Float, t.Rows)
}

func (t *Type) equal(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil || t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KindScalar:
		return t.Scalar == u.Scalar
	case KindVector:
		return t.Scalar == u.Scalar && t.Size == u.Size
	case KindMatrix:
		return t.Size == u.Size && t.Rows == u.Rows
	case KindArray:
		return t.Len == u.Len && t.Elem.equal(u.Elem)
	case KindStruct:
		return t.Struct == u.Struct
	case KindTexture:
		return t.Dim == u.Dim && t.Combined == u.Combined
	}
	return true
}

var scalarNames = [...]string{Bool: "bool", Int: "int", Uint: "uint", Float: "float"}
var scalarPrefixes = [...]string{Bool: "b", Int: "i", Uint: "u", Float: ""}
var wgslScalars = [...]string{Bool: "bool", Int: "i32", Uint: "u32", Float: "f32"}

var textureNames = map[string]string{"2d": "2D", "3d": "3D", "cube": "Cube", "2d_array": "2DArray"}

// String returns the GLSL spelling of t.
func (t *Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindScalar:
		return scalarNames[t.Scalar]
	case KindVector:
		return fmt.Sprintf("%svec%d", scalarPrefixes[t.Scalar], t.Size)
	case KindMatrix:
		if t.Size == t.Rows {
			return fmt.Sprintf("mat%d", t.Size)
		}
		return fmt.Sprintf("mat%dx%d", t.Size, t.Rows)
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.Elem, t.Len)
	case KindStruct:
		return t.Struct.name
	case KindTexture:
		if t.Combined {
			return "sampler" + textureNames[t.Dim]
		}
		return "texture" + textureNames[t.Dim]
	case KindSampler:
		return "sampler"
	}
	return "?"
}

// WGSL returns the WGSL spelling of t.
func (t *Type) WGSL() string {
	switch t.Kind {
	case KindScalar:
		return wgslScalars[t.Scalar]
	case KindVector:
		return fmt.Sprintf("vec%d<%s>", t.Size, wgslScalars[t.Scalar])
	case KindMatrix:
		return fmt.Sprintf("mat%dx%d<f32>", t.Size, t.Rows)
	case KindArray:
		return fmt.Sprintf("array<%s, %d>", t.Elem.WGSL(), t.Len)
	case KindStruct:
		return t.Struct.wgsl
	case KindTexture:
		return fmt.Sprintf("texture_%s<f32>", t.Dim)
	case KindSampler:
		return "sampler"
	}
	return ""
}

// zeroValue returns a WGSL expression for the zero value of t.
func (t *Type) zeroValue() string {
	return t.WGSL() + "()"
}

// describeTypes formats a list of types for diagnostics.
func describeTypes(types []*Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
