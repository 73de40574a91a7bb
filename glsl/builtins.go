// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

type builtinFunc func(t *translator, e *CallExpr, args []operand) (operand, error)

var builtins map[string]builtinFunc

// floatFuncs are component-wise functions of one float argument.
var floatFuncs = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"asin": "asin", "acos": "acos",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"asinh": "asinh", "acosh": "acosh", "atanh": "atanh",
	"radians": "radians", "degrees": "degrees",
	"exp": "exp", "log": "log", "exp2": "exp2", "log2": "log2",
	"sqrt": "sqrt", "inversesqrt": "inverseSqrt",
	"floor": "floor", "ceil": "ceil", "fract": "fract", "trunc": "trunc",
	"round": "round", "roundEven": "round",
	"dFdx": "dpdx", "dFdy": "dpdy", "fwidth": "fwidth",
	"dFdxFine": "dpdxFine", "dFdyFine": "dpdyFine", "fwidthFine": "fwidthFine",
	"dFdxCoarse": "dpdxCoarse", "dFdyCoarse": "dpdyCoarse", "fwidthCoarse": "fwidthCoarse",
}

var relationalFuncs = map[string]string{
	"lessThan":         "<",
	"lessThanEqual":    "<=",
	"greaterThan":      ">",
	"greaterThanEqual": ">=",
	"equal":            "==",
	"notEqual":         "!=",
}

var packFuncs = map[string]string{
	"packUnorm2x16": "pack2x16unorm",
	"packSnorm2x16": "pack2x16snorm",
	"packUnorm4x8":  "pack4x8unorm",
	"packSnorm4x8":  "pack4x8snorm",
	"packHalf2x16":  "pack2x16float",
}

var unpackFuncs = map[string]string{
	"unpackUnorm2x16": "unpack2x16unorm",
	"unpackSnorm2x16": "unpack2x16snorm",
	"unpackUnorm4x8":  "unpack4x8unorm",
	"unpackSnorm4x8":  "unpack4x8snorm",
	"unpackHalf2x16":  "unpack2x16float",
}

var unsupportedBuiltins = toSet(`
modf frexp uaddCarry usubBorrow umulExtended imulExtended
textureOffset textureLodOffset textureGradOffset texelFetchOffset
textureProjOffset textureProjLod textureProjLodOffset textureProjGrad
textureProjGradOffset textureGatherOffset textureGatherOffsets
textureQueryLod textureQueryLevels textureSamples
imageLoad imageStore imageSize imageSamples imageAtomicAdd
atomicAdd atomicMin atomicMax atomicAnd atomicOr atomicXor atomicExchange
atomicCompSwap atomicCounter atomicCounterIncrement atomicCounterDecrement
barrier memoryBarrier groupMemoryBarrier
interpolateAtCentroid interpolateAtSample interpolateAtOffset
subpassLoad noise1 noise2 noise3 noise4
`)

func init() {
	builtins = map[string]builtinFunc{
		"atan":            atanBuiltin,
		"pow":             sameFloat("pow", 2),
		"fma":             sameFloat("fma", 3),
		"abs":             numericUnary("abs"),
		"sign":            numericUnary("sign"),
		"min":             minMax("min"),
		"max":             minMax("max"),
		"clamp":           clampBuiltin,
		"mix":             mixBuiltin,
		"step":            stepBuiltin,
		"smoothstep":      smoothstepBuiltin,
		"mod":             modBuiltin,
		"length":          lengthBuiltin,
		"distance":        distanceBuiltin,
		"dot":             dotBuiltin,
		"cross":           crossBuiltin,
		"normalize":       normalizeBuiltin,
		"reflect":         sameFloat("reflect", 2),
		"refract":         refractBuiltin,
		"faceforward":     sameFloat("faceForward", 3),
		"matrixCompMult":  matrixCompMult,
		"outerProduct":    outerProduct,
		"transpose":       transposeBuiltin,
		"determinant":     squareMatrix("determinant", true),
		"inverse":         squareMatrix("inverse", false),
		"any":             boolReduce("any"),
		"all":             boolReduce("all"),
		"not":             notBuiltin,
		"isnan":           isnanBuiltin,
		"isinf":           isinfBuiltin,
		"floatBitsToInt":  bitcastBuiltin(Float, Int),
		"floatBitsToUint": bitcastBuiltin(Float, Uint),
		"intBitsToFloat":  bitcastBuiltin(Int, Float),
		"uintBitsToFloat": bitcastBuiltin(Uint, Float),
		"bitCount":        bitQuery("countOneBits"),
		"findLSB":         bitQuery("firstTrailingBit"),
		"findMSB":         bitQuery("firstLeadingBit"),
		"bitfieldExtract": bitfieldExtract,
		"bitfieldInsert":  bitfieldInsert,
		"bitfieldReverse": integerUnary("reverseBits"),
		"ldexp":           ldexpBuiltin,
		"texture":         textureBuiltin,
		"textureLod":      textureLod,
		"textureGrad":     textureGrad,
		"textureProj":     textureProj,
		"texelFetch":      texelFetch,
		"textureSize":     textureSize,
		"textureGather":   textureGather,
	}
	for name, wgsl := range floatFuncs {
		builtins[name] = floatUnary(wgsl)
	}
	for name, op := range relationalFuncs {
		builtins[name] = relational(op)
	}
	for name, wgsl := range packFuncs {
		builtins[name] = packBuiltin(wgsl)
	}
	for name, wgsl := range unpackFuncs {
		builtins[name] = unpackBuiltin(wgsl)
	}
}

func arity(e *CallExpr, args []operand, counts ...int) error {
	for _, n := range counts {
		if len(args) == n {
			return nil
		}
	}
	want := make([]string, len(counts))
	for i, n := range counts {
		want[i] = fmt.Sprint(n)
	}
	return errorf(e.Position, "%s expects %s arguments, found %d", e.Callee, strings.Join(want, " or "), len(args))
}

func callText(name string, args ...operand) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.text
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// floats converts every argument to float components.
func (t *translator) floats(e *CallExpr, args []operand) ([]operand, error) {
	out := make([]operand, len(args))
	for i, a := range args {
		f, err := t.toFloat(a, e.Callee, e.Position)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// sameShape checks that the arguments have identical types.
func sameShape(e *CallExpr, args []operand) error {
	for _, a := range args[1:] {
		if !a.typ.equal(args[0].typ) {
			return errorf(e.Position, "%s arguments have mismatched types (%s)", e.Callee, operandTypes(args))
		}
	}
	return nil
}

func floatUnary(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		args, err := t.floats(e, args)
		if err != nil {
			return operand{}, err
		}
		return operand{text: callText(name, args...), typ: args[0].typ}, nil
	}
}

func sameFloat(name string, n int) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, n); err != nil {
			return operand{}, err
		}
		args, err := t.floats(e, args)
		if err != nil {
			return operand{}, err
		}
		if err := sameShape(e, args); err != nil {
			return operand{}, err
		}
		return operand{text: callText(name, args...), typ: args[0].typ}, nil
	}
}

func atanBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1, 2); err != nil {
		return operand{}, err
	}
	if len(args) == 1 {
		return floatUnary("atan")(t, e, args)
	}
	return sameFloat("atan2", 2)(t, e, args)
}

func numericUnary(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		x := args[0]
		if !x.typ.isNumeric() {
			return operand{}, errorf(e.Position, "%s expects a numeric scalar or vector, found %s", e.Callee, x.typ)
		}
		if x.typ.Scalar == Uint && name == "abs" {
			return x, nil
		}
		return operand{text: callText(name, x), typ: x.typ}, nil
	}
}

func integerUnary(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		x := args[0]
		if !x.typ.isScalarOrVector(Int) && !x.typ.isScalarOrVector(Uint) {
			return operand{}, errorf(e.Position, "%s expects an integer scalar or vector, found %s", e.Callee, x.typ)
		}
		return operand{text: callText(name, x), typ: x.typ}, nil
	}
}

// widen converts the trailing arguments to the kind and width of the first,
// splatting scalars.
func (t *translator) widen(e *CallExpr, args []operand) ([]operand, error) {
	k := args[0].typ.Scalar
	for _, a := range args[1:] {
		if a.typ.isNumeric() && a.typ.Scalar > k {
			k = a.typ.Scalar
		}
	}
	x := args[0]
	if !x.typ.isNumeric() {
		return nil, errorf(e.Position, "%s expects numeric arguments, found %s", e.Callee, x.typ)
	}
	out := make([]operand, len(args))
	out[0] = t.cast(x, x.typ.withScalar(k))
	for i, a := range args[1:] {
		if !a.typ.isNumeric() || (a.typ.isVector() && a.typ.Size != x.typ.width()) {
			return nil, errorf(e.Position, "%s arguments have mismatched types (%s)", e.Callee, operandTypes(args))
		}
		a = t.cast(a, a.typ.withScalar(k))
		out[i+1] = t.splat(a, x.typ.width())
	}
	return out, nil
}

func minMax(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 2); err != nil {
			return operand{}, err
		}
		args, err := t.widen(e, args)
		if err != nil {
			return operand{}, err
		}
		return operand{text: callText(name, args...), typ: args[0].typ}, nil
	}
}

func clampBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	args, err := t.widen(e, args)
	if err != nil {
		return operand{}, err
	}
	return operand{text: callText("clamp", args...), typ: args[0].typ}, nil
}

func mixBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	if args[2].typ.Scalar == Bool && (args[2].typ.isScalar() || args[2].typ.isVector()) {
		x, y, a := args[0], args[1], args[2]
		if !x.typ.equal(y.typ) || (a.typ.isVector() && a.typ.Size != x.typ.width()) {
			return operand{}, errorf(e.Position, "mix arguments have mismatched types (%s)", operandTypes(args))
		}
		return operand{text: callText("select", x, y, a), typ: x.typ}, nil
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if !args[0].typ.equal(args[1].typ) {
		return operand{}, errorf(e.Position, "mix arguments have mismatched types (%s)", operandTypes(args))
	}
	args, err = t.widen(e, args)
	if err != nil {
		return operand{}, err
	}
	return operand{text: callText("mix", args...), typ: args[0].typ}, nil
}

func stepBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	x := args[1]
	edge := args[0]
	if edge.typ.isVector() && !edge.typ.equal(x.typ) {
		return operand{}, errorf(e.Position, "step arguments have mismatched types (%s)", operandTypes(args))
	}
	edge = t.splat(edge, x.typ.width())
	return operand{text: callText("step", edge, x), typ: x.typ}, nil
}

func smoothstepBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	x := args[2]
	for i := 0; i < 2; i++ {
		if args[i].typ.isVector() && !args[i].typ.equal(x.typ) {
			return operand{}, errorf(e.Position, "smoothstep arguments have mismatched types (%s)", operandTypes(args))
		}
		args[i] = t.splat(args[i], x.typ.width())
	}
	return operand{text: callText("smoothstep", args...), typ: x.typ}, nil
}

// modBuiltin computes x - y * floor(x / y), which differs from the WGSL %
// operator for negative operands.
func modBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	x, y := args[0], args[1]
	if y.typ.isVector() && !y.typ.equal(x.typ) {
		return operand{}, errorf(e.Position, "mod arguments have mismatched types (%s)", operandTypes(args))
	}
	x, y = t.reuse(x), t.reuse(y)
	return operand{text: fmt.Sprintf("(%s - %s * floor(%s / %s))", x.text, y.text, x.text, y.text), typ: x.typ}, nil
}

func lengthBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if args[0].typ.isScalar() {
		return operand{text: callText("abs", args[0]), typ: tFloat}, nil
	}
	return operand{text: callText("length", args[0]), typ: tFloat}, nil
}

func distanceBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if err := sameShape(e, args); err != nil {
		return operand{}, err
	}
	if args[0].typ.isScalar() {
		return operand{text: fmt.Sprintf("abs(%s - %s)", args[0].text, args[1].text), typ: tFloat}, nil
	}
	return operand{text: callText("distance", args...), typ: tFloat}, nil
}

func dotBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if err := sameShape(e, args); err != nil {
		return operand{}, err
	}
	if args[0].typ.isScalar() {
		return operand{text: paren(args[0].text + " * " + args[1].text), typ: tFloat}, nil
	}
	return operand{text: callText("dot", args...), typ: tFloat}, nil
}

func crossBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	v3 := vectorType(Float, 3)
	if !args[0].typ.equal(v3) || !args[1].typ.equal(v3) {
		return operand{}, errorf(e.Position, "cross expects two vec3 arguments, found (%s)", operandTypes(args))
	}
	return operand{text: callText("cross", args...), typ: v3}, nil
}

func normalizeBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if args[0].typ.isScalar() {
		return operand{text: callText("sign", args[0]), typ: tFloat}, nil
	}
	return operand{text: callText("normalize", args[0]), typ: args[0].typ}, nil
}

func refractBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	if err := sameShape(e, args[:2]); err != nil {
		return operand{}, err
	}
	if !args[2].typ.isScalar() {
		return operand{}, errorf(e.Position, "refract expects a float eta, found %s", args[2].typ)
	}
	return operand{text: callText("refract", args...), typ: args[0].typ}, nil
}

func matrixCompMult(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	if !args[0].typ.isMatrix() || !args[0].typ.equal(args[1].typ) {
		return operand{}, errorf(e.Position, "matrixCompMult expects two matrices of the same type, found (%s)", operandTypes(args))
	}
	return t.columnwise("*", args[0], args[1]), nil
}

func outerProduct(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	args, err := t.floats(e, args)
	if err != nil {
		return operand{}, err
	}
	c, r := args[0], args[1]
	if !c.typ.isVector() || !r.typ.isVector() {
		return operand{}, errorf(e.Position, "outerProduct expects two vectors, found (%s)", operandTypes(args))
	}
	return operand{text: callText("outerProduct", c, r), typ: matrixType(r.typ.Size, c.typ.Size)}, nil
}

func transposeBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	m := args[0]
	if !m.typ.isMatrix() {
		return operand{}, errorf(e.Position, "transpose expects a matrix, found %s", m.typ)
	}
	return operand{text: callText("transpose", m), typ: matrixType(m.typ.Rows, m.typ.Size)}, nil
}

func squareMatrix(name string, scalar bool) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		m := args[0]
		if !m.typ.isMatrix() || m.typ.Size != m.typ.Rows {
			return operand{}, errorf(e.Position, "%s expects a square matrix, found %s", e.Callee, m.typ)
		}
		typ := m.typ
		if scalar {
			typ = tFloat
		}
		return operand{text: callText(name, m), typ: typ}, nil
	}
}

func relational(op string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 2); err != nil {
			return operand{}, err
		}
		a, b := args[0], args[1]
		if !a.typ.isVector() || !a.typ.equal(b.typ) {
			return operand{}, errorf(e.Position, "%s expects two vectors of the same type, found (%s)", e.Callee, operandTypes(args))
		}
		if a.typ.Scalar == Bool && op != "==" && op != "!=" {
			return operand{}, errorf(e.Position, "%s cannot compare boolean vectors", e.Callee)
		}
		return operand{text: paren(a.text + " " + op + " " + b.text), typ: a.typ.withScalar(Bool)}, nil
	}
}

func boolReduce(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		if !args[0].typ.isScalarOrVector(Bool) || !args[0].typ.isVector() {
			return operand{}, errorf(e.Position, "%s expects a boolean vector, found %s", e.Callee, args[0].typ)
		}
		return operand{text: callText(name, args[0]), typ: tBool}, nil
	}
}

func notBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	if !args[0].typ.isScalarOrVector(Bool) || !args[0].typ.isVector() {
		return operand{}, errorf(e.Position, "not expects a boolean vector, found %s", args[0].typ)
	}
	return operand{text: paren("!" + args[0].text), typ: args[0].typ}, nil
}

func isnanBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	if !args[0].typ.isScalarOrVector(Float) {
		return operand{}, errorf(e.Position, "isnan expects a float scalar or vector, found %s", args[0].typ)
	}
	x := t.reuse(args[0])
	return operand{text: paren(x.text + " != " + x.text), typ: x.typ.withScalar(Bool)}, nil
}

func isinfBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 1); err != nil {
		return operand{}, err
	}
	x := args[0]
	if !x.typ.isScalarOrVector(Float) {
		return operand{}, errorf(e.Position, "isinf expects a float scalar or vector, found %s", x.typ)
	}
	limit := t.splat(operand{text: "3.4028234663852886e+38", typ: tFloat}, x.typ.width())
	return operand{text: fmt.Sprintf("(abs(%s) > %s)", x.text, limit.text), typ: x.typ.withScalar(Bool)}, nil
}

func bitcastBuiltin(from, to ScalarKind) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		x := args[0]
		if from == Int && x.typ.isScalarOrVector(Uint) {
			return operand{}, errorf(e.Position, "%s expects a signed integer argument, found %s", e.Callee, x.typ)
		}
		if !x.typ.isNumeric() {
			return operand{}, errorf(e.Position, "%s expects a scalar or vector, found %s", e.Callee, x.typ)
		}
		x = t.cast(x, x.typ.withScalar(from))
		typ := x.typ.withScalar(to)
		return operand{text: fmt.Sprintf("bitcast<%s>(%s)", typ.WGSL(), x.text), typ: typ}, nil
	}
}

// bitQuery translates functions that return bit positions or counts as int.
func bitQuery(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		x := args[0]
		if !x.typ.isScalarOrVector(Int) && !x.typ.isScalarOrVector(Uint) {
			return operand{}, errorf(e.Position, "%s expects an integer scalar or vector, found %s", e.Callee, x.typ)
		}
		r := operand{text: callText(name, x), typ: x.typ}
		return t.cast(r, x.typ.withScalar(Int)), nil
	}
}

func bitfieldExtract(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	v := args[0]
	if !v.typ.isScalarOrVector(Int) && !v.typ.isScalarOrVector(Uint) {
		return operand{}, errorf(e.Position, "bitfieldExtract expects an integer value, found %s", v.typ)
	}
	offset, bits, err := t.bitRange(e, args[1], args[2])
	if err != nil {
		return operand{}, err
	}
	return operand{text: callText("extractBits", v, offset, bits), typ: v.typ}, nil
}

func bitfieldInsert(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 4); err != nil {
		return operand{}, err
	}
	base, insert := args[0], args[1]
	if (!base.typ.isScalarOrVector(Int) && !base.typ.isScalarOrVector(Uint)) || !base.typ.equal(insert.typ) {
		return operand{}, errorf(e.Position, "bitfieldInsert expects two integer values of the same type, found (%s)", operandTypes(args[:2]))
	}
	offset, bits, err := t.bitRange(e, args[2], args[3])
	if err != nil {
		return operand{}, err
	}
	return operand{text: callText("insertBits", base, insert, offset, bits), typ: base.typ}, nil
}

func (t *translator) bitRange(e *CallExpr, offset, bits operand) (operand, operand, error) {
	for _, a := range []operand{offset, bits} {
		if !a.typ.equal(tInt) && !a.typ.equal(tUint) {
			return operand{}, operand{}, errorf(e.Position, "%s expects integer offset and bit count, found %s", e.Callee, a.typ)
		}
	}
	return t.cast(offset, tUint), t.cast(bits, tUint), nil
}

func ldexpBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	x, exp := args[0], args[1]
	x, err := t.toFloat(x, e.Callee, e.Position)
	if err != nil {
		return operand{}, err
	}
	if !exp.typ.isScalarOrVector(Int) || exp.typ.width() != x.typ.width() {
		return operand{}, errorf(e.Position, "ldexp expects an int exponent matching %s, found %s", x.typ, exp.typ)
	}
	return operand{text: callText("ldexp", x, exp), typ: x.typ}, nil
}

func packBuiltin(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		want := 2
		if strings.Contains(name, "4x8") {
			want = 4
		}
		x, err := t.toFloat(args[0], e.Callee, e.Position)
		if err != nil {
			return operand{}, err
		}
		if !x.typ.isVector() || x.typ.Size != want {
			return operand{}, errorf(e.Position, "%s expects a vec%d, found %s", e.Callee, want, args[0].typ)
		}
		return operand{text: callText(name, x), typ: tUint}, nil
	}
}

func unpackBuiltin(name string) builtinFunc {
	return func(t *translator, e *CallExpr, args []operand) (operand, error) {
		if err := arity(e, args, 1); err != nil {
			return operand{}, err
		}
		if !args[0].typ.equal(tUint) {
			return operand{}, errorf(e.Position, "%s expects a uint, found %s", e.Callee, args[0].typ)
		}
		n := 2
		if strings.Contains(name, "4x8") {
			n = 4
		}
		return operand{text: callText(name, args[0]), typ: vectorType(Float, n)}, nil
	}
}

// Texture functions.

var vec4Float = vectorType(Float, 4)

func coordWidth(dim string) int {
	if dim == "2d" {
		return 2
	}
	return 3
}

// sampledTexture checks that op is a texture paired with a sampler and
// returns the texture and sampler arguments.
func sampledTexture(e *CallExpr, op operand) ([]operand, error) {
	if op.typ.Kind != KindTexture {
		return nil, errorf(e.Position, "%s expects a sampler as its first argument, found %s", e.Callee, op.typ)
	}
	if op.sampler == "" {
		return nil, errorf(e.Position, "%s requires a combined image sampler", e.Callee)
	}
	return []operand{op, {text: op.sampler, typ: &Type{Kind: KindSampler}}}, nil
}

// sampleCoords splits array-layer coordinates into the WGSL form.
func (t *translator) sampleCoords(e *CallExpr, tex, p operand) ([]operand, error) {
	p, err := t.toFloat(p, e.Callee, e.Position)
	if err != nil {
		return nil, err
	}
	if p.typ.width() != coordWidth(tex.typ.Dim) || !p.typ.isVector() {
		return nil, errorf(e.Position, "%s on %s expects vec%d coordinates, found %s", e.Callee, tex.typ, coordWidth(tex.typ.Dim), p.typ)
	}
	if tex.typ.Dim != "2d_array" {
		return []operand{p}, nil
	}
	p = t.reuse(p)
	return []operand{
		{text: p.text + ".xy", typ: vectorType(Float, 2)},
		{text: fmt.Sprintf("i32(round(%s.z))", p.text), typ: tInt},
	}, nil
}

func (t *translator) floatScalar(e *CallExpr, a operand, what string) (operand, error) {
	if !a.typ.isScalar() || a.typ.Scalar == Bool {
		return operand{}, errorf(e.Position, "%s expects a float %s, found %s", e.Callee, what, a.typ)
	}
	return t.cast(a, tFloat), nil
}

func textureBuiltin(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2, 3); err != nil {
		return operand{}, err
	}
	ts, err := sampledTexture(e, args[0])
	if err != nil {
		return operand{}, err
	}
	coords, err := t.sampleCoords(e, args[0], args[1])
	if err != nil {
		return operand{}, err
	}
	all := append(ts, coords...)
	if len(args) == 3 {
		bias, err := t.floatScalar(e, args[2], "bias")
		if err != nil {
			return operand{}, err
		}
		return operand{text: callText("textureSampleBias", append(all, bias)...), typ: vec4Float}, nil
	}
	return operand{text: callText("textureSample", all...), typ: vec4Float}, nil
}

func textureLod(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	ts, err := sampledTexture(e, args[0])
	if err != nil {
		return operand{}, err
	}
	coords, err := t.sampleCoords(e, args[0], args[1])
	if err != nil {
		return operand{}, err
	}
	lod, err := t.floatScalar(e, args[2], "level of detail")
	if err != nil {
		return operand{}, err
	}
	all := append(append(ts, coords...), lod)
	return operand{text: callText("textureSampleLevel", all...), typ: vec4Float}, nil
}

func textureGrad(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 4); err != nil {
		return operand{}, err
	}
	ts, err := sampledTexture(e, args[0])
	if err != nil {
		return operand{}, err
	}
	coords, err := t.sampleCoords(e, args[0], args[1])
	if err != nil {
		return operand{}, err
	}
	grads, err := t.floats(e, args[2:])
	if err != nil {
		return operand{}, err
	}
	want := 3
	if d := args[0].typ.Dim; d == "2d" || d == "2d_array" {
		want = 2
	}
	for _, g := range grads {
		if !g.typ.isVector() || g.typ.Size != want {
			return operand{}, errorf(e.Position, "textureGrad on %s expects vec%d derivatives, found %s", args[0].typ, want, g.typ)
		}
	}
	all := append(append(ts, coords...), grads...)
	return operand{text: callText("textureSampleGrad", all...), typ: vec4Float}, nil
}

func textureProj(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2, 3); err != nil {
		return operand{}, err
	}
	if args[0].typ.Kind != KindTexture || args[0].typ.Dim != "2d" {
		return operand{}, errorf(e.Position, "textureProj is only supported on sampler2D, found %s", args[0].typ)
	}
	p, err := t.toFloat(args[1], e.Callee, e.Position)
	if err != nil {
		return operand{}, err
	}
	if !p.typ.isVector() || p.typ.Size < 3 {
		return operand{}, errorf(e.Position, "textureProj expects vec3 or vec4 coordinates, found %s", p.typ)
	}
	p = t.reuse(p)
	q := "z"
	if p.typ.Size == 4 {
		q = "w"
	}
	coords := operand{text: fmt.Sprintf("(%s.xy / %s.%s)", p.text, p.text, q), typ: vectorType(Float, 2)}
	rest := []operand{args[0], coords}
	if len(args) == 3 {
		rest = append(rest, args[2])
	}
	return textureBuiltin(t, e, rest)
}

func texelFetch(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 3); err != nil {
		return operand{}, err
	}
	tex, p, lod := args[0], args[1], args[2]
	if tex.typ.Kind != KindTexture || tex.typ.Dim == "cube" {
		return operand{}, errorf(e.Position, "texelFetch is not supported on %s", tex.typ)
	}
	want := coordWidth(tex.typ.Dim)
	if !p.typ.isVector() || p.typ.Size != want || (p.typ.Scalar != Int && p.typ.Scalar != Uint) {
		return operand{}, errorf(e.Position, "texelFetch on %s expects ivec%d coordinates, found %s", tex.typ, want, p.typ)
	}
	if !lod.typ.equal(tInt) && !lod.typ.equal(tUint) {
		return operand{}, errorf(e.Position, "texelFetch expects an integer level, found %s", lod.typ)
	}
	tex = operand{text: tex.text, typ: tex.typ}
	if tex.typ.Dim == "2d_array" {
		p = t.reuse(p)
		xy := operand{text: p.text + ".xy"}
		layer := operand{text: p.text + ".z"}
		return operand{text: callText("textureLoad", tex, xy, layer, lod), typ: vec4Float}, nil
	}
	return operand{text: callText("textureLoad", tex, p, lod), typ: vec4Float}, nil
}

func textureSize(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2); err != nil {
		return operand{}, err
	}
	tex, lod := args[0], args[1]
	if tex.typ.Kind != KindTexture {
		return operand{}, errorf(e.Position, "textureSize expects a sampler, found %s", tex.typ)
	}
	if !lod.typ.equal(tInt) && !lod.typ.equal(tUint) {
		return operand{}, errorf(e.Position, "textureSize expects an integer level, found %s", lod.typ)
	}
	dims := fmt.Sprintf("textureDimensions(%s, %s)", tex.text, lod.text)
	switch tex.typ.Dim {
	case "3d":
		return operand{text: fmt.Sprintf("vec3<i32>(%s)", dims), typ: vectorType(Int, 3)}, nil
	case "2d_array":
		text := fmt.Sprintf("vec3<i32>(vec2<i32>(%s), i32(textureNumLayers(%s)))", dims, tex.text)
		return operand{text: text, typ: vectorType(Int, 3)}, nil
	}
	return operand{text: fmt.Sprintf("vec2<i32>(%s)", dims), typ: vectorType(Int, 2)}, nil
}

func textureGather(t *translator, e *CallExpr, args []operand) (operand, error) {
	if err := arity(e, args, 2, 3); err != nil {
		return operand{}, err
	}
	ts, err := sampledTexture(e, args[0])
	if err != nil {
		return operand{}, err
	}
	if args[0].typ.Dim == "3d" {
		return operand{}, errorf(e.Position, "textureGather is not supported on %s", args[0].typ)
	}
	coords, err := t.sampleCoords(e, args[0], args[1])
	if err != nil {
		return operand{}, err
	}
	comp := int64(0)
	if len(args) == 3 {
		if comp, err = t.constInt(e.Args[2]); err != nil {
			return operand{}, err
		}
		if comp < 0 || comp > 3 {
			return operand{}, errorf(e.Args[2].Pos(), "textureGather component must be between 0 and 3")
		}
	}
	all := append([]operand{{text: fmt.Sprint(comp)}}, append(ts, coords...)...)
	return operand{text: callText("textureGather", all...), typ: vec4Float}, nil
}
