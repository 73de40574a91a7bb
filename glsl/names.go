// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "strings"

// wgslReserved contains WGSL keywords, reserved words and predeclared type
// names. GLSL identifiers that collide with them are renamed.
var wgslReserved = toSet(`
alias break case const const_assert continue continuing default diagnostic
discard else enable false fn for if let loop override requires return struct
switch true var while

bool f16 f32 f64 i32 u32 i64 u64 vec2 vec3 vec4 mat2x2 mat2x3 mat2x4 mat3x2
mat3x3 mat3x4 mat4x2 mat4x3 mat4x4 array atomic ptr sampler sampler_comparison
texture_1d texture_2d texture_2d_array texture_3d texture_cube
texture_cube_array texture_multisampled_2d texture_depth_2d
texture_depth_2d_array texture_depth_cube texture_depth_cube_array
texture_depth_multisampled_2d texture_storage_1d texture_storage_2d
texture_storage_2d_array texture_storage_3d texture_external binding_array
vec2f vec3f vec4f vec2i vec3i vec4i vec2u vec3u vec4u vec2h vec3h vec4h
mat2x2f mat2x3f mat2x4f mat3x2f mat3x3f mat3x4f mat4x2f mat4x3f mat4x4f

NULL Self abstract active alignas alignof as asm asm_fragment async attribute
auto await become cast catch class co_await co_return co_yield coherent
column_major common compile compile_fragment concept const_cast consteval
constexpr constinit crate debugger decltype delete demote demote_to_helper do
dynamic_cast enum explicit export extends extern external fallthrough filter
final finally friend from fxgroup get goto groupshared highp impl implements
import inline instanceof interface layout lowp macro macro_rules match mediump
meta mod module move mut mutable namespace new nil noexcept noinline
nointerpolation noperspective null nullptr of operator package packoffset
partition pass patch pixelfragment precise precision premerge priv protected
pub public readonly ref regardless register reinterpret_cast require resource
restrict self set shared sizeof smooth snorm static static_assert static_cast
std subroutine super target template this thread_local throw trait try type
typedef typeid typename typeof union unless unorm unsafe unsized use using
varying virtual volatile wgsl where with writeonly yield
`)

// wgslBuiltinFunctions are resolved before user functions during lowering,
// so user functions with these names must be renamed.
var wgslBuiltinFunctions = toSet(`
abs acos acosh all any arrayLength asin asinh atan atan2 atanh bitcast ceil
clamp cos cosh countLeadingZeros countOneBits countTrailingZeros cross degrees
determinant distance dot dot4I8Packed dot4U8Packed dpdx dpdxCoarse dpdxFine
dpdy dpdyCoarse dpdyFine exp exp2 extractBits faceForward firstLeadingBit
firstTrailingBit floor fma fract frexp fwidth fwidthCoarse fwidthFine
insertBits inverse inverseSqrt ldexp length log log2 max min mix modf
normalize outerProduct pack2x16float pack2x16snorm pack2x16unorm pack4x8snorm
pack4x8unorm pack4xI8 pack4xU8 pack4xI8Clamp pack4xU8Clamp pow quantizeToF16
radians reflect refract reverseBits round saturate select sign sin sinh
smoothstep sqrt step storageBarrier tan tanh textureBarrier textureDimensions
textureGather textureGatherCompare textureLoad textureNumLayers
textureNumLevels textureNumSamples textureSample textureSampleBaseClampToEdge
textureSampleBias textureSampleCompare textureSampleCompareLevel
textureSampleGrad textureSampleLevel textureStore transpose trunc
unpack2x16float unpack2x16snorm unpack2x16unorm unpack4x8snorm unpack4x8unorm
unpack4xI8 unpack4xU8 workgroupBarrier workgroupUniformLoad atomicAdd
atomicAnd atomicCompareExchangeWeak atomicExchange atomicLoad atomicMax
atomicMin atomicOr atomicStore atomicSub atomicXor quadSwapX quadSwapY
quadSwapDiagonal subgroupBallot
`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// escapeName maps a GLSL identifier to a valid WGSL identifier. GLSL
// reserves the gl_ prefix, so prefixed names cannot clash with user names.
func escapeName(name string) string {
	if name == "_" {
		return "gl_blank"
	}
	if strings.HasPrefix(name, "__") {
		return "gl" + name
	}
	if _, ok := wgslReserved[name]; ok {
		return "gl_" + name
	}
	return name
}

// escapeFunctionName is escapeName for function names, which must also
// avoid WGSL builtin functions.
func escapeFunctionName(name string) string {
	if _, ok := wgslBuiltinFunctions[name]; ok {
		return "gl_" + name
	}
	return escapeName(name)
}

// mangle names one overload of a function declared more than once.
func mangle(name string, params []*Type) string {
	var sb strings.Builder
	sb.WriteString("gl_")
	sb.WriteString(name)
	for _, p := range params {
		sb.WriteByte('_')
		s := p.String()
		s = strings.NewReplacer("[", "", "]", "").Replace(s)
		sb.WriteString(s)
	}
	return sb.String()
}
