package spvinfo

import (
	"fmt"
	"io"
	"strings"
)

// form describes the operand layout of an instruction.
type form uint8

const (
	formPlain  form = iota // id operands, no result
	formResult             // result type, result id, id operands
	formType               // result id, id operands
)

type opcodeInfo struct {
	name string
	form form
}

var opcodes = map[uint32]opcodeInfo{
	0: {"OpNop", formPlain}, 1: {"OpUndef", formResult}, 3: {"OpSource", formPlain},
	5: {"OpName", formPlain}, 6: {"OpMemberName", formPlain}, 7: {"OpString", formType},
	10: {"OpExtension", formPlain}, 11: {"OpExtInstImport", formType}, 12: {"OpExtInst", formResult},
	14: {"OpMemoryModel", formPlain}, 15: {"OpEntryPoint", formPlain}, 16: {"OpExecutionMode", formPlain},
	17: {"OpCapability", formPlain},
	19: {"OpTypeVoid", formType}, 20: {"OpTypeBool", formType}, 21: {"OpTypeInt", formType},
	22: {"OpTypeFloat", formType}, 23: {"OpTypeVector", formType}, 24: {"OpTypeMatrix", formType},
	25: {"OpTypeImage", formType}, 26: {"OpTypeSampler", formType}, 27: {"OpTypeSampledImage", formType},
	28: {"OpTypeArray", formType}, 29: {"OpTypeRuntimeArray", formType}, 30: {"OpTypeStruct", formType},
	32: {"OpTypePointer", formType}, 33: {"OpTypeFunction", formType},
	41: {"OpConstantTrue", formResult}, 42: {"OpConstantFalse", formResult}, 43: {"OpConstant", formResult},
	44: {"OpConstantComposite", formResult}, 46: {"OpConstantNull", formResult},
	54: {"OpFunction", formResult}, 55: {"OpFunctionParameter", formResult}, 56: {"OpFunctionEnd", formPlain},
	57: {"OpFunctionCall", formResult}, 59: {"OpVariable", formResult},
	61: {"OpLoad", formResult}, 62: {"OpStore", formPlain}, 63: {"OpCopyMemory", formPlain},
	65: {"OpAccessChain", formResult}, 66: {"OpInBoundsAccessChain", formResult},
	71: {"OpDecorate", formPlain}, 72: {"OpMemberDecorate", formPlain},
	77: {"OpVectorExtractDynamic", formResult}, 78: {"OpVectorInsertDynamic", formResult},
	79: {"OpVectorShuffle", formResult}, 80: {"OpCompositeConstruct", formResult},
	81: {"OpCompositeExtract", formResult}, 82: {"OpCompositeInsert", formResult},
	83: {"OpCopyObject", formResult}, 84: {"OpTranspose", formResult},
	86: {"OpSampledImage", formResult}, 87: {"OpImageSampleImplicitLod", formResult},
	88: {"OpImageSampleExplicitLod", formResult}, 95: {"OpImageFetch", formResult},
	96: {"OpImageGather", formResult}, 100: {"OpImage", formResult},
	103: {"OpImageQuerySizeLod", formResult}, 104: {"OpImageQuerySize", formResult},
	106: {"OpImageQueryLevels", formResult},
	109: {"OpConvertFToU", formResult}, 110: {"OpConvertFToS", formResult},
	111: {"OpConvertSToF", formResult}, 112: {"OpConvertUToF", formResult},
	113: {"OpUConvert", formResult}, 114: {"OpSConvert", formResult}, 115: {"OpFConvert", formResult},
	124: {"OpBitcast", formResult},
	126: {"OpSNegate", formResult}, 127: {"OpFNegate", formResult},
	128: {"OpIAdd", formResult}, 129: {"OpFAdd", formResult}, 130: {"OpISub", formResult},
	131: {"OpFSub", formResult}, 132: {"OpIMul", formResult}, 133: {"OpFMul", formResult},
	134: {"OpUDiv", formResult}, 135: {"OpSDiv", formResult}, 136: {"OpFDiv", formResult},
	137: {"OpUMod", formResult}, 138: {"OpSRem", formResult}, 139: {"OpSMod", formResult},
	140: {"OpFRem", formResult}, 141: {"OpFMod", formResult},
	142: {"OpVectorTimesScalar", formResult}, 143: {"OpMatrixTimesScalar", formResult},
	144: {"OpVectorTimesMatrix", formResult}, 145: {"OpMatrixTimesVector", formResult},
	146: {"OpMatrixTimesMatrix", formResult}, 147: {"OpOuterProduct", formResult},
	148: {"OpDot", formResult}, 154: {"OpAny", formResult}, 155: {"OpAll", formResult},
	156: {"OpIsNan", formResult}, 157: {"OpIsInf", formResult},
	164: {"OpLogicalEqual", formResult}, 165: {"OpLogicalNotEqual", formResult},
	166: {"OpLogicalOr", formResult}, 167: {"OpLogicalAnd", formResult}, 168: {"OpLogicalNot", formResult},
	169: {"OpSelect", formResult}, 170: {"OpIEqual", formResult}, 171: {"OpINotEqual", formResult},
	172: {"OpUGreaterThan", formResult}, 173: {"OpSGreaterThan", formResult},
	174: {"OpUGreaterThanEqual", formResult}, 175: {"OpSGreaterThanEqual", formResult},
	176: {"OpULessThan", formResult}, 177: {"OpSLessThan", formResult},
	178: {"OpULessThanEqual", formResult}, 179: {"OpSLessThanEqual", formResult},
	180: {"OpFOrdEqual", formResult}, 181: {"OpFUnordEqual", formResult},
	182: {"OpFOrdNotEqual", formResult}, 183: {"OpFUnordNotEqual", formResult},
	184: {"OpFOrdLessThan", formResult}, 185: {"OpFUnordLessThan", formResult},
	186: {"OpFOrdGreaterThan", formResult}, 187: {"OpFUnordGreaterThan", formResult},
	188: {"OpFOrdLessThanEqual", formResult}, 189: {"OpFUnordLessThanEqual", formResult},
	190: {"OpFOrdGreaterThanEqual", formResult}, 191: {"OpFUnordGreaterThanEqual", formResult},
	194: {"OpShiftRightLogical", formResult}, 195: {"OpShiftRightArithmetic", formResult},
	196: {"OpShiftLeftLogical", formResult}, 197: {"OpBitwiseOr", formResult},
	198: {"OpBitwiseXor", formResult}, 199: {"OpBitwiseAnd", formResult}, 200: {"OpNot", formResult},
	207: {"OpDPdx", formResult}, 208: {"OpDPdy", formResult}, 209: {"OpFwidth", formResult},
	245: {"OpPhi", formResult}, 246: {"OpLoopMerge", formPlain}, 247: {"OpSelectionMerge", formPlain},
	248: {"OpLabel", formType}, 249: {"OpBranch", formPlain}, 250: {"OpBranchConditional", formPlain},
	251: {"OpSwitch", formPlain}, 252: {"OpKill", formPlain}, 253: {"OpReturn", formPlain},
	254: {"OpReturnValue", formPlain}, 255: {"OpUnreachable", formPlain},
}

var decorationNames = map[uint32]string{
	0: "RelaxedPrecision", 2: "Block", 6: "ArrayStride", 7: "MatrixStride",
	5: "ColMajor", 11: "BuiltIn", 13: "NoPerspective", 14: "Flat",
	16: "Centroid", 17: "Sample", 18: "Invariant", 24: "NonWritable",
	25: "NonReadable", 30: "Location", 31: "Component", 33: "Binding",
	34: "DescriptorSet", 35: "Offset",
}

var executionModes = map[uint32]string{
	7: "OriginUpperLeft", 8: "OriginLowerLeft", 9: "EarlyFragmentTests",
	12: "DepthReplacing", 14: "DepthGreater", 15: "DepthLess", 16: "DepthUnchanged",
	17: "LocalSize",
}

var dims = map[uint32]string{
	0: "1D", 1: "2D", 2: "3D", 3: "Cube", 4: "Rect", 5: "Buffer", 6: "SubpassData",
}

var addressingModels = map[uint32]string{0: "Logical", 1: "Physical32", 2: "Physical64"}

var memoryModels = map[uint32]string{0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan"}

// Disassemble writes a textual listing of a module, one instruction per
// line, in the style of spirv-dis.
func Disassemble(w io.Writer, words []uint32) error {
	if len(words) < headerWords {
		return fmt.Errorf("SPIR-V too small: %d words", len(words))
	}
	if words[0] != Magic {
		return fmt.Errorf("invalid SPIR-V magic: 0x%08X", words[0])
	}

	fmt.Fprintf(w, "; SPIR-V\n; Version: %d.%d\n; Generator: 0x%08X\n; Bound: %d\n; Schema: %d\n\n",
		uint8(words[1]>>16), uint8(words[1]>>8), words[2], words[3], words[4])

	for offset := headerWords; offset < len(words); {
		opcode := words[offset] & 0xFFFF
		count := int(words[offset] >> 16)
		if count == 0 || offset+count > len(words) {
			return fmt.Errorf("invalid word count %d at word %d", count, offset)
		}
		writeInstruction(w, opcode, words[offset+1:offset+count])
		offset += count
	}
	return nil
}

func id(n uint32) string {
	return fmt.Sprintf("%%%d", n)
}

func ids(ops []uint32) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = id(op)
	}
	return strings.Join(parts, " ")
}

func literals(ops []uint32) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("%d", op)
	}
	return strings.Join(parts, " ")
}

func writeInstruction(w io.Writer, opcode uint32, ops []uint32) {
	op, ok := opcodes[opcode]
	if !ok {
		op = opcodeInfo{name: fmt.Sprintf("Op%d", opcode)}
	}

	var result string
	var rest []string
	switch {
	case op.form == formResult && len(ops) >= 2:
		result = id(ops[1])
		rest = append(rest, id(ops[0]))
		rest = append(rest, operands(opcode, ops[2:])...)
	case op.form == formType && len(ops) >= 1:
		result = id(ops[0])
		rest = operands(opcode, ops[1:])
	default:
		rest = operands(opcode, ops)
	}

	line := strings.TrimSpace(op.name + " " + strings.Join(rest, " "))
	if result != "" {
		fmt.Fprintf(w, "%12s = %s\n", result, line)
		return
	}
	fmt.Fprintf(w, "%15s%s\n", "", line)
}

// operands formats the operands that follow any result type and id.
func operands(opcode uint32, ops []uint32) []string {
	if len(ops) == 0 {
		return nil
	}
	switch opcode {
	case opCapability:
		return []string{lookup(capabilityNames, ops[0])}
	case 14: // OpMemoryModel
		if len(ops) >= 2 {
			return []string{lookup(addressingModels, ops[0]), lookup(memoryModels, ops[1])}
		}
	case opEntryPoint:
		if len(ops) >= 3 {
			name, n := readString(ops[2:])
			out := []string{lookup(executionModels, ops[0]), id(ops[1]), fmt.Sprintf("%q", name)}
			if 2+n < len(ops) {
				out = append(out, ids(ops[2+n:]))
			}
			return out
		}
	case 16: // OpExecutionMode
		if len(ops) >= 2 {
			return []string{id(ops[0]), lookup(executionModes, ops[1]), literals(ops[2:])}
		}
	case opName, 7, 10, 11: // OpName, OpString, OpExtension, OpExtInstImport
		if opcode == opName {
			name, _ := readString(ops[1:])
			return []string{id(ops[0]), fmt.Sprintf("%q", name)}
		}
		name, _ := readString(ops)
		return []string{fmt.Sprintf("%q", name)}
	case 6: // OpMemberName
		if len(ops) >= 2 {
			name, _ := readString(ops[2:])
			return []string{id(ops[0]), fmt.Sprintf("%d", ops[1]), fmt.Sprintf("%q", name)}
		}
	case opDecorate:
		if len(ops) >= 2 {
			return append([]string{id(ops[0])}, decoration(ops[1:])...)
		}
	case 72: // OpMemberDecorate
		if len(ops) >= 3 {
			return append([]string{id(ops[0]), fmt.Sprintf("%d", ops[1])}, decoration(ops[2:])...)
		}
	case 3, 21, 22, 43: // OpSource, OpTypeInt, OpTypeFloat, OpConstant
		return []string{literals(ops)}
	case 23, 24: // OpTypeVector, OpTypeMatrix
		return []string{id(ops[0]), literals(ops[1:])}
	case 25: // OpTypeImage
		if len(ops) >= 7 {
			return []string{id(ops[0]), lookup(dims, ops[1]), literals(ops[2:])}
		}
	case 32: // OpTypePointer
		if len(ops) >= 2 {
			return []string{lookup(storageClasses, ops[0]), id(ops[1])}
		}
	case opVariable:
		out := []string{lookup(storageClasses, ops[0])}
		if len(ops) > 1 {
			out = append(out, ids(ops[1:]))
		}
		return out
	case 12: // OpExtInst
		if len(ops) >= 2 {
			return []string{id(ops[0]), fmt.Sprintf("%d", ops[1]), ids(ops[2:])}
		}
	case 54: // OpFunction
		if len(ops) >= 2 {
			return []string{fmt.Sprintf("%d", ops[0]), ids(ops[1:])}
		}
	case 79, 81, 82: // OpVectorShuffle, OpCompositeExtract, OpCompositeInsert
		n := 1
		if opcode != 81 {
			n = 2
		}
		if len(ops) >= n {
			return []string{ids(ops[:n]), literals(ops[n:])}
		}
	case 246: // OpLoopMerge
		if len(ops) >= 3 {
			return []string{ids(ops[:2]), literals(ops[2:])}
		}
	case 247: // OpSelectionMerge
		if len(ops) >= 2 {
			return []string{id(ops[0]), literals(ops[1:])}
		}
	case 251: // OpSwitch
		if len(ops) >= 2 {
			out := []string{id(ops[0]), id(ops[1])}
			for i := 2; i+1 < len(ops); i += 2 {
				out = append(out, fmt.Sprintf("%d", ops[i]), id(ops[i+1]))
			}
			return out
		}
	}
	return []string{ids(ops)}
}

func decoration(ops []uint32) []string {
	out := []string{lookup(decorationNames, ops[0])}
	switch {
	case ops[0] == decBuiltIn && len(ops) > 1:
		out = append(out, lookup(builtins, ops[1]))
	case len(ops) > 1:
		out = append(out, literals(ops[1:]))
	}
	return out
}
