// Package spvinfo inspects SPIR-V modules.
//
// It reads just enough of a module to describe its interface: entry points,
// declared capabilities, and the decorations of its global variables.
package spvinfo

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const headerWords = 5

const (
	opName        = 5
	opEntryPoint  = 15
	opCapability  = 17
	opVariable    = 59
	opDecorate    = 71
	decBuiltIn    = 11
	decLocation   = 30
	decBinding    = 33
	decDescriptor = 34
)

var capabilityNames = map[uint32]string{
	0: "Matrix", 1: "Shader", 9: "Float16", 10: "Float64", 11: "Int64",
	22: "Int16", 25: "ImageGatherExtended", 33: "ImageCubeArray",
	34: "SampleRateShading", 38: "Int8", 42: "Sampled1D", 43: "Image1D",
	44: "SampledCubeArray", 48: "StorageImageExtendedFormats",
	49: "ImageQuery", 50: "DerivativeControl", 51: "InterpolationFunction",
	4440: "StorageInputOutput16", 5013: "ShaderNonUniform",
}

var storageClasses = map[uint32]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 6: "Private", 7: "Function", 9: "PushConstant",
	12: "StorageBuffer",
}

var executionModels = map[uint32]string{
	0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
}

var builtins = map[uint32]string{
	0: "Position", 14: "FragCoord", 15: "PointCoord", 16: "FrontFacing",
	17: "SampleId", 18: "SamplePosition", 19: "SampleMask", 22: "FragDepth",
	23: "HelperInvocation",
}

// EntryPoint is an OpEntryPoint.
type EntryPoint struct {
	Model string
	Name  string
}

// Variable is a module-scope OpVariable with its interface decorations.
// Unset decorations are -1; BuiltIn is empty when absent.
type Variable struct {
	ID           uint32
	Name         string
	StorageClass string
	Set          int
	Binding      int
	Location     int
	BuiltIn      string
}

// Info summarizes a module.
type Info struct {
	Major, Minor uint8
	Generator    uint32
	Bound        uint32
	Capabilities []string
	EntryPoints  []EntryPoint
	Variables    []Variable
}

// Inspect walks the instruction stream of a module.
func Inspect(words []uint32) (*Info, error) {
	if len(words) < headerWords {
		return nil, fmt.Errorf("SPIR-V too small: %d words", len(words))
	}
	if words[0] != Magic {
		return nil, fmt.Errorf("invalid SPIR-V magic: 0x%08X", words[0])
	}

	info := &Info{
		Major:     uint8(words[1] >> 16),
		Minor:     uint8(words[1] >> 8),
		Generator: words[2],
		Bound:     words[3],
	}

	names := map[uint32]string{}
	vars := map[uint32]*Variable{}
	var order []uint32
	decorate := map[uint32][][]uint32{}

	for offset := headerWords; offset < len(words); {
		opcode := words[offset] & 0xFFFF
		count := int(words[offset] >> 16)
		if count == 0 || offset+count > len(words) {
			return nil, fmt.Errorf("invalid word count %d at word %d", count, offset)
		}
		ops := words[offset+1 : offset+count]

		switch opcode {
		case opCapability:
			info.Capabilities = append(info.Capabilities, lookup(capabilityNames, ops[0]))
		case opEntryPoint:
			name, _ := readString(ops[2:])
			info.EntryPoints = append(info.EntryPoints, EntryPoint{
				Model: lookup(executionModels, ops[0]),
				Name:  name,
			})
		case opName:
			names[ops[0]], _ = readString(ops[1:])
		case opDecorate:
			if len(ops) >= 2 {
				decorate[ops[0]] = append(decorate[ops[0]], ops[1:])
			}
		case opVariable:
			// Module-scope variables only; function locals are Function class.
			if len(ops) >= 3 && ops[2] != 7 {
				id := ops[1]
				vars[id] = &Variable{
					ID:           id,
					StorageClass: lookup(storageClasses, ops[2]),
					Set:          -1,
					Binding:      -1,
					Location:     -1,
				}
				order = append(order, id)
			}
		}
		offset += count
	}

	for _, id := range order {
		v := vars[id]
		v.Name = names[id]
		for _, dec := range decorate[id] {
			if len(dec) < 2 {
				continue
			}
			switch dec[0] {
			case decBinding:
				v.Binding = int(dec[1])
			case decDescriptor:
				v.Set = int(dec[1])
			case decLocation:
				v.Location = int(dec[1])
			case decBuiltIn:
				v.BuiltIn = lookup(builtins, dec[1])
			}
		}
		info.Variables = append(info.Variables, *v)
	}

	return info, nil
}

// InspectBytes decodes and inspects a serialized module.
func InspectBytes(data []byte) (*Info, error) {
	words, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Inspect(words)
}

// HasEntryPoint reports whether the module declares an entry point for the
// given execution model ("Fragment", "Vertex", ...).
func (info *Info) HasEntryPoint(model string) bool {
	for _, ep := range info.EntryPoints {
		if ep.Model == model {
			return true
		}
	}
	return false
}

// Resources returns the variables bound to a descriptor set, ordered by set
// and binding.
func (info *Info) Resources() []Variable {
	var res []Variable
	for _, v := range info.Variables {
		if v.Binding >= 0 {
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Set != res[j].Set {
			return res[i].Set < res[j].Set
		}
		return res[i].Binding < res[j].Binding
	})
	return res
}

// Describe writes a human-readable summary.
func (info *Info) Describe(w io.Writer) {
	fmt.Fprintf(w, "SPIR-V %d.%d, generator 0x%08X, bound %d\n", info.Major, info.Minor, info.Generator, info.Bound)
	if len(info.Capabilities) > 0 {
		fmt.Fprintf(w, "  capabilities: %s\n", strings.Join(info.Capabilities, ", "))
	}
	for _, ep := range info.EntryPoints {
		fmt.Fprintf(w, "  entry point:  %s %q\n", ep.Model, ep.Name)
	}
	for _, v := range info.Variables {
		switch {
		case v.BuiltIn != "":
			fmt.Fprintf(w, "  %-12s  builtin %s %s\n", v.StorageClass, v.BuiltIn, v.Name)
		case v.Location >= 0:
			fmt.Fprintf(w, "  %-12s  location %d %s\n", v.StorageClass, v.Location, v.Name)
		case v.Binding >= 0:
			fmt.Fprintf(w, "  %-12s  set %d binding %d %s\n", v.StorageClass, max(v.Set, 0), v.Binding, v.Name)
		}
	}
}

func lookup(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}

// readString decodes a nul-terminated literal string and returns it with
// the number of words it occupies.
func readString(words []uint32) (string, int) {
	var sb strings.Builder
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(words)
}
