package spvinfo

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

// Encode serializes words little-endian.
func Encode(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

// Decode converts a SPIR-V byte stream into words. Both byte orders are
// accepted; the magic number decides which one the stream uses.
func Decode(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a multiple of 4", len(data))
	}
	if len(data) < headerWords*4 {
		return nil, fmt.Errorf("SPIR-V too small: %d bytes", len(data))
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch magic := binary.LittleEndian.Uint32(data); magic {
	case Magic:
	case bits.ReverseBytes32(Magic):
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("invalid SPIR-V magic: 0x%08X", magic)
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return words, nil
}
