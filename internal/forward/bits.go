package forward

import (
	"encoding/binary"
	"math/bits"
)

// BitWidth returns the number of bits per dictionary id for a dictionary
// of the given cardinality: max(1, bits.Len(cardinality-1)).
func BitWidth(cardinality int) int {
	if cardinality <= 1 {
		return 1
	}
	return bits.Len(uint(cardinality - 1))
}

// bitPacker packs ids LSB-first into little-endian uint64 words.
type bitPacker struct {
	words []uint64
	width uint
	pos   uint64
}

func newBitPacker(width, count int) *bitPacker {
	total := uint64(width) * uint64(count)
	return &bitPacker{
		words: make([]uint64, (total+63)/64),
		width: uint(width),
	}
}

func (p *bitPacker) put(v uint32) {
	w := p.pos / 64
	off := uint(p.pos % 64)
	p.words[w] |= uint64(v) << off
	if off+p.width > 64 {
		p.words[w+1] |= uint64(v) >> (64 - off)
	}
	p.pos += uint64(p.width)
}

func (p *bitPacker) appendTo(dst []byte) []byte {
	for _, w := range p.words {
		dst = binary.LittleEndian.AppendUint64(dst, w)
	}
	return dst
}

// packedLen returns the byte length of count packed values.
func packedLen(width, count int) int {
	return int((uint64(width)*uint64(count) + 63) / 64 * 8)
}

// unpack returns the value at index i of a packed word array.
func unpack(words []byte, width int, i int) uint32 {
	pos := uint64(i) * uint64(width)
	w := int(pos / 64)
	off := uint(pos % 64)

	v := binary.LittleEndian.Uint64(words[w*8:]) >> off
	if off+uint(width) > 64 {
		v |= binary.LittleEndian.Uint64(words[(w+1)*8:]) << (64 - off)
	}
	return uint32(v & (1<<uint(width) - 1))
}
