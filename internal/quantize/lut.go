package quantize

import (
	"image/color"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

const cubeSize = 1 << 24

// lookupTable caches palette indexes for every 24-bit color already seen.
type lookupTable struct {
	index  []uint8
	filled []uint64 // bitset over the cube
}

func newLookupTable() *lookupTable {
	return &lookupTable{
		index:  make([]uint8, cubeSize),
		filled: make([]uint64, cubeSize/64),
	}
}

func (t *lookupTable) lookup(c color.RGBA, p domain.Palette) uint8 {
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	word, bit := key/64, uint64(1)<<(key%64)
	if t.filled[word]&bit != 0 {
		return t.index[key]
	}
	idx := uint8(Nearest(c, p))
	t.index[key] = idx
	t.filled[word] |= bit
	return idx
}
