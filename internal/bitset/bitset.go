// Package bitset provides a memory-efficient fixed-length bit-string.
package bitset

import (
	"fmt"
	"math/bits"
	"strings"
)

const pow uint = 6
const mod uint = 63

// BitSet is a dense bit-string of fixed length. Index 0 is the first bit and
// is rendered first by String.
type BitSet struct {
	len   int
	array []uint64
}

// New returns an all-zero bit-string of the given length.
func New(length int) *BitSet {
	if length < 0 {
		length = 0
	}
	return &BitSet{len: length, array: make([]uint64, (length+63)/64)}
}

// FromBools packs a bool slice.
func FromBools(bits []bool) *BitSet {
	bs := New(len(bits))
	for i, bit := range bits {
		if bit {
			bs.Set(i)
		}
	}
	return bs
}

// FromString parses a string of '0' and '1' characters, first bit first.
func FromString(s string) (*BitSet, error) {
	bs := New(len(s))
	for i, c := range s {
		switch c {
		case '1':
			bs.Set(i)
		case '0':
		default:
			return nil, fmt.Errorf("bitset: invalid character %q in string encoding", c)
		}
	}
	return bs, nil
}

func (bs *BitSet) Len() int {
	return bs.len
}

// Has tests whether the bit at pos has been set.
func (bs *BitSet) Has(pos int) bool {
	return bs.array[pos>>pow]&(1<<(uint(pos)&mod)) != 0
}

// Set sets the bit at pos to one.
func (bs *BitSet) Set(pos int) {
	bs.array[pos>>pow] |= 1 << (uint(pos) & mod)
}

// Clear sets the bit at pos to zero.
func (bs *BitSet) Clear(pos int) {
	bs.array[pos>>pow] &^= 1 << (uint(pos) & mod)
}

// Flip inverts the bit at pos.
func (bs *BitSet) Flip(pos int) {
	bs.array[pos>>pow] ^= 1 << (uint(pos) & mod)
}

// CopyBit copies the bit at index from src.
func (bs *BitSet) CopyBit(src *BitSet, index int) {
	if src.Has(index) {
		bs.Set(index)
	} else {
		bs.Clear(index)
	}
}

// Count returns the number of set bits.
func (bs *BitSet) Count() int {
	n := 0
	for _, word := range bs.array {
		n += bits.OnesCount64(word)
	}
	return n
}

func (bs *BitSet) Clone() *BitSet {
	out := &BitSet{len: bs.len, array: make([]uint64, len(bs.array))}
	copy(out.array, bs.array)
	return out
}

// Equal reports whether both bit-strings have the same length and bits.
func (bs *BitSet) Equal(other *BitSet) bool {
	if bs.len != other.len {
		return false
	}
	for i := range bs.array {
		if bs.array[i] != other.array[i] {
			return false
		}
	}
	return true
}

func (bs *BitSet) Bools() []bool {
	out := make([]bool, bs.len)
	for i := range out {
		out[i] = bs.Has(i)
	}
	return out
}

func (bs *BitSet) String() string {
	var b strings.Builder
	b.Grow(bs.len)
	for i := 0; i < bs.len; i++ {
		if bs.Has(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
