package evo

import (
	"knapsackga/internal/bitset"
	"knapsackga/internal/model"
)

// Candidate is one selection of catalog items, one bit per item in catalog
// order. It is immutable: operators always build a new Candidate.
type Candidate struct {
	bits *bitset.BitSet
}

func NewCandidate(bits []bool) Candidate {
	return Candidate{bits: bitset.FromBools(bits)}
}

// ParseCandidate reads a '0'/'1' string, first item first.
func ParseCandidate(s string) (Candidate, error) {
	bits, err := bitset.FromString(s)
	if err != nil {
		return Candidate{}, invalidArgument("%v", err)
	}
	return Candidate{bits: bits}, nil
}

func fromBitSet(bits *bitset.BitSet) Candidate {
	return Candidate{bits: bits}
}

func (c Candidate) Len() int {
	if c.bits == nil {
		return 0
	}
	return c.bits.Len()
}

// Bit reports whether item i is selected.
func (c Candidate) Bit(i int) bool {
	return c.bits.Has(i)
}

// Bits returns a copy of the bit vector.
func (c Candidate) Bits() []bool {
	if c.bits == nil {
		return []bool{}
	}
	return c.bits.Bools()
}

// Count returns the number of selected items.
func (c Candidate) Count() int {
	if c.bits == nil {
		return 0
	}
	return c.bits.Count()
}

func (c Candidate) Equal(other Candidate) bool {
	if c.Len() == 0 || other.Len() == 0 {
		return c.Len() == other.Len()
	}
	return c.bits.Equal(other.bits)
}

// Not returns the bitwise complement.
func (c Candidate) Not() Candidate {
	out := bitset.New(c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.bits.Has(i) {
			out.Set(i)
		}
	}
	return fromBitSet(out)
}

// Selected lists the catalog items the candidate picks.
func (c Candidate) Selected(items []model.Item) ([]model.Item, error) {
	if err := checkLength(c, items); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, c.Count())
	for i, item := range items {
		if c.bits.Has(i) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c Candidate) String() string {
	if c.bits == nil {
		return ""
	}
	return c.bits.String()
}
