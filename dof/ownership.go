package dof

import (
	"fmt"
	"sort"
)

type ownedRange struct {
	Begin, End int
	Rank       int
}

/*
Ownership maps every global DoF index to the single rank that owns it. It is
derived from the per-rank locally owned IndexSets, which must partition the
global range [0, N): disjoint across ranks, union equal to the full range.
*/
type Ownership struct {
	extent int
	ranges []ownedRange // sorted by Begin, gap-free over [0, extent)
}

// NewOwnership builds the owner map from the per-rank owned sets and
// verifies the partition law. Violations return ErrOwnershipInconsistent.
func NewOwnership(owned []*IndexSet) (*Ownership, error) {
	if len(owned) == 0 {
		return nil, fmt.Errorf("no ranks: %w", ErrOwnershipInconsistent)
	}
	o := &Ownership{extent: owned[0].Extent()}
	for rank, set := range owned {
		if set.Extent() != o.extent {
			return nil, fmt.Errorf("rank %d extent %d != %d: %w",
				rank, set.Extent(), o.extent, ErrOwnershipInconsistent)
		}
		for _, iv := range set.Intervals() {
			o.ranges = append(o.ranges, ownedRange{iv.Begin, iv.End, rank})
		}
	}
	sort.Slice(o.ranges, func(i, j int) bool {
		return o.ranges[i].Begin < o.ranges[j].Begin
	})
	next := 0
	for _, r := range o.ranges {
		if r.Begin != next {
			return nil, fmt.Errorf("gap or overlap at index %d (rank %d starts at %d): %w",
				next, r.Rank, r.Begin, ErrOwnershipInconsistent)
		}
		next = r.End
	}
	if next != o.extent {
		return nil, fmt.Errorf("owned sets cover [0,%d) of [0,%d): %w",
			next, o.extent, ErrOwnershipInconsistent)
	}
	return o, nil
}

// Extent returns the size N of the global DoF range.
func (o *Ownership) Extent() int { return o.extent }

// Owner returns the rank owning index i, or -1 when i is out of range.
func (o *Ownership) Owner(i int) int {
	if i < 0 || i >= o.extent {
		return -1
	}
	k := sort.Search(len(o.ranges), func(n int) bool {
		return o.ranges[n].End > i
	})
	return o.ranges[k].Rank
}
