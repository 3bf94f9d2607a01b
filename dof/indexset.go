package dof

import (
	"fmt"
	"sort"
	"strings"
)

// Interval is a half-open range [Begin, End) of global DoF indices.
type Interval struct {
	Begin, End int
}

/*
IndexSet stores a subset of the global DoF range [0, N) as a sorted list of
disjoint, non-empty, non-touching half-open intervals. All mutating and
querying operations preserve that normal form, so membership and ownership
lookups are binary searches over the interval list rather than scans over
individual indices.
*/
type IndexSet struct {
	extent    int // size N of the global range [0, N)
	intervals []Interval
}

// NewIndexSet creates an empty set over the global range [0, n).
func NewIndexSet(n int) *IndexSet {
	return &IndexSet{extent: n}
}

// Extent returns the size N of the global range [0, N).
func (s *IndexSet) Extent() int { return s.extent }

// AddRange adds the half-open range [begin, end) to the set, merging with
// any overlapping or touching intervals. Adding an empty range is a no-op.
func (s *IndexSet) AddRange(begin, end int) error {
	if begin > end {
		return fmt.Errorf("AddRange [%d,%d): %w", begin, end, ErrEmptyRangeForbidden)
	}
	if begin == end {
		return nil
	}
	if begin < 0 || end > s.extent {
		return fmt.Errorf("AddRange [%d,%d) with extent %d: %w",
			begin, end, s.extent, ErrOutOfRange)
	}
	// First interval with End >= begin can absorb or follow the new range
	lo := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].End >= begin
	})
	// Last interval index (exclusive) with Begin <= end
	hi := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].Begin > end
	})
	if lo == hi { // no overlap, no touch
		s.intervals = append(s.intervals, Interval{})
		copy(s.intervals[lo+1:], s.intervals[lo:])
		s.intervals[lo] = Interval{begin, end}
		return nil
	}
	merged := Interval{begin, end}
	if s.intervals[lo].Begin < merged.Begin {
		merged.Begin = s.intervals[lo].Begin
	}
	if s.intervals[hi-1].End > merged.End {
		merged.End = s.intervals[hi-1].End
	}
	s.intervals[lo] = merged
	s.intervals = append(s.intervals[:lo+1], s.intervals[hi:]...)
	return nil
}

// AddIndex adds the single index i to the set.
func (s *IndexSet) AddIndex(i int) error {
	if i < 0 || i >= s.extent {
		return fmt.Errorf("AddIndex %d with extent %d: %w", i, s.extent, ErrOutOfRange)
	}
	return s.AddRange(i, i+1)
}

// IsElement reports whether i is contained in the set.
func (s *IndexSet) IsElement(i int) bool {
	k := sort.Search(len(s.intervals), func(n int) bool {
		return s.intervals[n].End > i
	})
	return k < len(s.intervals) && s.intervals[k].Begin <= i
}

// Size returns the number of indices contained in the set.
func (s *IndexSet) Size() (n int) {
	for _, iv := range s.intervals {
		n += iv.End - iv.Begin
	}
	return
}

// IsEmpty reports whether the set contains no indices.
func (s *IndexSet) IsEmpty() bool { return len(s.intervals) == 0 }

// Intervals returns a copy of the normalized interval list.
func (s *IndexSet) Intervals() []Interval {
	out := make([]Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

// Iterator walks the contained indices in ascending order. A fresh Iterator
// restarts the walk from the lowest contained index.
type Iterator struct {
	set  *IndexSet
	ivl  int
	next int
}

// Iterate returns a restartable ordered iterator over the set.
func (s *IndexSet) Iterate() *Iterator {
	it := &Iterator{set: s}
	if len(s.intervals) > 0 {
		it.next = s.intervals[0].Begin
	}
	return it
}

// Next returns the next contained index, or ok=false when exhausted.
func (it *Iterator) Next() (i int, ok bool) {
	s := it.set
	if it.ivl >= len(s.intervals) {
		return 0, false
	}
	i = it.next
	it.next++
	if it.next >= s.intervals[it.ivl].End {
		it.ivl++
		if it.ivl < len(s.intervals) {
			it.next = s.intervals[it.ivl].Begin
		}
	}
	return i, true
}

// Indices materializes the set contents in ascending order.
func (s *IndexSet) Indices() (out []int) {
	out = make([]int, 0, s.Size())
	for _, iv := range s.intervals {
		for i := iv.Begin; i < iv.End; i++ {
			out = append(out, i)
		}
	}
	return
}

// Union returns a new set containing every index present in s or o.
// Both sets must share the same extent.
func (s *IndexSet) Union(o *IndexSet) *IndexSet {
	out := NewIndexSet(s.extent)
	i, j := 0, 0
	var cur Interval
	have := false
	push := func(iv Interval) {
		if !have {
			cur, have = iv, true
			return
		}
		if iv.Begin <= cur.End { // overlap or touch
			if iv.End > cur.End {
				cur.End = iv.End
			}
			return
		}
		out.intervals = append(out.intervals, cur)
		cur = iv
	}
	for i < len(s.intervals) || j < len(o.intervals) {
		switch {
		case j >= len(o.intervals) ||
			(i < len(s.intervals) && s.intervals[i].Begin <= o.intervals[j].Begin):
			push(s.intervals[i])
			i++
		default:
			push(o.intervals[j])
			j++
		}
	}
	if have {
		out.intervals = append(out.intervals, cur)
	}
	return out
}

// Intersect returns a new set containing every index present in both s and o.
func (s *IndexSet) Intersect(o *IndexSet) *IndexSet {
	out := NewIndexSet(s.extent)
	i, j := 0, 0
	for i < len(s.intervals) && j < len(o.intervals) {
		a, b := s.intervals[i], o.intervals[j]
		begin := a.Begin
		if b.Begin > begin {
			begin = b.Begin
		}
		end := a.End
		if b.End < end {
			end = b.End
		}
		if begin < end {
			out.intervals = append(out.intervals, Interval{begin, end})
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract returns a new set containing the indices of s not present in o.
func (s *IndexSet) Subtract(o *IndexSet) *IndexSet {
	out := NewIndexSet(s.extent)
	j := 0
	for _, a := range s.intervals {
		begin := a.Begin
		for j < len(o.intervals) && o.intervals[j].End <= begin {
			j++
		}
		k := j
		for begin < a.End {
			if k >= len(o.intervals) || o.intervals[k].Begin >= a.End {
				out.intervals = append(out.intervals, Interval{begin, a.End})
				break
			}
			b := o.intervals[k]
			if b.Begin > begin {
				out.intervals = append(out.intervals, Interval{begin, b.Begin})
			}
			begin = b.End
			k++
		}
	}
	return out
}

// IsSubsetOf reports whether every index of s is contained in o.
func (s *IndexSet) IsSubsetOf(o *IndexSet) bool {
	return s.Subtract(o).IsEmpty()
}

func (s *IndexSet) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for n, iv := range s.intervals {
		if n > 0 {
			sb.WriteString(", ")
		}
		if iv.End == iv.Begin+1 {
			fmt.Fprintf(&sb, "%d", iv.Begin)
		} else {
			fmt.Fprintf(&sb, "[%d,%d)", iv.Begin, iv.End)
		}
	}
	sb.WriteString("}")
	return sb.String()
}
