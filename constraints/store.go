package constraints

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrConflictingEntry is returned when an entry for the same master DoF
	// is added twice with different coefficients.
	ErrConflictingEntry = errors.New("conflicting coefficient for constraint entry")

	// ErrCyclicConstraint is returned by Close when constrained DoFs form a
	// dependency cycle of length greater than one.
	ErrCyclicConstraint = errors.New("cyclic constraint chain")

	// ErrSelfReference is returned by Close when a constraint line contains
	// its own DoF on the right hand side.
	ErrSelfReference = errors.New("constraint line references itself")

	// ErrNonFiniteCoefficient is returned when a coefficient or
	// inhomogeneity is NaN or infinite.
	ErrNonFiniteCoefficient = errors.New("non-finite constraint coefficient")
)

// Entry is one (master DoF, coefficient) term of a constraint line.
type Entry struct {
	Index int
	Coeff float64
}

// Line is the affine expansion of one constrained DoF:
// x_i = sum(Coeff_k * x_{Index_k}) + Inhomogeneity.
type Line struct {
	Entries       []Entry
	Inhomogeneity float64
}

/*
Store holds the constraint lines a process has built for DoFs in its locally
relevant range. Lines accumulate through AddLine / AddEntry /
SetInhomogeneity; Close resolves chains of constrained DoFs so that no
right-hand side references another locally constrained DoF, sorts every
entry list by master index, and freezes the store. A closed store is safe
for concurrent readers.
*/
type Store struct {
	lines  map[int]*Line
	closed bool
}

// NewStore creates an empty, open constraint store.
func NewStore() *Store {
	return &Store{lines: make(map[int]*Line)}
}

func (st *Store) mutable() {
	if st.closed {
		panic("constraint store is closed")
	}
}

// AddLine marks DoF i as constrained with the empty expansion. Adding an
// existing line is a no-op.
func (st *Store) AddLine(i int) {
	st.mutable()
	if _, ok := st.lines[i]; !ok {
		st.lines[i] = &Line{}
	}
}

// AddEntry appends the term (j, coeff) to line i, creating the line if
// needed. A duplicate j with the same coefficient is a no-op; a duplicate
// with a different coefficient returns ErrConflictingEntry.
func (st *Store) AddEntry(i, j int, coeff float64) error {
	st.mutable()
	st.AddLine(i)
	l := st.lines[i]
	for _, e := range l.Entries {
		if e.Index == j {
			if e.Coeff != coeff {
				return fmt.Errorf("line %d, master %d: have %v, adding %v: %w",
					i, j, e.Coeff, coeff, ErrConflictingEntry)
			}
			return nil
		}
	}
	l.Entries = append(l.Entries, Entry{j, coeff})
	return nil
}

// SetInhomogeneity sets the constant term of line i, creating the line if
// needed.
func (st *Store) SetInhomogeneity(i int, v float64) {
	st.mutable()
	st.AddLine(i)
	st.lines[i].Inhomogeneity = v
}

// IsConstrained reports whether DoF i has a line in this store.
func (st *Store) IsConstrained(i int) bool {
	_, ok := st.lines[i]
	return ok
}

// Entries returns the expansion terms of line i, nil when i is
// unconstrained. The returned slice is owned by the store.
func (st *Store) Entries(i int) []Entry {
	if l, ok := st.lines[i]; ok {
		return l.Entries
	}
	return nil
}

// Inhomogeneity returns the constant term of line i, 0 when unconstrained.
func (st *Store) Inhomogeneity(i int) float64 {
	if l, ok := st.lines[i]; ok {
		return l.Inhomogeneity
	}
	return 0
}

// NumLines returns the number of constrained DoFs in the store.
func (st *Store) NumLines() int { return len(st.lines) }

// ConstrainedIndices returns the constrained DoFs in ascending order.
func (st *Store) ConstrainedIndices() []int {
	out := make([]int, 0, len(st.lines))
	for i := range st.lines {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsClosed reports whether Close has completed on this store.
func (st *Store) IsClosed() bool { return st.closed }

// dfs colors for the transitive resolution
const (
	unseen = iota
	onStack
	resolved
)

/*
Close resolves every line transitively: any right-hand-side master that is
itself constrained here is inlined (coefficients multiplied through, the
inhomogeneity accumulated) until no master is locally constrained. Entries
are then merged per master, sorted ascending, and the store becomes
read-only. A dependency cycle returns ErrCyclicConstraint, a line naming
itself returns ErrSelfReference, and any non-finite value returns
ErrNonFiniteCoefficient.
*/
func (st *Store) Close() error {
	st.mutable()
	for i, l := range st.lines {
		if math.IsInf(l.Inhomogeneity, 0) || math.IsNaN(l.Inhomogeneity) {
			return fmt.Errorf("line %d inhomogeneity: %w", i, ErrNonFiniteCoefficient)
		}
		for _, e := range l.Entries {
			if e.Index == i {
				return fmt.Errorf("line %d: %w", i, ErrSelfReference)
			}
			if math.IsInf(e.Coeff, 0) || math.IsNaN(e.Coeff) {
				return fmt.Errorf("line %d, master %d: %w", i, e.Index, ErrNonFiniteCoefficient)
			}
		}
	}

	color := make(map[int]int, len(st.lines))
	// Iterative DFS: visit(i) resolves line i once all its constrained
	// masters are resolved. A gray (on-stack) master closes a cycle.
	for _, root := range st.ConstrainedIndices() {
		if color[root] != unseen {
			continue
		}
		stack := []int{root}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			switch color[i] {
			case unseen:
				color[i] = onStack
				for _, e := range st.lines[i].Entries {
					if _, ok := st.lines[e.Index]; !ok {
						continue
					}
					switch color[e.Index] {
					case onStack:
						return fmt.Errorf("line %d depends on line %d: %w",
							i, e.Index, ErrCyclicConstraint)
					case unseen:
						stack = append(stack, e.Index)
					}
				}
			case onStack:
				st.inline(i)
				color[i] = resolved
				stack = stack[:len(stack)-1]
			default:
				stack = stack[:len(stack)-1]
			}
		}
	}

	for _, l := range st.lines {
		l.Entries = mergeEntries(l.Entries)
	}
	st.closed = true
	return nil
}

// inline replaces every locally constrained master of line i by that
// master's (already resolved) expansion.
func (st *Store) inline(i int) {
	l := st.lines[i]
	out := l.Entries[:0:0]
	for _, e := range l.Entries {
		m, ok := st.lines[e.Index]
		if !ok {
			out = append(out, e)
			continue
		}
		for _, me := range m.Entries {
			out = append(out, Entry{me.Index, e.Coeff * me.Coeff})
		}
		l.Inhomogeneity += e.Coeff * m.Inhomogeneity
	}
	l.Entries = out
}

// mergeEntries sorts by master index and sums duplicate masters produced by
// the inlining pass.
func mergeEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Index < entries[b].Index
	})
	out := entries[:1]
	for _, e := range entries[1:] {
		if last := &out[len(out)-1]; last.Index == e.Index {
			last.Coeff += e.Coeff
		} else {
			out = append(out, e)
		}
	}
	return out
}

// Tolerance is the relative+absolute comparison rule for coefficients.
type Tolerance struct {
	Abs, Rel float64
}

// DefaultTolerance matches the framework-wide comparison defaults.
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-12, Rel: 1e-10}
}

// Equal reports |a-b| <= max(Abs, Rel*max(|a|,|b|)).
func (tol Tolerance) Equal(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= math.Max(tol.Abs, tol.Rel*scale)
}

// LinesEqual compares two expansions under tol. Entry lists must be sorted
// by master index, which Close guarantees. A nil line stands for
// "unconstrained" and equals only another nil line.
func LinesEqual(a, b *Line, tol Tolerance) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for k := range a.Entries {
		if a.Entries[k].Index != b.Entries[k].Index ||
			!tol.Equal(a.Entries[k].Coeff, b.Entries[k].Coeff) {
			return false
		}
	}
	return tol.Equal(a.Inhomogeneity, b.Inhomogeneity)
}
