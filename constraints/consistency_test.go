package constraints

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/parfem/comm"
	"github.com/notargets/parfem/dof"
)

// ownedSplit builds contiguous owned ranges, one per rank.
func ownedSplit(n int, bounds ...int) []*dof.IndexSet {
	owned := make([]*dof.IndexSet, 0, len(bounds)+1)
	prev := 0
	for _, b := range append(bounds, n) {
		s := dof.NewIndexSet(n)
		if err := s.AddRange(prev, b); err != nil {
			panic(err)
		}
		owned = append(owned, s)
		prev = b
	}
	return owned
}

// runCheck spawns one goroutine per rank, builds that rank's store and
// active set via setup, and runs the check with per-rank verbose capture.
func runCheck(t *testing.T, owned []*dof.IndexSet, opts CheckOptions,
	setup func(rank int) (*Store, *dof.IndexSet)) (results []bool, logs []string) {
	t.Helper()
	np := len(owned)
	results = make([]bool, np)
	bufs := make([]bytes.Buffer, np)
	var mu sync.Mutex
	c := comm.New(np)
	err := c.Spawn(func(r *comm.Rank) error {
		st, active := setup(r.ID())
		o := opts
		o.Out = &bufs[r.ID()]
		ok, err := st.IsConsistentInParallel(owned, active, r, o)
		if err != nil {
			return err
		}
		mu.Lock()
		results[r.ID()] = ok
		mu.Unlock()
		return nil
	})
	assert.NoError(t, err)
	logs = make([]string, np)
	for p := range bufs {
		logs[p] = bufs[p].String()
	}
	return
}

func TestCheckTrivialAgreement(t *testing.T) {
	// S1: active == owned, empty stores, zero-size exchange
	owned := ownedSplit(4, 2)
	results, logs := runCheck(t, owned, CheckOptions{Verbose: true},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			assert.NoError(t, st.Close())
			return st, owned[rank]
		})
	assert.Equal(t, []bool{true, true}, results)
	for _, l := range logs {
		assert.Empty(t, l)
	}
}

func TestCheckHangingConsistent(t *testing.T) {
	// S2: both ranks hold identical expansions for the shared line 2
	owned := ownedSplit(6, 3)
	active := []*dof.IndexSet{dof.NewIndexSet(6), dof.NewIndexSet(6)}
	assert.NoError(t, active[0].AddRange(0, 4))
	assert.NoError(t, active[1].AddRange(2, 6))
	results, _ := runCheck(t, owned, CheckOptions{},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			assert.NoError(t, st.AddEntry(2, 0, 0.5))
			assert.NoError(t, st.AddEntry(2, 3, 0.5))
			assert.NoError(t, st.Close())
			return st, active[rank]
		})
	assert.Equal(t, []bool{true, true}, results)
}

func TestCheckDisagreement(t *testing.T) {
	// S3: rank 1 disagrees on the coefficient of master 3 in line 2
	owned := ownedSplit(6, 3)
	active := []*dof.IndexSet{dof.NewIndexSet(6), dof.NewIndexSet(6)}
	assert.NoError(t, active[0].AddRange(0, 4))
	assert.NoError(t, active[1].AddRange(2, 6))
	setup := func(rank int) (*Store, *dof.IndexSet) {
		st := NewStore()
		assert.NoError(t, st.AddEntry(2, 0, 0.5))
		if rank == 0 {
			assert.NoError(t, st.AddEntry(2, 3, 0.5))
		} else {
			assert.NoError(t, st.AddEntry(2, 3, 0.4999))
		}
		assert.NoError(t, st.Close())
		return st, active[rank]
	}
	results, logs := runCheck(t, owned, CheckOptions{Verbose: true}, setup)
	assert.Equal(t, []bool{false, false}, results) // symmetry law
	assert.Contains(t, logs[1], "Proc 1 got line 2 from 0 wrong values!")
	assert.Equal(t, 1, strings.Count(strings.Join(logs, ""), "wrong values!"))
	assert.Contains(t, logs[0], "1 inconsistent lines discovered!")

	// Tolerance monotonicity: loosening flips the verdict to true here
	results, _ = runCheck(t, owned, CheckOptions{AbsTol: 1e-3}, setup)
	assert.Equal(t, []bool{true, true}, results)
}

func TestCheckMissingOnImporter(t *testing.T) {
	// S4: the importer has no line for DoF 2 while the owner does
	owned := ownedSplit(6, 3)
	active := []*dof.IndexSet{dof.NewIndexSet(6), dof.NewIndexSet(6)}
	assert.NoError(t, active[0].AddRange(0, 4))
	assert.NoError(t, active[1].AddRange(2, 6))
	results, logs := runCheck(t, owned, CheckOptions{Verbose: true},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			if rank == 0 {
				assert.NoError(t, st.AddEntry(2, 0, 0.5))
				assert.NoError(t, st.AddEntry(2, 3, 0.5))
			}
			assert.NoError(t, st.Close())
			return st, active[rank]
		})
	assert.Equal(t, []bool{false, false}, results)
	assert.Contains(t, logs[1], "Proc 1 got line 2 from 0 wrong values!")
}

func TestCheckMissingOnOwner(t *testing.T) {
	// The owner reports "unconstrained"; the importer's line mismatches it
	owned := ownedSplit(6, 3)
	active := []*dof.IndexSet{dof.NewIndexSet(6), dof.NewIndexSet(6)}
	assert.NoError(t, active[0].AddRange(0, 4))
	assert.NoError(t, active[1].AddRange(2, 6))
	results, _ := runCheck(t, owned, CheckOptions{},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			if rank == 1 {
				assert.NoError(t, st.AddEntry(2, 0, 0.5))
			}
			assert.NoError(t, st.Close())
			return st, active[rank]
		})
	assert.Equal(t, []bool{false, false}, results)
}

func TestCheckOwnerOnlySufficiency(t *testing.T) {
	// Law 4: stores restricted to owned DoFs are vacuously consistent,
	// because importers holding no local line match "unconstrained" owners
	// only when the owner holds no line either. Keep lines fully local.
	owned := ownedSplit(9, 3, 6)
	results, _ := runCheck(t, owned, CheckOptions{},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			i := 3 * rank
			assert.NoError(t, st.AddEntry(i, (i+4)%9, 1.0))
			assert.NoError(t, st.Close())
			active := dof.NewIndexSet(9)
			assert.NoError(t, active.AddRange(3*rank, 3*rank+3))
			return st, active
		})
	assert.Equal(t, []bool{true, true, true}, results)
}

func TestCheckManyRanks(t *testing.T) {
	// Law 7 at 13 ranks: every active line byte-equals the owner's line
	const np, n = 13, 130
	bounds := make([]int, np-1)
	for p := 1; p < np; p++ {
		bounds[p-1] = 10 * p
	}
	owned := ownedSplit(n, bounds...)
	results, logs := runCheck(t, owned, CheckOptions{Verbose: true},
		func(rank int) (*Store, *dof.IndexSet) {
			st := NewStore()
			active := dof.NewIndexSet(n)
			lo, hi := 10*rank, 10*rank+10
			assert.NoError(t, active.AddRange(lo, hi))
			// one ghost layer on each side, periodic over the range
			left, right := (lo+n-1)%n, hi%n
			assert.NoError(t, active.AddIndex(left))
			assert.NoError(t, active.AddIndex(right))
			// every multiple of 10 is constrained identically everywhere
			for _, i := range []int{lo, left - left%10, right} {
				if i%10 == 0 && active.IsElement(i) && !st.IsConstrained(i) {
					assert.NoError(t, st.AddEntry(i, (i+5)%n, 0.25))
					st.SetInhomogeneity(i, float64(i))
				}
			}
			assert.NoError(t, st.Close())
			return st, active
		})
	for p := 0; p < np; p++ {
		assert.True(t, results[p], "rank %d", p)
		assert.Empty(t, logs[p])
	}
}

func TestCheckOwnershipValidation(t *testing.T) {
	// Owned sets with a gap surface ErrOwnershipInconsistent from the call
	n := 6
	owned := []*dof.IndexSet{dof.NewIndexSet(n), dof.NewIndexSet(n)}
	assert.NoError(t, owned[0].AddRange(0, 2))
	assert.NoError(t, owned[1].AddRange(3, 6))
	c := comm.New(2)
	err := c.Spawn(func(r *comm.Rank) error {
		st := NewStore()
		if err := st.Close(); err != nil {
			return err
		}
		_, err := st.IsConsistentInParallel(owned, owned[r.ID()], r, CheckOptions{})
		return err
	})
	assert.ErrorIs(t, err, dof.ErrOwnershipInconsistent)
}
