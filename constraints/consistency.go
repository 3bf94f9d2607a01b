package constraints

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/parfem/comm"
	"github.com/notargets/parfem/dof"
)

// CheckOptions configures the parallel consistency check.
type CheckOptions struct {
	Verbose bool
	// Out receives the per-mismatch diagnostic lines when Verbose is set.
	// Defaults to io.Discard.
	Out io.Writer
	// AbsTol / RelTol override DefaultTolerance when nonzero.
	AbsTol, RelTol float64
}

func (o CheckOptions) tolerance() Tolerance {
	tol := DefaultTolerance()
	if o.AbsTol != 0 {
		tol.Abs = o.AbsTol
	}
	if o.RelTol != 0 {
		tol.Rel = o.RelTol
	}
	return tol
}

/*
IsConsistentInParallel decides, collectively over all ranks of r, whether
every rank that references a constrained DoF holds the same expansion as the
DoF's owner. owned lists every rank's locally owned set (identical on all
ranks), active is this rank's locally active set, and the store holds this
rank's closed constraint lines.

The exchange runs in six phases: each rank requests the authoritative line
for every active-but-not-owned DoF from its owner (one all-to-all), owners
serialize their lines (second all-to-all), requesters compare under the
tolerance rule, and the global mismatch count is summed (reduction). Every
rank returns the same boolean; false is the normal "inconsistent" answer,
not an error. The store must stay untouched for the duration of the call.
*/
func (st *Store) IsConsistentInParallel(owned []*dof.IndexSet, active *dof.IndexSet,
	r *comm.Rank, opts CheckOptions) (bool, error) {
	if len(owned) != r.Size() {
		return false, fmt.Errorf("have %d owned sets for %d ranks: %w",
			len(owned), r.Size(), dof.ErrOwnershipInconsistent)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	tol := opts.tolerance()

	ownership, err := dof.NewOwnership(owned)
	if err != nil {
		return false, err
	}
	if err = st.checkFinite(); err != nil {
		return false, err
	}
	myOwned := owned[r.ID()]

	// Phase A: group the import set by owning rank
	need := active.Subtract(myOwned)
	reqByOwner := make([][]int, r.Size())
	for it := need.Iterate(); ; {
		i, ok := it.Next()
		if !ok {
			break
		}
		q := ownership.Owner(i)
		reqByOwner[q] = append(reqByOwner[q], i)
	}

	// Phase B: exchange request lists
	send := make([][]byte, r.Size())
	for q := range send {
		send[q] = encodeRequest(reqByOwner[q])
	}
	reqBufs, err := r.AllToAll(send)
	if err != nil {
		return false, err
	}

	// Phase C: serialize the authoritative line for every requested DoF
	for p, buf := range reqBufs {
		dofs, derr := decodeRequest(buf)
		if derr != nil {
			return false, fmt.Errorf("request from rank %d: %w", p, derr)
		}
		lines := make([]*Line, len(dofs))
		for k, i := range dofs {
			if !myOwned.IsElement(i) {
				return false, fmt.Errorf("rank %d asked rank %d for DoF %d: %w",
					p, r.ID(), i, dof.ErrOwnershipInconsistent)
			}
			lines[k] = st.lines[i] // nil when the owner holds no line
		}
		send[p] = encodeReply(lines)
	}

	// Phase D: exchange replies
	repBufs, err := r.AllToAll(send)
	if err != nil {
		return false, err
	}

	// Phase E: compare the owner's lines against the local view
	inconsistent := 0
	for q, buf := range repBufs {
		remote, derr := decodeReply(buf, len(reqByOwner[q]))
		if derr != nil {
			return false, fmt.Errorf("reply from rank %d: %w", q, derr)
		}
		for k, i := range reqByOwner[q] {
			if LinesEqual(st.lines[i], remote[k], tol) {
				continue
			}
			inconsistent++
			if opts.Verbose {
				fmt.Fprintf(opts.Out, "Proc %d got line %d from %d wrong values!\n",
					r.ID(), i, q)
			}
		}
	}

	// Phase F: global reduction
	total, err := r.AllReduceSum(inconsistent)
	if err != nil {
		return false, err
	}
	if opts.Verbose && total > 0 && r.ID() == 0 {
		fmt.Fprintf(opts.Out, "%d inconsistent lines discovered!\n", total)
	}
	return total == 0, nil
}

// checkFinite rejects non-finite values before any line is put on the wire.
func (st *Store) checkFinite() error {
	for i, l := range st.lines {
		if math.IsInf(l.Inhomogeneity, 0) || math.IsNaN(l.Inhomogeneity) {
			return fmt.Errorf("line %d inhomogeneity: %w", i, ErrNonFiniteCoefficient)
		}
		for _, e := range l.Entries {
			if math.IsInf(e.Coeff, 0) || math.IsNaN(e.Coeff) {
				return fmt.Errorf("line %d, master %d: %w", i, e.Index, ErrNonFiniteCoefficient)
			}
		}
	}
	return nil
}
