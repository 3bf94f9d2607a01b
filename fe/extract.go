package fe

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/notargets/parfem/dof"
)

// dofsOnCells marks the DoFs of every vertex of the given cells and
// converts the mark set into interval form.
func (dh *DoFHandler) dofsOnCells(cells []int) *dof.IndexSet {
	marks := bitset.New(uint(dh.N))
	for _, id := range cells {
		for _, v := range dh.Mesh.Cells[id].Verts {
			marks.Set(uint(dh.dofOfVert[v]))
		}
	}
	set := dof.NewIndexSet(dh.N)
	runStart, prev := -1, -2
	for i, ok := marks.NextSet(0); ok; i, ok = marks.NextSet(i + 1) {
		if int(i) != prev+1 {
			if runStart >= 0 {
				if err := set.AddRange(runStart, prev+1); err != nil {
					panic(err) // marks are bounded by N
				}
			}
			runStart = int(i)
		}
		prev = int(i)
	}
	if runStart >= 0 {
		if err := set.AddRange(runStart, prev+1); err != nil {
			panic(err)
		}
	}
	return set
}

// ExtractLocallyOwned returns rank p's owned contiguous DoF range.
func (dh *DoFHandler) ExtractLocallyOwned(p int) *dof.IndexSet {
	return dh.Owned[p]
}

// ExtractLocallyActive returns the DoFs living on rank p's own cells.
// Contains the locally owned set by the minimum-rank ownership rule.
func (dh *DoFHandler) ExtractLocallyActive(p int) *dof.IndexSet {
	return dh.dofsOnCells(dh.activeOfRank[p]).Union(dh.Owned[p])
}

// ExtractLocallyRelevant returns the active DoFs plus the ghost-layer DoFs
// rank p needs for interpolation.
func (dh *DoFHandler) ExtractLocallyRelevant(p int) *dof.IndexSet {
	return dh.dofsOnCells(dh.RelevantCells(p)).Union(dh.Owned[p])
}
