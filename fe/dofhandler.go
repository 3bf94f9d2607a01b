package fe

import (
	"fmt"
	"sort"

	"github.com/notargets/parfem/dof"
	"github.com/notargets/parfem/mesh"
)

/*
DoFHandler numbers one Q1 degree of freedom per vertex of the active cells
of a partitioned triangulation. Interface vertices are owned by the lowest
adjacent rank, and the numbering is grouped so every rank owns a single
contiguous ascending range, the way distributed triangulations number their
locally owned DoFs.
*/
type DoFHandler struct {
	Mesh     *mesh.Mesh
	N        int
	NumRanks int

	// Owned holds every rank's locally owned IndexSet; identical data on
	// all ranks by construction.
	Owned []*dof.IndexSet

	// SupportPoints maps each DoF to its vertex position, for diagnostics.
	SupportPoints []mesh.Point

	dofOfVert map[int]int
	vertOfDof []int

	activeOfRank [][]int // owned active cells per rank
	ghostOfRank  [][]int // vertex-adjacent active cells per rank
}

/*
DistributeDoFs builds the handler from a mesh whose active cells have been
assigned to np ranks in EToP. Every active cell must be assigned; vertices
pick the minimum adjacent rank as owner.
*/
func DistributeDoFs(m *mesh.Mesh, np int) (*DoFHandler, error) {
	active := m.ActiveCells()
	ownerOfVert := make(map[int]int)
	for _, id := range active {
		p := m.EToP[id]
		if p < 0 || p >= np {
			return nil, fmt.Errorf("active cell %d assigned to rank %d of %d", id, p, np)
		}
		for _, v := range m.Cells[id].Verts {
			if cur, ok := ownerOfVert[v]; !ok || p < cur {
				ownerOfVert[v] = p
			}
		}
	}

	// Group vertices by owner, ascending vertex id within each rank
	vertsOfRank := make([][]int, np)
	for v, p := range ownerOfVert {
		vertsOfRank[p] = append(vertsOfRank[p], v)
	}
	for p := range vertsOfRank {
		sort.Ints(vertsOfRank[p])
	}

	dh := &DoFHandler{
		Mesh:      m,
		NumRanks:  np,
		dofOfVert: make(map[int]int, len(ownerOfVert)),
	}
	for p := 0; p < np; p++ {
		dh.N += len(vertsOfRank[p])
	}
	dh.Owned = make([]*dof.IndexSet, np)
	dh.vertOfDof = make([]int, 0, dh.N)
	dh.SupportPoints = make([]mesh.Point, 0, dh.N)
	next := 0
	for p := 0; p < np; p++ {
		set := dof.NewIndexSet(dh.N)
		if err := set.AddRange(next, next+len(vertsOfRank[p])); err != nil {
			return nil, err
		}
		dh.Owned[p] = set
		for _, v := range vertsOfRank[p] {
			dh.dofOfVert[v] = next
			dh.vertOfDof = append(dh.vertOfDof, v)
			dh.SupportPoints = append(dh.SupportPoints, m.Points[v])
			next++
		}
	}

	dh.buildLocality(active)
	return dh, nil
}

// buildLocality precomputes, per rank, the owned cells and the ghost layer
// of vertex-adjacent foreign active cells.
func (dh *DoFHandler) buildLocality(active []int) {
	m := dh.Mesh
	cellsOfVert := make(map[int][]int)
	for _, id := range active {
		for _, v := range m.Cells[id].Verts {
			cellsOfVert[v] = append(cellsOfVert[v], id)
		}
	}
	dh.activeOfRank = make([][]int, dh.NumRanks)
	dh.ghostOfRank = make([][]int, dh.NumRanks)
	for p := 0; p < dh.NumRanks; p++ {
		ghost := make(map[int]bool)
		for _, id := range active {
			if m.EToP[id] != p {
				continue
			}
			dh.activeOfRank[p] = append(dh.activeOfRank[p], id)
			for _, v := range m.Cells[id].Verts {
				for _, nb := range cellsOfVert[v] {
					if m.EToP[nb] != p {
						ghost[nb] = true
					}
				}
			}
		}
		for id := range ghost {
			dh.ghostOfRank[p] = append(dh.ghostOfRank[p], id)
		}
		sort.Ints(dh.ghostOfRank[p])
	}
}

// DoFOfVertex returns the global DoF of a vertex, or -1 when the vertex is
// not part of the active mesh.
func (dh *DoFHandler) DoFOfVertex(v int) int {
	if i, ok := dh.dofOfVert[v]; ok {
		return i
	}
	return -1
}

// VertexOfDoF returns the vertex carrying global DoF i.
func (dh *DoFHandler) VertexOfDoF(i int) int { return dh.vertOfDof[i] }

// OwnedCells returns rank p's active cells in deterministic order.
func (dh *DoFHandler) OwnedCells(p int) []int { return dh.activeOfRank[p] }

// RelevantCells returns rank p's owned cells plus its vertex-adjacent ghost
// layer, the cell set constraint assembly may touch.
func (dh *DoFHandler) RelevantCells(p int) []int {
	out := make([]int, 0, len(dh.activeOfRank[p])+len(dh.ghostOfRank[p]))
	out = append(out, dh.activeOfRank[p]...)
	out = append(out, dh.ghostOfRank[p]...)
	sort.Ints(out)
	return out
}
