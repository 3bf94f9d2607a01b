package fe

import (
	"github.com/notargets/parfem/constraints"
	"github.com/notargets/parfem/mesh"
)

/*
MakeHangingNodeConstraints adds, to rank p's store, the Q1 constraints that
tie hanging vertices on nonconforming faces of p's relevant cells to the
coarse-side DoFs: a midpoint on an edge of an unrefined cell interpolates
its two endpoints with weight 1/2, the center of a nonconforming face its
four corners with weight 1/4. The mesh refines nested cells only, so a
midpoint vertex existing on the lattice is exactly the hanging case.

Chains (a hanging vertex whose endpoints hang themselves on a yet coarser
cell) are left for the store's Close to resolve.
*/
func MakeHangingNodeConstraints(dh *DoFHandler, p int, st *constraints.Store) error {
	m := dh.Mesh
	for _, id := range dh.RelevantCells(p) {
		for f := 0; f < 6; f++ {
			corners, edgeMids, center := faceNodeLats(m, id, f)

			for e := range edgeMids {
				mid := m.VertexAt(edgeMids[e])
				if mid < 0 {
					continue
				}
				i := dh.DoFOfVertex(mid)
				if i < 0 || st.IsConstrained(i) {
					continue
				}
				for _, c := range faceEdgeEnds(corners, e) {
					j := dh.DoFOfVertex(m.VertexAt(c))
					if err := st.AddEntry(i, j, 0.5); err != nil {
						return err
					}
				}
			}

			ctr := m.VertexAt(center)
			if ctr < 0 {
				continue
			}
			i := dh.DoFOfVertex(ctr)
			if i < 0 || st.IsConstrained(i) {
				continue
			}
			for _, c := range corners {
				j := dh.DoFOfVertex(m.VertexAt(c))
				if err := st.AddEntry(i, j, 0.25); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// faceNodeLats returns the lattice positions of a face's corners, edge
// midpoints, and center.
func faceNodeLats(m *mesh.Mesh, id, f int) (corners [4]mesh.Lat, edgeMids [4]mesh.Lat, center mesh.Lat) {
	corners = m.FaceLats(id, f)
	ends := [4][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}
	for e := range ends {
		for d := 0; d < 3; d++ {
			edgeMids[e][d] = (corners[ends[e][0]][d] + corners[ends[e][1]][d]) >> 1
		}
	}
	for d := 0; d < 3; d++ {
		center[d] = (corners[0][d] + corners[1][d] + corners[2][d] + corners[3][d]) >> 2
	}
	return
}

// faceEdgeEnds returns the two corner lattice positions of edge e.
func faceEdgeEnds(corners [4]mesh.Lat, e int) [2]mesh.Lat {
	ends := [4][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}
	return [2]mesh.Lat{corners[ends[e][0]], corners[ends[e][1]]}
}
