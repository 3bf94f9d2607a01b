package fe

import (
	"github.com/notargets/parfem/constraints"
	"github.com/notargets/parfem/mesh"
)

/*
MakePeriodicityConstraints ties the vertex DoFs on the periodic boundary
pairs known to rank p to the bilinear interpolation of their translated
image on the partner face. When the two sides of a pair match level for
level, side 1 is constrained against side 2 with unit weights, a plain
identification. When the levels differ the finer side is constrained
against the coarser one, which produces the 1/2 and 1/4 hanging weights,
measured exactly on the lattice.

DoFs already constrained, typically by the hanging node pass, keep their
existing line: the store's Close resolves the resulting chains.
*/
func MakePeriodicityConstraints(dh *DoFHandler, p int, pairs []mesh.PeriodicFacePair, st *constraints.Store) error {
	m := dh.Mesh
	relevant := make(map[int]bool)
	for _, id := range dh.RelevantCells(p) {
		relevant[id] = true
	}

	for _, pr := range pairs {
		c1 := m.FaceLats(pr.Cell1, pr.Face1)
		c2 := m.FaceLats(pr.Cell2, pr.Face2)

		// The finer face holds the constrained DoFs; ties go to side 1.
		// The translation is the lattice gap between the boundary planes.
		fine, coarse := c1, c2
		fineCell := pr.Cell1
		delta := c2[0][pr.Direction] - c1[0][pr.Direction]
		swapped := faceSpan(c2) < faceSpan(c1)
		if swapped {
			fine, coarse = c2, c1
			fineCell = pr.Cell2
			delta = -delta
		}
		if !relevant[fineCell] {
			continue
		}

		cMin, cMax := faceBBox(coarse)
		for _, lat := range fine {
			i := dh.DoFOfVertex(m.VertexAt(lat))
			if i < 0 || st.IsConstrained(i) {
				continue
			}
			img := lat
			img[pr.Direction] += delta

			// Bilinear weight of each coarse corner, exact in the
			// lattice fractions (0, 1/2 or 1 per tangent axis)
			var w [4]float64
			onCorner := false
			for k := range coarse {
				w[k] = 1
				bit := 0
				for d := 0; d < 3; d++ {
					if cMin[d] == cMax[d] {
						continue
					}
					u := float64(img[d]-cMin[d]) / float64(cMax[d]-cMin[d])
					if k&(1<<bit) != 0 {
						w[k] *= u
					} else {
						w[k] *= 1 - u
					}
					bit++
				}
				if w[k] == 1 {
					onCorner = true
				}
			}
			// A side-2 vertex landing on a coarse corner is the plain
			// identification; that line belongs to the side-1 pass, and
			// emitting it here would close an identity cycle.
			if swapped && onCorner {
				continue
			}

			for k := range coarse {
				if w[k] == 0 {
					continue
				}
				j := dh.DoFOfVertex(m.VertexAt(coarse[k]))
				if j == i {
					continue
				}
				if err := st.AddEntry(i, j, w[k]); err != nil {
					return err
				}
			}
		}

		// Side-1 corners of a coarse face identify with the side-2 fine
		// corners their images land on. The fine faces tile the coarse
		// one, so across the pairs of this face every corner is covered.
		if swapped && relevant[pr.Cell1] {
			for _, lat := range coarse {
				i := dh.DoFOfVertex(m.VertexAt(lat))
				if i < 0 || st.IsConstrained(i) {
					continue
				}
				img := lat
				img[pr.Direction] -= delta
				for _, fl := range fine {
					if fl != img {
						continue
					}
					j := dh.DoFOfVertex(m.VertexAt(fl))
					if j < 0 || j == i {
						break
					}
					if err := st.AddEntry(i, j, 1); err != nil {
						return err
					}
					break
				}
			}
		}
	}
	return nil
}

func faceBBox(lats [4]mesh.Lat) (min, max mesh.Lat) {
	min, max = lats[0], lats[0]
	for _, l := range lats[1:] {
		for d := 0; d < 3; d++ {
			if l[d] < min[d] {
				min[d] = l[d]
			}
			if l[d] > max[d] {
				max[d] = l[d]
			}
		}
	}
	return
}

// faceSpan is the tangential edge length of the face on the lattice; the
// meshes refine isotropically so one length characterizes the level.
func faceSpan(lats [4]mesh.Lat) int64 {
	min, max := faceBBox(lats)
	for d := 0; d < 3; d++ {
		if max[d] > min[d] {
			return max[d] - min[d]
		}
	}
	return 0
}
