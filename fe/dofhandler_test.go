package fe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/parfem/mesh"
)

func TestDistributeDoFs(t *testing.T) {
	m := mesh.HyperCube(0, 1, false)
	m.RefineGlobal(2)
	np := 3
	mesh.PartitionContiguous(m, np)
	dh, err := DistributeDoFs(m, np)
	assert.NoError(t, err)
	assert.Equal(t, 125, dh.N) // 5^3 vertices of a 4^3 cube grid

	{ // Owned sets partition [0,N) into contiguous ascending ranges
		next := 0
		for p := 0; p < np; p++ {
			set := dh.Owned[p]
			ivs := set.Intervals()
			assert.LessOrEqual(t, len(ivs), 1)
			if len(ivs) == 1 {
				assert.Equal(t, next, ivs[0].Begin)
				next = ivs[0].End
			}
		}
		assert.Equal(t, dh.N, next)
	}
	{ // owned ⊆ active ⊆ relevant on every rank
		for p := 0; p < np; p++ {
			active := dh.ExtractLocallyActive(p)
			relevant := dh.ExtractLocallyRelevant(p)
			assert.True(t, dh.Owned[p].IsSubsetOf(active))
			assert.True(t, active.IsSubsetOf(relevant))
		}
	}
	{ // vertex <-> dof maps invert each other
		for i := 0; i < dh.N; i++ {
			assert.Equal(t, i, dh.DoFOfVertex(dh.VertexOfDoF(i)))
		}
		assert.Equal(t, -1, dh.DoFOfVertex(1 << 30))
		assert.Len(t, dh.SupportPoints, dh.N)
	}
	{ // interface dofs go to the lowest adjacent rank
		for _, id := range dh.OwnedCells(1) {
			for _, v := range m.Cells[id].Verts {
				i := dh.DoFOfVertex(v)
				if dh.Owned[0].IsElement(i) {
					continue // shared with rank 0, which wins
				}
				assert.True(t, dh.Owned[1].IsElement(i) || dh.Owned[2].IsElement(i))
			}
		}
	}
}

// cornerCell finds the active cell whose corner sits at p.
func cornerCell(t *testing.T, m *mesh.Mesh, p mesh.Point) int {
	for _, id := range m.ActiveCells() {
		for _, c := range m.CellCorners(id) {
			if c.Sub(p).Norm() < 1e-12 {
				return id
			}
		}
	}
	t.Fatalf("no active cell touches %v", p)
	return -1
}
