package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyperCube(t *testing.T) {
	{ // single hex, shared-vertex dedup on the lattice
		m := HyperCube(0, 1, false)
		assert.Equal(t, 1, m.NActiveCells())
		assert.Equal(t, 8, m.NUsedVertices())
		assert.Equal(t, 0, m.VertexAt(Lat{0, 0, 0}))
		assert.Equal(t, -1, m.VertexAt(Lat{LatUnit / 2, 0, 0}))
	}
	{ // colorized boundary ids: +d face 2d+1, -d face 2d+2
		m := HyperCube(-1, 1, true)
		c := &m.Cells[0]
		assert.Equal(t, 2, c.BoundaryID[0]) // x-
		assert.Equal(t, 1, c.BoundaryID[1]) // x+
		assert.Equal(t, 4, c.BoundaryID[2]) // y-
		assert.Equal(t, 3, c.BoundaryID[3]) // y+
		assert.Equal(t, 6, c.BoundaryID[4]) // z-
		assert.Equal(t, 5, c.BoundaryID[5]) // z+
	}
}

func TestRefineGlobal(t *testing.T) {
	m := HyperCube(-1, 1, true)
	m.RefineGlobal(2)
	assert.Equal(t, 64, m.NActiveCells())
	assert.Equal(t, 125, m.NUsedVertices())

	{ // children inherit outer boundary ids, interior faces carry none
		for _, id := range m.ActiveCells() {
			corners := m.CellCorners(id)
			center := Average(corners[:])
			for f := 0; f < 6; f++ {
				bid := m.Cells[id].BoundaryID[f]
				d := f / 2
				onBoundary := center[d] < -0.5 && f%2 == 0 ||
					center[d] > 0.5 && f%2 == 1
				if onBoundary {
					assert.Equal(t, 2*d+2-f%2, bid)
				} else {
					assert.Equal(t, NoID, bid)
				}
			}
		}
	}
}

func TestNestedRefinementHangingVertices(t *testing.T) {
	// Refining one octant once leaves lattice midpoints of the coarse
	// interface faces populated, which is how nonconforming vertices are
	// recognized downstream.
	m := HyperCube(0, 1, false)
	m.RefineGlobal(1)
	for _, id := range m.ActiveCells() {
		for _, c := range m.CellCorners(id) {
			if c.Norm() < 1e-14 {
				m.SetRefineFlag(id)
			}
		}
	}
	m.ExecuteRefinement()
	assert.Equal(t, 15, m.NActiveCells())

	mid := int64(LatUnit / 2) // interface plane of the refined octant
	q := int64(LatUnit / 4)   // half a level-2 cell edge
	assert.GreaterOrEqual(t, m.VertexAt(Lat{mid, q, 0}), 0)
	assert.GreaterOrEqual(t, m.VertexAt(Lat{mid, q, q}), 0)
	assert.Equal(t, -1, m.VertexAt(Lat{mid, 3 * q, q}))
}

func TestTransformKeepsTopology(t *testing.T) {
	m := HyperCube(0, 1, false)
	m.RefineGlobal(1)
	before := m.NUsedVertices()
	m.Transform(func(p Point) Point {
		// rotate x toward y by 90 degrees
		return Point{-p[1], p[0], p[2]}
	})
	assert.Equal(t, before, m.NUsedVertices())
	assert.Equal(t, 8, m.NActiveCells())
	v := m.VertexAt(Lat{0, 0, 0})
	assert.InDelta(t, 0.0, m.Points[v].Norm(), 1e-14)
}

func TestCopyBoundaryToManifoldIDs(t *testing.T) {
	m := HyperCube(-1, 1, true)
	m.CopyBoundaryToManifoldIDs()
	c := &m.Cells[0]
	for f := 0; f < 6; f++ {
		assert.Equal(t, c.BoundaryID[f], c.ManifoldID[f])
	}
}
