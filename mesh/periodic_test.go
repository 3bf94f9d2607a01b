package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectPeriodicFacesMatchingLevels(t *testing.T) {
	m := HyperCube(-1, 1, true)
	m.RefineGlobal(1)
	for d := 0; d < 3; d++ {
		pairs, err := CollectPeriodicFaces(m, 2*d+1, 2*d+2, d)
		assert.NoError(t, err)
		assert.Len(t, pairs, 4)
		for _, p := range pairs {
			assert.Equal(t, d, p.Direction)
			assert.Equal(t, 2*d+1, m.Cells[p.Cell1].BoundaryID[p.Face1])
			assert.Equal(t, 2*d+2, m.Cells[p.Cell2].BoundaryID[p.Face2])
		}
		offset := PeriodicOffset(m, pairs)
		assert.Equal(t, int64(-LatUnit), offset[d])
	}
}

func TestCollectPeriodicFacesLevelMismatch(t *testing.T) {
	m := HyperCube(-1, 1, true)
	m.RefineGlobal(1)
	for _, id := range m.ActiveCells() {
		corners := m.CellCorners(id)
		for _, c := range corners {
			if c.Sub(Point{-1, -1, -1}).Norm() < 1e-12 {
				m.SetRefineFlag(id)
			}
		}
	}
	m.ExecuteRefinement()

	// the minus-x quadrant over the refined octant splits into four fine
	// partners of one coarse plus-x face
	pairs, err := CollectPeriodicFaces(m, 1, 2, 0)
	assert.NoError(t, err)
	assert.Len(t, pairs, 7)

	fine := 0
	for _, p := range pairs {
		l1 := m.FaceLats(p.Cell1, p.Face1)
		l2 := m.FaceLats(p.Cell2, p.Face2)
		span := func(l [4]Lat) int64 {
			if l[1][1] != l[0][1] {
				return l[1][1] - l[0][1]
			}
			return l[1][2] - l[0][2]
		}
		if span(l2) < span(l1) {
			fine++
		}
	}
	assert.Equal(t, 4, fine)
}

func TestCollectPeriodicFacesNoPartner(t *testing.T) {
	{ // empty boundary id set pairs to nothing
		m := HyperCube(-1, 1, true)
		pairs, err := CollectPeriodicFaces(m, 1, 7, 0)
		assert.NoError(t, err)
		assert.Empty(t, pairs)
	}
	{ // a wrong direction cannot tile the two sides onto each other
		m := Cylinder(1, 2)
		_, err := CollectPeriodicFaces(m, CylinderLeftID, CylinderRightID, 1)
		assert.Error(t, err)
	}
}

func TestCollectPeriodicFacesCylinderCaps(t *testing.T) {
	m := Cylinder(1, 2)
	pairs, err := CollectPeriodicFaces(m, CylinderLeftID, CylinderRightID, 0)
	assert.NoError(t, err)
	assert.Len(t, pairs, 5)
	offset := PeriodicOffset(m, pairs)
	assert.Equal(t, int64(4*LatUnit), offset[0])
}
