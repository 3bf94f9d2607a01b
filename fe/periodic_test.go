package fe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/parfem/constraints"
	"github.com/notargets/parfem/mesh"
)

func allPeriodicPairs(t *testing.T, m *mesh.Mesh) []mesh.PeriodicFacePair {
	var pairs []mesh.PeriodicFacePair
	for d := 0; d < 3; d++ {
		pd, err := mesh.CollectPeriodicFaces(m, 2*d+1, 2*d+2, d)
		assert.NoError(t, err)
		pairs = append(pairs, pd...)
	}
	return pairs
}

func TestMakePeriodicityConstraintsMatchingLevels(t *testing.T) {
	m := mesh.HyperCube(-1, 1, true)
	m.RefineGlobal(1)
	pairs := allPeriodicPairs(t, m)
	assert.Len(t, pairs, 12) // 4 face pairs per direction

	mesh.PartitionContiguous(m, 1)
	dh, err := DistributeDoFs(m, 1)
	assert.NoError(t, err)

	st := constraints.NewStore()
	assert.NoError(t, MakePeriodicityConstraints(dh, 0, pairs, st))

	// Every vertex with some coordinate at +1 identifies with its image:
	// 3^3 grid minus the 2^3 interior-or-minus block.
	assert.Equal(t, 19, st.NumLines())
	for _, i := range st.ConstrainedIndices() {
		entries := st.Entries(i)
		assert.Len(t, entries, 1)
		assert.Equal(t, 1.0, entries[0].Coeff)
	}

	// Identity chains (edges and corners) terminate on the all-minus side
	assert.NoError(t, st.Close())
	for _, i := range st.ConstrainedIndices() {
		entries := st.Entries(i)
		assert.Len(t, entries, 1)
		assert.Equal(t, 1.0, entries[0].Coeff)
		assert.False(t, st.IsConstrained(entries[0].Index))
		v := dh.VertexOfDoF(entries[0].Index)
		for d := 0; d < 3; d++ {
			assert.Less(t, dh.Mesh.Points[v][d], 1.0)
		}
	}
}

func TestMakePeriodicityConstraintsLevelMismatch(t *testing.T) {
	// Refining the (-1,-1,-1) octant makes the minus sides finer than
	// their periodic partners: the fine DoFs take bilinear weights on the
	// coarse plus faces.
	m := mesh.HyperCube(-1, 1, true)
	m.RefineGlobal(1)
	m.SetRefineFlag(cornerCell(t, m, mesh.Point{-1, -1, -1}))
	m.ExecuteRefinement()

	pairs, err := mesh.CollectPeriodicFaces(m, 1, 2, 0)
	assert.NoError(t, err)
	assert.Len(t, pairs, 7) // 3 level matches + 4 fine partners of one face

	mesh.PartitionContiguous(m, 1)
	dh, err := DistributeDoFs(m, 1)
	assert.NoError(t, err)

	st := constraints.NewStore()
	assert.NoError(t, MakePeriodicityConstraints(dh, 0, pairs, st))

	quarters := 0
	for _, i := range st.ConstrainedIndices() {
		sum := 0.0
		for _, e := range st.Entries(i) {
			sum += e.Coeff
		}
		assert.InDelta(t, 1.0, sum, 1e-14)
		if len(st.Entries(i)) == 4 {
			quarters++
			for _, e := range st.Entries(i) {
				assert.Equal(t, 0.25, e.Coeff)
			}
		}
	}
	// The fine face centers interpolate all four coarse corners
	assert.Equal(t, 1, quarters)
	assert.NoError(t, st.Close())
}
