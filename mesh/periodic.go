package mesh

import (
	"fmt"
	"sort"
)

/*
PeriodicFacePair geometrically identifies an active boundary face carrying
boundary id 1 of the pair with its translated partner on the opposite side
of the domain. With adaptive refinement the two sides need not match level
for level: a fine face pairs with the coarser face containing its
translate, and a coarse face shows up once per fine partner face it
covers, so each pair joins exactly one active face per side.
*/
type PeriodicFacePair struct {
	Cell1, Face1 int // side with boundary id b1
	Cell2, Face2 int // partner with boundary id b2
	Direction    int
}

/*
CollectPeriodicFaces pairs every active face with boundary id b1 against
its active b2 counterparts across the periodicity direction. The
translation offset is measured on the lattice from the extents of the two
boundary planes, so the matching is exact regardless of refinement depth.
A b1 face with no partner is an error: the two boundary sets must tile
each other.
*/
func CollectPeriodicFaces(m *Mesh, b1, b2, direction int) ([]PeriodicFacePair, error) {
	type bFace struct {
		ref  faceRef
		min  Lat // lattice bounding box of the face
		max  Lat
	}
	collect := func(bid int) (faces []bFace, plane int64) {
		for _, id := range m.ActiveCells() {
			for f := 0; f < 6; f++ {
				if m.Cells[id].BoundaryID[f] != bid {
					continue
				}
				lats := m.FaceLats(id, f)
				bf := bFace{ref: faceRef{id, f}, min: lats[0], max: lats[0]}
				for _, l := range lats[1:] {
					for d := 0; d < 3; d++ {
						if l[d] < bf.min[d] {
							bf.min[d] = l[d]
						}
						if l[d] > bf.max[d] {
							bf.max[d] = l[d]
						}
					}
				}
				faces = append(faces, bf)
				plane = bf.min[direction]
			}
		}
		return
	}
	side1, plane1 := collect(b1)
	side2, plane2 := collect(b2)
	if len(side1) == 0 || len(side2) == 0 {
		return nil, nil
	}
	offset := plane2 - plane1

	sort.Slice(side2, func(i, j int) bool {
		return side2[i].ref.Cell < side2[j].ref.Cell
	})
	// translated bbox of a side-1 face
	shift := func(f1 bFace) (min, max Lat) {
		min, max = f1.min, f1.max
		min[direction] += offset
		max[direction] += offset
		return
	}
	within := func(aMin, aMax, bMin, bMax Lat) bool {
		for d := 0; d < 3; d++ {
			if aMin[d] < bMin[d] || aMax[d] > bMax[d] {
				return false
			}
		}
		return true
	}

	pairs := make([]PeriodicFacePair, 0, len(side1))
	for _, f1 := range side1 {
		tMin, tMax := shift(f1)
		found := false
		// fine or matching side-1 face: a single containing partner
		for _, f2 := range side2 {
			if within(tMin, tMax, f2.min, f2.max) {
				pairs = append(pairs, PeriodicFacePair{
					Cell1: f1.ref.Cell, Face1: f1.ref.Face,
					Cell2: f2.ref.Cell, Face2: f2.ref.Face,
					Direction: direction,
				})
				found = true
				break
			}
		}
		if !found {
			// coarse side-1 face: one pair per fine partner it covers
			for _, f2 := range side2 {
				if within(f2.min, f2.max, tMin, tMax) {
					pairs = append(pairs, PeriodicFacePair{
						Cell1: f1.ref.Cell, Face1: f1.ref.Face,
						Cell2: f2.ref.Cell, Face2: f2.ref.Face,
						Direction: direction,
					})
					found = true
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("no periodic partner for face %d of cell %d (ids %d/%d)",
				f1.ref.Face, f1.ref.Cell, b1, b2)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Cell1 != pairs[j].Cell1 {
			return pairs[i].Cell1 < pairs[j].Cell1
		}
		return pairs[i].Face1 < pairs[j].Face1
	})
	return pairs, nil
}

// PeriodicOffset returns the lattice translation taking side-1 faces of the
// pair list onto their partners, zero when pairs is empty.
func PeriodicOffset(m *Mesh, pairs []PeriodicFacePair) (offset Lat) {
	if len(pairs) == 0 {
		return
	}
	p := pairs[0]
	l1 := m.FaceLats(p.Cell1, p.Face1)
	l2 := m.FaceLats(p.Cell2, p.Face2)
	d := p.Direction
	offset[d] = l2[0][d] - l1[0][d]
	return
}
