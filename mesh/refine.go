package mesh

import "sort"

// latInterp interpolates the cell's corner lattice positions at the node
// (i,j,k) of the 3x3x3 refinement grid, i,j,k in {0,1,2}. Exact for the
// lattice headroom LatUnit provides.
func latInterp(corners [8]Lat, i, j, k int) (lat Lat) {
	w := [3][2]int64{
		{int64(2 - i), int64(i)},
		{int64(2 - j), int64(j)},
		{int64(2 - k), int64(k)},
	}
	for v := 0; v < 8; v++ {
		coeff := w[0][v&1] * w[1][v>>1&1] * w[2][v>>2&1]
		if coeff == 0 {
			continue
		}
		for d := 0; d < 3; d++ {
			lat[d] += coeff * corners[v][d]
		}
	}
	for d := 0; d < 3; d++ {
		lat[d] >>= 3 // total weight is 8
	}
	return
}

// SetRefineFlag marks an active cell for the next ExecuteRefinement.
func (m *Mesh) SetRefineFlag(id int) {
	if m.Cells[id].Active() {
		m.Cells[id].RefineFlag = true
	}
}

// RefineGlobal refines every active cell n times.
func (m *Mesh) RefineGlobal(n int) {
	for round := 0; round < n; round++ {
		for _, id := range m.ActiveCells() {
			m.Cells[id].RefineFlag = true
		}
		m.ExecuteRefinement()
	}
}

// ExecuteRefinement splits every flagged active cell into 8 children,
// placing new face and edge vertices through the attached manifolds.
func (m *Mesh) ExecuteRefinement() {
	var flagged []int
	for id := range m.Cells {
		if m.Cells[id].Active() && m.Cells[id].RefineFlag {
			flagged = append(flagged, id)
		}
	}
	sort.Ints(flagged)
	for _, id := range flagged {
		m.refineCell(id)
	}
}

// nodeManifold picks the manifold governing a refinement node at grid
// position (i,j,k): the first face shell containing the node that carries
// an attached manifold wins, otherwise placement is flat.
func (m *Mesh) nodeManifold(c *Cell, i, j, k int) Manifold {
	grid := [3]int{i, j, k}
	// Faces whose shell contains this node: coordinate pinned at 0 or 2
	for f := 0; f < 6; f++ {
		d := faceNormalAxis[f]
		want := 0
		if f%2 == 1 {
			want = 2
		}
		if grid[d] != want {
			continue
		}
		if man, ok := m.manifolds[c.ManifoldID[f]]; ok && c.ManifoldID[f] != NoID {
			return man
		}
	}
	return FlatManifold{}
}

func (m *Mesh) refineCell(id int) {
	var cornerLats [8]Lat
	for v, vid := range m.Cells[id].Verts {
		cornerLats[v] = m.Lats[vid]
	}

	// Vertex ids of the full 3x3x3 node grid
	var node [3][3][3]int
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				if i%2 == 0 && j%2 == 0 && k%2 == 0 {
					node[i][j][k] = m.Cells[id].Verts[i/2+j/2*2+k/2*4]
					continue
				}
				lat := latInterp(cornerLats, i, j, k)
				if vid := m.VertexAt(lat); vid >= 0 {
					node[i][j][k] = vid // created by a neighbor already
					continue
				}
				surrounding := m.nodeSurrounding(id, i, j, k)
				p := m.nodeManifold(&m.Cells[id], i, j, k).NewPoint(surrounding)
				node[i][j][k] = m.vertex(lat, p)
			}
		}
	}

	parent := id
	level := m.Cells[id].Level
	for c := 0; c < 8; c++ {
		cx, cy, cz := c&1, c>>1&1, c>>2&1
		child := Cell{Level: level + 1, Parent: parent}
		for v := 0; v < 8; v++ {
			child.Verts[v] = node[cx+v&1][cy+v>>1&1][cz+v>>2&1]
		}
		for f := 0; f < 6; f++ {
			child.BoundaryID[f] = NoID
			child.ManifoldID[f] = NoID
			// Outer child faces inherit the parent face ids
			d := faceNormalAxis[f]
			childBit := [3]int{cx, cy, cz}[d]
			if (f%2 == 0 && childBit == 0) || (f%2 == 1 && childBit == 1) {
				child.BoundaryID[f] = m.Cells[parent].BoundaryID[f]
				child.ManifoldID[f] = m.Cells[parent].ManifoldID[f]
			}
		}
		m.Cells[parent].Children = append(m.Cells[parent].Children, len(m.Cells))
		m.Cells = append(m.Cells, child)
		m.EToP = append(m.EToP, -1)
	}
	m.Cells[parent].RefineFlag = false
}

// nodeSurrounding collects the physical points interpolating a refinement
// node: edge endpoints for edge midpoints, face corners for face centers,
// all corners for the cell center.
func (m *Mesh) nodeSurrounding(id int, i, j, k int) []Point {
	grid := [3]int{i, j, k}
	var midDims []int
	for d := 0; d < 3; d++ {
		if grid[d] == 1 {
			midDims = append(midDims, d)
		}
	}
	var pts []Point
	// Corners reached by flipping the mid coordinates to 0 and 2
	n := 1 << len(midDims)
	for s := 0; s < n; s++ {
		g := grid
		for b, d := range midDims {
			g[d] = (s >> b & 1) * 2
		}
		v := g[0]/2 + g[1]/2*2 + g[2]/2*4
		pts = append(pts, m.Points[m.Cells[id].Verts[v]])
	}
	return pts
}
