package mesh

import (
	"fmt"
	"io"
)

// SurfaceQuad is one active quadrilateral of an extracted boundary mesh,
// corners in bilinear order.
type SurfaceQuad struct {
	Verts      [4]int
	BoundaryID int
	ManifoldID int
}

// SurfaceMesh is the codimension-one mesh of boundary faces of a
// triangulation. Refinement is isotropic 1-to-4 with manifold-aware vertex
// placement, mirroring the volume mesh machinery.
type SurfaceMesh struct {
	Points []Point
	Lats   []Lat
	Quads  []SurfaceQuad

	vertOfLat map[Lat]int
	manifolds map[int]Manifold
}

// SetManifold attaches a manifold to the surface mesh.
func (sm *SurfaceMesh) SetManifold(id int, man Manifold) {
	sm.manifolds[id] = man
}

// NActiveCells returns the number of quads.
func (sm *SurfaceMesh) NActiveCells() int { return len(sm.Quads) }

// NUsedVertices counts vertices referenced by at least one quad.
func (sm *SurfaceMesh) NUsedVertices() int {
	used := make(map[int]bool)
	for _, q := range sm.Quads {
		for _, v := range q.Verts {
			used[v] = true
		}
	}
	return len(used)
}

func (sm *SurfaceMesh) vertex(lat Lat, p Point) int {
	if id, ok := sm.vertOfLat[lat]; ok {
		return id
	}
	id := len(sm.Points)
	sm.Points = append(sm.Points, p)
	sm.Lats = append(sm.Lats, lat)
	sm.vertOfLat[lat] = id
	return id
}

/*
ExtractBoundaryMesh builds the surface mesh of every exterior active face
of m, copying each face's boundary and manifold ids onto the surface quad.
Vertices shared between faces deduplicate through the volume lattice, so the
surface mesh is watertight wherever the volume mesh is.
*/
func (m *Mesh) ExtractBoundaryMesh() *SurfaceMesh {
	sm := &SurfaceMesh{
		vertOfLat: make(map[Lat]int),
		manifolds: make(map[int]Manifold),
	}
	idx := m.activeFaceIndex()
	for _, id := range m.ActiveCells() {
		for f := 0; f < 6; f++ {
			if len(idx[m.faceKeyOf(id, f)]) != 1 {
				continue
			}
			q := SurfaceQuad{
				BoundaryID: m.Cells[id].BoundaryID[f],
				ManifoldID: m.Cells[id].ManifoldID[f],
			}
			for n, lv := range faceCorners[f] {
				vid := m.Cells[id].Verts[lv]
				q.Verts[n] = sm.vertex(m.Lats[vid], m.Points[vid])
			}
			sm.Quads = append(sm.Quads, q)
		}
	}
	return sm
}

// latMid2 averages two lattice positions; exact given LatUnit headroom.
func latMid2(a, b Lat) (mid Lat) {
	for d := 0; d < 3; d++ {
		mid[d] = (a[d] + b[d]) >> 1
	}
	return
}

func latMid4(a, b, c, e Lat) (mid Lat) {
	for d := 0; d < 3; d++ {
		mid[d] = (a[d] + b[d] + c[d] + e[d]) >> 2
	}
	return
}

// surfEdge is a canonical lattice edge key.
type surfEdge struct{ a, b Lat }

func surfEdgeOf(a, b Lat) surfEdge {
	for d := 0; d < 3; d++ {
		if a[d] != b[d] {
			if a[d] > b[d] {
				a, b = b, a
			}
			break
		}
	}
	return surfEdge{a, b}
}

/*
RefineGlobal splits every quad into four n times. Edge midpoints go through
the best manifold attached to any quad sharing the edge, so the boundary
ring of a manifold patch stays on the manifold even when the neighboring
quad is flat; centers use the quad's own manifold.
*/
func (sm *SurfaceMesh) RefineGlobal(n int) {
	for round := 0; round < n; round++ {
		edgeMan := make(map[surfEdge]Manifold)
		for _, q := range sm.Quads {
			man, ok := sm.manifolds[q.ManifoldID]
			if !ok || q.ManifoldID == NoID {
				continue
			}
			for e := 0; e < 4; e++ {
				a, b := q.Verts[faceEdges[e][0]], q.Verts[faceEdges[e][1]]
				key := surfEdgeOf(sm.Lats[a], sm.Lats[b])
				if _, seen := edgeMan[key]; !seen {
					edgeMan[key] = man
				}
			}
		}
		old := sm.Quads
		sm.Quads = nil
		for _, q := range old {
			sm.refineQuad(q, edgeMan)
		}
	}
}

func (sm *SurfaceMesh) refineQuad(q SurfaceQuad, edgeMan map[surfEdge]Manifold) {
	man := Manifold(FlatManifold{})
	if got, ok := sm.manifolds[q.ManifoldID]; ok && q.ManifoldID != NoID {
		man = got
	}
	var lat [3][3]Lat
	var vid [3][3]int
	for n, v := range q.Verts {
		lat[2*(n&1)][2*(n>>1)] = sm.Lats[v]
		vid[2*(n&1)][2*(n>>1)] = v
	}
	place := func(i, j int, l Lat, man Manifold, surrounding ...int) {
		lat[i][j] = l
		if id, ok := sm.vertOfLat[l]; ok {
			vid[i][j] = id
			return
		}
		pts := make([]Point, len(surrounding))
		for k, v := range surrounding {
			pts[k] = sm.Points[v]
		}
		vid[i][j] = sm.vertex(l, man.NewPoint(pts))
	}
	edge := func(a, b int) Manifold {
		if got, ok := edgeMan[surfEdgeOf(sm.Lats[a], sm.Lats[b])]; ok {
			return got
		}
		return FlatManifold{}
	}
	mid := func(i, j, vi, vj int) {
		place(i, j, latMid2(sm.Lats[vi], sm.Lats[vj]), edge(vi, vj), vi, vj)
	}
	mid(1, 0, vid[0][0], vid[2][0])
	mid(1, 2, vid[0][2], vid[2][2])
	mid(0, 1, vid[0][0], vid[0][2])
	mid(2, 1, vid[2][0], vid[2][2])
	place(1, 1, latMid4(lat[0][0], lat[2][0], lat[0][2], lat[2][2]), man,
		vid[0][0], vid[2][0], vid[0][2], vid[2][2])

	for cj := 0; cj < 2; cj++ {
		for ci := 0; ci < 2; ci++ {
			child := SurfaceQuad{
				BoundaryID: q.BoundaryID,
				ManifoldID: q.ManifoldID,
			}
			for v := 0; v < 4; v++ {
				child.Verts[v] = vid[ci+v&1][cj+v>>1&1]
			}
			sm.Quads = append(sm.Quads, child)
		}
	}
}

/*
WriteGnuplot dumps the surface mesh in the plot-ready text form the
grid-output drivers compare: each quad as a closed five-point polyline
followed by a blank separator line.
*/
func (sm *SurfaceMesh) WriteGnuplot(w io.Writer) {
	loop := [5]int{0, 1, 3, 2, 0}
	for _, q := range sm.Quads {
		for _, n := range loop {
			p := sm.Points[q.Verts[n]]
			fmt.Fprintf(w, "%.6g %.6g %.6g\n", p[0], p[1], p[2])
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}
}
