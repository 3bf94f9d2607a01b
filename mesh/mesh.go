package mesh

import (
	"fmt"
	"sort"
)

// Lat is an integer lattice coordinate. Topology (vertex identity, face
// matching, hanging-node and periodic-pair detection) runs entirely on the
// lattice so shared vertices deduplicate exactly; physical coordinates are
// stored per vertex and may be moved by transforms and manifolds.
type Lat [3]int64

// LatUnit is the lattice spacing of a unit root cell. Every refinement
// halves spacings, so bisection stays integral for 20 levels.
const LatUnit int64 = 1 << 20

// NoID marks an interior face or an unset manifold.
const NoID = -1

/*
Local hex vertex ordering: vertex v sits at lattice offset (v&1, v>>1&1,
v>>2&1). Faces follow the axis convention  0:x- 1:x+ 2:y- 3:y+ 4:z- 5:z+,
each listing its 4 corners in bilinear order (00, 10, 01, 11) of the two
tangent directions.
*/
var faceCorners = [6][4]int{
	{0, 2, 4, 6}, // x-
	{1, 3, 5, 7}, // x+
	{0, 1, 4, 5}, // y-
	{2, 3, 6, 7}, // y+
	{0, 1, 2, 3}, // z-
	{4, 5, 6, 7}, // z+
}

// faceNormalAxis[f] is the axis the face is orthogonal to.
var faceNormalAxis = [6]int{0, 0, 1, 1, 2, 2}

// faceEdges lists each face's 4 edges as index pairs into faceCorners[f].
var faceEdges = [4][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}

// Cell is one hexahedron of the refinement tree. Leaves are active.
type Cell struct {
	Level    int
	Parent   int // -1 for root cells
	Children []int
	Verts    [8]int

	// Per-face ids; meaningful on boundary faces, NoID elsewhere.
	BoundaryID [6]int
	ManifoldID [6]int

	RefineFlag bool
}

// Active reports whether the cell is a leaf of the refinement tree.
func (c *Cell) Active() bool { return len(c.Children) == 0 }

// Mesh is a hexahedral triangulation with isotropic 1-to-8 refinement.
type Mesh struct {
	Points []Point
	Lats   []Lat
	Cells  []Cell

	// EToP assigns active cells to ranks; -1 on inactive or unpartitioned
	// cells. Set by the partitioners.
	EToP []int

	vertOfLat map[Lat]int
	manifolds map[int]Manifold
}

// NewMesh returns an empty triangulation.
func NewMesh() *Mesh {
	return &Mesh{
		vertOfLat: make(map[Lat]int),
		manifolds: make(map[int]Manifold),
	}
}

// SetManifold attaches m to manifold id. Refinement consults it when
// placing new vertices on faces and edges carrying that id.
func (m *Mesh) SetManifold(id int, man Manifold) {
	m.manifolds[id] = man
}

// vertex returns the id of the lattice position, creating it at p when new.
// An existing vertex keeps its position, so the first creator wins.
func (m *Mesh) vertex(lat Lat, p Point) int {
	if id, ok := m.vertOfLat[lat]; ok {
		return id
	}
	id := len(m.Points)
	m.Points = append(m.Points, p)
	m.Lats = append(m.Lats, lat)
	m.vertOfLat[lat] = id
	return id
}

// VertexAt returns the vertex id at a lattice position, or -1.
func (m *Mesh) VertexAt(lat Lat) int {
	if id, ok := m.vertOfLat[lat]; ok {
		return id
	}
	return -1
}

// AddHex appends a root cell with the given corner lattice positions and
// physical coordinates, in local vertex order.
func (m *Mesh) AddHex(lats [8]Lat, pts [8]Point) int {
	c := Cell{Parent: -1}
	for v := 0; v < 8; v++ {
		c.Verts[v] = m.vertex(lats[v], pts[v])
	}
	for f := 0; f < 6; f++ {
		c.BoundaryID[f] = NoID
		c.ManifoldID[f] = NoID
	}
	m.Cells = append(m.Cells, c)
	m.EToP = append(m.EToP, -1)
	return len(m.Cells) - 1
}

// ActiveCells returns the leaf cell ids in deterministic (creation) order.
func (m *Mesh) ActiveCells() (out []int) {
	for id := range m.Cells {
		if m.Cells[id].Active() {
			out = append(out, id)
		}
	}
	return
}

// NActiveCells returns the number of leaf cells.
func (m *Mesh) NActiveCells() (n int) {
	for id := range m.Cells {
		if m.Cells[id].Active() {
			n++
		}
	}
	return
}

// NUsedVertices counts vertices referenced by at least one active cell.
func (m *Mesh) NUsedVertices() int {
	used := make(map[int]bool)
	for id := range m.Cells {
		if !m.Cells[id].Active() {
			continue
		}
		for _, v := range m.Cells[id].Verts {
			used[v] = true
		}
	}
	return len(used)
}

// Transform applies fn to every vertex position. Lattice topology is
// unaffected.
func (m *Mesh) Transform(fn func(Point) Point) {
	for i := range m.Points {
		m.Points[i] = fn(m.Points[i])
	}
}

// CellCorners gathers the physical corner positions of a cell.
func (m *Mesh) CellCorners(id int) (corners [8]Point) {
	for v, vid := range m.Cells[id].Verts {
		corners[v] = m.Points[vid]
	}
	return
}

// FaceLats returns the 4 corner lattice positions of face f of cell id, in
// bilinear order.
func (m *Mesh) FaceLats(id, f int) (lats [4]Lat) {
	for k, lv := range faceCorners[f] {
		lats[k] = m.Lats[m.Cells[id].Verts[lv]]
	}
	return
}

// faceKey identifies a face by its sorted corner vertex ids.
type faceKey [4]int

func (m *Mesh) faceKeyOf(id, f int) faceKey {
	var k faceKey
	for n, lv := range faceCorners[f] {
		k[n] = m.Cells[id].Verts[lv]
	}
	sort.Ints(k[:])
	return k
}

type faceRef struct {
	Cell, Face int
}

// activeFaceIndex maps every active face key to its incident active cells.
// Conforming interior faces carry two entries, boundary and nonconforming
// faces one.
func (m *Mesh) activeFaceIndex() map[faceKey][]faceRef {
	idx := make(map[faceKey][]faceRef)
	for _, id := range m.ActiveCells() {
		for f := 0; f < 6; f++ {
			k := m.faceKeyOf(id, f)
			idx[k] = append(idx[k], faceRef{id, f})
		}
	}
	return idx
}

// SetBoundaryIDs classifies every exterior active face with fn, which maps
// the face centroid to a boundary id. Interior faces keep NoID. Ids
// propagate to children during refinement.
func (m *Mesh) SetBoundaryIDs(fn func(center Point) int) {
	idx := m.activeFaceIndex()
	for _, id := range m.ActiveCells() {
		for f := 0; f < 6; f++ {
			if len(idx[m.faceKeyOf(id, f)]) != 1 {
				continue
			}
			var pts [4]Point
			for n, lv := range faceCorners[f] {
				pts[n] = m.Points[m.Cells[id].Verts[lv]]
			}
			m.Cells[id].BoundaryID[f] = fn(Average(pts[:]))
		}
	}
}

// SetAllManifoldIDsOnBoundary assigns manifold id mid to every boundary
// face currently carrying boundary id bid.
func (m *Mesh) SetAllManifoldIDsOnBoundary(bid, mid int) {
	for id := range m.Cells {
		for f := 0; f < 6; f++ {
			if m.Cells[id].BoundaryID[f] == bid {
				m.Cells[id].ManifoldID[f] = mid
			}
		}
	}
}

// CopyBoundaryToManifoldIDs mirrors each boundary face's boundary id into
// its manifold id (the extract-boundary-mesh drivers rely on this).
func (m *Mesh) CopyBoundaryToManifoldIDs() {
	for id := range m.Cells {
		for f := 0; f < 6; f++ {
			if m.Cells[id].BoundaryID[f] != NoID {
				m.Cells[id].ManifoldID[f] = m.Cells[id].BoundaryID[f]
			}
		}
	}
}

func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh{%d cells (%d active), %d vertices}",
		len(m.Cells), m.NActiveCells(), len(m.Points))
}
