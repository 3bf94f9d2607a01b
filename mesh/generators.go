package mesh

import (
	"fmt"
	"io"
	"math"
)

/*
HyperCube builds a single-cell triangulation of [left,right]^3. When
colorize is set, boundary faces get the ids the periodicity drivers expect:
the face at +coordinate of axis d gets 2d+1, the face at -coordinate gets
2d+2 (x+:1 x-:2 y+:3 y-:4 z+:5 z-:6).
*/
func HyperCube(left, right float64, colorize bool) *Mesh {
	m := NewMesh()
	var lats [8]Lat
	var pts [8]Point
	for v := 0; v < 8; v++ {
		for d := 0; d < 3; d++ {
			if v>>d&1 == 1 {
				lats[v][d] = LatUnit
				pts[v][d] = right
			} else {
				pts[v][d] = left
			}
		}
	}
	m.AddHex(lats, pts)
	if colorize {
		center := (left + right) / 2
		m.SetBoundaryIDs(func(c Point) int {
			for d := 0; d < 3; d++ {
				if c[d] > center+(right-center)/2 {
					return 2*d + 1
				}
				if c[d] < center-(center-left)/2 {
					return 2*d + 2
				}
			}
			return 0
		})
	} else {
		m.SetBoundaryIDs(func(Point) int { return 0 })
	}
	return m
}

// Cylinder boundary ids: hull 0, face at -x 1, face at +x 2.
const (
	CylinderHullID  = 0
	CylinderLeftID  = 1
	CylinderRightID = 2
)

/*
Cylinder builds a coarse triangulation of an x-axis cylinder of the given
radius over [-halfLength, halfLength]: a five-cell disc cross section (an
inner square surrounded by four hull cells) extruded into two slabs. Hull
faces carry boundary id 0 and manifold id 0, the end caps ids 1 and 2;
attach a CylinderManifold to manifold id 0 before refining to keep new hull
vertices on the surface.
*/
func Cylinder(radius, halfLength float64) *Mesh {
	m := NewMesh()
	inner := radius / (2 * math.Sqrt2) // half-width of the core square
	outer := radius / math.Sqrt2       // hull corners sit on the circle

	// Cross-section corner layout in (y,z), lattice units chosen so the
	// core square spans one LatUnit from the hull ring
	type corner struct {
		ly, lz int64
		y, z   float64
	}
	ringCorners := func(s float64, lu int64) [4]corner {
		return [4]corner{
			{-lu, -lu, -s, -s},
			{+lu, -lu, +s, -s},
			{-lu, +lu, -s, +s},
			{+lu, +lu, +s, +s},
		}
	}
	in := ringCorners(inner, LatUnit)
	out := ringCorners(outer, 2*LatUnit)

	// Each quad lists its (y,z) corners in bilinear order
	quads := [5][4]corner{
		{in[0], in[1], in[2], in[3]},     // core
		{out[0], out[1], in[0], in[1]},   // z- hull
		{in[2], in[3], out[2], out[3]},   // z+ hull
		{out[0], in[0], out[2], in[2]},   // y- hull
		{in[1], out[1], in[3], out[3]},   // y+ hull
	}
	xSlabs := [3]struct {
		lx int64
		x  float64
	}{{0, -halfLength}, {2 * LatUnit, 0}, {4 * LatUnit, halfLength}}

	for slab := 0; slab < 2; slab++ {
		x0, x1 := xSlabs[slab], xSlabs[slab+1]
		for _, q := range quads {
			var lats [8]Lat
			var pts [8]Point
			for v := 0; v < 8; v++ {
				c := q[v>>1] // bits 1,2 walk the cross-section corners
				if v&1 == 0 {
					lats[v] = Lat{x0.lx, c.ly, c.lz}
					pts[v] = Point{x0.x, c.y, c.z}
				} else {
					lats[v] = Lat{x1.lx, c.ly, c.lz}
					pts[v] = Point{x1.x, c.y, c.z}
				}
			}
			m.AddHex(lats, pts)
		}
	}

	m.SetBoundaryIDs(func(c Point) int {
		switch {
		case math.Abs(c[0]+halfLength) < 1e-12*math.Max(1, halfLength):
			return CylinderLeftID
		case math.Abs(c[0]-halfLength) < 1e-12*math.Max(1, halfLength):
			return CylinderRightID
		default:
			return CylinderHullID
		}
	})
	m.SetAllManifoldIDsOnBoundary(CylinderHullID, 0)
	return m
}

/*
DumpActiveVertices writes one line per vertex of every active cell, in cell
and local vertex order. Components with magnitude below threshold print as
zero, matching the classic log-stream double threshold used by the vertex
comparison drivers.
*/
func (m *Mesh) DumpActiveVertices(w io.Writer, threshold float64) {
	for _, id := range m.ActiveCells() {
		for v := 0; v < 8; v++ {
			p := m.Points[m.Cells[id].Verts[v]]
			for d := 0; d < 3; d++ {
				if math.Abs(p[d]) < threshold {
					p[d] = 0
				}
			}
			fmt.Fprintf(w, "%.6g %.6g %.6g\n", p[0], p[1], p[2])
		}
	}
}
