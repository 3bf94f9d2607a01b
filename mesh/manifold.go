package mesh

import "math"

// Manifold places vertices created on curved boundary faces and edges
// during refinement.
type Manifold interface {
	// NewPoint returns the position of a vertex midway between the
	// surrounding points, respecting the manifold's curvature.
	NewPoint(surrounding []Point) Point
}

// FlatManifold places new vertices at the centroid of their surrounding
// points. Refinement uses it wherever no manifold is attached.
type FlatManifold struct{}

func (FlatManifold) NewPoint(surrounding []Point) Point {
	return Average(surrounding)
}

/*
CylinderManifold describes the hull of an axis-parallel cylinder: new
points keep their axial coordinate and are pushed radially onto the surface
of radius R. Matches the classic CylinderBoundary behavior, including
degenerate midpoints on the axis being left at the centroid.
*/
type CylinderManifold struct {
	Radius float64
	Axis   int // 0, 1, 2 for x, y, z
}

func (cm CylinderManifold) NewPoint(surrounding []Point) Point {
	p := Average(surrounding)
	var radial Point
	for d := 0; d < 3; d++ {
		if d != cm.Axis {
			radial[d] = p[d]
		}
	}
	r := radial.Norm()
	if r < 1e-14 {
		return p
	}
	out := radial.Scale(cm.Radius / r)
	out[cm.Axis] = p[cm.Axis]
	return out
}

// HullDistance returns |r - R| for a point, the deviation of its radial
// distance from the cylinder surface.
func (cm CylinderManifold) HullDistance(p Point) float64 {
	var radial Point
	for d := 0; d < 3; d++ {
		if d != cm.Axis {
			radial[d] = p[d]
		}
	}
	return math.Abs(radial.Norm() - cm.Radius)
}
