package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is a position in R^3.
type Point [3]float64

func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

func (p Point) Scale(s float64) Point {
	return Point{s * p[0], s * p[1], s * p[2]}
}

func (p Point) Norm() float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

// Average returns the centroid of pts.
func Average(pts []Point) (c Point) {
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

/*
Trilinear shape evaluation on a hex whose corners follow the lattice vertex
ordering (local index bits select x, y, z):

	phi(u) = sum_v corners[v] * prod_d (u_d or 1-u_d)

with u in the unit cube for points inside the cell.
*/
func Trilinear(corners [8]Point, u Point) (p Point) {
	for v := 0; v < 8; v++ {
		w := 1.0
		for d := 0; d < 3; d++ {
			if v>>d&1 == 1 {
				w *= u[d]
			} else {
				w *= 1 - u[d]
			}
		}
		p = p.Add(corners[v].Scale(w))
	}
	return
}

// trilinearJacobian fills J with d phi / d u at u.
func trilinearJacobian(corners [8]Point, u Point, J *mat.Dense) {
	J.Zero()
	for v := 0; v < 8; v++ {
		for dd := 0; dd < 3; dd++ { // derivative direction
			w := 1.0
			for d := 0; d < 3; d++ {
				switch {
				case d == dd:
					if v>>d&1 == 1 {
						w *= 1
					} else {
						w *= -1
					}
				case v>>d&1 == 1:
					w *= u[d]
				default:
					w *= 1 - u[d]
				}
			}
			for r := 0; r < 3; r++ {
				J.Set(r, dd, J.At(r, dd)+corners[v][r]*w)
			}
		}
	}
}

/*
InverseTrilinear maps the physical point p back to unit-cube coordinates of
the hex by Newton iteration. Failure to converge (the transformation is not
invertible near p, typically because p lies far outside the cell) returns an
error; callers searching for a containing cell treat that as "not present"
rather than a fault.
*/
func InverseTrilinear(corners [8]Point, p Point) (u Point, err error) {
	u = Point{0.5, 0.5, 0.5}
	J := mat.NewDense(3, 3, nil)
	var lu mat.LU
	rhs := mat.NewVecDense(3, nil)
	du := mat.NewVecDense(3, nil)
	for iter := 0; iter < 30; iter++ {
		r := Trilinear(corners, u).Sub(p)
		if r.Norm() < 1e-13 {
			return u, nil
		}
		trilinearJacobian(corners, u, J)
		lu.Factorize(J)
		rhs.SetVec(0, r[0])
		rhs.SetVec(1, r[1])
		rhs.SetVec(2, r[2])
		if err = lu.SolveVecTo(du, false, rhs); err != nil {
			return u, fmt.Errorf("singular trilinear map: %w", err)
		}
		for d := 0; d < 3; d++ {
			u[d] -= du.AtVec(d)
		}
		if u.Norm() > 1e4 {
			return u, fmt.Errorf("inverse trilinear diverged")
		}
	}
	return u, fmt.Errorf("inverse trilinear did not converge")
}

// DistanceToUnitCell returns the infinity-norm distance of u from the unit
// cube, zero when u lies inside it.
func DistanceToUnitCell(u Point) (dist float64) {
	for d := 0; d < 3; d++ {
		dist = math.Max(dist, math.Max(-u[d], u[d]-1))
	}
	return math.Max(dist, 0)
}
