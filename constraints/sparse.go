package constraints

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

/*
CondensationMatrix renders the closed store as the n x n sparse operator C
that distributes constrained DoFs onto their masters: row i is the identity
for unconstrained i, and the expansion coefficients for constrained i. Used
for diagnostics and for spot-checking constraint algebra against dense
gonum arithmetic in tests; the oracle itself never materializes it.
*/
func (st *Store) CondensationMatrix(n int) *sparse.DOK {
	C := sparse.NewDOK(n, n)
	for i := 0; i < n; i++ {
		l, ok := st.lines[i]
		if !ok {
			C.Set(i, i, 1)
			continue
		}
		for _, e := range l.Entries {
			C.Set(i, e.Index, e.Coeff)
		}
	}
	return C
}

// InhomogeneityVector returns the length-n constant-term vector matching
// CondensationMatrix: x = C*y + b for master values y.
func (st *Store) InhomogeneityVector(n int) *mat.VecDense {
	b := mat.NewVecDense(n, nil)
	for i, l := range st.lines {
		if i < n {
			b.SetVec(i, l.Inhomogeneity)
		}
	}
	return b
}
