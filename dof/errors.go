package dof

import "errors"

var (
	// ErrOutOfRange is returned when an index or range reaches outside the
	// global DoF range [0, N) of the set.
	ErrOutOfRange = errors.New("index out of the global DoF range")

	// ErrEmptyRangeForbidden is returned by AddRange when begin > end. An
	// empty range (begin == end) is a no-op, not an error.
	ErrEmptyRangeForbidden = errors.New("range begin exceeds range end")

	// ErrOwnershipInconsistent is returned when the per-rank owned sets do
	// not partition the global DoF range, or when a rank is asked for a DoF
	// it does not own.
	ErrOwnershipInconsistent = errors.New("DoF ownership is not a partition of the global range")
)
