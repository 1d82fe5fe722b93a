package kinematics

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfiguration is returned when a chain is built from a non-positive segment
	// count, a non-positive or non-finite segment length, or a non-finite point.
	ErrInvalidConfiguration = errors.New("invalid chain configuration")

	// ErrSolveFailed is returned when a solve would leave the chain in an inconsistent state.
	// The chain keeps its previous joint positions when this happens.
	ErrSolveFailed = errors.New("chain solve failed")
)

// NewSegmentCountError is used when a chain is asked for fewer than one segment.
func NewSegmentCountError(count int) error {
	return errors.Wrapf(ErrInvalidConfiguration, "segment count must be at least 1, got %d", count)
}

// NewSegmentLengthError is used when a segment length is not a positive finite number.
func NewSegmentLengthError(length float64) error {
	return errors.Wrapf(ErrInvalidConfiguration, "segment length must be positive and finite, got %v", length)
}

// NewNonFinitePointError is used when a target, origin or axis has a NaN or infinite component.
func NewNonFinitePointError(name string) error {
	return errors.Wrapf(ErrInvalidConfiguration, "%s must be finite", name)
}
