// Package config defines the on-disk configuration of a chain and how to read it.
package config

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/fabrik/kinematics"
	"go.viam.com/fabrik/logging"
	"go.viam.com/fabrik/spatialmath"
	"go.viam.com/fabrik/utils"
)

// Point is a position or direction in a config file.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewPoint converts a vector to a Point.
func NewPoint(v r3.Vector) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// Vector converts the point to an r3.Vector.
func (p Point) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Chain describes a chain and, optionally, a sequence of targets to drive it through.
type Chain struct {
	SegmentLength float64 `json:"segment_length"`
	SegmentCount  int     `json:"segment_count"`
	Target        Point   `json:"target"`
	Origin        Point   `json:"origin"`
	FallbackAxis  *Point  `json:"fallback_axis,omitempty"`
	LogLevel      string  `json:"log_level,omitempty"`
	Targets       []Point `json:"targets,omitempty"`
}

// Validate ensures all parts of the config are valid. Every problem found is reported.
func (c *Chain) Validate(path string) error {
	var err error
	if c.SegmentCount < 1 {
		err = multierr.Append(err, newFieldError(path, "segment_count", "must be at least 1, got %d", c.SegmentCount))
	}
	if !(c.SegmentLength > 0) || !utils.IsFinite(c.SegmentLength) {
		err = multierr.Append(err, newFieldError(path, "segment_length", "must be positive and finite, got %v", c.SegmentLength))
	}
	if !spatialmath.VectorIsFinite(c.Target.Vector()) {
		err = multierr.Append(err, newFieldError(path, "target", "must be finite"))
	}
	if !spatialmath.VectorIsFinite(c.Origin.Vector()) {
		err = multierr.Append(err, newFieldError(path, "origin", "must be finite"))
	}
	if c.FallbackAxis != nil {
		if v := c.FallbackAxis.Vector(); !spatialmath.VectorIsFinite(v) || v.Norm2() == 0 {
			err = multierr.Append(err, newFieldError(path, "fallback_axis", "must be finite and non-zero"))
		}
	}
	if _, levelErr := logging.LevelFromString(c.LogLevel); levelErr != nil {
		err = multierr.Append(err, newFieldError(path, "log_level", "%v", levelErr))
	}
	for i, target := range c.Targets {
		if !spatialmath.VectorIsFinite(target.Vector()) {
			err = multierr.Append(err, newFieldError(path, "targets", "entry %d must be finite", i))
		}
	}
	return err
}

// ChainOptions returns the chain options described by the config.
func (c *Chain) ChainOptions() []kinematics.ChainOption {
	opts := []kinematics.ChainOption{kinematics.WithOrigin(c.Origin.Vector())}
	if c.FallbackAxis != nil {
		opts = append(opts, kinematics.WithFallbackAxis(c.FallbackAxis.Vector()))
	}
	return opts
}

// TargetSequence returns the targets to drive the chain through: the configured list, or just
// the single target when there is no list.
func (c *Chain) TargetSequence() []r3.Vector {
	if len(c.Targets) == 0 {
		return []r3.Vector{c.Target.Vector()}
	}
	targets := make([]r3.Vector, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, t.Vector())
	}
	return targets
}

func newFieldError(path, field, format string, args ...interface{}) error {
	if path != "" {
		field = path + "." + field
	}
	return errors.Wrapf(errors.Errorf(format, args...), "invalid config field %q", field)
}
