// Package kinematics solves an open chain of rigid segments toward a target point.
//
// The chain is pinned at an anchor and solved with exactly one forward and one backward
// reaching sweep per call to Solve, in the style of FABRIK. It does not iterate to a tolerance:
// callers that move the target every frame see the chain settle over successive solves.
package kinematics

import (
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/fabrik/spatialmath"
	"go.viam.com/fabrik/utils"
)

// lengthTolerance is the relative error allowed between a segment's length and the distance
// between its endpoints.
const lengthTolerance = 1e-9

// Chain owns an ordered sequence of segments and the target its free end seeks. Segment 0 is the
// free end; the last segment is pinned to the anchor, which sits at the chain's world origin.
type Chain struct {
	segments []Segment
	target   r3.Vector
	origin   r3.Vector
	fallback r3.Vector
	solves   int
}

type chainOptions struct {
	origin   r3.Vector
	fallback r3.Vector
}

// ChainOption configures optional parameters of a Chain.
type ChainOption func(*chainOptions)

// WithOrigin sets the world position of the anchor. Targets are given in world coordinates and
// rendered lines are offset by the origin.
func WithOrigin(origin r3.Vector) ChainOption {
	return func(o *chainOptions) {
		o.origin = origin
	}
}

// WithFallbackAxis sets the direction a segment takes when its direction is undefined and it
// has never had one, e.g. when the target sits exactly on a freshly built joint.
func WithFallbackAxis(axis r3.Vector) ChainOption {
	return func(o *chainOptions) {
		o.fallback = axis
	}
}

// NewChain builds a chain of count segments of the given length seeking target. Joint positions
// are zero until the first Solve.
func NewChain(count int, length float64, target r3.Vector, opts ...ChainOption) (*Chain, error) {
	o := chainOptions{fallback: spatialmath.XAxis}
	for _, opt := range opts {
		opt(&o)
	}

	var err error
	if count < 1 {
		err = multierr.Append(err, NewSegmentCountError(count))
	}
	if !(length > 0) || !utils.IsFinite(length) {
		err = multierr.Append(err, NewSegmentLengthError(length))
	}
	if !spatialmath.VectorIsFinite(target) {
		err = multierr.Append(err, NewNonFinitePointError("target"))
	}
	if !spatialmath.VectorIsFinite(o.origin) {
		err = multierr.Append(err, NewNonFinitePointError("origin"))
	}
	if !spatialmath.VectorIsFinite(o.fallback) || o.fallback.Norm2() == 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfiguration, "fallback axis must be finite and non-zero"))
	}
	if err != nil {
		return nil, err
	}

	fallback := o.fallback.Normalize()
	segments := make([]Segment, count)
	for i := range segments {
		parent := i + 1
		if i == count-1 {
			parent = noParent
		}
		segments[i] = newSegment(i, length, parent, fallback)
	}
	return &Chain{
		segments: segments,
		target:   target,
		origin:   o.origin,
		fallback: fallback,
	}, nil
}

// Len returns the number of segments.
func (c *Chain) Len() int {
	return len(c.segments)
}

// SegmentLength returns the length shared by every segment.
func (c *Chain) SegmentLength() float64 {
	return c.segments[0].length
}

// Segments returns a copy of the chain's segments in index order.
func (c *Chain) Segments() []Segment {
	return slices.Clone(c.segments)
}

// Target returns the world-space point the free end seeks.
func (c *Chain) Target() r3.Vector {
	return c.target
}

// SetTarget changes the point the free end seeks. The chain moves on the next Solve.
func (c *Chain) SetTarget(target r3.Vector) error {
	if !spatialmath.VectorIsFinite(target) {
		return NewNonFinitePointError("target")
	}
	c.target = target
	return nil
}

// Origin returns the world position of the anchor.
func (c *Chain) Origin() r3.Vector {
	return c.origin
}

// Anchor returns the world position of the last segment's inner endpoint.
func (c *Chain) Anchor() r3.Vector {
	return c.segments[len(c.segments)-1].a.Add(c.origin)
}

// Tip returns the world position of the free end.
func (c *Chain) Tip() r3.Vector {
	return c.segments[0].b.Add(c.origin)
}

// Reach returns the total length of the chain.
func (c *Chain) Reach() float64 {
	return float64(len(c.segments)) * c.SegmentLength()
}

// Solves returns how many solves have been committed since the chain was built.
func (c *Chain) Solves() int {
	return c.solves
}

// Solve runs one forward and one backward sweep. On success every segment keeps its length,
// consecutive segments share a joint and the last segment starts at the anchor. If the result
// would violate any of that, ErrSolveFailed is returned and the chain is left as it was.
func (c *Chain) Solve() error {
	scratch := slices.Clone(c.segments)
	sweep(scratch, c.target.Sub(c.origin))
	if err := verify(scratch); err != nil {
		return err
	}
	c.segments = scratch
	c.solves++
	return nil
}

// sweep performs the two passes on segs in place. target and the anchor are in chain coordinates.
func sweep(segs []Segment, target r3.Vector) {
	n := len(segs)

	// forward: pull each inner endpoint toward its predecessor, starting from the target
	for i := range segs {
		toward := target
		if i > 0 {
			toward = segs[i-1].a
		}
		segs[i].ReachToward(toward)
		segs[i].MirrorOuterEndpoint()
	}

	// the last segment is fixed to the anchor regardless of the forward pass
	toward := target
	if n > 1 {
		toward = segs[n-2].a
	}
	segs[n-1].Pin(r3.Vector{}, toward)

	// backward: hang every other segment off the outer end of its parent
	for i := n - 2; i >= 0; i-- {
		segs[i].a = segs[i+1].b
		segs[i].MirrorOuterEndpoint()
	}
}

func verify(segs []Segment) error {
	for i := range segs {
		s := &segs[i]
		if !spatialmath.VectorIsFinite(s.a) || !spatialmath.VectorIsFinite(s.b) {
			return errors.Wrapf(ErrSolveFailed, "segment %d has a non-finite endpoint", i)
		}
		if got := s.a.Distance(s.b); !utils.Float64RelativeEqual(got, s.length, lengthTolerance) {
			return errors.Wrapf(ErrSolveFailed, "segment %d has length %v, expected %v", i, got, s.length)
		}
		joint := r3.Vector{}
		if i+1 < len(segs) {
			joint = segs[i+1].b
		}
		if !spatialmath.R3VectorAlmostEqual(s.a, joint, lengthTolerance*math.Max(1, s.length)) {
			return errors.Wrapf(ErrSolveFailed, "segment %d is detached from %s", i, spatialmath.FormatVector(joint))
		}
	}
	return nil
}

// Render returns one line per segment, in index order, from its inner to its outer endpoint in
// world coordinates.
func (c *Chain) Render() []spatialmath.Line {
	return lo.Map(c.segments, func(s Segment, _ int) spatialmath.Line {
		return s.Line(c.origin)
	})
}

// JointAngles returns, for each joint between two segments, the signed angle in radians in the
// XY plane from the direction of the anchor-side segment to the direction of the free-side one.
// Element i is the bend between segment i+1 and segment i.
func (c *Chain) JointAngles() []float64 {
	angles := make([]float64, 0, len(c.segments)-1)
	for i := 0; i+1 < len(c.segments); i++ {
		angles = append(angles, spatialmath.SignedAngleXY(c.segments[i+1].dir, c.segments[i].dir))
	}
	return angles
}

// String prints out a table of each segment in the chain, with columns of index, parent, both
// endpoints in world coordinates, length, and the bend in degrees at the segment's inner joint.
func (c *Chain) String() string {
	bends := c.JointAngles()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Parent", "Inner", "Outer", "Length", "Bend"})
	for i := range c.segments {
		s := &c.segments[i]
		parent := "anchor"
		bend := "-"
		if p, ok := s.Parent(); ok {
			parent = fmt.Sprintf("%d", p)
			bend = fmt.Sprintf("%.2f", utils.RadToDeg(bends[i]))
		}
		l := s.Line(c.origin)
		t.AppendRow(table.Row{
			i,
			parent,
			spatialmath.FormatVector(l.Start),
			spatialmath.FormatVector(l.End),
			fmt.Sprintf("%.4f", l.Length()),
			bend,
		})
	}
	t.AppendFooter(table.Row{"", "", "tip", spatialmath.FormatVector(c.Tip()), fmt.Sprintf("reach %.4f", c.Reach()), ""})
	return t.Render()
}

// distanceToTarget is the world distance between the free end and the target.
func (c *Chain) distanceToTarget() float64 {
	d := c.Tip().Distance(c.target)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
