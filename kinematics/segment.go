package kinematics

import (
	"github.com/golang/geo/r3"

	"go.viam.com/fabrik/spatialmath"
)

// noParent marks the segment pinned to the anchor.
const noParent = -1

// Segment is one rigid link of a Chain. Its inner endpoint A faces the anchor and its outer
// endpoint B faces the free end of the chain. Positions are in chain coordinates, where the
// anchor is the zero vector.
type Segment struct {
	index  int
	length float64
	// parent is the index of the segment one step closer to the anchor, or noParent.
	parent int

	a   r3.Vector
	b   r3.Vector
	dir r3.Vector
	// fallback is used in place of dir when no direction has been established yet.
	fallback r3.Vector
}

func newSegment(index int, length float64, parent int, fallback r3.Vector) Segment {
	return Segment{
		index:    index,
		length:   length,
		parent:   parent,
		fallback: fallback,
	}
}

// Index returns the position of the segment in its chain. Index 0 is the free end.
func (s *Segment) Index() int {
	return s.index
}

// Length returns the fixed distance between A and B.
func (s *Segment) Length() float64 {
	return s.length
}

// A returns the inner endpoint.
func (s *Segment) A() r3.Vector {
	return s.a
}

// B returns the outer endpoint.
func (s *Segment) B() r3.Vector {
	return s.b
}

// Direction returns the unit vector from A to B, or the zero vector before the first solve.
func (s *Segment) Direction() r3.Vector {
	return s.dir
}

// Parent returns the index of the segment one step closer to the anchor. The second return
// value is false for the anchor segment.
func (s *Segment) Parent() (int, bool) {
	if s.parent == noParent {
		return 0, false
	}
	return s.parent, true
}

// ReachToward moves A so that it lies exactly one segment length short of target, on the line
// from the old A through target. The anchor segment is left alone.
func (s *Segment) ReachToward(target r3.Vector) {
	if s.parent == noParent {
		return
	}
	s.aim(s.a, target)
	s.a = target.Sub(s.dir.Mul(s.length))
}

// MirrorOuterEndpoint places B one segment length from A along the current direction.
func (s *Segment) MirrorOuterEndpoint() {
	s.b = s.a.Add(s.dir.Mul(s.length))
}

// Pin fixes A at anchor, points the segment at toward and recomputes B.
func (s *Segment) Pin(anchor, toward r3.Vector) {
	s.a = anchor
	s.aim(anchor, toward)
	s.MirrorOuterEndpoint()
}

// Line returns the segment from A to B offset by origin.
func (s *Segment) Line(origin r3.Vector) spatialmath.Line {
	return spatialmath.NewLine(s.a.Add(origin), s.b.Add(origin))
}

// aim sets the direction from `from` to `to`. If the two coincide the previous direction is
// kept, and failing that the segment's fallback axis is used.
func (s *Segment) aim(from, to r3.Vector) {
	prev := s.dir
	if prev.Norm2() == 0 {
		prev = s.fallback
	}
	s.dir = spatialmath.Direction(from, to, prev)
}
