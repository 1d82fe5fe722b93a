package kinematics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/fabrik/spatialmath"
)

const tolerance = 1e-9

// checkInvariants asserts that every segment kept its length, that consecutive segments share a
// joint and that the last segment starts at the anchor.
func checkInvariants(t *testing.T, c *Chain) {
	t.Helper()
	segs := c.Segments()
	for i := range segs {
		test.That(t, segs[i].A().Distance(segs[i].B()), test.ShouldAlmostEqual, segs[i].Length(), tolerance*segs[i].Length())
		if i+1 < len(segs) {
			test.That(t, spatialmath.R3VectorAlmostEqual(segs[i].A(), segs[i+1].B(), tolerance), test.ShouldBeTrue)
		}
	}
	test.That(t, segs[len(segs)-1].A(), test.ShouldResemble, r3.Vector{})
	test.That(t, c.Anchor(), test.ShouldResemble, c.Origin())
}

func TestNewChain(t *testing.T) {
	c, err := NewChain(4, 1.5, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Len(), test.ShouldEqual, 4)
	test.That(t, c.Reach(), test.ShouldAlmostEqual, 6)
	test.That(t, c.SegmentLength(), test.ShouldEqual, 1.5)
	test.That(t, c.Target(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, c.Solves(), test.ShouldEqual, 0)

	for i, s := range c.Segments() {
		test.That(t, s.Index(), test.ShouldEqual, i)
		test.That(t, s.Length(), test.ShouldEqual, 1.5)
		// positions are unset until the first solve
		test.That(t, s.A(), test.ShouldResemble, r3.Vector{})
		test.That(t, s.B(), test.ShouldResemble, r3.Vector{})
		p, ok := s.Parent()
		if i == 3 {
			test.That(t, ok, test.ShouldBeFalse)
		} else {
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, p, test.ShouldEqual, i+1)
		}
	}
}

func TestNewChainInvalidConfiguration(t *testing.T) {
	for _, tc := range []struct {
		name   string
		count  int
		length float64
		target r3.Vector
		opts   []ChainOption
		msg    string
	}{
		{"zero segments", 0, 1, r3.Vector{}, nil, "segment count must be at least 1, got 0"},
		{"negative segments", -2, 1, r3.Vector{}, nil, "segment count must be at least 1, got -2"},
		{"zero length", 3, 0, r3.Vector{}, nil, "segment length must be positive"},
		{"negative length", 3, -1, r3.Vector{}, nil, "segment length must be positive"},
		{"nan length", 3, math.NaN(), r3.Vector{}, nil, "segment length must be positive"},
		{"infinite length", 3, math.Inf(1), r3.Vector{}, nil, "segment length must be positive"},
		{"nan target", 3, 1, r3.Vector{X: math.NaN(), Y: 0, Z: 0}, nil, "target must be finite"},
		{"infinite origin", 3, 1, r3.Vector{}, []ChainOption{WithOrigin(r3.Vector{Z: math.Inf(-1)})}, "origin must be finite"},
		{"zero fallback", 3, 1, r3.Vector{}, []ChainOption{WithFallbackAxis(r3.Vector{})}, "fallback axis"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewChain(tc.count, tc.length, tc.target, tc.opts...)
			test.That(t, c, test.ShouldBeNil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}

	t.Run("every problem is reported", func(t *testing.T) {
		_, err := NewChain(0, -1, r3.Vector{X: math.Inf(1), Y: 0, Z: 0})
		test.That(t, err.Error(), test.ShouldContainSubstring, "segment count")
		test.That(t, err.Error(), test.ShouldContainSubstring, "segment length")
		test.That(t, err.Error(), test.ShouldContainSubstring, "target")
	})
}

func TestSolveStretchesTowardFarTarget(t *testing.T) {
	c, err := NewChain(3, 1.0, r3.Vector{X: 5, Y: 0, Z: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)
	checkInvariants(t, c)

	lines := c.Render()
	test.That(t, lines, test.ShouldHaveLength, 3)
	test.That(t, lines[2], test.ShouldResemble, spatialmath.NewLine(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}))
	test.That(t, lines[1], test.ShouldResemble, spatialmath.NewLine(r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 0, Z: 0}))
	test.That(t, lines[0], test.ShouldResemble, spatialmath.NewLine(r3.Vector{X: 2, Y: 0, Z: 0}, r3.Vector{X: 3, Y: 0, Z: 0}))
	for _, l := range lines {
		test.That(t, l.Length(), test.ShouldAlmostEqual, 1.0, tolerance)
	}

	// the chain cannot reach past its total length
	test.That(t, c.Tip(), test.ShouldResemble, r3.Vector{X: 3, Y: 0, Z: 0})
	test.That(t, NewTipDistanceMetric()(c), test.ShouldAlmostEqual, 2)
	test.That(t, c.Solves(), test.ShouldEqual, 1)
}

func TestSolveSingleSegment(t *testing.T) {
	c, err := NewChain(1, 2.0, r3.Vector{X: 0, Y: 0, Z: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)
	checkInvariants(t, c)
	test.That(t, c.Render(), test.ShouldResemble, []spatialmath.Line{
		spatialmath.NewLine(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 2}),
	})

	// a second solve from the previous state flips the segment around the anchor
	test.That(t, c.SetTarget(r3.Vector{X: 0, Y: 0, Z: -10}), test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)
	checkInvariants(t, c)
	test.That(t, c.Render(), test.ShouldResemble, []spatialmath.Line{
		spatialmath.NewLine(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: -2}),
	})
	test.That(t, c.JointAngles(), test.ShouldBeEmpty)
}

func TestSolveReachableTarget(t *testing.T) {
	c, err := NewChain(4, 1, r3.Vector{X: 0, Y: 4, Z: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)

	// one sweep per solve, so a reachable target is approached over several solves
	test.That(t, c.SetTarget(r3.Vector{X: 2, Y: 1, Z: 0}), test.ShouldBeNil)
	prev := math.Inf(1)
	for i := 0; i < 20; i++ {
		test.That(t, c.Solve(), test.ShouldBeNil)
		checkInvariants(t, c)
		dist := NewTipDistanceMetric()(c)
		test.That(t, dist, test.ShouldBeLessThanOrEqualTo, prev+tolerance)
		prev = dist
	}
	test.That(t, prev, test.ShouldBeLessThan, 1e-6)
	test.That(t, c.Solves(), test.ShouldEqual, 21)
}

func TestSolveInvariantsRandomTargets(t *testing.T) {
	//nolint:gosec
	rnd := rand.New(rand.NewSource(1))
	origin := r3.Vector{X: 10, Y: -4, Z: 2.5}
	c, err := NewChain(7, 0.75, origin, WithOrigin(origin))
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 500; i++ {
		target := r3.Vector{X: rnd.Float64()*20 - 10, Y: rnd.Float64()*20 - 10, Z: rnd.Float64()*20 - 10}.Add(origin)
		test.That(t, c.SetTarget(target), test.ShouldBeNil)
		test.That(t, c.Solve(), test.ShouldBeNil)
		checkInvariants(t, c)
		test.That(t, NewLengthResidualMetric()(c), test.ShouldBeLessThan, tolerance)
		test.That(t, NewContinuityMetric()(c), test.ShouldBeLessThan, tolerance)
		test.That(t, c.Render(), test.ShouldHaveLength, 7)
	}
}

func TestSolveDegenerateTarget(t *testing.T) {
	t.Run("target on a fresh joint", func(t *testing.T) {
		c, err := NewChain(3, 1, r3.Vector{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.Solve(), test.ShouldBeNil)
		checkInvariants(t, c)
		for _, l := range c.Render() {
			test.That(t, spatialmath.VectorIsFinite(l.Start), test.ShouldBeTrue)
			test.That(t, spatialmath.VectorIsFinite(l.End), test.ShouldBeTrue)
		}
		test.That(t, c.Render()[2], test.ShouldResemble, spatialmath.NewLine(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0}))
	})

	t.Run("configured fallback axis", func(t *testing.T) {
		c, err := NewChain(1, 1, r3.Vector{}, WithFallbackAxis(r3.Vector{X: 0, Y: 3, Z: 0}))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.Solve(), test.ShouldBeNil)
		test.That(t, c.Render()[0], test.ShouldResemble, spatialmath.NewLine(r3.Vector{}, r3.Vector{X: 0, Y: 1, Z: 0}))
	})

	t.Run("target on the inner endpoint keeps the previous direction", func(t *testing.T) {
		c, err := NewChain(2, 1, r3.Vector{X: 0, Y: 0, Z: 5})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.Solve(), test.ShouldBeNil)
		inner := c.Segments()[0].A()
		test.That(t, inner, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})

		test.That(t, c.SetTarget(inner), test.ShouldBeNil)
		test.That(t, c.Solve(), test.ShouldBeNil)
		checkInvariants(t, c)
		first := c.Render()

		c2, err := NewChain(2, 1, r3.Vector{X: 0, Y: 0, Z: 5})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c2.Solve(), test.ShouldBeNil)
		test.That(t, c2.SetTarget(inner), test.ShouldBeNil)
		test.That(t, c2.Solve(), test.ShouldBeNil)
		test.That(t, c2.Render(), test.ShouldResemble, first)
	})
}

func TestSolveIsDeterministic(t *testing.T) {
	targets := []r3.Vector{{X: 3, Y: 1, Z: 0}, {X: -2, Y: 4, Z: 1}, {X: 0, Y: 0, Z: 0}, {X: 0.5, Y: -7, Z: 2}}
	run := func() []spatialmath.Line {
		c, err := NewChain(5, 1.25, targets[0])
		test.That(t, err, test.ShouldBeNil)
		for _, target := range targets {
			test.That(t, c.SetTarget(target), test.ShouldBeNil)
			test.That(t, c.Solve(), test.ShouldBeNil)
		}
		return c.Render()
	}
	first := run()
	for i := 0; i < 3; i++ {
		test.That(t, run(), test.ShouldResemble, first)
	}
}

func TestSolveIsAtomic(t *testing.T) {
	// segments this long overflow once two of them line up away from the anchor
	origin := r3.Vector{X: 1.7e308, Y: 0, Z: 0}
	c, err := NewChain(2, 1e308, origin, WithOrigin(origin))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)
	before := c.Render()
	segsBefore := c.Segments()

	test.That(t, c.SetTarget(r3.Vector{}), test.ShouldBeNil)
	err = c.Solve()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrSolveFailed), test.ShouldBeTrue)
	test.That(t, c.Render(), test.ShouldResemble, before)
	test.That(t, c.Segments(), test.ShouldResemble, segsBefore)
	test.That(t, c.Solves(), test.ShouldEqual, 1)
}

func TestVerifyDetachedSegments(t *testing.T) {
	c, err := NewChain(2, 1, r3.Vector{X: 0, Y: 3, Z: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)
	test.That(t, verify(c.Segments()), test.ShouldBeNil)

	detached := c.Segments()
	detached[0].a = detached[0].a.Add(r3.Vector{X: 0.5})
	detached[0].MirrorOuterEndpoint()
	err = verify(detached)
	test.That(t, errors.Is(err, ErrSolveFailed), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "segment 0 is detached")

	lifted := c.Segments()
	lifted[1].a = r3.Vector{Z: 1}
	lifted[1].MirrorOuterEndpoint()
	lifted[0].a = lifted[1].b
	lifted[0].MirrorOuterEndpoint()
	err = verify(lifted)
	test.That(t, err.Error(), test.ShouldContainSubstring, "segment 1 is detached")
}

func TestSetTargetRejectsNonFinite(t *testing.T) {
	c, err := NewChain(2, 1, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, err, test.ShouldBeNil)
	err = c.SetTarget(r3.Vector{X: 0, Y: math.NaN(), Z: 0})
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	test.That(t, c.Target(), test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 0})
}

func TestRenderIsPure(t *testing.T) {
	c, err := NewChain(3, 2, r3.Vector{X: 1, Y: 4, Z: 0}, WithOrigin(r3.Vector{X: 0, Y: 0, Z: 1}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)

	first := c.Render()
	second := c.Render()
	test.That(t, second, test.ShouldResemble, first)
	test.That(t, first[2].Start, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})
	for i, s := range c.Segments() {
		test.That(t, first[i], test.ShouldResemble, s.Line(c.Origin()))
	}
}

func TestJointAngles(t *testing.T) {
	c, err := NewChain(2, 1, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	c.segments[1].dir = r3.Vector{X: 1, Y: 0, Z: 0}
	c.segments[0].dir = r3.Vector{X: 0, Y: 1, Z: 0}
	angles := c.JointAngles()
	test.That(t, angles, test.ShouldHaveLength, 1)
	test.That(t, angles[0], test.ShouldAlmostEqual, math.Pi/2)

	c.segments[0].dir = r3.Vector{X: 0, Y: -1, Z: 0}
	test.That(t, c.JointAngles()[0], test.ShouldAlmostEqual, -math.Pi/2)
}

func TestChainString(t *testing.T) {
	c, err := NewChain(2, 1, r3.Vector{X: 5, Y: 0, Z: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Solve(), test.ShouldBeNil)

	out := c.String()
	test.That(t, out, test.ShouldContainSubstring, "PARENT")
	test.That(t, out, test.ShouldContainSubstring, "anchor")
	test.That(t, out, test.ShouldContainSubstring, "(1, 0, 0)")
	test.That(t, out, test.ShouldContainSubstring, "(2, 0, 0)")
	test.That(t, out, test.ShouldContainSubstring, "1.0000")
	test.That(t, out, test.ShouldContainSubstring, "BEND")
	test.That(t, out, test.ShouldContainSubstring, "0.00")

	// a quarter turn at the only joint
	c.segments[1].dir = r3.Vector{X: 1, Y: 0, Z: 0}
	c.segments[0].dir = r3.Vector{X: 0, Y: 1, Z: 0}
	test.That(t, c.String(), test.ShouldContainSubstring, "90.00")
	c.segments[0].dir = r3.Vector{X: 0, Y: -1, Z: 0}
	test.That(t, c.String(), test.ShouldContainSubstring, "-90.00")
}

func BenchmarkSolve(b *testing.B) {
	c, err := NewChain(64, 0.5, r3.Vector{X: 10, Y: 10, Z: 10})
	test.That(b, err, test.ShouldBeNil)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if err := c.Solve(); err != nil {
			b.Fatal(err)
		}
	}
}
