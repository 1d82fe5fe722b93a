package kinematics

import (
	"math"

	"github.com/samber/lo"
)

// ChainMetric scores the current state of a chain. Lower is better.
type ChainMetric func(*Chain) float64

type combinableChainMetric struct {
	metrics []ChainMetric
}

func (m *combinableChainMetric) combinedDist(c *Chain) float64 {
	dist := 0.
	for _, metric := range m.metrics {
		dist += metric(c)
	}
	return dist
}

// CombineMetrics will take a variable number of metrics and return a new metric which sums them.
func CombineMetrics(metrics ...ChainMetric) ChainMetric {
	cm := &combinableChainMetric{metrics: metrics}
	return cm.combinedDist
}

// NewTipDistanceMetric scores a chain by how far its free end is from the target.
func NewTipDistanceMetric() ChainMetric {
	return func(c *Chain) float64 {
		return c.distanceToTarget()
	}
}

// NewLengthResidualMetric scores a chain by the largest difference between a segment's length
// and the distance between its endpoints. A solved chain scores zero up to rounding.
func NewLengthResidualMetric() ChainMetric {
	return func(c *Chain) float64 {
		return lo.Max(lo.Map(c.segments, func(s Segment, _ int) float64 {
			return math.Abs(s.a.Distance(s.b) - s.length)
		}))
	}
}

// NewContinuityMetric scores a chain by the widest gap between the outer endpoint of a segment
// and the inner endpoint of the segment hanging off it.
func NewContinuityMetric() ChainMetric {
	return func(c *Chain) float64 {
		gap := 0.
		for i := 0; i+1 < len(c.segments); i++ {
			gap = math.Max(gap, c.segments[i].a.Distance(c.segments[i+1].b))
		}
		return gap
	}
}
