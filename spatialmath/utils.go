package spatialmath

import (
	"fmt"
	"math"
	"strconv"

	"github.com/golang/geo/r3"

	"go.viam.com/fabrik/utils"
)

// XAxis is the unit vector along X, used wherever a direction has to be made up.
var XAxis = r3.Vector{X: 1}

// R3VectorAlmostEqual compares two r3.Vectors component-wise and returns true if every
// component differs by at most epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}

// VectorIsFinite returns false if any component of v is NaN or infinite.
func VectorIsFinite(v r3.Vector) bool {
	return utils.IsFinite(v.X) && utils.IsFinite(v.Y) && utils.IsFinite(v.Z)
}

// Direction returns the unit vector pointing from `from` towards `to`. When the two points
// coincide the direction is undefined, so the normalized fallback is returned instead. A zero
// fallback yields XAxis.
func Direction(from, to, fallback r3.Vector) r3.Vector {
	if d, ok := unit(to.Sub(from)); ok {
		return d
	}
	if d, ok := unit(fallback); ok {
		return d
	}
	return XAxis
}

// unit normalizes v, rescaling first when its norm overflows. It fails for zero and
// non-finite vectors.
func unit(v r3.Vector) (r3.Vector, bool) {
	if !VectorIsFinite(v) {
		return r3.Vector{}, false
	}
	n := v.Norm()
	if n == 0 {
		return r3.Vector{}, false
	}
	if math.IsInf(n, 1) {
		v = div(v, math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z))))
		n = v.Norm()
	}
	return div(v, n), true
}

// div divides component-wise, which is exact for a component equal to the divisor where
// multiplying by the reciprocal is not.
func div(v r3.Vector, f float64) r3.Vector {
	return r3.Vector{X: v.X / f, Y: v.Y / f, Z: v.Z / f}
}

// SignedAngleXY returns the angle in radians between x and y. The angle is negative when y lies
// clockwise of x as seen looking down the Z axis.
func SignedAngleXY(x, y r3.Vector) float64 {
	angle := float64(x.Angle(y))
	// x rotated a quarter turn counter-clockwise about Z
	ortho := r3.Vector{X: -x.Y, Y: x.X, Z: x.Z}
	if ortho.Dot(y) < 0 {
		return -angle
	}
	return angle
}

// FormatVector prints a vector compactly, e.g. "(1, 0, -2.5)".
func FormatVector(v r3.Vector) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}

func formatFloat(f float64) string {
	if f == 0 {
		// avoid printing -0
		return "0"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}
