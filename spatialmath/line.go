package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Line is a straight segment between two points in space.
type Line struct {
	Start r3.Vector
	End   r3.Vector
}

// NewLine returns the line running from start to end.
func NewLine(start, end r3.Vector) Line {
	return Line{Start: start, End: end}
}

// Vector returns the displacement from the start of the line to its end.
func (l Line) Vector() r3.Vector {
	return l.End.Sub(l.Start)
}

// Length returns the distance between the two endpoints.
func (l Line) Length() float64 {
	return l.Vector().Norm()
}

func (l Line) String() string {
	return fmt.Sprintf("%s -> %s", FormatVector(l.Start), FormatVector(l.End))
}
