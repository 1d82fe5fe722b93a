// Package rimage draws solved chains to images.
package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"

	"go.viam.com/fabrik/spatialmath"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// Projection selects the plane a chain is drawn onto.
type Projection int

const (
	// ProjectXY looks down the Z axis.
	ProjectXY Projection = iota
	// ProjectXZ looks along the Y axis.
	ProjectXZ
	// ProjectYZ looks along the X axis.
	ProjectYZ
)

// ProjectionFromString parses "xy", "xz" or "yz".
func ProjectionFromString(s string) (Projection, error) {
	switch s {
	case "xy", "":
		return ProjectXY, nil
	case "xz":
		return ProjectXZ, nil
	case "yz":
		return ProjectYZ, nil
	default:
		return ProjectXY, errors.Errorf("unknown projection %q, expected one of xy, xz, yz", s)
	}
}

func (p Projection) project(v r3.Vector) (float64, float64) {
	switch p {
	case ProjectXZ:
		return v.X, v.Z
	case ProjectYZ:
		return v.Y, v.Z
	case ProjectXY:
		fallthrough
	default:
		return v.X, v.Y
	}
}

var (
	segmentColor = color.NRGBA{30, 90, 200, 255}
	jointColor   = color.NRGBA{20, 20, 20, 255}
	anchorColor  = color.NRGBA{0, 150, 60, 255}
	targetColor  = color.NRGBA{220, 40, 40, 255}
)

// DrawChain draws lines, in the order a chain renders them, together with the target onto a
// width by height image. The view is scaled to fit every endpoint and the target with a margin,
// and the anchor (the start of the last line) is highlighted.
func DrawChain(lines []spatialmath.Line, target r3.Vector, width, height int, proj Projection, label string) (image.Image, error) {
	if len(lines) == 0 {
		return nil, errors.New("no lines to draw")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image size %dx%d", width, height)
	}

	minX, minY := proj.project(target)
	maxX, maxY := minX, minY
	grow := func(v r3.Vector) {
		x, y := proj.project(v)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, l := range lines {
		if !spatialmath.VectorIsFinite(l.Start) || !spatialmath.VectorIsFinite(l.End) {
			return nil, errors.New("cannot draw a non-finite line")
		}
		grow(l.Start)
		grow(l.End)
	}

	const margin = 0.1
	spanX := math.Max(maxX-minX, 1e-9)
	spanY := math.Max(maxY-minY, 1e-9)
	scale := math.Min(float64(width)*(1-2*margin)/spanX, float64(height)*(1-2*margin)/spanY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	toPixel := func(v r3.Vector) (float64, float64) {
		x, y := proj.project(v)
		// image Y grows downward
		return float64(width)/2 + (x-cx)*scale, float64(height)/2 - (y-cy)*scale
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(segmentColor)
	dc.SetLineWidth(3)
	for _, l := range lines {
		x0, y0 := toPixel(l.Start)
		x1, y1 := toPixel(l.End)
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	dc.SetColor(jointColor)
	for _, l := range lines {
		x, y := toPixel(l.End)
		dc.DrawCircle(x, y, 3)
		dc.Fill()
	}

	ax, ay := toPixel(lines[len(lines)-1].Start)
	dc.SetColor(anchorColor)
	dc.DrawRectangle(ax-5, ay-5, 10, 10)
	dc.Fill()

	tx, ty := toPixel(target)
	dc.SetColor(targetColor)
	dc.SetLineWidth(2)
	dc.DrawCircle(tx, ty, 6)
	dc.Stroke()

	if label != "" {
		DrawString(dc, label, image.Point{X: 8, Y: 8}, jointColor, 12)
	}
	return dc.Image(), nil
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	return errors.Wrapf(gg.SavePNG(path, img), "cannot write %q", path)
}
