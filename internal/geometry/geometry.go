// Package geometry converts classified pixels between the rectified image, the
// rover frame and the world map grid.
//
// The rover frame has its origin at the bottom-centre pixel of the rectified image:
// X points forward (up the image) and Y points to the rover's left. Angles are
// measured from the forward axis, positive to the left.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/rover-perception/internal/imaging"
)

// ErrInvalidTransform is returned for a non-positive map size or scale.
var ErrInvalidTransform = errors.New("invalid world transform")

// ImageToRover returns the rover-frame position of every set cell in m.
//
// Forward distance is the row offset from the bottom row of the image; lateral
// offset is the column offset from the horizontal centre, negated so that
// positive is to the rover's left. Points are in row-major mask order.
func ImageToRover(m *imaging.Mask) []r2.Point {
	cells := m.Nonzero()
	pts := make([]r2.Point, len(cells))
	bottom := float64(m.Height - 1)
	half := float64(m.Width) / 2
	for i, c := range cells {
		pts[i] = r2.Point{
			X: bottom - float64(c.Y),
			Y: half - float64(c.X),
		}
	}
	return pts
}

// ToPolar converts rover-frame points to distances and angles (radians).
// Angles come from the four-quadrant arctangent of (lateral, forward).
func ToPolar(pts []r2.Point) (dist, angle []float64) {
	dist = make([]float64, len(pts))
	angle = make([]float64, len(pts))
	for i, p := range pts {
		dist[i] = p.Norm()
		angle[i] = math.Atan2(p.Y, p.X)
	}
	return dist, angle
}

// Rotate turns p counter-clockwise by yaw degrees.
func Rotate(p r2.Point, yaw float64) r2.Point {
	sin, cos := math.Sincos(yaw * math.Pi / 180)
	return r2.Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// Translate scales p down by scale and offsets it by pos.
func Translate(p, pos r2.Point, scale float64) r2.Point {
	return p.Mul(1 / scale).Add(pos)
}

// WorldTransform maps rover-frame points into world map cells.
type WorldTransform struct {
	mapSize int
	scale   float64
}

// NewWorldTransform validates the map size and the scale. scale is the number
// of rover-frame pixels per world cell and must match the value the map was
// sized with.
func NewWorldTransform(mapSize int, scale float64) (WorldTransform, error) {
	if mapSize <= 0 {
		return WorldTransform{}, fmt.Errorf("%w: map size %d", ErrInvalidTransform, mapSize)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return WorldTransform{}, fmt.Errorf("%w: scale %v", ErrInvalidTransform, scale)
	}
	return WorldTransform{mapSize: mapSize, scale: scale}, nil
}

// MapSize returns the side length of the target map.
func (t WorldTransform) MapSize() int { return t.mapSize }

// Scale returns the rover pixels per world cell.
func (t WorldTransform) Scale() float64 { return t.scale }

// Apply rotates each point by yaw degrees, scales it, translates it by the
// rover position, truncates toward zero and clips both axes into
// [0, mapSize-1]. The result is always a valid map cell (X = world x,
// Y = world y).
func (t WorldTransform) Apply(pts []r2.Point, pos r2.Point, yaw float64) []image.Point {
	cells := make([]image.Point, len(pts))
	for i, p := range pts {
		w := Translate(Rotate(p, yaw), pos, t.scale)
		cells[i] = image.Point{X: t.clip(w.X), Y: t.clip(w.Y)}
	}
	return cells
}

// clip truncates v toward zero and clamps it into the map.
// Truncating before or after clamping gives the same cell, and clamping first
// keeps the integer conversion in range.
func (t WorldTransform) clip(v float64) int {
	hi := float64(t.mapSize - 1)
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > hi:
		return t.mapSize - 1
	}
	return int(v)
}
