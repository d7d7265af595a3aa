package perception

import (
	"math"

	"github.com/golang/geo/r2"
)

// Pose is the rover state for one frame, as reported by telemetry.
//
// Yaw, Pitch and Roll are in degrees. Pitch and roll are expected to sit near
// 0 (or 360); values outside the leveling band lower confidence but are not
// errors.
type Pose struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Yaw      float64 `yaml:"yaw"`
	Pitch    float64 `yaml:"pitch"`
	Roll     float64 `yaml:"roll"`
	Velocity float64 `yaml:"velocity"`
}

// Position returns the world position of the rover.
func (p Pose) Position() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// NavigationHints are the polar positions of navigable pixels in the rover
// frame. They are replaced on every frame.
type NavigationHints struct {
	// Distances are in rectified pixels from the rover.
	Distances []float64
	// Angles are in radians from the forward axis, positive to the left.
	Angles []float64
}

// Len returns the number of navigable pixels.
func (h NavigationHints) Len() int {
	return len(h.Angles)
}

// MeanAngle returns the average steering angle in degrees, or 0 when there
// are no navigable pixels.
func (h NavigationHints) MeanAngle() float64 {
	if len(h.Angles) == 0 {
		return 0
	}
	var sum float64
	for _, a := range h.Angles {
		sum += a
	}
	return sum / float64(len(h.Angles)) * 180 / math.Pi
}

// MeanDistance returns the average distance, or 0 when there are no
// navigable pixels.
func (h NavigationHints) MeanDistance() float64 {
	if len(h.Distances) == 0 {
		return 0
	}
	var sum float64
	for _, d := range h.Distances {
		sum += d
	}
	return sum / float64(len(h.Distances))
}
