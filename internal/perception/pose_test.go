package perception

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func TestPose_Position(t *testing.T) {
	p := Pose{X: 12.5, Y: 80, Yaw: 45}
	if got := p.Position(); got != (r2.Point{X: 12.5, Y: 80}) {
		t.Errorf("Position: got %v", got)
	}
}

func TestNavigationHints(t *testing.T) {
	var empty NavigationHints
	if empty.Len() != 0 || empty.MeanAngle() != 0 || empty.MeanDistance() != 0 {
		t.Error("empty hints should report zeros")
	}

	h := NavigationHints{
		Distances: []float64{10, 20, 30},
		Angles:    []float64{0, math.Pi / 4, math.Pi / 2},
	}
	if h.Len() != 3 {
		t.Errorf("Len: got %d, want 3", h.Len())
	}
	if got := h.MeanAngle(); math.Abs(got-45) > 1e-9 {
		t.Errorf("MeanAngle: got %v, want 45", got)
	}
	if got := h.MeanDistance(); got != 20 {
		t.Errorf("MeanDistance: got %v, want 20", got)
	}
}
