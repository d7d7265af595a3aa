// Package report renders per-frame diagnostics for offline review of a replay.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/rover-perception/internal/perception"
)

// AngleBins is the number of histogram bins across the steering fan.
const AngleBins = 36

// SteeringHistogram builds a histogram of the navigation angles in degrees,
// positive to the left. An empty hint set yields a plot with axes only.
func SteeringHistogram(hints perception.NavigationHints, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Steering angle (deg, left positive)"
	p.Y.Label.Text = "Navigable pixels"
	p.X.Min = -90
	p.X.Max = 90

	if hints.Len() == 0 {
		return p, nil
	}

	vals := make(plotter.Values, hints.Len())
	for i, a := range hints.Angles {
		vals[i] = a * 180 / math.Pi
	}
	h, err := plotter.NewHist(vals, AngleBins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	mean := hints.MeanAngle()
	line, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: maxBin(h)}})
	if err != nil {
		return nil, fmt.Errorf("failed to build mean line: %w", err)
	}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("mean %.1f°", mean), line)
	return p, nil
}

// SaveSteeringHistogram writes SteeringHistogram to path. The image format
// follows the file extension.
func SaveSteeringHistogram(hints perception.NavigationHints, title, path string) error {
	p, err := SteeringHistogram(hints, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}

func maxBin(h *plotter.Histogram) float64 {
	var m float64
	for _, b := range h.Bins {
		m = math.Max(m, b.Weight)
	}
	return m
}
