package fov

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/rover-perception/internal/imaging"
)

var (
	// ErrInvalidAxis is returned for an Axis other than Rows or Columns.
	ErrInvalidAxis = errors.New("invalid mask axis")
	// ErrInvalidMode is returned for a Mode other than LowPass, HighPass or Band.
	ErrInvalidMode = errors.New("invalid mask mode")
	// ErrInvalidPercent is returned for a percentage outside [0, 100].
	ErrInvalidPercent = errors.New("invalid mask percent")
)

// Axis selects the image dimension an AxisMask restricts.
type Axis int

const (
	// Rows restricts the forward/back extent (image Y).
	Rows Axis = iota + 1
	// Columns restricts the left/right extent (image X).
	Columns
)

func (a Axis) String() string {
	switch a {
	case Rows:
		return "rows"
	case Columns:
		return "columns"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Mode selects which part of the axis an AxisMask keeps.
type Mode int

const (
	// LowPass keeps the part of the axis from percent% to the end.
	LowPass Mode = iota + 1
	// HighPass keeps the part of the axis from the start up to (100-percent)%.
	HighPass
	// Band keeps a centred window percent% wide.
	Band
)

func (m Mode) String() string {
	switch m {
	case LowPass:
		return "low"
	case HighPass:
		return "high"
	case Band:
		return "band"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// AxisMask is a validated one-axis restriction. The zero value is not usable;
// build one with NewAxisMask.
type AxisMask struct {
	axis    Axis
	mode    Mode
	percent float64
}

// NewAxisMask validates its arguments and returns the restriction.
//
// Returns ErrInvalidAxis, ErrInvalidMode or ErrInvalidPercent (wrapped) so that
// a bad combination is rejected before any frame is processed.
func NewAxisMask(axis Axis, mode Mode, percent float64) (AxisMask, error) {
	if axis != Rows && axis != Columns {
		return AxisMask{}, fmt.Errorf("%w: %v", ErrInvalidAxis, axis)
	}
	if mode != LowPass && mode != HighPass && mode != Band {
		return AxisMask{}, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return AxisMask{}, fmt.Errorf("%w: %v", ErrInvalidPercent, percent)
	}
	return AxisMask{axis: axis, mode: mode, percent: percent}, nil
}

// MustAxisMask is like NewAxisMask but panics on error. It is meant for
// package-level tables built from constants.
func MustAxisMask(axis Axis, mode Mode, percent float64) AxisMask {
	a, err := NewAxisMask(axis, mode, percent)
	if err != nil {
		panic(err)
	}
	return a
}

// Axis returns the restricted axis.
func (a AxisMask) Axis() Axis { return a.axis }

// Mode returns the restriction mode.
func (a AxisMask) Mode() Mode { return a.mode }

// Percent returns the restriction percentage.
func (a AxisMask) Percent() float64 { return a.percent }

// Window returns the half-open index range [start, end) kept along an axis of
// length dim. The range is clamped into [0, dim].
func (a AxisMask) Window(dim int) (start, end int) {
	d := float64(dim)
	switch a.mode {
	case LowPass:
		start, end = round(d*a.percent/100), dim
	case HighPass:
		start, end = 0, round(d*(100-a.percent)/100)
	case Band:
		w := float64(round(d * a.percent / 100))
		start, end = round(d/2-w/2), round(d/2+w/2)
	}
	return clampIndex(start, dim), clampIndex(end, dim)
}

// Build returns a mask with the shape of reference, set to 1 inside the window
// along the axis. Only the shape of reference is used.
func (a AxisMask) Build(reference *imaging.Mask) *imaging.Mask {
	m := imaging.NewMask(reference.Width, reference.Height)
	switch a.axis {
	case Rows:
		start, end := a.Window(m.Height)
		for y := start; y < end; y++ {
			row := m.Pix[y*m.Width : (y+1)*m.Width]
			for x := range row {
				row[x] = 1
			}
		}
	case Columns:
		start, end := a.Window(m.Width)
		for y := 0; y < m.Height; y++ {
			row := m.Pix[y*m.Width : (y+1)*m.Width]
			for x := start; x < end; x++ {
				row[x] = 1
			}
		}
	}
	return m
}

func (a AxisMask) String() string {
	return fmt.Sprintf("%v/%v/%g%%", a.axis, a.mode, a.percent)
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampIndex(i, dim int) int {
	if i < 0 {
		return 0
	}
	if i > dim {
		return dim
	}
	return i
}
