package imaging

import (
	"errors"
	"fmt"
	"image"
)

// ErrShapeMismatch is returned when two masks with different dimensions are combined.
var ErrShapeMismatch = errors.New("mask shape mismatch")

// Mask is a dense binary grid with the same dimensions as the frame it was
// derived from.
//
// Every element is either 0 or 1. Masks are combined with Mul, which is an
// elementwise product: a cell stays 1 only if it is 1 in every factor.
//
// # Coordinate System
//
// Mask uses the same convention as the rest of this package:
//   - X: column (0 = leftmost)
//   - Y: row (0 = topmost)
//   - Pix is stored row-major, so cell (x, y) lives at Pix[y*Width+x]
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask returns an all-zero mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// NewFilledMask returns an all-one mask of the given size.
func NewFilledMask(width, height int) *Mask {
	m := NewMask(width, height)
	for i := range m.Pix {
		m.Pix[i] = 1
	}
	return m
}

// At reports the value at column x, row y. Out-of-range positions read as 0.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set marks the cell at column x, row y. Out-of-range positions are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	var v uint8
	if on {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// SameShape reports whether m and o have identical dimensions.
func (m *Mask) SameShape(o *Mask) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Mul multiplies o into m in place.
//
// Returns ErrShapeMismatch (wrapped with both shapes) if the masks differ in size;
// m is left untouched in that case.
func (m *Mask) Mul(o *Mask) error {
	if !m.SameShape(o) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, m.Width, m.Height, o.Width, o.Height)
	}
	for i, v := range o.Pix {
		m.Pix[i] &= v
	}
	return nil
}

// Product returns a new mask holding the elementwise product of all given masks.
// At least one mask is required.
func Product(masks ...*Mask) (*Mask, error) {
	if len(masks) == 0 {
		return nil, errors.New("product of zero masks")
	}
	out := masks[0].Clone()
	for _, m := range masks[1:] {
		if err := out.Mul(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Any reports whether at least one cell is set.
func (m *Mask) Any() bool {
	for _, v := range m.Pix {
		if v != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		n += int(v)
	}
	return n
}

// Nonzero returns the positions of all set cells in row-major order.
// X is the column and Y the row. The slice is freshly allocated.
func (m *Mask) Nonzero() []image.Point {
	pts := make([]image.Point, 0, m.Count())
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != 0 {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// Gray renders the mask as a grayscale image with set cells at 255.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		g.Pix[i] = v * 255
	}
	return g
}
