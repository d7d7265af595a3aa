package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateQuad is returned when four point pairs do not define a projective transform.
	ErrDegenerateQuad = errors.New("degenerate quadrilateral")

	// ErrFrameSize is returned when a frame does not match the session frame size.
	ErrFrameSize = errors.New("frame size mismatch")
)

// Quad is four corresponding corner points, in pixel coordinates
// (X = column, Y = row).
type Quad [4]r2.Point

// Homography is a 3x3 projective transform. Indices are [row][column].
type Homography [3][3]float64

// PerspectiveTransform solves for the homography that maps each src corner
// onto the matching dst corner.
//
// The eight unknowns (h22 fixed at 1) are found by solving the standard 8x8
// linear system built from the four correspondences:
//
//	u = (h00*x + h01*y + h02) / (h20*x + h21*y + 1)
//	v = (h10*x + h11*y + h12) / (h20*x + h21*y + 1)
//
// Returns ErrDegenerateQuad (wrapped) if the system is singular, for example
// when three of the points are collinear.
func PerspectiveTransform(src, dst Quad) (*Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}
	for i := 0; i < 8; i++ {
		if v := h.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrDegenerateQuad
		}
	}

	return &Homography{
		{h.AtVec(0), h.AtVec(1), h.AtVec(2)},
		{h.AtVec(3), h.AtVec(4), h.AtVec(5)},
		{h.AtVec(6), h.AtVec(7), 1},
	}, nil
}

// Apply maps pt through the transform.
func (h *Homography) Apply(pt r2.Point) r2.Point {
	p, _ := h.project(pt)
	return p
}

// project maps pt and also returns the homogeneous scale. Points whose scale
// has the opposite sign to the ground plane lie beyond the horizon.
func (h *Homography) project(pt r2.Point) (r2.Point, float64) {
	x := h[0][0]*pt.X + h[0][1]*pt.Y + h[0][2]
	y := h[1][0]*pt.X + h[1][1]*pt.Y + h[1][2]
	z := h[2][0]*pt.X + h[2][1]*pt.Y + h[2][2]
	return r2.Point{X: x / z, Y: y / z}, z
}

// Inverse returns the transform mapping dst back onto src.
func (h *Homography) Inverse() (*Homography, error) {
	m := mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}
	out := &Homography{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}

// PerspectiveWarper rectifies camera frames onto an overhead view.
//
// The camera geometry is fixed for a session, so the transform is solved once
// at construction and reused for every frame. Output frames keep the input size.
type PerspectiveWarper struct {
	forward *Homography
	inverse *Homography
	width   int
	height  int
	// ground is the sign of the inverse homogeneous scale on the ground plane.
	ground float64
}

// NewPerspectiveWarper solves the transform mapping the src trapezoid (the
// ground plane as seen obliquely) onto the dst rectangle, for frames of the
// given size.
func NewPerspectiveWarper(src, dst Quad, width, height int) (*PerspectiveWarper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	fwd, err := PerspectiveTransform(src, dst)
	if err != nil {
		return nil, err
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return nil, err
	}
	var centre r2.Point
	for _, p := range dst {
		centre = centre.Add(p.Mul(0.25))
	}
	_, z := inv.project(centre)
	return &PerspectiveWarper{
		forward: fwd,
		inverse: inv,
		width:   width,
		height:  height,
		ground:  math.Copysign(1, z),
	}, nil
}

// Transform returns the forward (camera to overhead) homography.
func (w *PerspectiveWarper) Transform() *Homography {
	return w.forward
}

// Rectify resamples img through the transform.
//
// Returns:
//   - *image.RGBA: the overhead view, same size as the input. Pixels that map
//     outside the captured frame are black.
//   - *Mask: the validity mask; 1 where the output pixel originates from real
//     captured content, 0 where it was extrapolated or lies beyond the horizon.
//   - error: ErrFrameSize (wrapped) if img is not the session frame size.
//
// # Sampling
//
// Each output pixel is inverse-mapped into the source frame and sampled
// bilinearly with a zero border, the same scheme used by linear-interpolated
// perspective warps.
func (w *PerspectiveWarper) Rectify(img image.Image) (*image.RGBA, *Mask, error) {
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return nil, nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w.width, w.height)
	}
	src := clone.AsRGBA(img)

	out := image.NewRGBA(image.Rect(0, 0, w.width, w.height))
	valid := NewMask(w.width, w.height)
	// Source positions within edgeTolerance of the frame edge still count as
	// captured, so an identity transform keeps every pixel.
	const edgeTolerance = 1e-6
	maxX := float64(w.width-1) + edgeTolerance
	maxY := float64(w.height-1) + edgeTolerance

	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			p, z := w.inverse.project(r2.Point{X: float64(x), Y: float64(y)})
			if z*w.ground <= 0 || math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				continue
			}
			if p.X >= -edgeTolerance && p.X <= maxX && p.Y >= -edgeTolerance && p.Y <= maxY {
				valid.Pix[y*w.width+x] = 1
			} else if p.X <= -1 || p.Y <= -1 || p.X >= float64(w.width) || p.Y >= float64(w.height) {
				continue
			}
			r, g, bl, ok := bilinear(src, p.X, p.Y)
			if !ok {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = bl
			out.Pix[i+3] = 255
		}
	}
	return out, valid, nil
}

// bilinear samples src at a fractional position, treating everything outside
// the frame as black. ok is false when all four neighbours lie outside.
func bilinear(src *image.RGBA, fx, fy float64) (r, g, b uint8, ok bool) {
	b0 := src.Bounds()
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	var acc [3]float64
	weights := [4]float64{(1 - dx) * (1 - dy), dx * (1 - dy), (1 - dx) * dy, dx * dy}
	offsets := [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for k, off := range offsets {
		px, py := x0+off.X, y0+off.Y
		if px < 0 || py < 0 || px >= b0.Dx() || py >= b0.Dy() {
			continue
		}
		ok = true
		i := src.PixOffset(b0.Min.X+px, b0.Min.Y+py)
		acc[0] += weights[k] * float64(src.Pix[i])
		acc[1] += weights[k] * float64(src.Pix[i+1])
		acc[2] += weights[k] * float64(src.Pix[i+2])
	}
	if !ok {
		return 0, 0, 0, false
	}
	return clampByte(acc[0]), clampByte(acc[1]), clampByte(acc[2]), true
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
