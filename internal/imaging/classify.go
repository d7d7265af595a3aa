package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrInvalidComparator is returned for a Comparator other than Greater or Less.
	ErrInvalidComparator = errors.New("invalid comparator")

	// ErrInvalidBounds is returned when an HSV range is empty or outside the 8-bit HSV space.
	ErrInvalidBounds = errors.New("invalid HSV bounds")
)

// Comparator selects the strict relation used by a ThresholdClassifier.
type Comparator int

const (
	// Greater keeps pixels whose channels are all strictly above the threshold.
	Greater Comparator = iota + 1
	// Less keeps pixels whose channels are all strictly below the threshold.
	Less
)

// Valid reports whether c is one of the supported relations.
func (c Comparator) Valid() bool {
	return c == Greater || c == Less
}

func (c Comparator) String() string {
	switch c {
	case Greater:
		return ">"
	case Less:
		return "<"
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

func (c Comparator) holds(v, t uint8) bool {
	if c == Greater {
		return v > t
	}
	return v < t
}

// RGBThreshold holds one 8-bit threshold per color channel.
type RGBThreshold struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// ThresholdClassifier tests every pixel against a per-channel threshold.
//
// A pixel is classified (mask value 1) only when all three channels satisfy the
// comparator. With Greater against a bright threshold this picks out light
// navigable ground; with Less against the same threshold it picks out darker
// obstacle terrain. At an exact tie both classifiers yield 0.
type ThresholdClassifier struct {
	cmp Comparator
	thr RGBThreshold
}

// NewThresholdClassifier validates the comparator and returns a classifier.
//
// Returns ErrInvalidComparator (wrapped) if cmp is neither Greater nor Less.
func NewThresholdClassifier(cmp Comparator, thr RGBThreshold) (*ThresholdClassifier, error) {
	if !cmp.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidComparator, cmp)
	}
	return &ThresholdClassifier{cmp: cmp, thr: thr}, nil
}

// Classify returns a mask the size of img marking pixels that pass the test.
func (c *ThresholdClassifier) Classify(img image.Image) *Mask {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := rgba.Pix[i : i+3 : i+3]
			if c.cmp.holds(p[0], c.thr.R) && c.cmp.holds(p[1], c.thr.G) && c.cmp.holds(p[2], c.thr.B) {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// Threshold is a one-shot form of NewThresholdClassifier followed by Classify.
func Threshold(img image.Image, cmp Comparator, thr RGBThreshold) (*Mask, error) {
	c, err := NewThresholdClassifier(cmp, thr)
	if err != nil {
		return nil, err
	}
	return c.Classify(img), nil
}

// HSV is a color in the 8-bit hue/saturation/value space used by the
// calibration tables.
//
//   - H: hue in half degrees, 0-179 (0=red, 30=yellow, 60=green, 120=blue)
//   - S: saturation, 0-255
//   - V: value (brightness), 0-255
type HSV struct {
	H uint8 `yaml:"h"`
	S uint8 `yaml:"s"`
	V uint8 `yaml:"v"`
}

// MaxHue is the largest hue value in the 8-bit HSV space.
const MaxHue = 179

// ToHSV converts an 8-bit RGB triple into the 8-bit HSV space.
func ToHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	hue := math.Round(h / 2)
	if hue > MaxHue {
		hue = 0
	}
	return HSV{
		H: uint8(hue),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// RegionDetector marks pixels whose HSV value falls inside an inclusive range.
// It is used to find the yellow coloration of mineral samples.
type RegionDetector struct {
	lower HSV
	upper HSV
}

// NewRegionDetector validates the HSV range. Bounds are expressed in the HSV
// space, not in RGB.
//
// Returns ErrInvalidBounds (wrapped) if any lower component exceeds its upper
// component or a hue exceeds MaxHue.
func NewRegionDetector(lower, upper HSV) (*RegionDetector, error) {
	if lower.H > upper.H || lower.S > upper.S || lower.V > upper.V {
		return nil, fmt.Errorf("%w: lower %v above upper %v", ErrInvalidBounds, lower, upper)
	}
	if upper.H > MaxHue {
		return nil, fmt.Errorf("%w: hue %d above %d", ErrInvalidBounds, upper.H, MaxHue)
	}
	return &RegionDetector{lower: lower, upper: upper}, nil
}

// Detect returns a mask the size of img marking pixels inside the range.
func (d *RegionDetector) Detect(img image.Image) *Mask {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			if d.contains(ToHSV(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])) {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

func (d *RegionDetector) contains(c HSV) bool {
	return c.H >= d.lower.H && c.H <= d.upper.H &&
		c.S >= d.lower.S && c.S <= d.upper.S &&
		c.V >= d.lower.V && c.V <= d.upper.V
}

// DetectRegion is a one-shot form of NewRegionDetector followed by Detect.
func DetectRegion(img image.Image, lower, upper HSV) (*Mask, error) {
	d, err := NewRegionDetector(lower, upper)
	if err != nil {
		return nil, err
	}
	return d.Detect(img), nil
}
