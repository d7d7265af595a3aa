package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// createInMemoryImage creates an in-memory test image filled with one color
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{200, 190, 180, 255} // Bright sand top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{40, 30, 20, 255} // Dark rock top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{200, 170, 20, 255} // Yellow sample bottom-left
			} else {
				c = color.RGBA{160, 160, 160, 255} // Exactly at threshold bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

var stockThreshold = RGBThreshold{R: 160, G: 160, B: 160}

func TestNewThresholdClassifier_InvalidComparator(t *testing.T) {
	for _, cmp := range []Comparator{0, 3, -1} {
		t.Run(cmp.String(), func(t *testing.T) {
			_, err := NewThresholdClassifier(cmp, stockThreshold)
			if !errors.Is(err, ErrInvalidComparator) {
				t.Errorf("got %v, want ErrInvalidComparator", err)
			}
		})
	}
}

func TestThreshold_Quadrants(t *testing.T) {
	img := createPatternImage(10, 10)

	tests := []struct {
		name string
		cmp  Comparator
		want map[image.Point]uint8
	}{
		{
			"greater picks bright ground",
			Greater,
			map[image.Point]uint8{{1, 1}: 1, {8, 1}: 0, {1, 8}: 0, {8, 8}: 0},
		},
		{
			"less picks dark terrain",
			Less,
			map[image.Point]uint8{{1, 1}: 0, {8, 1}: 1, {1, 8}: 0, {8, 8}: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Threshold(img, tt.cmp, stockThreshold)
			if err != nil {
				t.Fatalf("Threshold failed: %v", err)
			}
			for p, want := range tt.want {
				if got := m.At(p.X, p.Y); got != want {
					t.Errorf("At(%d,%d): got %d, want %d", p.X, p.Y, got, want)
				}
			}
		})
	}
}

func TestThreshold_GreaterLessDisjoint(t *testing.T) {
	// Sweep gray levels around a range of thresholds; no pixel may be in both
	// masks, and exact ties are in neither.
	img := image.NewRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		img.Set(x, 0, color.RGBA{uint8(x), uint8(x), uint8(x), 255})
	}

	for _, level := range []uint8{0, 1, 100, 160, 254, 255} {
		thr := RGBThreshold{R: level, G: level, B: level}
		gt, err := Threshold(img, Greater, thr)
		if err != nil {
			t.Fatal(err)
		}
		lt, err := Threshold(img, Less, thr)
		if err != nil {
			t.Fatal(err)
		}
		for x := 0; x < 256; x++ {
			if gt.At(x, 0) == 1 && lt.At(x, 0) == 1 {
				t.Errorf("threshold %d: pixel %d in both masks", level, x)
			}
		}
		if gt.At(int(level), 0) != 0 || lt.At(int(level), 0) != 0 {
			t.Errorf("threshold %d: exact tie should be 0 in both masks", level)
		}
	}
}

func TestThreshold_AllChannelsRequired(t *testing.T) {
	// Two bright channels are not enough.
	img := createInMemoryImage(2, 2, color.RGBA{255, 255, 100, 255})
	m, err := Threshold(img, Greater, stockThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if m.Any() {
		t.Error("pixel with one channel below threshold should not be classified")
	}
}

func TestThreshold_OffsetBounds(t *testing.T) {
	full := createInMemoryImage(20, 20, color.RGBA{200, 200, 200, 255})
	sub := full.SubImage(image.Rect(5, 5, 15, 10))

	m, err := Threshold(sub, Greater, stockThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 10 || m.Height != 5 {
		t.Fatalf("size: got %dx%d, want 10x5", m.Width, m.Height)
	}
	if m.Count() != 50 {
		t.Errorf("Count: got %d, want 50", m.Count())
	}
}

func TestToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{H: 0, S: 255, V: 255}},
		{"green", 0, 255, 0, HSV{H: 60, S: 255, V: 255}},
		{"blue", 0, 0, 255, HSV{H: 120, S: 255, V: 255}},
		{"yellow", 255, 255, 0, HSV{H: 30, S: 255, V: 255}},
		{"white", 255, 255, 255, HSV{H: 0, S: 0, V: 255}},
		{"black", 0, 0, 0, HSV{H: 0, S: 0, V: 0}},
		{"half gray", 128, 128, 128, HSV{H: 0, S: 0, V: 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToHSV(tt.r, tt.g, tt.b)
			if got != tt.want {
				t.Errorf("ToHSV(%d,%d,%d): got %+v, want %+v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestDetectRegion_RockSample(t *testing.T) {
	img := createPatternImage(10, 10)
	m, err := DetectRegion(img, HSV{H: 5, S: 80, V: 80}, HSV{H: 100, S: 255, V: 255})
	if err != nil {
		t.Fatalf("DetectRegion failed: %v", err)
	}

	// Only the yellow quadrant is saturated enough.
	if m.At(1, 8) != 1 {
		t.Error("yellow sample should be detected")
	}
	for _, p := range []image.Point{{1, 1}, {8, 1}, {8, 8}} {
		if m.At(p.X, p.Y) != 0 {
			t.Errorf("At(%d,%d) should not be detected", p.X, p.Y)
		}
	}
	if m.Count() != 25 {
		t.Errorf("Count: got %d, want 25", m.Count())
	}
}

func TestDetectRegion_InclusiveBounds(t *testing.T) {
	img := createInMemoryImage(1, 1, color.RGBA{255, 255, 0, 255}) // H=30 S=255 V=255
	m, err := DetectRegion(img, HSV{H: 30, S: 255, V: 255}, HSV{H: 30, S: 255, V: 255})
	if err != nil {
		t.Fatal(err)
	}
	if m.At(0, 0) != 1 {
		t.Error("bounds should be inclusive")
	}
}

func TestNewRegionDetector_InvalidBounds(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper HSV
	}{
		{"hue inverted", HSV{H: 50}, HSV{H: 10, S: 255, V: 255}},
		{"saturation inverted", HSV{S: 200}, HSV{H: 10, S: 100, V: 255}},
		{"value inverted", HSV{V: 200}, HSV{H: 10, S: 255, V: 100}},
		{"hue out of space", HSV{}, HSV{H: 200, S: 255, V: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegionDetector(tt.lower, tt.upper); !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("got %v, want ErrInvalidBounds", err)
			}
		})
	}
}
