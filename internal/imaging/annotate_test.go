package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff0000", color.RGBA{255, 0, 0, 255}, false},
		{"#00ff80", color.RGBA{0, 255, 128, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"red", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := ParseColor(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestDrawGrid_Lines(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	red := color.RGBA{255, 0, 0, 255}

	result := DrawGrid(img, 25, red, false)

	if result.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Errorf("bounds: got %v", result.Bounds())
	}
	if got := result.RGBAAt(25, 50); got != red {
		t.Errorf("grid line at (25,50): got %v, want red", got)
	}
	if got := result.RGBAAt(50, 75); got != red {
		t.Errorf("grid line at (50,75): got %v, want red", got)
	}
	if got := result.RGBAAt(15, 15); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("background at (15,15): got %v, want black", got)
	}
	// The source image is not modified.
	if img.RGBAAt(25, 50) != (color.RGBA{0, 0, 0, 255}) {
		t.Error("DrawGrid modified its input")
	}
}

func TestDrawGrid_Labels(t *testing.T) {
	img := createInMemoryImage(60, 60, color.RGBA{0, 0, 255, 255})
	result := DrawGrid(img, 30, color.RGBA{0, 255, 0, 255}, true)

	// The label for (30,30) starts just past the intersection and draws
	// white glyph pixels on a black background.
	var white, black bool
	for y := 31; y < 39; y++ {
		for x := 31; x < 50; x++ {
			switch result.RGBAAt(x, y) {
			case color.RGBA{255, 255, 255, 255}:
				white = true
			case color.RGBA{0, 0, 0, 255}:
				black = true
			}
		}
	}
	if !white || !black {
		t.Errorf("label not drawn: white=%t black=%t", white, black)
	}
}

func TestDrawGrid_NoSpacing(t *testing.T) {
	img := createPatternImage(10, 10)
	result := DrawGrid(img, 0, color.RGBA{255, 0, 0, 255}, true)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if result.RGBAAt(x, y) != img.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestMarkPoint_Clipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c := color.RGBA{255, 255, 0, 255}

	MarkPoint(img, image.Pt(0, 0), 2, c)

	n := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	if n != 9 {
		t.Errorf("marked pixels: got %d, want 9", n)
	}
}
