package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#rrggbb" or "#rgb" hex color into an opaque RGBA.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawGrid returns a copy of img with grid lines every spacing pixels.
// With labels set, each intersection is tagged with its "x,y" coordinate in
// a small bitmap font. A spacing below 1 returns a plain copy.
func DrawGrid(img image.Image, spacing int, lineColor color.RGBA, labels bool) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)
	if spacing < 1 {
		return result
	}

	width, height := bounds.Dx(), bounds.Dy()
	for x := spacing; x < width; x += spacing {
		for y := 0; y < height; y++ {
			result.SetRGBA(x, y, lineColor)
		}
	}
	for y := spacing; y < height; y += spacing {
		for x := 0; x < width; x++ {
			result.SetRGBA(x, y, lineColor)
		}
	}

	if labels {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 255}
		for y := spacing; y < height; y += spacing {
			for x := spacing; x < width; x += spacing {
				drawLabel(result, x+2, y+2, fmt.Sprintf("%d,%d", x, y), fg, bg)
			}
		}
	}
	return result
}

// MarkPoint draws a filled square of the given radius centred on p, clipped
// to the image.
func MarkPoint(img *image.RGBA, p image.Point, radius int, c color.RGBA) {
	MarkRect(img, image.Rect(p.X-radius, p.Y-radius, p.X+radius+1, p.Y+radius+1), c)
}

// 3x5 glyphs for coordinate labels.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth, labelHeight = 4, 7
	MarkRect(img, image.Rect(x-1, y-1, x+len(text)*charWidth, y+labelHeight), bg)

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, px := range line {
					if px == '1' && image.Pt(cx+col, y+row).In(img.Bounds()) {
						img.SetRGBA(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}

// MarkRect fills r, clipped to the image.
func MarkRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
