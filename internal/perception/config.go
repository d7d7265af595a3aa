package perception

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/rover-perception/internal/fov"
	"github.com/ironsheep/rover-perception/internal/imaging"
)

// ErrInvalidConfig wraps every configuration problem reported by Validate.
var ErrInvalidConfig = errors.New("invalid perception config")

// Point is a pixel position in a calibration quad.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Config holds the fixed calibration of a session. Nothing here changes
// between frames.
type Config struct {
	// FrameWidth and FrameHeight are the camera frame size in pixels.
	FrameWidth  int `yaml:"frame_width"`
	FrameHeight int `yaml:"frame_height"`

	// SourceQuad is the ground-plane trapezoid in the camera frame, ordered
	// bottom-left, bottom-right, top-right, top-left.
	SourceQuad [4]Point `yaml:"source_quad"`
	// DestinationHalfSize is half the side of the overhead square the quad
	// is mapped onto, in pixels.
	DestinationHalfSize float64 `yaml:"destination_half_size"`
	// BottomOffset is the gap between the overhead square and the bottom of
	// the frame, in pixels. It accounts for ground hidden under the camera.
	BottomOffset float64 `yaml:"bottom_offset"`

	NavigableThreshold imaging.RGBThreshold `yaml:"navigable_threshold"`
	ObstacleThreshold  imaging.RGBThreshold `yaml:"obstacle_threshold"`
	RockLower          imaging.HSV          `yaml:"rock_lower"`
	RockUpper          imaging.HSV          `yaml:"rock_upper"`

	// MapSize is the side length of the world map in cells.
	MapSize int `yaml:"map_size"`
	// MapScale is rover-frame pixels per world cell. Zero derives it as
	// 2 × DestinationHalfSize, one destination square per cell.
	MapScale float64 `yaml:"map_scale"`

	FOV fov.Policy `yaml:"fov"`
}

// DefaultConfig returns the calibration of the stock rover camera.
func DefaultConfig() Config {
	return Config{
		FrameWidth:  320,
		FrameHeight: 160,
		SourceQuad: [4]Point{
			{X: 14, Y: 140},
			{X: 301, Y: 140},
			{X: 200, Y: 96},
			{X: 118, Y: 96},
		},
		DestinationHalfSize: 5,
		BottomOffset:        6,
		NavigableThreshold:  imaging.RGBThreshold{R: 160, G: 160, B: 160},
		ObstacleThreshold:   imaging.RGBThreshold{R: 160, G: 160, B: 160},
		RockLower:           imaging.HSV{H: 5, S: 80, V: 80},
		RockUpper:           imaging.HSV{H: 100, S: 255, V: 255},
		MapSize:             200,
		MapScale:            10,
		FOV:                 fov.DefaultPolicy(),
	}
}

// LoadConfig reads a YAML calibration file. Fields omitted from the file keep
// their DefaultConfig values, so partial files are safe.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Scale returns the effective map scale.
func (c Config) Scale() float64 {
	if c.MapScale == 0 {
		return 2 * c.DestinationHalfSize
	}
	return c.MapScale
}

// Source returns the camera-frame quad.
func (c Config) Source() imaging.Quad {
	var q imaging.Quad
	for i, p := range c.SourceQuad {
		q[i] = r2.Point{X: p.X, Y: p.Y}
	}
	return q
}

// Destination returns the overhead square matching SourceQuad corner for
// corner: centred horizontally, its bottom edge BottomOffset above the frame
// bottom.
func (c Config) Destination() imaging.Quad {
	cx := float64(c.FrameWidth) / 2
	bottom := float64(c.FrameHeight) - c.BottomOffset
	top := bottom - 2*c.DestinationHalfSize
	d := c.DestinationHalfSize
	return imaging.Quad{
		{X: cx - d, Y: bottom},
		{X: cx + d, Y: bottom},
		{X: cx + d, Y: top},
		{X: cx - d, Y: top},
	}
}

// Validate reports every configuration problem at once. Checks that need the
// derived transforms, such as a degenerate quad, are done by New.
func (c Config) Validate() error {
	var err error
	bad := func(format string, args ...interface{}) {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		bad("frame size %dx%d", c.FrameWidth, c.FrameHeight)
	}
	for i, p := range c.SourceQuad {
		if !finite(p.X) || !finite(p.Y) {
			bad("source quad corner %d is not finite", i)
		}
	}
	if !finite(c.DestinationHalfSize) || c.DestinationHalfSize <= 0 {
		bad("destination half size %v", c.DestinationHalfSize)
	}
	if !finite(c.BottomOffset) || c.BottomOffset < 0 {
		bad("bottom offset %v", c.BottomOffset)
	}
	if c.FrameHeight > 0 && c.BottomOffset+2*c.DestinationHalfSize > float64(c.FrameHeight) {
		bad("destination square does not fit in a %d pixel frame", c.FrameHeight)
	}
	if _, e := imaging.NewRegionDetector(c.RockLower, c.RockUpper); e != nil {
		bad("rock bounds: %v", e)
	}
	if c.MapSize <= 0 {
		bad("map size %d", c.MapSize)
	}
	if s := c.Scale(); !finite(s) || s <= 0 {
		bad("map scale %v", s)
	}
	if e := c.FOV.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrInvalidConfig, e))
	}
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
