// Package fov restricts which rectified pixels are trusted.
//
// The perspective transform is only valid while the rover is level, and the
// color classifier loses reliability at speed. Two independent mask sets cover
// those cases:
//
//   - The mapping region gates what is written into the world map. It shrinks
//     when pitch or roll leave the leveling band.
//   - The navigation gate bounds the pixels used for steering hints. When no
//     obstacle sits in a small probe region straight ahead, it additionally
//     blinds part of the lateral field in proportion to speed.
//
// Every mask here is derived from the rectification validity mask, so nothing
// outside the camera's real field of view is ever trusted.
package fov

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/ironsheep/rover-perception/internal/imaging"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid field-of-view policy")

// Attitude records which attitude axes are outside the leveling band.
type Attitude struct {
	PitchOffLevel bool
	RollOffLevel  bool
}

// Level reports whether both axes are inside the band.
func (a Attitude) Level() bool {
	return !a.PitchOffLevel && !a.RollOffLevel
}

// LevelState classifies pitch and roll (degrees) against tolerance. Angles are
// wrapped into [0, 360), so 359.5 is half a degree off level.
func LevelState(pitch, roll, tolerance float64) Attitude {
	return Attitude{
		PitchOffLevel: offLevel(pitch, tolerance),
		RollOffLevel:  offLevel(roll, tolerance),
	}
}

func offLevel(angle, tolerance float64) bool {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return true
	}
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return math.Min(a, 360-a) > tolerance
}

// Region is a forward-extent restriction combined with a lateral band.
type Region struct {
	Forward AxisMask
	Lateral AxisMask
}

// Build returns validity × forward × lateral.
func (r Region) Build(validity *imaging.Mask) (*imaging.Mask, error) {
	return imaging.Product(validity, r.Forward.Build(validity), r.Lateral.Build(validity))
}

func (r Region) String() string {
	return fmt.Sprintf("forward %v, lateral %v", r.Forward, r.Lateral)
}

// Mapping regions keyed by attitude. Disturbed attitude keeps only the nearest
// rows and narrows the lateral band.
var (
	levelRegion = Region{
		Forward: MustAxisMask(Rows, LowPass, 60),
		Lateral: MustAxisMask(Columns, Band, 20),
	}
	pitchRegion = Region{
		Forward: MustAxisMask(Rows, LowPass, 95),
		Lateral: MustAxisMask(Columns, Band, 10),
	}
	rollRegion = Region{
		Forward: MustAxisMask(Rows, LowPass, 60),
		Lateral: MustAxisMask(Columns, Band, 5),
	}
	pitchRollRegion = Region{
		Forward: MustAxisMask(Rows, LowPass, 95),
		Lateral: MustAxisMask(Columns, Band, 8),
	}
)

// MappingRegion selects the world-map region for an attitude.
func MappingRegion(a Attitude) Region {
	switch {
	case a.PitchOffLevel && a.RollOffLevel:
		return pitchRollRegion
	case a.PitchOffLevel:
		return pitchRegion
	case a.RollOffLevel:
		return rollRegion
	}
	return levelRegion
}

// Navigation gate and obstacle probe.
var (
	navigationForward = MustAxisMask(Rows, LowPass, 60)

	probeForward = MustAxisMask(Rows, LowPass, 75)
	probeLateral = MustAxisMask(Columns, Band, 2)
	probeNear    = MustAxisMask(Rows, HighPass, 10)
)

// Policy holds the tunable parameters of the masker.
type Policy struct {
	// LevelTolerance is the leveling band half-width in degrees.
	LevelTolerance float64 `yaml:"level_tolerance"`
	// BlindnessGain converts velocity into a blindness percentage.
	BlindnessGain float64 `yaml:"blindness_gain"`
	// MaxBlindness caps the blindness percentage.
	MaxBlindness float64 `yaml:"max_blindness"`
}

// DefaultPolicy returns the calibrated policy: 1° leveling band, 40% blindness
// per unit of velocity, capped at 45%.
func DefaultPolicy() Policy {
	return Policy{LevelTolerance: 1, BlindnessGain: 40, MaxBlindness: 45}
}

// Validate checks every field and reports all problems at once.
func (p Policy) Validate() error {
	var err error
	if math.IsNaN(p.LevelTolerance) || p.LevelTolerance < 0 || p.LevelTolerance >= 180 {
		err = multierr.Append(err, fmt.Errorf("%w: level tolerance %v outside [0, 180)", ErrInvalidPolicy, p.LevelTolerance))
	}
	if math.IsNaN(p.BlindnessGain) || math.IsInf(p.BlindnessGain, 0) || p.BlindnessGain < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: blindness gain %v", ErrInvalidPolicy, p.BlindnessGain))
	}
	if math.IsNaN(p.MaxBlindness) || p.MaxBlindness < 0 || p.MaxBlindness > 100 {
		err = multierr.Append(err, fmt.Errorf("%w: max blindness %v outside [0, 100]", ErrInvalidPolicy, p.MaxBlindness))
	}
	return err
}

// Attitude classifies pitch and roll with the policy tolerance.
func (p Policy) Attitude(pitch, roll float64) Attitude {
	return LevelState(pitch, roll, p.LevelTolerance)
}

// Blindness returns the lateral blindness percentage for a forward velocity:
// velocity × gain clamped into [0, MaxBlindness]. Negative velocity counts as 0.
func (p Policy) Blindness(velocity float64) float64 {
	if math.IsNaN(velocity) || velocity <= 0 {
		return 0
	}
	return math.Min(velocity*p.BlindnessGain, p.MaxBlindness)
}

// Mapping returns the world-map mask for the given attitude along with the
// attitude classification and region that produced it.
func (p Policy) Mapping(validity *imaging.Mask, pitch, roll float64) (*imaging.Mask, Attitude, Region, error) {
	att := p.Attitude(pitch, roll)
	region := MappingRegion(att)
	m, err := region.Build(validity)
	if err != nil {
		return nil, att, region, err
	}
	return m, att, region, nil
}

// NavigationGate is the outcome of Policy.Navigation.
type NavigationGate struct {
	// Mask bounds the navigable pixels used for steering.
	Mask *imaging.Mask
	// Probe is the near-field region checked for obstacles.
	Probe *imaging.Mask
	// ObstacleAhead is true when the probe region held an obstacle pixel.
	ObstacleAhead bool
	// Blindness is the lateral percentage excluded; 0 when ObstacleAhead.
	Blindness float64
}

// Navigation builds the navigation gate.
//
// The gate is a forward low-pass over the validity mask. The obstacle mask is
// checked inside a narrow probe region just ahead of the rover; if the probe
// is clear, a columns low-pass at the speed-scaled blindness percentage is
// applied on top. The attitude does not affect this gate.
func (p Policy) Navigation(validity, obstacles *imaging.Mask, velocity float64) (*NavigationGate, error) {
	gate, err := imaging.Product(validity, navigationForward.Build(validity))
	if err != nil {
		return nil, err
	}
	probe, err := imaging.Product(validity,
		probeForward.Build(validity),
		probeLateral.Build(validity),
		probeNear.Build(validity))
	if err != nil {
		return nil, err
	}
	seen, err := imaging.Product(probe, obstacles)
	if err != nil {
		return nil, fmt.Errorf("obstacle probe: %w", err)
	}

	g := &NavigationGate{Mask: gate, Probe: probe, ObstacleAhead: seen.Any()}
	if g.ObstacleAhead {
		return g, nil
	}

	g.Blindness = p.Blindness(velocity)
	blind, err := NewAxisMask(Columns, LowPass, g.Blindness)
	if err != nil {
		return nil, err
	}
	if err := gate.Mul(blind.Build(validity)); err != nil {
		return nil, err
	}
	return g, nil
}
