package perception

import (
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/ironsheep/rover-perception/internal/fov"
	"github.com/ironsheep/rover-perception/internal/geometry"
	"github.com/ironsheep/rover-perception/internal/imaging"
	"github.com/ironsheep/rover-perception/internal/worldmap"
)

// MapDelta lists the world cells a frame contributed to each channel.
type MapDelta struct {
	ObstacleCells  []image.Point
	NavigableCells []image.Point
	RockCells      []image.Point

	// Obstacles, Navigable and Rocks count the distinct cells credited.
	// Rocks counts only cells that were newly latched.
	Obstacles int
	Navigable int
	Rocks     int
}

// Result is everything one frame produces besides the map update itself.
type Result struct {
	Delta MapDelta
	Hints NavigationHints

	// Overlay is a diagnostic image: red is the attitude-gated obstacle mask,
	// green the rock mask and blue the navigation mask.
	Overlay *image.RGBA
	// Validity marks rectified pixels that came from captured content.
	Validity *imaging.Mask

	Attitude      fov.Attitude
	MappingRegion fov.Region
	ObstacleAhead bool
	Blindness     float64
}

// Pipeline turns camera frames into world map updates and navigation hints.
//
// A Pipeline owns no frame state; the world map passed to New is its only
// mutable collaborator and Step is the only path that writes to it. Pipeline
// is not safe for concurrent use: callers serialize Step.
type Pipeline struct {
	cfg       Config
	warper    *imaging.PerspectiveWarper
	navigable *imaging.ThresholdClassifier
	obstacle  *imaging.ThresholdClassifier
	rocks     *imaging.RegionDetector
	world     geometry.WorldTransform
	policy    fov.Policy
	worldMap  *worldmap.Map
	logger    *zap.SugaredLogger
}

// New validates cfg and builds every stage of the pipeline. All configuration
// errors surface here, before any frame is processed.
//
// worldMap must be cfg.MapSize on a side. A nil logger discards logs.
func New(cfg Config, worldMap *worldmap.Map, logger *zap.SugaredLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if worldMap == nil {
		return nil, fmt.Errorf("%w: nil world map", ErrInvalidConfig)
	}
	if worldMap.Size() != cfg.MapSize {
		return nil, fmt.Errorf("%w: world map is %d cells, config expects %d", ErrInvalidConfig, worldMap.Size(), cfg.MapSize)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	warper, err := imaging.NewPerspectiveWarper(cfg.Source(), cfg.Destination(), cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return nil, fmt.Errorf("perspective transform: %w", err)
	}
	navigable, err := imaging.NewThresholdClassifier(imaging.Greater, cfg.NavigableThreshold)
	if err != nil {
		return nil, fmt.Errorf("navigable classifier: %w", err)
	}
	obstacle, err := imaging.NewThresholdClassifier(imaging.Less, cfg.ObstacleThreshold)
	if err != nil {
		return nil, fmt.Errorf("obstacle classifier: %w", err)
	}
	rocks, err := imaging.NewRegionDetector(cfg.RockLower, cfg.RockUpper)
	if err != nil {
		return nil, fmt.Errorf("rock detector: %w", err)
	}
	world, err := geometry.NewWorldTransform(cfg.MapSize, cfg.Scale())
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		warper:    warper,
		navigable: navigable,
		obstacle:  obstacle,
		rocks:     rocks,
		world:     world,
		policy:    cfg.FOV,
		worldMap:  worldMap,
		logger:    logger,
	}, nil
}

// Config returns the calibration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Step processes one frame.
//
// The sequence is fixed: rectify, classify navigable ground, obstacles and
// rocks, gate the mapped masks by the attitude-dependent region, gate the
// navigation mask by the navigation region and speed blindness, convert to
// rover and world coordinates, accumulate into the world map and convert the
// navigation pixels to polar form.
//
// An error is returned only for a frame of the wrong size, and in that case
// the world map is not touched. Off-level attitude is logged and handled by
// conservative masking.
func (p *Pipeline) Step(pose Pose, frame image.Image) (*Result, error) {
	warped, validity, err := p.warper.Rectify(frame)
	if err != nil {
		return nil, err
	}

	navigable := p.navigable.Classify(warped)
	obstacles := p.obstacle.Classify(warped)
	rocks := p.rocks.Detect(warped)

	mapping, att, region, err := p.policy.Mapping(validity, pose.Pitch, pose.Roll)
	if err != nil {
		return nil, err
	}
	if att.PitchOffLevel {
		p.logger.Warnw("pitch outside leveling band, mapping conservatively", "pitch", pose.Pitch, "region", region.String())
	}
	if att.RollOffLevel {
		p.logger.Warnw("roll outside leveling band, mapping conservatively", "roll", pose.Roll, "region", region.String())
	}

	mappedNavigable, err := imaging.Product(navigable, mapping)
	if err != nil {
		return nil, err
	}
	mappedObstacles, err := imaging.Product(obstacles, mapping)
	if err != nil {
		return nil, err
	}

	gate, err := p.policy.Navigation(validity, obstacles, pose.Velocity)
	if err != nil {
		return nil, err
	}
	navigation, err := imaging.Product(navigable, gate.Mask)
	if err != nil {
		return nil, err
	}

	pos := pose.Position()
	obstacleCells := p.world.Apply(geometry.ImageToRover(mappedObstacles), pos, pose.Yaw)
	navigableCells := p.world.Apply(geometry.ImageToRover(mappedNavigable), pos, pose.Yaw)
	var rockCells []image.Point
	if rocks.Any() {
		rockCells = p.world.Apply(geometry.ImageToRover(rocks), pos, pose.Yaw)
	}

	delta, err := p.record(obstacleCells, navigableCells, rockCells)
	if err != nil {
		return nil, err
	}

	dist, angles := geometry.ToPolar(geometry.ImageToRover(navigation))

	p.logger.Debugw("frame processed",
		"navigation_pixels", len(angles),
		"obstacle_cells", delta.Obstacles,
		"navigable_cells", delta.Navigable,
		"rock_cells", delta.Rocks,
		"obstacle_ahead", gate.ObstacleAhead,
		"blindness", gate.Blindness,
	)

	return &Result{
		Delta:         delta,
		Hints:         NavigationHints{Distances: dist, Angles: angles},
		Overlay:       overlay(navigation, mappedObstacles, rocks),
		Validity:      validity,
		Attitude:      att,
		MappingRegion: region,
		ObstacleAhead: gate.ObstacleAhead,
		Blindness:     gate.Blindness,
	}, nil
}

// record writes one frame into the world map. Cells come from the world
// transform and are always inside the map, so only a size mismatch between
// transform and map could fail here, which New rules out.
func (p *Pipeline) record(obstacleCells, navigableCells, rockCells []image.Point) (MapDelta, error) {
	d := MapDelta{
		ObstacleCells:  obstacleCells,
		NavigableCells: navigableCells,
		RockCells:      rockCells,
	}
	var err error
	if d.Obstacles, err = p.worldMap.RecordObstacles(obstacleCells); err != nil {
		return d, fmt.Errorf("record obstacles: %w", err)
	}
	if d.Navigable, err = p.worldMap.RecordNavigable(navigableCells); err != nil {
		return d, fmt.Errorf("record navigable: %w", err)
	}
	if len(rockCells) > 0 {
		if d.Rocks, err = p.worldMap.RecordRocks(rockCells); err != nil {
			return d, fmt.Errorf("record rocks: %w", err)
		}
	}
	return d, nil
}

func overlay(navigation, obstacles, rocks *imaging.Mask) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, navigation.Width, navigation.Height))
	for i := range navigation.Pix {
		img.SetRGBA(i%navigation.Width, i/navigation.Width, color.RGBA{
			R: obstacles.Pix[i] * 255,
			G: rocks.Pix[i] * 255,
			B: navigation.Pix[i] * 255,
			A: 255,
		})
	}
	return img
}
