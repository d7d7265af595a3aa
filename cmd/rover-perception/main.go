package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ironsheep/rover-perception/internal/imaging"
	"github.com/ironsheep/rover-perception/internal/logging"
	"github.com/ironsheep/rover-perception/internal/perception"
	"github.com/ironsheep/rover-perception/internal/report"
	"github.com/ironsheep/rover-perception/internal/worldmap"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	app := &cli.App{
		Name:      "rover-perception",
		Usage:     "replay recorded camera frames through the rover perception pipeline",
		UsageText: "rover-perception [options] FRAME...",
		Version:   fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load calibration from `FILE` (YAML); defaults to the stock camera",
			},
			&cli.Float64Flag{Name: "x", Usage: "rover world x position"},
			&cli.Float64Flag{Name: "y", Usage: "rover world y position"},
			&cli.Float64Flag{Name: "yaw", Usage: "rover yaw in degrees"},
			&cli.Float64Flag{Name: "pitch", Usage: "rover pitch in degrees"},
			&cli.Float64Flag{Name: "roll", Usage: "rover roll in degrees"},
			&cli.Float64Flag{Name: "velocity", Usage: "rover forward velocity"},
			&cli.StringFlag{
				Name:  "overlay-dir",
				Usage: "write per-frame overlay, validity and steering histogram images to `DIR`",
			},
			&cli.StringFlag{
				Name:  "map-out",
				Usage: "write the accumulated world map image to `FILE` (.png)",
			},
			&cli.IntFlag{
				Name:  "map-grid",
				Usage: "draw a labelled grid every `N` cells on the map image; 0 disables",
			},
			&cli.StringFlag{
				Name:  "grid-color",
				Value: "#606060",
				Usage: "map grid line color as a hex `RGB` value",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{logging.EnvLevel},
				Usage:   "log level: debug, info, warn or error",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("rover-perception: %v", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}

	logger, err := logging.NewLogger("perception", c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := perception.DefaultConfig()
	if path := c.String("config"); path != "" {
		if cfg, err = perception.LoadConfig(path); err != nil {
			return err
		}
	}

	worldMap, err := worldmap.New(cfg.MapSize)
	if err != nil {
		return err
	}
	pipeline, err := perception.New(cfg, worldMap, logger)
	if err != nil {
		return err
	}

	pose := perception.Pose{
		X:        c.Float64("x"),
		Y:        c.Float64("y"),
		Yaw:      c.Float64("yaw"),
		Pitch:    c.Float64("pitch"),
		Roll:     c.Float64("roll"),
		Velocity: c.Float64("velocity"),
	}

	for _, path := range c.Args().Slice() {
		if err := replayFrame(pipeline, pose, path, c.String("overlay-dir"), logger); err != nil {
			return err
		}
	}

	if out := c.String("map-out"); out != "" {
		if err := saveMap(worldMap, pose, out, c.Int("map-grid"), c.String("grid-color")); err != nil {
			return err
		}
		logger.Infow("wrote world map", "path", out)
	}
	return nil
}

// saveMap renders the world map with an optional grid and a marker at the
// rover position.
func saveMap(m *worldmap.Map, pose perception.Pose, path string, grid int, gridColor string) error {
	lineColor, err := imaging.ParseColor(gridColor)
	if err != nil {
		return err
	}
	img := imaging.DrawGrid(m.Image(), grid, lineColor, grid > 0)
	imaging.MarkPoint(img, image.Pt(int(pose.X), int(pose.Y)), 1, color.RGBA{255, 0, 255, 255})
	return imaging.SaveImage(img, path)
}

func replayFrame(p *perception.Pipeline, pose perception.Pose, path, overlayDir string, logger *zap.SugaredLogger) error {
	cfg := p.Config()
	frame, err := imaging.LoadFrame(path, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return err
	}
	res, err := p.Step(pose, frame)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("%s\tnav_pixels=%d\tmean_angle=%.2f\tmean_dist=%.2f\tobstacle_ahead=%t\tblindness=%.1f\n",
		filepath.Base(path), res.Hints.Len(), res.Hints.MeanAngle(), res.Hints.MeanDistance(),
		res.ObstacleAhead, res.Blindness)

	if overlayDir == "" {
		return nil
	}
	if err := os.MkdirAll(overlayDir, 0o755); err != nil {
		return fmt.Errorf("failed to create overlay dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := imaging.SaveImage(res.Overlay, filepath.Join(overlayDir, base+"-overlay.png")); err != nil {
		return err
	}
	if err := imaging.SaveImage(res.Validity.Gray(), filepath.Join(overlayDir, base+"-validity.png")); err != nil {
		return err
	}
	if err := report.SaveSteeringHistogram(res.Hints, base, filepath.Join(overlayDir, base+"-angles.png")); err != nil {
		return err
	}
	logger.Debugw("wrote overlay", "frame", path, "dir", overlayDir)
	return nil
}
