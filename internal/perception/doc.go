// Package perception turns rover camera frames into world map updates and
// navigation hints.
//
// A Pipeline is built once per mission from a Config and a worldmap.Map, then
// fed one frame and pose at a time:
//
//	cfg := perception.DefaultConfig()
//	m, _ := worldmap.New(cfg.MapSize)
//	p, err := perception.New(cfg, m, logger)
//	if err != nil {
//	    return err
//	}
//	res, err := p.Step(pose, frame)
//
// # Frame Sequence
//
// Each Step rectifies the frame onto an overhead view, classifies navigable
// ground, obstacles and rock samples, and applies two independent sets of
// field-of-view masks:
//
//   - The mapping region depends on pitch and roll. It gates the navigable and
//     obstacle masks before they are written to the world map.
//   - The navigation gate depends on velocity and on whether an obstacle sits
//     straight ahead. It gates the navigable mask used for steering hints.
//
// Rocks are written to the map only when the frame contains rock pixels, at
// the world cells of those pixels.
//
// # Errors
//
// Configuration problems are reported by LoadConfig, Config.Validate and New.
// Step fails only for a frame of the wrong size, before touching the map.
// Off-level attitude is a logged warning, not an error.
package perception
