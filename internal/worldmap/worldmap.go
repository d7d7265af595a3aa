// Package worldmap holds the persistent terrain map the rover builds during a run.
//
// The map is a square grid with three independent channels:
//
//   - Obstacle: a counter, +1 per observation.
//   - Navigable: a counter, +10 per observation. Navigable evidence outweighs
//     obstacle evidence so the map leans toward passability under uncertainty.
//   - Rock: a latch. Once a cell is flagged at RockFlag it stays flagged.
//
// Counters saturate at math.MaxUint32 instead of wrapping.
//
// # Thread Safety
//
// Map is not safe for concurrent use. It expects exactly one writer, the
// perception pipeline, called once per frame.
package worldmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

const (
	// ObstacleWeight is added to the obstacle channel per observed cell.
	ObstacleWeight = 1
	// NavigableWeight is added to the navigable channel per observed cell.
	NavigableWeight = 10
	// RockFlag is the latched value of the rock channel.
	RockFlag = 255
)

var (
	// ErrInvalidSize is returned by New for a non-positive size.
	ErrInvalidSize = errors.New("invalid map size")
	// ErrCellOutOfRange is returned when a cell lies outside the map.
	ErrCellOutOfRange = errors.New("cell out of range")
)

// Map is the persistent world map. Cells are addressed by world (x, y).
type Map struct {
	size      int
	obstacle  []uint32
	navigable []uint32
	rock      []uint8
}

// New returns an empty size × size map.
func New(size int) (*Map, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	n := size * size
	return &Map{
		size:      size,
		obstacle:  make([]uint32, n),
		navigable: make([]uint32, n),
		rock:      make([]uint8, n),
	}, nil
}

// Size returns the side length of the map.
func (m *Map) Size() int { return m.size }

// RecordObstacles adds ObstacleWeight to each distinct cell and returns the
// number of cells credited. Repeated cells within one call count once.
func (m *Map) RecordObstacles(cells []image.Point) (int, error) {
	return m.accumulate(m.obstacle, cells, ObstacleWeight)
}

// RecordNavigable adds NavigableWeight to each distinct cell and returns the
// number of cells credited. Repeated cells within one call count once.
func (m *Map) RecordNavigable(cells []image.Point) (int, error) {
	return m.accumulate(m.navigable, cells, NavigableWeight)
}

// RecordRocks latches the rock channel at RockFlag for each cell and returns
// the number of cells that were newly flagged.
func (m *Map) RecordRocks(cells []image.Point) (int, error) {
	if err := m.check(cells); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range cells {
		i := m.index(c)
		if m.rock[i] != RockFlag {
			m.rock[i] = RockFlag
			n++
		}
	}
	return n, nil
}

// accumulate validates every cell first so a bad cell leaves the map untouched.
func (m *Map) accumulate(ch []uint32, cells []image.Point, weight uint32) (int, error) {
	if err := m.check(cells); err != nil {
		return 0, err
	}
	seen := make(map[int]struct{}, len(cells))
	for _, c := range cells {
		i := m.index(c)
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		ch[i] = saturatingAdd(ch[i], weight)
	}
	return len(seen), nil
}

func (m *Map) check(cells []image.Point) error {
	for _, c := range cells {
		if !m.inside(c.X, c.Y) {
			return fmt.Errorf("%w: (%d,%d) in %dx%d map", ErrCellOutOfRange, c.X, c.Y, m.size, m.size)
		}
	}
	return nil
}

func (m *Map) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.size && y < m.size
}

func (m *Map) index(c image.Point) int {
	return c.Y*m.size + c.X
}

func saturatingAdd(v, d uint32) uint32 {
	if v > math.MaxUint32-d {
		return math.MaxUint32
	}
	return v + d
}

// Obstacle returns the obstacle count at (x, y), or 0 outside the map.
func (m *Map) Obstacle(x, y int) uint32 {
	if !m.inside(x, y) {
		return 0
	}
	return m.obstacle[y*m.size+x]
}

// Navigable returns the navigable count at (x, y), or 0 outside the map.
func (m *Map) Navigable(x, y int) uint32 {
	if !m.inside(x, y) {
		return 0
	}
	return m.navigable[y*m.size+x]
}

// Rock returns the rock latch at (x, y), or 0 outside the map.
func (m *Map) Rock(x, y int) uint8 {
	if !m.inside(x, y) {
		return 0
	}
	return m.rock[y*m.size+x]
}

// Image renders the map for diagnostics: obstacle counts in red, rocks in
// green, navigable counts in blue, each clamped to 255. Row 0 of the image is
// world y = 0.
func (m *Map) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.size, m.size))
	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			i := y*m.size + x
			img.SetRGBA(x, y, color.RGBA{
				R: clamp8(m.obstacle[i]),
				G: m.rock[i],
				B: clamp8(m.navigable[i]),
				A: 255,
			})
		}
	}
	return img
}

func clamp8(v uint32) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
