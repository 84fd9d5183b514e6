// Package systems holds the world-facing pieces of the engine: the tile
// grid and its terrain generator, the occupancy index, and the sunlight
// model. The per-tick organism passes that consume them live in package sim.
package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/sward/config"
)

// TileType distinguishes habitable soil from lake and river water.
type TileType uint8

const (
	TileSoil TileType = iota
	TileWater
)

func (t TileType) String() string {
	if t == TileWater {
		return "Water"
	}
	return "Soil"
}

// Tile is one cell's abiotic state. Type never changes after generation;
// Water and Nutrient never go below zero because uptake clamps to the stock
// and rain and death credits only add.
type Tile struct {
	Type     TileType
	Water    float32
	Nutrient float32
}

// Grid is the dense row-major tile field for one run.
type Grid struct {
	W, H  int
	Tiles []Tile
}

// NewGrid allocates a w×h grid of soil tiles carrying the given stocks.
func NewGrid(w, h int, water, nutrient float32) *Grid {
	g := &Grid{W: w, H: h, Tiles: make([]Tile, w*h)}
	for i := range g.Tiles {
		g.Tiles[i] = Tile{Type: TileSoil, Water: water, Nutrient: nutrient}
	}
	return g
}

// Index converts tile coordinates to the flat slice index.
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// At returns the tile at (x, y). Callers must stay in bounds.
func (g *Grid) At(x, y int) *Tile { return &g.Tiles[y*g.W+x] }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// GenerateTerrain builds the static terrain for a run: a circular lake at
// the grid center and river_count rivers random-walking out of its
// perimeter. Every random draw comes from rng, so the result is a pure
// function of the RNG state handed in.
func GenerateTerrain(cfg *config.Config, rng *rand.Rand) *Grid {
	t := cfg.Terrain
	g := NewGrid(cfg.World.Width, cfg.World.Height, float32(t.SoilWater), float32(t.SoilNutrient))

	cx, cy, r := carveLake(g, float32(t.LakeWater), t.LakeDivisor)
	for i := 0; i < t.RiverCount; i++ {
		carveRiver(g, rng, cx, cy, r, float32(t.RiverWater), t.RiverTurn)
	}
	return g
}

// carveLake floods the circle of radius min(W,H)/divisor around the grid
// center. Lake tiles lose their nutrient stock entirely.
func carveLake(g *Grid, water float32, divisor int) (cx, cy, r int) {
	cx, cy = g.W/2, g.H/2
	r = min(g.W, g.H) / divisor
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				t := g.At(x, y)
				t.Type = TileWater
				t.Water = water
				t.Nutrient = 0
			}
		}
	}
	return cx, cy, r
}

// carveRiver walks one river from a random point on the lake perimeter.
// The walk runs for W steps, clamping out-of-bounds positions to the grid
// edge, and perturbs its heading by a bounded uniform turn each step.
// Carved tiles keep their nutrient stock.
func carveRiver(g *Grid, rng *rand.Rand, cx, cy, r int, water float32, turn float64) {
	angle := float64(rng.Intn(360)) * math.Pi / 180.0
	x := float64(cx) + float64(r)*math.Cos(angle)
	y := float64(cy) + float64(r)*math.Sin(angle)

	for step := 0; step < g.W; step++ {
		xi := min(max(int(x), 0), g.W-1)
		yi := min(max(int(y), 0), g.H-1)
		t := g.At(xi, yi)
		t.Type = TileWater
		t.Water = water

		angle += (rng.Float64() - 0.5) * turn
		x += math.Cos(angle)
		y += math.Sin(angle)
	}
}
