// Package sim drives the ecosystem. A Sim owns the ECS world, the tile
// grid, the occupancy index and the run's single RNG, and advances them
// through the fixed per-tick pipeline: sunlight, uptake and aging, death,
// budding, rain, telemetry. Every random draw in a run comes from that one
// RNG, so a (config, seed) pair fully determines the run.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
)

// Stage tracks where a Sim is in its lifecycle.
type Stage uint8

const (
	StageUninitialized Stage = iota
	StageSeeded
	StageRunning
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageSeeded:
		return "seeded"
	case StageRunning:
		return "running"
	case StageComplete:
		return "complete"
	}
	return "uninitialized"
}

// Options configures a run. The zero value runs the embedded defaults
// headless: an empty OutputDir disables all stream I/O.
type Options struct {
	Config    *config.Config // nil loads the embedded defaults
	Seed      int64          // 0 falls back to Config.World.Seed
	OutputDir string         // "" disables the run writer
	Quiet     bool           // drops seeding and progress logs
}

// Totals are whole-run event counts. Unlike the collector's counters they
// are never reset at window boundaries.
type Totals struct {
	Births       int
	EnergyDeaths int
	WaterDeaths  int
	OldAgeDeaths int
}

// Deaths returns the all-cause death count.
func (t Totals) Deaths() int { return t.EnergyDeaths + t.WaterDeaths + t.OldAgeDeaths }

// Sim holds the complete state of one run.
type Sim struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	world *ecs.World

	grassMapper *ecs.Map5[
		components.Position,
		components.Genes,
		components.Age,
		components.Energy,
		components.Organism,
	]
	grassFilter *ecs.Filter5[
		components.Position,
		components.Genes,
		components.Age,
		components.Energy,
		components.Organism,
	]

	grid      *systems.Grid
	occupancy *systems.Occupancy

	collector *telemetry.Collector
	writer    *telemetry.Writer

	// Dead slots waiting for reuse, most recent death on top. Entities are
	// never removed from the world, so iteration order stays stable.
	pool []ecs.Entity

	stage      Stage
	tick       int32
	nextID     uint32
	aliveCount int
	totals     Totals

	lastStats telemetry.StatsRow
	haveStats bool

	quiet bool

	vegRows []telemetry.VegetationRow // scratch, reused across ticks
}

// New builds a run: terrain first, then the founder population, then the
// output streams. Terrain consumes the RNG before seeding does, which makes
// the draw order part of the deterministic contract.
func New(opts Options) (*Sim, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
		cfg = loaded
	}
	seed := cfg.World.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}

	world := ecs.NewWorld()

	s := &Sim{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		seed:  seed,
		world: world,
		grassMapper: ecs.NewMap5[
			components.Position,
			components.Genes,
			components.Age,
			components.Energy,
			components.Organism,
		](world),
		grassFilter: ecs.NewFilter5[
			components.Position,
			components.Genes,
			components.Age,
			components.Energy,
			components.Organism,
		](world),
		occupancy: systems.NewOccupancy(cfg.World.Width, cfg.World.Height),
		collector: telemetry.NewCollector(cfg.World.SaveInterval),
		quiet:     opts.Quiet,
	}

	s.grid = systems.GenerateTerrain(cfg, s.rng)
	s.seedOrganisms()

	w, err := telemetry.NewWriter(opts.OutputDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening run writer: %w", err)
	}
	s.writer = w
	if err := s.writer.WriteTerrain(s.terrainRows()); err != nil {
		s.writer.Close()
		return nil, fmt.Errorf("writing terrain: %w", err)
	}
	if err := s.writer.WriteConfig(cfg); err != nil {
		s.writer.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	s.stage = StageSeeded
	if !s.quiet {
		slog.Info("world_seeded",
			"seed", seed,
			"width", cfg.World.Width,
			"height", cfg.World.Height,
			"organisms", s.aliveCount,
		)
	}
	return s, nil
}

// Tick returns the number of completed ticks.
func (s *Sim) Tick() int32 { return s.tick }

// LiveCount returns the number of live organisms.
func (s *Sim) LiveCount() int { return s.aliveCount }

// Stage returns the lifecycle stage.
func (s *Sim) Stage() Stage { return s.stage }

// Seed returns the seed the run's RNG was built from.
func (s *Sim) Seed() int64 { return s.seed }

// Grid returns the terrain grid.
func (s *Sim) Grid() *systems.Grid { return s.grid }

// Totals returns whole-run birth and death counts.
func (s *Sim) Totals() Totals { return s.totals }

// LastStats returns the most recently closed stats window, if one has
// closed. Window counters accumulate with or without a writer, so headless
// callers can poll this after each Step.
func (s *Sim) LastStats() (telemetry.StatsRow, bool) { return s.lastStats, s.haveStats }

// Close closes the output streams, if any.
func (s *Sim) Close() error { return s.writer.Close() }

// terrainRows flattens the grid for the world_state stream, row by row.
func (s *Sim) terrainRows() []telemetry.TerrainRow {
	rows := make([]telemetry.TerrainRow, 0, s.grid.W*s.grid.H)
	for y := 0; y < s.grid.H; y++ {
		for x := 0; x < s.grid.W; x++ {
			rows = append(rows, telemetry.TerrainRow{X: x, Y: y, Type: s.grid.At(x, y).Type.String()})
		}
	}
	return rows
}
