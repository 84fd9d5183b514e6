package sim

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
)

// TestStepInvariants walks a live run and, after every tick, checks the
// bookkeeping everything else leans on: the cached live count, the
// occupancy bijection, organism placement and tile stocks.
func TestStepInvariants(t *testing.T) {
	s := newTestSim(t, `
world:
  width: 12
  height: 12
  max_ticks: 60
  save_interval: 5
  seed: 19
terrain:
  lake_divisor: 6
  river_count: 2
seeding:
  initial_prob: 0.4
rain:
  interval: 10
output:
  log_interval: 0
`)
	founders := s.LiveCount()
	if founders == 0 {
		t.Fatal("no founders seeded")
	}

	for s.Stage() != StageComplete {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", s.Tick(), err)
		}
		checkInvariants(t, s)
	}

	totals := s.Totals()
	if got, want := s.LiveCount(), founders+totals.Births-totals.Deaths(); got != want {
		t.Errorf("live count = %d, want founders+births-deaths = %d", got, want)
	}
}

func checkInvariants(t *testing.T, s *Sim) {
	t.Helper()

	if got := countAlive(s); got != s.aliveCount {
		t.Fatalf("tick %d: store reports %d alive, live count %d", s.tick, got, s.aliveCount)
	}
	if got := s.occupancy.Count(); got != s.aliveCount {
		t.Fatalf("tick %d: occupancy holds %d cells, live count %d", s.tick, got, s.aliveCount)
	}

	query := s.grassFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, org := query.Get()
		if !org.Alive {
			continue
		}
		if !s.grid.InBounds(pos.X, pos.Y) {
			t.Fatalf("tick %d: organism %d out of bounds at (%d,%d)", s.tick, org.ID, pos.X, pos.Y)
		}
		if s.grid.At(pos.X, pos.Y).Type != systems.TileSoil {
			t.Fatalf("tick %d: organism %d on water at (%d,%d)", s.tick, org.ID, pos.X, pos.Y)
		}
		if e, ok := s.occupancy.Occupant(pos.X, pos.Y); !ok || e != entity {
			t.Fatalf("tick %d: occupant(%d,%d) does not match organism %d", s.tick, pos.X, pos.Y, org.ID)
		}
	}

	for i, tile := range s.grid.Tiles {
		if tile.Water < 0 || tile.Nutrient < 0 {
			t.Fatalf("tick %d: negative stock at tile %d: water %v nutrient %v", s.tick, i, tile.Water, tile.Nutrient)
		}
	}
}

// Uptake must clamp to the tile stock no matter how large or how negative
// the drawn genes are.
func TestUptakeClampsTileStocks(t *testing.T) {
	s := newTestSim(t, allSoilWorld)

	extremes := []components.Genes{
		{SunlightEff: 1, WaterEff: 1e6, NutrientEff: 1e6, DecayRate: 0.5},
		{SunlightEff: 1, WaterEff: -3, NutrientEff: -3, DecayRate: 0.5},
	}
	for i, genes := range extremes {
		s.spawnOrganism(components.Position{X: 1 + i, Y: 1}, genes, components.Age{Age: 0, MaxAge: 1000}, 100)
	}

	for i := 0; i < 5; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
		for j, tile := range s.grid.Tiles {
			if tile.Water < 0 || tile.Nutrient < 0 {
				t.Fatalf("tick %d: negative stock at tile %d: water %v nutrient %v", s.Tick(), j, tile.Water, tile.Nutrient)
			}
		}
	}
}

func TestDeathCauses(t *testing.T) {
	tests := []struct {
		name         string
		genes        components.Genes
		maxAge       int32
		energy       float32
		steps        int
		want         Totals
		wantNutrient float32
	}{
		{
			name:         "starvation",
			genes:        components.Genes{DecayRate: 0.5},
			maxAge:       100,
			energy:       0.1,
			steps:        1,
			want:         Totals{EnergyDeaths: 1},
			wantNutrient: 5001, // the 1.0 floor beats the 0.1 corpse
		},
		{
			name:         "drained tile",
			genes:        components.Genes{WaterEff: 1000, DecayRate: 0.5},
			maxAge:       100,
			energy:       5,
			steps:        1,
			want:         Totals{WaterDeaths: 1},
			wantNutrient: 5015, // 5.0 reserve plus the 10.0 the tile held
		},
		{
			name:         "old age",
			genes:        components.Genes{DecayRate: 0.5},
			maxAge:       3,
			energy:       0.5,
			steps:        3,
			want:         Totals{OldAgeDeaths: 1},
			wantNutrient: 5001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, allSoilWorld)
			s.spawnOrganism(components.Position{X: 1, Y: 1}, tt.genes, components.Age{Age: 0, MaxAge: tt.maxAge}, tt.energy)

			for i := 0; i < tt.steps; i++ {
				if err := s.Step(); err != nil {
					t.Fatalf("step: %v", err)
				}
			}

			if got := s.Totals(); got != tt.want {
				t.Errorf("totals = %+v, want %+v", got, tt.want)
			}
			if got := s.LiveCount(); got != 0 {
				t.Errorf("live count = %d, want 0", got)
			}
			if !s.occupancy.IsFree(1, 1) {
				t.Error("cell still occupied after death")
			}
			if got := s.grid.At(1, 1).Nutrient; got != tt.wantNutrient {
				t.Errorf("tile nutrient = %v, want %v", got, tt.wantNutrient)
			}
			if got, want := len(s.pool), 1; got != want {
				t.Errorf("pool size = %d, want %d", got, want)
			}
		})
	}
}

func TestBuddingIntoFreeNeighbor(t *testing.T) {
	s := newTestSim(t, allSoilWorld)

	parent := s.spawnOrganism(
		components.Position{X: 1, Y: 1},
		components.Genes{DecayRate: 0.5},
		components.Age{Age: 40, MaxAge: 100},
		1.0,
	)

	// The neighbor draw can land on the parent's own cell, so step until
	// the bud lands. Nothing else in an empty 3x3 soil neighborhood can
	// block it.
	for i := 0; i < 50 && s.totals.Births == 0; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if got, want := s.totals.Births, 1; got != want {
		t.Fatalf("births = %d, want %d", got, want)
	}
	if got, want := s.LiveCount(), 2; got != want {
		t.Errorf("live count = %d, want %d", got, want)
	}

	var child orgSnapshot
	found := false
	for _, org := range snapshotLive(s) {
		if org.ID == 1 {
			child = org
			found = true
		}
	}
	if !found {
		t.Fatal("child organism not found in store")
	}

	dx, dy := child.X-1, child.Y-1
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		t.Errorf("child at (%d,%d), want a neighbor of (1,1)", child.X, child.Y)
	}
	if s.grid.At(child.X, child.Y).Type != systems.TileSoil {
		t.Errorf("child placed on water at (%d,%d)", child.X, child.Y)
	}
	if child.Age != 0 {
		t.Errorf("child age = %d, want 0", child.Age)
	}
	if got, want := child.Energy, float32(0.5); got != want {
		t.Errorf("child energy = %v, want %v", got, want)
	}

	// Budding costs the parent most of its reserve.
	_, _, _, parentEnergy, _ := s.grassMapper.Get(parent)
	if got, want := parentEnergy.Value, float32(0.1); got != want {
		t.Errorf("parent energy = %v, want %v", got, want)
	}
}

func TestRainTopsUpSoilOnly(t *testing.T) {
	s := newTestSim(t, `
world:
  width: 8
  height: 8
  max_ticks: 7
  save_interval: 5
  seed: 7
terrain:
  lake_divisor: 100
  river_count: 0
seeding:
  initial_prob: 0.0
rain:
  interval: 3
  amount: 2.0
output:
  log_interval: 0
`)
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Rain fell at ticks 0, 3 and 6.
	if got, want := s.grid.At(1, 1).Water, float32(16); got != want {
		t.Errorf("soil water = %v, want %v", got, want)
	}
	if got, want := s.grid.At(4, 4).Water, float32(10); got != want {
		t.Errorf("lake water = %v, want %v", got, want)
	}
}

func TestHeadlessWindowStats(t *testing.T) {
	s := newTestSim(t, `
world:
  width: 10
  height: 10
  max_ticks: 10
  save_interval: 5
  seed: 13
terrain:
  lake_divisor: 5
  river_count: 1
seeding:
  initial_prob: 0.4
output:
  log_interval: 0
`)
	if _, ok := s.LastStats(); ok {
		t.Fatal("stats window closed before any step")
	}
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	row, ok := s.LastStats()
	if !ok {
		t.Fatal("no stats window closed over a 10 tick run")
	}
	if got, want := row.Tick, int32(9); got != want {
		t.Errorf("window tick = %d, want %d", got, want)
	}
	if got, want := row.TotalEntities, s.LiveCount(); got != want {
		t.Errorf("window entity count = %d, want %d", got, want)
	}
	if totals := s.Totals(); row.EnergyDeaths > totals.EnergyDeaths {
		t.Errorf("window energy deaths %d exceed run total %d", row.EnergyDeaths, totals.EnergyDeaths)
	}
}

func TestRunArtifactsRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	cfg := testConfig(t, `
world:
  width: 10
  height: 10
  max_ticks: 20
  save_interval: 5
  seed: 17
terrain:
  lake_divisor: 5
  river_count: 2
seeding:
  initial_prob: 0.3
rain:
  interval: 7
output:
  log_interval: 0
`)
	s, err := New(Options{Config: cfg, OutputDir: dir, Quiet: true})
	if err != nil {
		t.Fatalf("building sim: %v", err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	meta, err := telemetry.ReadRunMeta(dir)
	if err != nil {
		t.Fatalf("reading run meta: %v", err)
	}
	if want := (telemetry.RunMeta{Width: 10, Height: 10, MaxTicks: 20, SaveInterval: 5}); meta != want {
		t.Fatalf("run meta = %+v, want %+v", meta, want)
	}

	terrain, err := telemetry.ReadTerrain(dir)
	if err != nil {
		t.Fatalf("reading terrain: %v", err)
	}
	if got, want := len(terrain), 100; got != want {
		t.Fatalf("terrain rows = %d, want %d", got, want)
	}
	waterRows := 0
	for _, row := range terrain {
		if row.Type == "Water" {
			waterRows++
		}
	}
	waterTiles := 0
	for _, tile := range s.grid.Tiles {
		if tile.Type == systems.TileWater {
			waterTiles++
		}
	}
	if waterRows != waterTiles {
		t.Errorf("terrain stream has %d water rows, grid has %d water tiles", waterRows, waterTiles)
	}

	stats, err := telemetry.ReadStats(dir)
	if err != nil {
		t.Fatalf("reading stats: %v", err)
	}
	if got, want := len(stats), 4; got != want {
		t.Fatalf("stats rows = %d, want %d", got, want)
	}
	for i, row := range stats {
		if got, want := row.Tick, int32(5*i+4); got != want {
			t.Errorf("stats row %d tick = %d, want %d", i, got, want)
		}
	}

	frames, err := telemetry.ReadVegetationFrames(dir, meta)
	if err != nil {
		t.Fatalf("reading vegetation frames: %v", err)
	}
	if got, want := len(frames), meta.NumFrames(); got != want {
		t.Fatalf("frames = %d, want %d", got, want)
	}

	// The final tick's rows must mirror the live population the store holds.
	type key struct {
		id   uint32
		x, y int
	}
	fromStream := map[key]bool{}
	for _, row := range frames[len(frames)-1] {
		if row.Tick == 19 {
			fromStream[key{row.ID, row.X, row.Y}] = true
		}
	}
	fromStore := map[key]bool{}
	for _, org := range snapshotLive(s) {
		fromStore[key{org.ID, org.X, org.Y}] = true
	}
	if !reflect.DeepEqual(fromStream, fromStore) {
		t.Errorf("final tick rows do not match the store: %d stream vs %d store organisms", len(fromStream), len(fromStore))
	}
}
