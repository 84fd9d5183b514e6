package sim

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
)

// deadInfo buffers a detected death so tile credits and slot recycling
// happen only after the scan completes.
type deadInfo struct {
	entity ecs.Entity
	x, y   int
	credit float32
	cause  components.DeathCause
}

// birthInfo buffers a budding accepted during the scan. Placement is
// re-checked at materialization because an earlier birth in the same tick
// may have taken the cell.
type birthInfo struct {
	x, y   int
	genes  components.Genes
	maxAge int32
}

// Step advances the world by one tick. It returns immediately once MaxTicks
// is reached; the only error source is stream I/O.
func (s *Sim) Step() error {
	if s.stage == StageComplete || int(s.tick) >= s.cfg.World.MaxTicks {
		s.stage = StageComplete
		return nil
	}
	s.stage = StageRunning

	sun := systems.Sunlight(int(s.tick), s.cfg.Sunlight.DayLength, s.cfg.Derived.SeasonLength)
	s.updateUptake(sun)
	s.updateReproduction()
	s.updateRain()
	if err := s.serialize(); err != nil {
		return err
	}

	s.tick++
	if int(s.tick) >= s.cfg.World.MaxTicks {
		s.stage = StageComplete
	}
	return nil
}

// Run steps the world to completion, logging progress on the configured
// cadence. The world keeps ticking after an extinction; rain and stats
// continue on an empty grid.
func (s *Sim) Run() error {
	logInterval := s.cfg.Output.LogInterval
	for s.stage != StageComplete {
		if err := s.Step(); err != nil {
			return err
		}
		if !s.quiet && logInterval > 0 && int(s.tick)%logInterval == 0 {
			slog.Info("progress",
				"tick", s.tick,
				"live", s.aliveCount,
				"births", s.totals.Births,
				"deaths", s.totals.Deaths(),
			)
		}
	}
	return nil
}

// updateUptake runs the metabolic pass: photosynthesis scaled by sunlight,
// water and nutrient draw clamped to the tile stock, aging, and death
// detection in priority order (water, then energy, then old age). Deaths
// apply after the scan: the corpse's energy, floored per cause, returns to
// the tile as nutrient.
func (s *Sim) updateUptake(sun float32) {
	cfg := s.cfg
	sunRate := float32(cfg.Uptake.SunRate)
	waterRate := float32(cfg.Uptake.WaterRate)
	nutrientRate := float32(cfg.Uptake.NutrientRate)
	energyThreshold := float32(cfg.Death.EnergyThreshold)
	waterFloor := float32(cfg.Death.WaterCreditFloor)
	energyFloor := float32(cfg.Death.EnergyCreditFloor)
	ageFloor := float32(cfg.Death.AgeCreditFloor)

	var dead []deadInfo

	query := s.grassFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, genes, age, energy, org := query.Get()

		if !org.Alive {
			continue
		}

		tile := s.grid.At(pos.X, pos.Y)
		energy.Value += sun * genes.SunlightEff * sunRate
		takenWater := min(tile.Water, genes.WaterEff*waterRate)
		tile.Water -= takenWater
		energy.Value += takenWater
		takenNutrient := min(tile.Nutrient, genes.NutrientEff*nutrientRate)
		tile.Nutrient -= takenNutrient
		energy.Value += takenNutrient

		age.Age++

		died := false
		var cause components.DeathCause
		var floor float32
		switch {
		case tile.Water <= 0:
			died, cause, floor = true, components.CauseWater, waterFloor
		case energy.Value <= energyThreshold:
			died, cause, floor = true, components.CauseEnergy, energyFloor
		case age.Age >= age.MaxAge:
			died, cause, floor = true, components.CauseOldAge, ageFloor
		}
		if died {
			dead = append(dead, deadInfo{
				entity: entity,
				x:      pos.X,
				y:      pos.Y,
				credit: max(energy.Value, floor),
				cause:  cause,
			})
		}
	}

	for _, d := range dead {
		s.grid.At(d.x, d.y).Nutrient += d.credit
		s.collector.RecordDeath(d.cause)
		switch d.cause {
		case components.CauseEnergy:
			s.totals.EnergyDeaths++
		case components.CauseWater:
			s.totals.WaterDeaths++
		default:
			s.totals.OldAgeDeaths++
		}
		s.killOrganism(d.entity, d.x, d.y)
	}
}

// updateReproduction lets mature, energetic organisms bud into one randomly
// drawn neighbor cell. The parent pays its cost as soon as a valid target
// is drawn, even if another birth wins the cell at materialization.
func (s *Sim) updateReproduction() {
	cfg := s.cfg
	if s.aliveCount >= cfg.Derived.Capacity {
		return
	}
	maturityFraction := cfg.Reproduction.MaturityFraction
	energyThreshold := float32(cfg.Reproduction.EnergyThreshold)
	parentCost := float32(cfg.Reproduction.ParentCost)
	childEnergy := float32(cfg.Reproduction.ChildEnergy)
	maxAgeFloor := int32(cfg.Reproduction.MaxAgeFloor)

	var births []birthInfo

	query := s.grassFilter.Query()
	for query.Next() {
		pos, genes, age, energy, org := query.Get()

		if !org.Alive {
			continue
		}
		if float64(age.Age) < maturityFraction*float64(age.MaxAge) || energy.Value < energyThreshold {
			continue
		}

		dx := int(s.rng.Float64()*3) - 1
		dy := int(s.rng.Float64()*3) - 1
		tx, ty := pos.X+dx, pos.Y+dy
		if !s.grid.InBounds(tx, ty) || s.grid.At(tx, ty).Type != systems.TileSoil || !s.occupancy.IsFree(tx, ty) {
			continue
		}

		child := components.Genes{
			SunlightEff: genes.SunlightEff + float32(s.gauss()),
			WaterEff:    genes.WaterEff + float32(s.gauss()),
			NutrientEff: genes.NutrientEff + float32(s.gauss()),
			DecayRate:   genes.DecayRate + float32(s.gauss()*0.02),
		}
		maxAge := max(maxAgeFloor, int32(float64(age.MaxAge)+s.gauss()*10+0.1))
		energy.Value *= parentCost

		births = append(births, birthInfo{x: tx, y: ty, genes: child, maxAge: maxAge})
	}

	for _, b := range births {
		if !s.occupancy.IsFree(b.x, b.y) {
			continue
		}
		s.spawnOrganism(
			components.Position{X: b.x, Y: b.y},
			b.genes,
			components.Age{Age: 0, MaxAge: b.maxAge},
			childEnergy,
		)
		s.collector.RecordBirth()
		s.totals.Births++
	}
}

// updateRain tops up every soil tile on the rain cadence. Water tiles keep
// their generated stock.
func (s *Sim) updateRain() {
	interval := s.cfg.Rain.Interval
	if interval <= 0 || int(s.tick)%interval != 0 {
		return
	}
	amount := float32(s.cfg.Rain.Amount)
	for i := range s.grid.Tiles {
		if s.grid.Tiles[i].Type == systems.TileSoil {
			s.grid.Tiles[i].Water += amount
		}
	}
}

// serialize appends this tick's telemetry: vegetation rows every tick when
// a writer is attached, stats and gene stats at window ends. The window
// flush happens even without a writer so headless runs see stats through
// LastStats.
func (s *Sim) serialize() error {
	flush := s.collector.ShouldFlush(s.tick)
	if s.writer == nil && !flush {
		return nil
	}

	var samples telemetry.GeneSamples
	if s.writer != nil {
		s.vegRows = s.vegRows[:0]
	}

	query := s.grassFilter.Query()
	for query.Next() {
		pos, genes, age, energy, org := query.Get()

		if !org.Alive {
			continue
		}
		if s.writer != nil {
			s.vegRows = append(s.vegRows, telemetry.VegetationRow{
				Tick:   s.tick,
				ID:     org.ID,
				X:      pos.X,
				Y:      pos.Y,
				Age:    age.Age,
				MaxAge: age.MaxAge,
				Energy: energy.Value,
				SunEff: genes.SunlightEff,
				WatEff: genes.WaterEff,
				NutEff: genes.NutrientEff,
				Decay:  genes.DecayRate,
			})
		}
		if flush {
			samples.SunEff = append(samples.SunEff, float64(genes.SunlightEff))
			samples.WatEff = append(samples.WatEff, float64(genes.WaterEff))
			samples.NutEff = append(samples.NutEff, float64(genes.NutrientEff))
			samples.Decay = append(samples.Decay, float64(genes.DecayRate))
			samples.Energy = append(samples.Energy, float64(energy.Value))
		}
	}

	if err := s.writer.AppendVegetation(s.vegRows); err != nil {
		return fmt.Errorf("writing vegetation rows: %w", err)
	}
	if !flush {
		return nil
	}

	meanEnergy := 0.0
	if len(samples.Energy) > 0 {
		meanEnergy = stat.Mean(samples.Energy, nil)
	}
	row := s.collector.Flush(s.tick, s.aliveCount, meanEnergy)
	s.lastStats = row
	s.haveStats = true
	slog.Debug("stats_window", "stats", row)

	if s.writer == nil {
		return nil
	}
	if err := s.writer.AppendStats(row); err != nil {
		return fmt.Errorf("writing stats row: %w", err)
	}
	if err := s.writer.AppendGeneStats(telemetry.ComputeGeneStats(s.tick, samples)); err != nil {
		return fmt.Errorf("writing gene stats row: %w", err)
	}
	return nil
}
