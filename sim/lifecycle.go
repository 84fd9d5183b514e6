package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/systems"
)

// gauss draws one mutation offset at the configured stddev.
func (s *Sim) gauss() float64 {
	return s.rng.NormFloat64() * s.cfg.Reproduction.MutationStddev
}

// seedOrganisms scatters the founder population over free soil, visiting
// tiles row by row. The spawn draw happens only on candidate tiles, so the
// founder layout is a stable function of the terrain and the RNG stream.
func (s *Sim) seedOrganisms() {
	cfg := s.cfg
	prob := cfg.Seeding.InitialProb
	baseMaxAge := cfg.Seeding.BaseMaxAge
	startEnergy := float32(cfg.Seeding.StartEnergy)

	for y := 0; y < s.grid.H; y++ {
		for x := 0; x < s.grid.W; x++ {
			if s.grid.At(x, y).Type != systems.TileSoil || !s.occupancy.IsFree(x, y) {
				continue
			}
			if s.rng.Float64() >= prob {
				continue
			}
			genes := components.Genes{
				SunlightEff: float32(1.0 + s.gauss()),
				WaterEff:    float32(1.0 + s.gauss()),
				NutrientEff: float32(1.0 + s.gauss()),
				DecayRate:   float32(0.5 + s.gauss()*0.1),
			}
			maxAge := int32(baseMaxAge) + int32(s.gauss()*10+0.5)
			s.spawnOrganism(
				components.Position{X: x, Y: y},
				genes,
				components.Age{Age: 0, MaxAge: maxAge},
				startEnergy,
			)
		}
	}
}

// spawnOrganism places a live organism at pos, reusing a pooled slot when
// one is available. IDs are fresh on every birth, reused slot or not.
func (s *Sim) spawnOrganism(pos components.Position, genes components.Genes, age components.Age, energy float32) ecs.Entity {
	id := s.nextID
	s.nextID++
	org := components.Organism{ID: id, Alive: true}
	en := components.Energy{Value: energy}

	var entity ecs.Entity
	if n := len(s.pool); n > 0 {
		entity = s.pool[n-1]
		s.pool = s.pool[:n-1]
		p, ge, a, e, o := s.grassMapper.Get(entity)
		*p = pos
		*ge = genes
		*a = age
		*e = en
		*o = org
	} else {
		entity = s.grassMapper.NewEntity(&pos, &genes, &age, &en, &org)
	}

	s.occupancy.Set(pos.X, pos.Y, entity)
	s.aliveCount++
	return entity
}

// killOrganism retires an entity's slot. The organism stays in the world as
// a dead row until a later birth overwrites it.
func (s *Sim) killOrganism(entity ecs.Entity, x, y int) {
	_, _, _, _, org := s.grassMapper.Get(entity)
	org.Alive = false
	s.occupancy.Clear(x, y)
	s.pool = append(s.pool, entity)
	s.aliveCount--
}
