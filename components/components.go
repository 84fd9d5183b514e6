// Package components defines the per-organism data stored in the ECS world.
// Every organism entity carries all five components for its whole lifetime;
// death flips Organism.Alive and the slot waits in the recycling pool until
// a birth overwrites it.
package components

// Position is an organism's tile coordinate. Always in-bounds for a live
// organism and unique among live organisms.
type Position struct {
	X int
	Y int
}

// Genes holds the heritable efficiency traits. Traits are perturbed by
// zero-mean Gaussian noise at birth and are not clamped, so repeated
// mutation can drive them negative.
type Genes struct {
	SunlightEff float32 // scales sunlight energy gain
	WaterEff    float32 // scales water drawn from the tile
	NutrientEff float32 // scales nutrient drawn from the tile
	DecayRate   float32 // inherited at reduced mutation scale; serialized, not consumed by uptake
}

// Age counts ticks lived. MaxAge is fixed at birth.
type Age struct {
	Age    int32
	MaxAge int32
}

// Energy is the metabolic reserve: fed by uptake, spent on budding.
// May be transiently non-positive within a tick until death applies.
type Energy struct {
	Value float32
}

// Organism bundles identity and liveness. ID is assigned fresh at every
// birth, so a reused slot never repeats an earlier organism's id.
type Organism struct {
	ID    uint32
	Alive bool
}

// DeathCause labels why an organism died, in detection priority order.
type DeathCause uint8

const (
	CauseWater DeathCause = iota
	CauseEnergy
	CauseOldAge
)

func (c DeathCause) String() string {
	switch c {
	case CauseWater:
		return "water"
	case CauseEnergy:
		return "energy"
	case CauseOldAge:
		return "old_age"
	}
	return "unknown"
}
