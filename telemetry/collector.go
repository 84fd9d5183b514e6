package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sward/components"
)

// Collector accumulates event counts between stats flushes.
type Collector struct {
	saveInterval int32

	// Event counters for the current window
	births       int
	energyDeaths int
	waterDeaths  int
	oldAgeDeaths int
}

// NewCollector creates a collector whose windows span saveInterval ticks.
func NewCollector(saveInterval int) *Collector {
	if saveInterval < 1 {
		saveInterval = 1
	}
	return &Collector{saveInterval: int32(saveInterval)}
}

// RecordBirth records a successful budding.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a death event by cause.
func (c *Collector) RecordDeath(cause components.DeathCause) {
	switch cause {
	case components.CauseEnergy:
		c.energyDeaths++
	case components.CauseWater:
		c.waterDeaths++
	case components.CauseOldAge:
		c.oldAgeDeaths++
	}
}

// Births returns the births recorded in the current window.
func (c *Collector) Births() int {
	return c.births
}

// ShouldFlush reports whether currentTick is the last tick of a window.
// With a run length divisible by the interval, the final window closes on
// the final tick and a run produces maxTicks/saveInterval stats rows.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return (currentTick+1)%c.saveInterval == 0
}

// Flush produces the stats row for the closing window and resets the
// counters. totalEntities and avgEnergy are sampled by the caller on the
// current tick.
func (c *Collector) Flush(currentTick int32, totalEntities int, avgEnergy float64) StatsRow {
	row := StatsRow{
		Tick:           currentTick,
		TotalEntities:  totalEntities,
		EnergyDeaths:   c.energyDeaths,
		WaterDeaths:    c.waterDeaths,
		OldAgeDeaths:   c.oldAgeDeaths,
		AvgGrassEnergy: avgEnergy,
	}

	c.births = 0
	c.energyDeaths = 0
	c.waterDeaths = 0
	c.oldAgeDeaths = 0

	return row
}

// GeneSamples holds per-trait values sampled from the live population.
type GeneSamples struct {
	SunEff []float64
	WatEff []float64
	NutEff []float64
	Decay  []float64
	Energy []float64
}

// ComputeGeneStats aggregates trait samples into a gene stats row.
func ComputeGeneStats(tick int32, s GeneSamples) GeneStatsRow {
	row := GeneStatsRow{Tick: tick, Count: len(s.Energy)}
	row.MeanSunEff, row.StdSunEff = meanStd(s.SunEff)
	row.MeanWatEff, row.StdWatEff = meanStd(s.WatEff)
	row.MeanNutEff, row.StdNutEff = meanStd(s.NutEff)
	row.MeanDecay, row.StdDecay = meanStd(s.Decay)
	row.MeanEnergy, row.StdEnergy = meanStd(s.Energy)
	return row
}

// meanStd returns the mean and sample standard deviation of xs.
// Fewer than two samples have zero deviation.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		std = stat.StdDev(xs, nil)
	}
	return mean, std
}
