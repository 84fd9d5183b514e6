package telemetry

import "log/slog"

// TerrainRow is one tile of the world snapshot in world_state.csv.
type TerrainRow struct {
	X    int    `csv:"x"`
	Y    int    `csv:"y"`
	Type string `csv:"type"`
}

// VegetationRow is one live organism's state at one tick in grass_states.csv.
// The header names are the viewer contract; do not rename.
type VegetationRow struct {
	Tick   int32   `csv:"tick"`
	ID     uint32  `csv:"id"`
	X      int     `csv:"x"`
	Y      int     `csv:"y"`
	Age    int32   `csv:"age"`
	MaxAge int32   `csv:"maxAge"`
	Energy float32 `csv:"energy"`
	SunEff float32 `csv:"sunEff"`
	WatEff float32 `csv:"watEff"`
	NutEff float32 `csv:"nutEff"`
	Decay  float32 `csv:"decay"`
}

// StatsRow summarizes one save-interval window in simulation_stats.csv.
// Death counters cover the window; population and mean energy are sampled
// on the window's closing tick.
type StatsRow struct {
	Tick           int32   `csv:"tick"`
	TotalEntities  int     `csv:"totalEntities"`
	EnergyDeaths   int     `csv:"energyDeaths"`
	WaterDeaths    int     `csv:"waterDeaths"`
	OldAgeDeaths   int     `csv:"oldAgeDeaths"`
	AvgGrassEnergy float64 `csv:"avgGrassEnergy"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s StatsRow) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(s.Tick)),
		slog.Int("total_entities", s.TotalEntities),
		slog.Int("energy_deaths", s.EnergyDeaths),
		slog.Int("water_deaths", s.WaterDeaths),
		slog.Int("old_age_deaths", s.OldAgeDeaths),
		slog.Float64("avg_energy", s.AvgGrassEnergy),
	)
}

// GeneStatsRow summarizes the live population's trait distribution in
// gene_stats.csv, one row per save-interval window.
type GeneStatsRow struct {
	Tick       int32   `csv:"tick"`
	Count      int     `csv:"count"`
	MeanSunEff float64 `csv:"meanSunEff"`
	StdSunEff  float64 `csv:"stdSunEff"`
	MeanWatEff float64 `csv:"meanWatEff"`
	StdWatEff  float64 `csv:"stdWatEff"`
	MeanNutEff float64 `csv:"meanNutEff"`
	StdNutEff  float64 `csv:"stdNutEff"`
	MeanDecay  float64 `csv:"meanDecay"`
	StdDecay   float64 `csv:"stdDecay"`
	MeanEnergy float64 `csv:"meanEnergy"`
	StdEnergy  float64 `csv:"stdEnergy"`
}
