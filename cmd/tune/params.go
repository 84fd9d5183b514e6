package main

import (
	"github.com/pthm-cable/sward/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Uptake
			{Name: "sun_rate", Path: "uptake.sun_rate", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "water_rate", Path: "uptake.water_rate", Min: 0.005, Max: 0.2, Default: 0.05},
			{Name: "nutrient_rate", Path: "uptake.nutrient_rate", Min: 0.005, Max: 0.2, Default: 0.05},
			// Death
			{Name: "starvation_threshold", Path: "death.energy_threshold", Min: 0.05, Max: 0.5, Default: 0.2},
			// Reproduction
			{Name: "budding_threshold", Path: "reproduction.energy_threshold", Min: 0.3, Max: 1.5, Default: 0.55},
			{Name: "maturity_fraction", Path: "reproduction.maturity_fraction", Min: 0.1, Max: 0.8, Default: 0.3},
			{Name: "parent_cost", Path: "reproduction.parent_cost", Min: 0.05, Max: 0.5, Default: 0.1},
			{Name: "mutation_stddev", Path: "reproduction.mutation_stddev", Min: 0.01, Max: 0.2, Default: 0.05},
			// Rain
			{Name: "rain_interval", Path: "rain.interval", Min: 20, Max: 400, Default: 150},
			{Name: "rain_amount", Path: "rain.amount", Min: 0.2, Max: 5.0, Default: 1.0},
			// Seeding
			{Name: "initial_prob", Path: "seeding.initial_prob", Min: 0.005, Max: 0.2, Default: 0.02},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	i := 0
	cfg.Uptake.SunRate = clamped[i]
	i++
	cfg.Uptake.WaterRate = clamped[i]
	i++
	cfg.Uptake.NutrientRate = clamped[i]
	i++
	cfg.Death.EnergyThreshold = clamped[i]
	i++
	cfg.Reproduction.EnergyThreshold = clamped[i]
	i++
	cfg.Reproduction.MaturityFraction = clamped[i]
	i++
	cfg.Reproduction.ParentCost = clamped[i]
	i++
	cfg.Reproduction.MutationStddev = clamped[i]
	i++
	cfg.Rain.Interval = int(clamped[i])
	i++
	cfg.Rain.Amount = clamped[i]
	i++
	cfg.Seeding.InitialProb = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Uptake.SunRate,
		cfg.Uptake.WaterRate,
		cfg.Uptake.NutrientRate,
		cfg.Death.EnergyThreshold,
		cfg.Reproduction.EnergyThreshold,
		cfg.Reproduction.MaturityFraction,
		cfg.Reproduction.ParentCost,
		cfg.Reproduction.MutationStddev,
		float64(cfg.Rain.Interval),
		cfg.Rain.Amount,
		cfg.Seeding.InitialProb,
	}
}
