// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Terrain      TerrainConfig      `yaml:"terrain"`
	Seeding      SeedingConfig      `yaml:"seeding"`
	Sunlight     SunlightConfig     `yaml:"sunlight"`
	Uptake       UptakeConfig       `yaml:"uptake"`
	Death        DeathConfig        `yaml:"death"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Rain         RainConfig         `yaml:"rain"`
	Output       OutputConfig       `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and run length.
type WorldConfig struct {
	Width        int   `yaml:"width"`         // Grid width in tiles
	Height       int   `yaml:"height"`        // Grid height in tiles
	MaxTicks     int   `yaml:"max_ticks"`     // Run length in ticks
	SaveInterval int   `yaml:"save_interval"` // Stats/frame cadence in ticks
	Seed         int64 `yaml:"seed"`          // Default RNG seed
}

// TerrainConfig holds lake and river generation parameters.
type TerrainConfig struct {
	LakeDivisor  int     `yaml:"lake_divisor"`  // Lake radius = min(width,height) / this
	RiverCount   int     `yaml:"river_count"`   // Rivers grown from the lake perimeter
	RiverTurn    float64 `yaml:"river_turn"`    // Max heading change per walk step (radians, centered)
	SoilWater    float64 `yaml:"soil_water"`    // Initial water stock on soil tiles
	SoilNutrient float64 `yaml:"soil_nutrient"` // Initial nutrient stock on soil tiles
	LakeWater    float64 `yaml:"lake_water"`    // Water stock on lake tiles
	RiverWater   float64 `yaml:"river_water"`   // Water stock on river tiles
}

// SeedingConfig holds initial organism scatter parameters.
type SeedingConfig struct {
	InitialProb float64 `yaml:"initial_prob"` // Per-soil-cell spawn probability
	BaseMaxAge  int     `yaml:"base_max_age"` // Founder max age before jitter
	StartEnergy float64 `yaml:"start_energy"` // Founder starting energy
}

// SunlightConfig holds the day/season cycle parameters.
type SunlightConfig struct {
	DayLength int `yaml:"day_length"` // Ticks per nominal day; season is 4 days
}

// UptakeConfig holds per-tick resource intake rates.
type UptakeConfig struct {
	SunRate      float64 `yaml:"sun_rate"`      // Sunlight energy gain multiplier
	WaterRate    float64 `yaml:"water_rate"`    // Water drawn from the tile per tick
	NutrientRate float64 `yaml:"nutrient_rate"` // Nutrient drawn from the tile per tick
}

// DeathConfig holds mortality thresholds and nutrient-return floors.
type DeathConfig struct {
	EnergyThreshold   float64 `yaml:"energy_threshold"`    // Starvation below this energy
	WaterCreditFloor  float64 `yaml:"water_credit_floor"`  // Min nutrient returned on water death
	EnergyCreditFloor float64 `yaml:"energy_credit_floor"` // Min nutrient returned on starvation
	AgeCreditFloor    float64 `yaml:"age_credit_floor"`    // Min nutrient returned on old age
}

// ReproductionConfig holds budding parameters.
type ReproductionConfig struct {
	MaturityFraction float64 `yaml:"maturity_fraction"` // Eligible at this fraction of max age
	EnergyThreshold  float64 `yaml:"energy_threshold"`  // Min parent energy to bud
	ChildEnergy      float64 `yaml:"child_energy"`      // Offspring starting energy
	ParentCost       float64 `yaml:"parent_cost"`       // Parent energy multiplier after budding
	MutationStddev   float64 `yaml:"mutation_stddev"`   // Gaussian sigma for gene perturbation
	MaxAgeFloor      int     `yaml:"max_age_floor"`     // Lower bound on inherited max age
}

// RainConfig holds rainfall parameters.
type RainConfig struct {
	Interval int     `yaml:"interval"` // Ticks between rainfalls
	Amount   float64 `yaml:"amount"`   // Water added per soil tile
}

// OutputConfig holds run artifact settings.
type OutputConfig struct {
	Dir         string `yaml:"dir"`          // Output directory for CSV streams
	LogInterval int    `yaml:"log_interval"` // Progress log cadence in ticks (0 = silent)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SeasonLength int // 4 × day length, in ticks
	Capacity     int // Width × Height, the population ceiling
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	if c.World.Width < 1 || c.World.Height < 1 {
		return fmt.Errorf("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.World.SaveInterval < 1 {
		return fmt.Errorf("save interval must be at least 1, got %d", c.World.SaveInterval)
	}
	if c.World.MaxTicks < 0 {
		return fmt.Errorf("max ticks must not be negative, got %d", c.World.MaxTicks)
	}
	if c.Sunlight.DayLength < 1 {
		return fmt.Errorf("day length must be at least 1, got %d", c.Sunlight.DayLength)
	}
	if c.Terrain.LakeDivisor < 1 {
		return fmt.Errorf("lake divisor must be at least 1, got %d", c.Terrain.LakeDivisor)
	}
	if c.Rain.Interval < 1 {
		return fmt.Errorf("rain interval must be at least 1, got %d", c.Rain.Interval)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SeasonLength = 4 * c.Sunlight.DayLength
	c.Derived.Capacity = c.World.Width * c.World.Height
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
