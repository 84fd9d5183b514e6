package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sim"
	"github.com/pthm-cable/sward/telemetry"
)

// FitnessEvaluator runs headless simulations and scores parameter vectors.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the outcome of a single simulation run.
type runResult struct {
	survivalTicks int32
	windows       []telemetry.StatsRow
}

// seedResult holds the scores from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// All seeds run in parallel; each owns a private headless Sim.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				quality: fe.computeQuality(result.windows),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes one headless run, stopping at extinction or the
// tick cap, and collects the stats windows the run closed along the way.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	s, err := sim.New(sim.Options{Config: cfg, Seed: seed, Quiet: true})
	if err != nil {
		// Construction without a writer only fails on a broken config;
		// score it as instant extinction.
		return result
	}

	lastWindow := int32(-1)
	for s.Stage() != sim.StageComplete {
		if err := s.Step(); err != nil {
			break
		}
		if row, ok := s.LastStats(); ok && row.Tick != lastWindow {
			result.windows = append(result.windows, row)
			lastWindow = row.Tick
		}
		if s.LiveCount() == 0 {
			result.survivalTicks = s.Tick()
			return result
		}
	}

	result.survivalTicks = s.Tick()
	return result
}

// copyConfig copies the base config for one run. Config is a tree of value
// structs, so dereferencing copies everything; only the tick cap changes.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.World.MaxTicks = fe.maxTicks
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// vectors that survive the full cap.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := fe.computeQuality(r.windows)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightStability = 0.5
	qualityWeightEnergy    = 0.5

	qualityWarmupWindows = 3 // skip first N windows (seeding transient)
	qualityMinPop        = 3 // exclude windows on the edge of extinction
)

// computeQuality scores ecosystem health in [0, 1] from the run's stats
// windows: population stability (coefficient of variation across windows)
// blended with how close the mean energy sits to a healthy reserve.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.StatsRow) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var energySum float64
	var energyCount int
	counts := make([]float64, 0, len(windows)-qualityWarmupWindows)

	for _, w := range windows[qualityWarmupWindows:] {
		if w.TotalEntities < qualityMinPop {
			continue
		}
		counts = append(counts, float64(w.TotalEntities))

		// Healthy reserve sits between the starvation and budding
		// thresholds; score falls off smoothly on both sides.
		energySum += math.Exp(-math.Pow((w.AvgGrassEnergy-0.6)/0.4, 2))
		energyCount++
	}

	if energyCount == 0 {
		return 0
	}

	stabilityScore := 0.0
	if len(counts) >= 2 {
		c := cv(counts)
		stabilityScore = math.Exp(-c * c)
	}
	energyScore := energySum / float64(energyCount)

	return clamp01(qualityWeightStability*stabilityScore + qualityWeightEnergy*energyScore)
}

// cv computes the coefficient of variation (sample std over mean).
func cv(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	return stat.StdDev(values, nil) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
