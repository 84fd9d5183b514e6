package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output", "", "Run artifact directory (empty = config's output dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config's seed)")
	maxTicks := flag.Int("max-ticks", 0, "Override run length in ticks (0 = config's max_ticks)")
	quiet := flag.Bool("quiet", false, "Only log warnings and errors")

	flag.Parse()

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// The override lands before the run writer snapshots the config, so the
	// stream metadata matches the ticks actually run.
	if *maxTicks > 0 {
		cfg.World.MaxTicks = *maxTicks
	}

	dir := cfg.Output.Dir
	if *outputDir != "" {
		dir = *outputDir
	}

	start := time.Now()
	s, err := sim.New(sim.Options{
		Config:    cfg,
		Seed:      *seed,
		OutputDir: dir,
		Quiet:     *quiet,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	if err := s.Run(); err != nil {
		s.Close()
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
	if err := s.Close(); err != nil {
		slog.Error("failed to close output streams", "error", err)
		os.Exit(1)
	}

	totals := s.Totals()
	slog.Info("run complete",
		"ticks", s.Tick(),
		"seed", s.Seed(),
		"live", s.LiveCount(),
		"births", totals.Births,
		"energy_deaths", totals.EnergyDeaths,
		"water_deaths", totals.WaterDeaths,
		"old_age_deaths", totals.OldAgeDeaths,
		"elapsed", time.Since(start).String(),
		"output", dir,
	)
}
