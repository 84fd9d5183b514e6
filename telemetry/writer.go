package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sward/config"
)

// Stream file names inside the output directory. The names are part of the
// viewer contract.
const (
	terrainFileName   = "world_state.csv"
	grassFileName     = "grass_states.csv"
	statsFileName     = "simulation_stats.csv"
	geneStatsFileName = "gene_stats.csv"
	configFileName    = "config.yaml"
)

// Writer owns the run output directory and its append-only CSV streams.
type Writer struct {
	dir         string
	terrainFile *os.File
	grassFile   *os.File
	statsFile   *os.File
	geneFile    *os.File
}

// NewWriter creates the output directory, opens the four CSV streams, and
// writes the viewer metadata block and the stream headers. Headers go out
// at creation, before any rows, so even a run cut short leaves parseable
// streams. Returns nil if dir is empty (output disabled).
func NewWriter(dir string, cfg *config.Config) (*Writer, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	w := &Writer{dir: dir}

	f, err := os.Create(filepath.Join(dir, terrainFileName))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", terrainFileName, err)
	}
	w.terrainFile = f

	f, err = os.Create(filepath.Join(dir, grassFileName))
	if err != nil {
		w.terrainFile.Close()
		return nil, fmt.Errorf("creating %s: %w", grassFileName, err)
	}
	w.grassFile = f

	f, err = os.Create(filepath.Join(dir, statsFileName))
	if err != nil {
		w.terrainFile.Close()
		w.grassFile.Close()
		return nil, fmt.Errorf("creating %s: %w", statsFileName, err)
	}
	w.statsFile = f

	f, err = os.Create(filepath.Join(dir, geneStatsFileName))
	if err != nil {
		w.terrainFile.Close()
		w.grassFile.Close()
		w.statsFile.Close()
		return nil, fmt.Errorf("creating %s: %w", geneStatsFileName, err)
	}
	w.geneFile = f

	// The metadata block precedes the vegetation header; the viewer reads
	// it to size its playback buffers.
	_, err = fmt.Fprintf(w.grassFile, "# WIDTH=%d\n# HEIGHT=%d\n# MAX_TICKS=%d\n# SAVE_INTERVAL=%d\n",
		cfg.World.Width, cfg.World.Height, cfg.World.MaxTicks, cfg.World.SaveInterval)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("writing run metadata: %w", err)
	}

	if err := gocsv.Marshal([]VegetationRow{}, w.grassFile); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing vegetation header: %w", err)
	}
	if err := gocsv.Marshal([]StatsRow{}, w.statsFile); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing stats header: %w", err)
	}
	if err := gocsv.Marshal([]GeneStatsRow{}, w.geneFile); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing gene stats header: %w", err)
	}

	return w, nil
}

// WriteConfig saves the current configuration as YAML next to the streams.
func (w *Writer) WriteConfig(cfg *config.Config) error {
	if w == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(w.dir, configFileName))
}

// WriteTerrain writes the full terrain snapshot. Called once per run.
func (w *Writer) WriteTerrain(rows []TerrainRow) error {
	if w == nil {
		return nil
	}
	if err := gocsv.Marshal(rows, w.terrainFile); err != nil {
		return fmt.Errorf("writing terrain: %w", err)
	}
	return nil
}

// AppendVegetation appends one tick's worth of per-organism rows.
func (w *Writer) AppendVegetation(rows []VegetationRow) error {
	if w == nil || len(rows) == 0 {
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, w.grassFile); err != nil {
		return fmt.Errorf("writing vegetation: %w", err)
	}
	return nil
}

// AppendStats appends one window summary row.
func (w *Writer) AppendStats(row StatsRow) error {
	if w == nil {
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders([]StatsRow{row}, w.statsFile); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// AppendGeneStats appends one gene distribution row.
func (w *Writer) AppendGeneStats(row GeneStatsRow) error {
	if w == nil {
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders([]GeneStatsRow{row}, w.geneFile); err != nil {
		return fmt.Errorf("writing gene stats: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (w *Writer) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Close flushes and closes all output files.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}

	var firstErr error

	if w.terrainFile != nil {
		if err := w.terrainFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if w.grassFile != nil {
		if err := w.grassFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if w.statsFile != nil {
		if err := w.statsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if w.geneFile != nil {
		if err := w.geneFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
