package telemetry

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// RunMeta is the metadata block at the top of the vegetation stream. The
// viewer sizes its playback buffers from these values before reading any
// rows.
type RunMeta struct {
	Width        int
	Height       int
	MaxTicks     int
	SaveInterval int
}

// NumFrames returns how many playback frames a complete run produces.
func (m RunMeta) NumFrames() int {
	if m.SaveInterval < 1 {
		return 0
	}
	return m.MaxTicks / m.SaveInterval
}

// ReadRunMeta parses the metadata block from a run's vegetation stream.
// All four keys must be present and parse as integers.
func ReadRunMeta(dir string) (RunMeta, error) {
	f, err := os.Open(filepath.Join(dir, grassFileName))
	if err != nil {
		return RunMeta{}, fmt.Errorf("opening vegetation log: %w", err)
	}
	defer f.Close()

	return parseRunMeta(f)
}

func parseRunMeta(r io.Reader) (RunMeta, error) {
	var meta RunMeta
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return RunMeta{}, fmt.Errorf("parsing metadata %s: %w", key, err)
		}
		switch key {
		case "WIDTH":
			meta.Width = n
		case "HEIGHT":
			meta.Height = n
		case "MAX_TICKS":
			meta.MaxTicks = n
		case "SAVE_INTERVAL":
			meta.SaveInterval = n
		default:
			continue
		}
		seen[key] = true
	}
	if err := sc.Err(); err != nil {
		return RunMeta{}, fmt.Errorf("reading metadata: %w", err)
	}

	for _, key := range []string{"WIDTH", "HEIGHT", "MAX_TICKS", "SAVE_INTERVAL"} {
		if !seen[key] {
			return RunMeta{}, fmt.Errorf("metadata missing %s", key)
		}
	}

	return meta, nil
}

// ReadVegetationFrames loads a run's vegetation rows bucketed into playback
// frames by tick/saveInterval. Rows outside [0, NumFrames) are dropped, the
// way the viewer drops them.
func ReadVegetationFrames(dir string, meta RunMeta) ([][]VegetationRow, error) {
	if meta.SaveInterval < 1 {
		return nil, fmt.Errorf("save interval must be positive, got %d", meta.SaveInterval)
	}

	f, err := os.Open(filepath.Join(dir, grassFileName))
	if err != nil {
		return nil, fmt.Errorf("opening vegetation log: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comment = '#'

	var rows []VegetationRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("parsing vegetation log: %w", err)
	}

	frames := make([][]VegetationRow, meta.NumFrames())
	for _, row := range rows {
		idx := int(row.Tick) / meta.SaveInterval
		if idx < 0 || idx >= len(frames) {
			continue
		}
		frames[idx] = append(frames[idx], row)
	}

	return frames, nil
}

// ReadStats loads a run's window summary rows.
func ReadStats(dir string) ([]StatsRow, error) {
	f, err := os.Open(filepath.Join(dir, statsFileName))
	if err != nil {
		return nil, fmt.Errorf("opening stats log: %w", err)
	}
	defer f.Close()

	var rows []StatsRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing stats log: %w", err)
	}
	return rows, nil
}

// ReadTerrain loads a run's terrain snapshot.
func ReadTerrain(dir string) ([]TerrainRow, error) {
	f, err := os.Open(filepath.Join(dir, terrainFileName))
	if err != nil {
		return nil, fmt.Errorf("opening terrain snapshot: %w", err)
	}
	defer f.Close()

	var rows []TerrainRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing terrain snapshot: %w", err)
	}
	return rows, nil
}
