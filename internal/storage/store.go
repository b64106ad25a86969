package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/swervesim/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Period     float64            `json:"period"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Gains      map[string]float64 `json:"gains"`
	Cycles     int                `json:"cycles"`
	Errors     []string           `json:"errors,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and cycles.csv under a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%s", meta.Scenario, ts.Format("20060102_150405.000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}

	meta.ID = runID
	meta.Timestamp = ts
	meta.Cycles = result.Cycles
	meta.Metrics = result.Metrics
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeCycles(filepath.Join(runDir, "cycles.csv"), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCycles(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, s := range samples {
		c := FromSample(s)
		if err := w.Write(c.record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadCycles(runID string) ([]Cycle, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "cycles.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading cycles for %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []Cycle{}, nil
	}

	cycles := make([]Cycle, 0, len(records)-1)
	for i, rec := range records[1:] {
		c, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("cycles.csv line %d: %w", i+2, err)
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

// Latest is the id of the newest run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNotFound
	}
	return runs[len(runs)-1].ID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
