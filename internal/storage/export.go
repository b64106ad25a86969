package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Cycles []Cycle     `json:"cycles"`
}

// ExportJSON writes a stored run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	cycles, err := s.LoadCycles(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportData{Run: *meta, Cycles: cycles}); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// ExportJSONFile is ExportJSON to a new file at path.
func (s *Store) ExportJSONFile(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.ExportJSON(f, runID); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
