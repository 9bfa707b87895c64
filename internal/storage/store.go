// Package storage persists thermostat runs: a metadata JSON document plus
// a CSV temperature series per run, under a base data directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one saved thermostat run.
type RunMetadata struct {
	ID        string    `json:"id"`
	Snapshot  string    `json:"snapshot"`
	Units     string    `json:"units"`
	Dim       int       `json:"dim"`
	Timestamp time.Time `json:"timestamp"`
	Steps     int       `json:"steps"`
	Target    float64   `json:"target"`
	Frac      float64   `json:"frac"`
	Bias      string    `json:"bias,omitempty"`
	FinalTemp float64   `json:"final_temp"`
	DOF       float64   `json:"dof"`
}

// Save writes the metadata and temperature series of a run and returns
// its generated ID.
func (s *Store) Save(meta RunMetadata, series []float64) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	meta.ID = runID
	meta.Timestamp = time.Now()
	if n := len(series); n > 0 {
		meta.FinalTemp = series[n-1]
		meta.Steps = n
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "temps.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()
	if err := w.Write([]string{"step", "temp"}); err != nil {
		return "", err
	}
	for i, t := range series {
		row := []string{strconv.Itoa(i), strconv.FormatFloat(t, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// List returns the metadata of every saved run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.loadMeta(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// LoadSeries reads back the temperature series of a run.
func (s *Store) LoadSeries(runID string) ([]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "temps.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	series := make([]float64, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: run %s row %d: %w", runID, i, err)
		}
		series = append(series, v)
	}
	return series, nil
}

func (s *Store) loadMeta(runID string) (RunMetadata, error) {
	var meta RunMetadata
	f, err := os.Open(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&meta)
	return meta, err
}
