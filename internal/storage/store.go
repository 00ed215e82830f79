package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	statesFile      = "states.csv"
	diagnosticsFile = "diagnostics.csv"
	scanFile        = "scan.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunStats struct {
	Steps       int     `json:"steps"`
	Rejected    int     `json:"rejected"`
	Evaluations int     `json:"evaluations"`
	ElapsedMS   float64 `json:"elapsed_ms"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Adaptive   bool               `json:"adaptive"`
	Tolerance  float64            `json:"tolerance,omitempty"`
	Parameters map[string]float64 `json:"parameters"`
	Compounds  []string           `json:"compounds"`
	Stats      RunStats           `json:"stats"`
	Final      map[string]float64 `json:"final,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	ScanOver   string             `json:"scan_parameter,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Run is a stored trajectory.
type Run struct {
	Meta   RunMetadata `json:"meta"`
	Names  []string    `json:"names"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// Series returns the column of one compound.
func (r *Run) Series(name string) ([]float64, bool) {
	i := slices.Index(r.Names, name)
	if i < 0 {
		return nil, false
	}
	col := make([]float64, len(r.States))
	for k, row := range r.States {
		col[k] = row[i]
	}
	return col, true
}

func (s *Store) newRunDir(model string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", model, time.Now().UnixMilli())
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s-%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

// Save writes the metadata, the trajectory with one column per compound and,
// when diag is non-nil, the module outputs along the trajectory.
func (s *Store) Save(meta RunMetadata, result *sim.Result, diag *network.Diagnostics) (string, error) {
	runID, runDir, err := s.newRunDir(meta.Model)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Kind = "run"
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Stats = RunStats{
		Steps:       result.StepsTaken,
		Rejected:    result.Rejected,
		Evaluations: result.Evaluations,
		ElapsedMS:   float64(result.Elapsed.Microseconds()) / 1000,
	}
	if final := result.Final(); final != nil && len(final) == len(meta.Compounds) {
		meta.Final = make(map[string]float64, len(final))
		for i, name := range meta.Compounds {
			meta.Final[name] = final[i]
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	states := make([][]float64, len(result.States))
	for i, x := range result.States {
		states[i] = x
	}
	if err := writeSeries(filepath.Join(runDir, statesFile), meta.Compounds, result.Times, states); err != nil {
		return "", err
	}

	if diag != nil {
		if err := writeSeries(filepath.Join(runDir, diagnosticsFile), diag.Names, diag.Times, diag.Values); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// SaveScan writes one row per scanned value holding the final state. Points
// that failed keep their error message and empty state columns.
func (s *Store) SaveScan(meta RunMetadata, results []sim.ScanResult) (string, error) {
	runID, runDir, err := s.newRunDir(meta.Model)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Kind = "scan"
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	for _, r := range results {
		if r.Result != nil {
			meta.Stats.Steps += r.Result.StepsTaken
			meta.Stats.Rejected += r.Result.Rejected
			meta.Stats.Evaluations += r.Result.Evaluations
			meta.Stats.ElapsedMS += float64(r.Result.Elapsed.Microseconds()) / 1000
		}
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	file, err := os.Create(filepath.Join(runDir, scanFile))
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append([]string{meta.ScanOver}, meta.Compounds...)
	header = append(header, "error")
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range results {
		row := []string{formatFloat(r.Value)}
		var final sim.State
		if r.Err == nil && r.Result != nil {
			final = r.Result.Final()
		}
		for i := range meta.Compounds {
			if i < len(final) {
				row = append(row, formatFloat(final[i]))
			} else {
				row = append(row, "")
			}
		}
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		if err := w.Write(append(row, msg)); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadRun reads the metadata and the trajectory of a run.
func (s *Store) LoadRun(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	names, times, states, err := readSeries(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	return &Run{Meta: *meta, Names: names, Times: times, States: states}, nil
}

// LoadDiagnostics reads the module outputs of a run. Runs saved without
// diagnostics return os.ErrNotExist.
func (s *Store) LoadDiagnostics(runID string) (*network.Diagnostics, error) {
	names, times, values, err := readSeries(filepath.Join(s.baseDir, runID, diagnosticsFile))
	if err != nil {
		return nil, err
	}
	return &network.Diagnostics{Names: names, Times: times, Values: values}, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, names []string, times []float64, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	for i, row := range rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, formatFloat(times[i]))
		for _, v := range row {
			record = append(record, formatFloat(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readSeries(path string) ([]string, []float64, [][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("read %s: missing header", filepath.Base(path))
	}

	names := records[0][1:]
	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line+2, err)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			row[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line+2, err)
			}
		}
		times = append(times, t)
		rows = append(rows, row)
	}
	return names, times, rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
