// Package storage keeps the run ledger: one run.json per simulation run
// under a base directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/mcerdsim/internal/paths"
)

const metadataFile = "run.json"

var ErrRunNotFound = errors.New("run not found")

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type RunMetadata struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	RecoilName    string      `json:"recoil_name,omitempty"`
	ElementPrefix string      `json:"element_prefix"`
	ParentPrefix  string      `json:"parent_prefix"`
	Seed          int         `json:"seed"`
	Directory     string      `json:"directory"`
	Platform      string      `json:"platform"`
	Command       string      `json:"command"`
	Paths         paths.Paths `json:"paths"`
	Status        Status      `json:"status"`
	ExitCode      int         `json:"exit_code"`
	Error         string      `json:"error,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	EndedAt       time.Time   `json:"ended_at,omitzero"`
}

// Identity rebuilds the identity the run was started with.
func (m *RunMetadata) Identity() paths.Identity {
	return paths.Identity{
		Name:          m.Name,
		RecoilName:    m.RecoilName,
		ElementPrefix: m.ElementPrefix,
		ParentPrefix:  m.ParentPrefix,
		Seed:          m.Seed,
		Directory:     m.Directory,
	}
}

func (m *RunMetadata) Duration() time.Duration {
	if m.EndedAt.IsZero() {
		return 0
	}
	return m.EndedAt.Sub(m.StartedAt)
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Save writes meta to <base>/<id>/run.json, replacing any earlier record
// of the same run.
func (s *Store) Save(meta *RunMetadata) error {
	if meta.ID == "" {
		return errors.New("run metadata has no id")
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run %s: %w", meta.ID, err)
	}
	return WriteAtomic(filepath.Join(runDir, metadataFile), append(data, '\n'), 0644)
}

// List returns every readable run, newest first. Unreadable entries are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &meta, nil
}

// WriteCSV writes a one-row-per-run summary of runs.
func WriteCSV(w io.Writer, runs []RunMetadata) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "name", "element", "seed", "status", "exit_code", "started_at", "duration_s", "result"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range runs {
		row := []string{
			r.ID,
			r.Name,
			r.ElementPrefix,
			strconv.Itoa(r.Seed),
			string(r.Status),
			strconv.Itoa(r.ExitCode),
			r.StartedAt.Format(time.RFC3339),
			strconv.FormatFloat(r.Duration().Seconds(), 'f', 3, 64),
			r.Paths.Result,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
