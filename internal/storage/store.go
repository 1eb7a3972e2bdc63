package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/metrics"
)

const (
	MetadataFile = "run.json"
	StatsFile    = "stats.csv"
)

// Store persists run records next to the rendered frames.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

type RunMetadata struct {
	ID              string         `json:"id"`
	Timestamp       time.Time      `json:"timestamp"`
	Seed            int64          `json:"seed"`
	Offsets         [3]float64     `json:"offsets"`
	Policy          string         `json:"policy"`
	Frames          int            `json:"frames"`
	Steps           int            `json:"steps"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	ElapsedSec      float64        `json:"elapsed_sec"`
	DegenerateFlow  int            `json:"degenerate_flow"`
	NonFiniteFrames int            `json:"non_finite_frames"`
	MassDrift       float64        `json:"mass_drift"`
	PeakMassDrift   float64        `json:"peak_mass_drift"`
	Config          *config.Config `json:"config"`
}

// NewRunID names a run after its start time.
func NewRunID(t time.Time) string {
	return fmt.Sprintf("run_%d", t.Unix())
}

func (s *Store) SaveMetadata(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", MetadataFile, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("writing %s: %w", MetadataFile, err)
	}
	return nil
}

func (s *Store) LoadMetadata() (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MetadataFile, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MetadataFile, err)
	}
	return &meta, nil
}

// StatsWriter appends one stats.csv row per frame.
type StatsWriter struct {
	f             *os.File
	headerWritten bool
}

// NewStatsWriter truncates any previous stats.csv in the store.
func (s *Store) NewStatsWriter() (*StatsWriter, error) {
	f, err := os.Create(filepath.Join(s.dir, StatsFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", StatsFile, err)
	}
	return &StatsWriter{f: f}, nil
}

func (w *StatsWriter) Write(stats metrics.FrameStats) error {
	records := []metrics.FrameStats{stats}

	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.f); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.f); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

func (w *StatsWriter) Close() error {
	return w.f.Close()
}

func (s *Store) LoadStats() ([]metrics.FrameStats, error) {
	f, err := os.Open(filepath.Join(s.dir, StatsFile))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", StatsFile, err)
	}
	defer f.Close()

	var stats []metrics.FrameStats
	if err := gocsv.UnmarshalFile(f, &stats); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", StatsFile, err)
	}
	return stats, nil
}
