// Package report renders filter results for people and for tooling.
package report

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/raaihank/toolfilter/internal/filter"
)

// ErrReportWrite is returned when the run report cannot be written.
var ErrReportWrite = errors.New("failed to write run report")

// RunReport is the machine-readable record of one filter run
type RunReport struct {
	RunID         string    `yaml:"run_id"`
	StartedAt     time.Time `yaml:"started_at"`
	DurationMS    int64     `yaml:"duration_ms"`
	Source        Artifact  `yaml:"source"`
	Output        Artifact  `yaml:"output"`
	AllowlistSize int       `yaml:"allowlist_size"`
	BlocksFound   int       `yaml:"blocks_found"`
	KeptCount     int       `yaml:"kept_count"`
	RemovedCount  int       `yaml:"removed_count"`
	Kept          []string  `yaml:"kept"`
	Removed       []string  `yaml:"removed"`
	Missing       []string  `yaml:"missing,omitempty"`
	Passthrough   bool      `yaml:"passthrough"`
	DryRun        bool      `yaml:"dry_run"`
}

// Artifact describes a document by size and content hash
type Artifact struct {
	Path   string `yaml:"path,omitempty"`
	Bytes  int    `yaml:"bytes"`
	BLAKE3 string `yaml:"blake3"`
}

// Digest returns the hex BLAKE3-256 hash of text.
func Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// New builds a run report from a pipeline result
func New(r *filter.Result, sourcePath string) *RunReport {
	return &RunReport{
		RunID:         r.RunID,
		StartedAt:     r.StartedAt.UTC(),
		DurationMS:    r.Duration.Milliseconds(),
		Source:        Artifact{Path: sourcePath, Bytes: len(r.Document), BLAKE3: Digest(r.Document)},
		Output:        Artifact{Path: r.OutputPath, Bytes: len(r.Output), BLAKE3: Digest(r.Output)},
		AllowlistSize: r.AllowlistSize,
		BlocksFound:   r.BlocksFound,
		KeptCount:     r.KeptCount(),
		RemovedCount:  r.RemovedCount(),
		Kept:          nonNil(r.Kept),
		Removed:       nonNil(r.Removed),
		Missing:       r.Missing,
		Passthrough:   r.Passthrough,
		DryRun:        r.DryRun,
	}
}

// Marshal encodes the report as YAML.
func (rr *RunReport) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(rr)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report: %w", err)
	}
	return data, nil
}

// WriteYAML writes the report for r to path, replacing any existing file.
func WriteYAML(path string, r *filter.Result, sourcePath string) error {
	data, err := New(r, sourcePath).Marshal()
	if err != nil {
		return err
	}
	if err := filter.ReplaceFile(path, string(data)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReportWrite, path, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
