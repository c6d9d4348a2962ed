package filter

import (
	"errors"
	"time"
)

var (
	// ErrMissingInput is returned when the allow-list or source file cannot be read.
	ErrMissingInput = errors.New("input file missing or unreadable")
	// ErrNoBlocks is returned when the source contains no registration blocks.
	ErrNoBlocks = errors.New("no registration blocks found")
	// ErrOutputWrite is returned when the filtered document cannot be written.
	ErrOutputWrite = errors.New("failed to write output")
)

// Default token sequences of an MCP server entry file.
const (
	DefaultOpen      = "    mcpServer.registerTool("
	DefaultClose     = "\n    });"
	DefaultSeparator = "\n\n"
)

// Block represents one matched registration call
type Block struct {
	Name  string `json:"name" yaml:"name"`
	Text  string `json:"-" yaml:"-"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Partition is the outcome of filtering blocks against an allow-list
type Partition struct {
	Kept         []Block
	Removed      []Block
	RemovedCount int
}

// EmptyPolicy decides what happens when a source document has no blocks.
type EmptyPolicy string

const (
	OnEmptyError       EmptyPolicy = "error"
	OnEmptyPassthrough EmptyPolicy = "passthrough"
)

// Config contains pipeline configuration
type Config struct {
	AllowlistPath string
	SourcePath    string
	OutputPath    string
	Pattern       Pattern
	Separator     string
	OnEmpty       EmptyPolicy
	DryRun        bool
}

// Result represents the outcome of a single pipeline run
type Result struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	AllowlistSize int           `json:"allowlist_size"`
	BlocksFound   int           `json:"blocks_found"`
	Kept          []string      `json:"kept"`
	Removed       []string      `json:"removed"`
	Missing       []string      `json:"missing,omitempty"`
	OutputPath    string        `json:"output_path"`
	Passthrough   bool          `json:"passthrough"`
	DryRun        bool          `json:"dry_run"`

	// Document and Output hold the full source and rendered texts.
	Document string `json:"-"`
	Output   string `json:"-"`
}

// KeptCount returns the number of blocks that survived filtering.
func (r *Result) KeptCount() int { return len(r.Kept) }

// RemovedCount returns the number of blocks that were dropped.
func (r *Result) RemovedCount() int { return len(r.Removed) }
