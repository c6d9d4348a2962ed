package filter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reporter receives progress events from a pipeline run
type Reporter interface {
	AllowlistLoaded(n int)
	BlocksFound(n int)
	Decision(b Block, kept bool)
	Summary(r *Result)
}

type nopReporter struct{}

func (nopReporter) AllowlistLoaded(int)  {}
func (nopReporter) BlocksFound(int)      {}
func (nopReporter) Decision(Block, bool) {}
func (nopReporter) Summary(*Result)      {}

// Pipeline runs load allow-list, read, extract, filter, render and write in order
type Pipeline struct {
	config    *Config
	extractor *Extractor
	logger    *zap.Logger
	reporter  Reporter
}

// NewPipeline creates a new filter pipeline
func NewPipeline(config *Config, logger *zap.Logger, reporter Reporter) (*Pipeline, error) {
	if config == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}
	extractor, err := NewExtractor(config.Pattern)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Pipeline{
		config:    config,
		extractor: extractor,
		logger:    logger,
		reporter:  reporter,
	}, nil
}

// Run executes one pass of the pipeline. Any error aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:      uuid.New().String(),
		StartedAt:  time.Now(),
		OutputPath: p.config.OutputPath,
		DryRun:     p.config.DryRun,
	}
	log := p.logger.With(zap.String("run_id", result.RunID))

	log.Info("Starting filter run",
		zap.String("allowlist", p.config.AllowlistPath),
		zap.String("source", p.config.SourcePath),
		zap.String("output", p.config.OutputPath),
		zap.Bool("dry_run", p.config.DryRun))

	allow, err := LoadAllowlist(p.config.AllowlistPath)
	if err != nil {
		return nil, err
	}
	result.AllowlistSize = allow.Len()
	p.reporter.AllowlistLoaded(allow.Len())
	log.Debug("Loaded allow-list", zap.Int("entries", allow.Len()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := readDocument(p.config.SourcePath)
	if err != nil {
		return nil, err
	}
	result.Document = doc

	blocks := p.extractor.Extract(doc)
	result.BlocksFound = len(blocks)
	p.reporter.BlocksFound(len(blocks))
	log.Debug("Extracted registration blocks", zap.Int("count", len(blocks)))

	part := Filter(blocks, allow)
	for _, b := range blocks {
		p.reporter.Decision(b, allow.Has(b.Name))
	}
	result.Kept = names(part.Kept)
	result.Removed = names(part.Removed)
	result.Missing = Missing(blocks, allow)
	if len(result.Missing) > 0 {
		log.Warn("Allow-listed tools not found in source", zap.Strings("missing", result.Missing))
	}

	output, err := Render(doc, blocks, part.Kept, p.config.Separator)
	if errors.Is(err, ErrNoBlocks) && p.config.OnEmpty == OnEmptyPassthrough {
		log.Warn("No registration blocks found, passing document through unchanged")
		output, err = doc, nil
		result.Passthrough = true
	}
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, p.config.SourcePath)
	}
	result.Output = output

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !p.config.DryRun {
		if err := WriteFile(p.config.OutputPath, output); err != nil {
			return nil, err
		}
	}
	result.Duration = time.Since(result.StartedAt)

	p.reporter.Summary(result)
	log.Info("Filter run completed",
		zap.Int("blocks", result.BlocksFound),
		zap.Int("kept", result.KeptCount()),
		zap.Int("removed", result.RemovedCount()),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: source %s: %v", ErrMissingInput, path, err)
	}
	return string(data), nil
}
