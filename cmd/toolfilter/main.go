// Command toolfilter reduces an MCP server entry file to the tools named in an allow-list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/raaihank/toolfilter/internal/config"
	"github.com/raaihank/toolfilter/internal/filter"
	"github.com/raaihank/toolfilter/internal/logger"
	"github.com/raaihank/toolfilter/internal/report"
	"github.com/raaihank/toolfilter/internal/watch"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `name:"config" short:"c" help:"Path to configuration file" type:"path"`
}

// CLI defines the command-line interface for toolfilter.
type CLI struct {
	Globals `embed:""`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Filter tool registrations against the allow-list"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RunCmd filters the source file once, or continuously with --watch.
type RunCmd struct {
	Allowlist string `help:"Allow-list file, one tool name per line" type:"path"`
	Source    string `help:"Source file containing tool registrations" type:"path"`
	Output    string `help:"Output file (never the source file)" type:"path"`
	Report    string `help:"Write a YAML run report to this path" type:"path"`
	OnEmpty   string `name:"on-empty" help:"What to do when no registrations are found: error or passthrough"`
	DryRun    bool   `name:"dry-run" help:"Compute the result without writing the output file"`
	Watch     bool   `help:"Re-run whenever the allow-list or source file changes"`
}

// apply overrides configuration values with flags that were set.
func (c *RunCmd) apply(cfg *config.Config) {
	if c.Allowlist != "" {
		cfg.Paths.Allowlist = c.Allowlist
	}
	if c.Source != "" {
		cfg.Paths.Source = c.Source
	}
	if c.Output != "" {
		cfg.Paths.Output = c.Output
	}
	if c.Report != "" {
		cfg.Paths.Report = c.Report
	}
	if c.OnEmpty != "" {
		cfg.Filter.OnEmpty = c.OnEmpty
	}
	if c.DryRun {
		cfg.Filter.DryRun = true
	}
}

func (c *RunCmd) Run(globals *Globals) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(globals.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Debug("Starting toolfilter",
		zap.String("version", version),
		zap.String("config", loader.ConfigFileUsed()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Info("Received shutdown signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if !c.Watch {
		return runOnce(ctx, cfg, log)
	}
	return c.watch(ctx, loader, cfg, log)
}

func (c *RunCmd) watch(ctx context.Context, loader *config.Loader, cfg *config.Config, log *logger.Logger) error {
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	w, err := watch.New(
		[]string{cfg.Paths.Allowlist, cfg.Paths.Source},
		cfg.Watch.Debounce,
		func(ctx context.Context) error { return runOnce(ctx, current.Load(), log) },
		log.WithComponent("watch").Logger,
	)
	if err != nil {
		return err
	}

	if loader.ConfigFileUsed() != "" {
		err := loader.Watch(c.reload(w, &current, log), func(err error) {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
		})
		if err != nil {
			log.Warn("Config file will not be watched", zap.Error(err))
		}
	}

	log.Info("Watching for changes",
		zap.String("allowlist", cfg.Paths.Allowlist),
		zap.String("source", cfg.Paths.Source))
	return w.Run(ctx)
}

// reload returns the config change handler for watch mode. Flags keep
// precedence over the reloaded file and the watcher follows the new inputs.
func (c *RunCmd) reload(w *watch.Watcher, current *atomic.Pointer[config.Config], log *logger.Logger) func(*config.Config) {
	return func(next *config.Config) {
		c.apply(next)
		if err := config.Validate(next); err != nil {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
			return
		}
		if err := w.SetFiles([]string{next.Paths.Allowlist, next.Paths.Source}); err != nil {
			log.Warn("Ignoring configuration change", zap.Error(err))
			return
		}
		log.Info("Configuration reloaded",
			zap.String("allowlist", next.Paths.Allowlist),
			zap.String("source", next.Paths.Source))
		current.Store(next)
		w.Trigger()
	}
}

// runOnce executes the pipeline for cfg and writes the optional run report.
func runOnce(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	p, err := filter.NewPipeline(pipelineConfig(cfg), log.WithComponent("filter").Logger, report.NewConsole(os.Stdout))
	if err != nil {
		return err
	}

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("filter run failed: %w", err)
	}

	if cfg.Paths.Report != "" {
		if err := report.WriteYAML(cfg.Paths.Report, result, cfg.Paths.Source); err != nil {
			return fmt.Errorf("failed to write run report: %w", err)
		}
		log.Debug("Run report written", zap.String("path", cfg.Paths.Report))
	}
	return nil
}

func pipelineConfig(cfg *config.Config) *filter.Config {
	return &filter.Config{
		AllowlistPath: cfg.Paths.Allowlist,
		SourcePath:    cfg.Paths.Source,
		OutputPath:    cfg.Paths.Output,
		Pattern:       filter.Pattern{Open: cfg.Pattern.Open, Close: cfg.Pattern.Close},
		Separator:     cfg.Pattern.Separator,
		OnEmpty:       filter.EmptyPolicy(cfg.Filter.OnEmpty),
		DryRun:        cfg.Filter.DryRun,
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}
	return logger.New(loggerConfig)
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Printf("toolfilter %s (commit: %s, built: %s)\n", version, commit, date)
	return nil
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("toolfilter"),
		kong.Description("Keep only allow-listed tool registrations in an MCP server entry file"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, options()...)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
