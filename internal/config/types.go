package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Pattern PatternConfig `yaml:"pattern" mapstructure:"pattern"`
	Filter  FilterConfig  `yaml:"filter" mapstructure:"filter"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// PathsConfig names the input and output files
type PathsConfig struct {
	Allowlist string `yaml:"allowlist" mapstructure:"allowlist"`
	Source    string `yaml:"source" mapstructure:"source"`
	Output    string `yaml:"output" mapstructure:"output"`
	Report    string `yaml:"report" mapstructure:"report"` // empty disables the YAML run report
}

// PatternConfig contains the literal tokens around a registration block
type PatternConfig struct {
	Open      string `yaml:"open" mapstructure:"open"`
	Close     string `yaml:"close" mapstructure:"close"`
	Separator string `yaml:"separator" mapstructure:"separator"`
}

// FilterConfig contains filtering behavior
type FilterConfig struct {
	OnEmpty string `yaml:"on_empty" mapstructure:"on_empty"` // error or passthrough
	DryRun  bool   `yaml:"dry_run" mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// WatchConfig contains watch mode configuration
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Paths: PathsConfig{
			Allowlist: "essential-tools-list.txt",
			Source:    "index.js",
			Output:    "index-essential.js",
		},
		Pattern: PatternConfig{
			Open:      "    mcpServer.registerTool(",
			Close:     "\n    });",
			Separator: "\n\n",
		},
		Filter: FilterConfig{
			OnEmpty: "error",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
	cfg.Logging.File.Path = "logs/toolfilter.log"
	return cfg
}
