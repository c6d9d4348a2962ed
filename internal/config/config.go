package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads configuration through its own viper instance
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with search paths and env overrides registered
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("toolfilter")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("$HOME/.toolfilter/")

	// Environment variable overrides
	v.SetEnvPrefix("TOOLFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, GetDefaults())
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	return NewLoader().Load(configPath)
}

// Load reads the configuration file (if any), applies env overrides and validates
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	}

	if err := l.v.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

// ConfigFileUsed returns the path of the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) decode() (*Config, error) {
	config := GetDefaults()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so env overrides apply without a config file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("paths.allowlist", d.Paths.Allowlist)
	v.SetDefault("paths.source", d.Paths.Source)
	v.SetDefault("paths.output", d.Paths.Output)
	v.SetDefault("paths.report", d.Paths.Report)
	v.SetDefault("pattern.open", d.Pattern.Open)
	v.SetDefault("pattern.close", d.Pattern.Close)
	v.SetDefault("pattern.separator", d.Pattern.Separator)
	v.SetDefault("filter.on_empty", d.Filter.OnEmpty)
	v.SetDefault("filter.dry_run", d.Filter.DryRun)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file.enabled", d.Logging.File.Enabled)
	v.SetDefault("logging.file.path", d.Logging.File.Path)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Validate checks the configuration for values the pipeline cannot run with
func Validate(config *Config) error {
	if config.Paths.Allowlist == "" || config.Paths.Source == "" || config.Paths.Output == "" {
		return fmt.Errorf("allowlist, source and output paths are required")
	}

	same, err := samePath(config.Paths.Source, config.Paths.Output)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("output path must differ from source path: %s", config.Paths.Output)
	}

	if config.Pattern.Open == "" || config.Pattern.Close == "" {
		return fmt.Errorf("pattern open and close tokens must not be empty")
	}

	if config.Pattern.Separator == "" {
		return fmt.Errorf("pattern separator must not be empty")
	}

	if config.Filter.OnEmpty != "error" && config.Filter.OnEmpty != "passthrough" {
		return fmt.Errorf("invalid on_empty policy: %s (must be error or passthrough)", config.Filter.OnEmpty)
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch debounce: %s", config.Watch.Debounce)
	}

	return nil
}

// samePath reports whether source and output name the same file. Relative
// and absolute spellings are compared after resolution, and existing files
// are compared by identity so links are caught too.
func samePath(source, output string) (bool, error) {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return false, fmt.Errorf("failed to resolve source path %s: %w", source, err)
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return false, fmt.Errorf("failed to resolve output path %s: %w", output, err)
	}
	if absSource == absOutput {
		return true, nil
	}

	srcInfo, err := os.Stat(absSource)
	if err != nil {
		return false, nil
	}
	outInfo, err := os.Stat(absOutput)
	if err != nil {
		return false, nil
	}
	return os.SameFile(srcInfo, outInfo), nil
}

// Watch starts watching the configuration file for changes. A change that
// fails to decode or validate is passed to onError and the previous
// configuration stays in effect.
func (l *Loader) Watch(callback func(*Config), onError func(error)) error {
	if l.v.ConfigFileUsed() == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config change in %s rejected: %w", e.Name, err))
			}
			return
		}
		callback(newConfig)
	})
	l.v.WatchConfig()

	return nil
}
