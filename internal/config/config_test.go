package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "toolfilter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Paths.Allowlist != "essential-tools-list.txt" || cfg.Paths.Source != "index.js" || cfg.Paths.Output != "index-essential.js" {
			t.Errorf("Unexpected default paths: %+v", cfg.Paths)
		}
		if cfg.Pattern.Open != "    mcpServer.registerTool(" || cfg.Pattern.Close != "\n    });" {
			t.Errorf("Unexpected default pattern: %+v", cfg.Pattern)
		}
		if cfg.Pattern.Separator != "\n\n" {
			t.Errorf("Separator = %q", cfg.Pattern.Separator)
		}
		if cfg.Filter.OnEmpty != "error" {
			t.Errorf("OnEmpty = %q", cfg.Filter.OnEmpty)
		}
	})

	t.Run("FromFile", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
paths:
  allowlist: tools.txt
  source: server.js
  output: server-min.js
  report: report.yaml
pattern:
  open: "server.tool("
  close: "\n});"
filter:
  on_empty: passthrough
  dry_run: true
logging:
  level: debug
  format: json
watch:
  debounce: 2s
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Paths.Source != "server.js" || cfg.Paths.Report != "report.yaml" {
			t.Errorf("Unexpected paths: %+v", cfg.Paths)
		}
		if cfg.Pattern.Open != "server.tool(" || cfg.Pattern.Close != "\n});" {
			t.Errorf("Unexpected pattern: %+v", cfg.Pattern)
		}
		if cfg.Pattern.Separator != "\n\n" {
			t.Errorf("Separator should keep its default, got %q", cfg.Pattern.Separator)
		}
		if cfg.Filter.OnEmpty != "passthrough" || !cfg.Filter.DryRun {
			t.Errorf("Unexpected filter config: %+v", cfg.Filter)
		}
		if cfg.Watch.Debounce != 2*time.Second {
			t.Errorf("Debounce = %v", cfg.Watch.Debounce)
		}
	})

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("TOOLFILTER_PATHS_SOURCE", "env.js")
		t.Setenv("TOOLFILTER_FILTER_ON_EMPTY", "passthrough")
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Paths.Source != "env.js" {
			t.Errorf("Source = %q, want env.js", cfg.Paths.Source)
		}
		if cfg.Filter.OnEmpty != "passthrough" {
			t.Errorf("OnEmpty = %q, want passthrough", cfg.Filter.OnEmpty)
		}
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Expected error for missing explicit config file")
		}
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "filter:\n  on_empty: ignore\n")
		if _, err := Load(path); err == nil {
			t.Error("Expected validation error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"InPlace", func(c *Config) { c.Paths.Output = "./index.js" }},
		{"EmptySource", func(c *Config) { c.Paths.Source = "" }},
		{"EmptyClose", func(c *Config) { c.Pattern.Close = "" }},
		{"EmptySeparator", func(c *Config) { c.Pattern.Separator = "" }},
		{"BadLevel", func(c *Config) { c.Logging.Level = "trace" }},
		{"BadFormat", func(c *Config) { c.Logging.Format = "xml" }},
		{"NegativeDebounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
	}

	if err := Validate(GetDefaults()); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "paths:\n  source: first.js\n")

	loader := NewLoader()
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changes := make(chan *Config, 16)
	if err := loader.Watch(func(c *Config) { changes <- c }, nil); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, dir, "paths:\n  source: second.js\n")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Paths.Source == "second.js" {
				return
			}
		case <-timeout:
			t.Fatal("Timed out waiting for config change")
		}
	}
}

func TestWatchWithoutFile(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load(""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := loader.Watch(func(*Config) {}, nil); err == nil {
		t.Error("Expected error when no config file is in use")
	}
}

func TestValidateInPlace(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "index.js")
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	t.Run("RelativeAndAbsolute", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Paths.Source = "index.js"
		cfg.Paths.Output = source
		if err := Validate(cfg); err == nil {
			t.Error("Relative source and absolute output naming the same file must be rejected")
		}

		cfg.Paths.Source = source
		cfg.Paths.Output = "./index.js"
		if err := Validate(cfg); err == nil {
			t.Error("Absolute source and relative output naming the same file must be rejected")
		}
	})

	t.Run("HardLink", func(t *testing.T) {
		link := filepath.Join(dir, "linked.js")
		if err := os.Link(source, link); err != nil {
			t.Skipf("hard links unsupported: %v", err)
		}
		cfg := GetDefaults()
		cfg.Paths.Source = "index.js"
		cfg.Paths.Output = link
		if err := Validate(cfg); err == nil {
			t.Error("Output linked to the source file must be rejected")
		}
	})

	t.Run("DistinctFiles", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Paths.Source = "index.js"
		cfg.Paths.Output = filepath.Join(dir, "index-essential.js")
		if err := Validate(cfg); err != nil {
			t.Errorf("Distinct paths should validate: %v", err)
		}
	})
}

func TestWatchRejectedChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "paths:\n  source: first.js\n")

	loader := NewLoader()
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changes := make(chan *Config, 16)
	rejected := make(chan error, 16)
	err := loader.Watch(
		func(c *Config) { changes <- c },
		func(err error) { rejected <- err },
	)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, dir, "filter:\n  on_empty: ignore\n")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case err := <-rejected:
			if err == nil {
				t.Fatal("Expected a non-nil error")
			}
			return
		case c := <-changes:
			if c.Filter.OnEmpty == "ignore" {
				t.Fatal("Invalid configuration must not be applied")
			}
		case <-timeout:
			t.Fatal("Timed out waiting for rejected config change")
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
