package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"orphan/internal/core/errors"
)

// Config drives one analysis run. Fields mirror the CLI surface; a TOML file
// (orphan.toml) provides defaults that flags override field-wise.
type Config struct {
	Entry              []string  `toml:"entry"`
	Project            []string  `toml:"project"`
	Cwd                string    `toml:"cwd"`
	Ignore             []string  `toml:"ignore"`
	IncludeNodeModules bool      `toml:"include_node_modules"`
	Threads            int       `toml:"threads"`
	Plugins            Plugins   `toml:"plugins"`
	Compilers          Compilers `toml:"compilers"`
	Scan               Scan      `toml:"scan"`
	History            History   `toml:"history"`
	Telemetry          Telemetry `toml:"telemetry"`
}

// Plugins pins individual entry-discovery plugins on or off.
// A nil field means auto-detect from the project's dependencies.
type Plugins struct {
	Storybook *bool `toml:"storybook"`
	Jest      *bool `toml:"jest"`
	Vitest    *bool `toml:"vitest"`
	Nextjs    *bool `toml:"nextjs"`
}

// Compilers controls which non-JS file kinds are parsed for imports.
type Compilers struct {
	Scss       *bool    `toml:"scss"`
	Extensions []string `toml:"extensions"`
}

// Scan tunes the collector walk.
type Scan struct {
	// ThrottleFilesPerSec caps the walk rate; 0 disables throttling.
	ThrottleFilesPerSec float64 `toml:"throttle_files_per_sec"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Telemetry struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

const defaultHistoryFile = ".orphan-history.db"

func DefaultProjectPatterns() []string {
	return []string{"**/*.{ts,tsx,js,jsx,mjs,cjs}"}
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "reading config file")
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "decoding config file")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault looks for orphan.toml in dir; absence is not an error.
func LoadDefault(dir string) (*Config, error) {
	path := filepath.Join(dir, "orphan.toml")
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if len(cfg.Project) == 0 {
		cfg.Project = DefaultProjectPatterns()
	}
	if cfg.Cwd == "" {
		cfg.Cwd = "."
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryFile
	}
}

// Validate checks the parts that must hold before any filesystem work starts.
func (c *Config) Validate() error {
	if len(c.Entry) == 0 {
		return errors.New(errors.CodeConfig, "no entry patterns specified")
	}
	for _, p := range c.Entry {
		if strings.TrimSpace(p) == "" {
			return errors.New(errors.CodeConfig, "empty entry pattern")
		}
	}

	info, err := os.Stat(c.Cwd)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("working directory %q", c.Cwd))
	}
	if !info.IsDir() {
		return errors.New(errors.CodeConfig, fmt.Sprintf("working directory %q is not a directory", c.Cwd))
	}
	return nil
}
