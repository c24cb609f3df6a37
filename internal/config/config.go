// Package config loads generator settings from automap.yaml or automap.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"automap-generator/internal/analyze"
	"automap-generator/internal/gen"
)

// File names Find looks for, in order.
var FileNames = []string{"automap.yaml", "automap.yml", "automap.toml"}

// ErrUnknownFormat is returned for a config file with an unsupported extension.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Config holds the settings of one generator run.
type Config struct {
	// Patterns are go/packages patterns naming the root packages.
	Patterns []string `yaml:"patterns" toml:"patterns"`
	// Dir is the directory packages are loaded from.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`
	// MarkerPackage is the import path of the marker package.
	MarkerPackage string `yaml:"marker_package" toml:"marker_package"`
	// FileSuffix is appended to generated file names.
	FileSuffix string `yaml:"file_suffix" toml:"file_suffix"`
	// Comments enables explanatory comments in generated code.
	Comments bool `yaml:"comments" toml:"comments"`
	// WarningsAsErrors fails the run on any warning.
	WarningsAsErrors bool `yaml:"warnings_as_errors" toml:"warnings_as_errors"`
	// Manifest is the artifact manifest path; empty disables stale cleanup.
	Manifest string `yaml:"manifest" toml:"manifest"`
	// Jobs bounds concurrent file writes; zero means GOMAXPROCS.
	Jobs int `yaml:"jobs" toml:"jobs"`
	// Verbosity is the log verbosity, 0 logs errors only.
	Verbosity int `yaml:"verbosity" toml:"verbosity"`
	// Tags are build tags passed to the loader.
	Tags []string `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// Default returns the settings used without a config file.
func Default() *Config {
	return &Config{
		Patterns:      []string{"./..."},
		MarkerPackage: analyze.DefaultMarkerPath,
		FileSuffix:    gen.DefaultFileSuffix,
		Comments:      true,
		Manifest:      gen.DefaultManifestName,
		Verbosity:     1,
	}
}

// Find returns the first config file present in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Load reads a config file over the defaults. The format follows the
// file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Dir == "" {
		cfg.Dir = filepath.Dir(path)
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings for values no run can use.
func (c *Config) Validate() error {
	if len(c.Patterns) == 0 {
		return errors.New("config: no package patterns")
	}

	if c.MarkerPackage == "" {
		return errors.New("config: empty marker_package")
	}

	if !strings.HasSuffix(c.FileSuffix, ".go") {
		return fmt.Errorf("config: file_suffix %q must end in .go", c.FileSuffix)
	}

	if c.Jobs < 0 {
		return fmt.Errorf("config: negative jobs %d", c.Jobs)
	}

	return nil
}

// ManifestPath returns the manifest path resolved against Dir.
func (c *Config) ManifestPath() string {
	if c.Manifest == "" || filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}

	return filepath.Join(c.Dir, c.Manifest)
}

// BuildFlags returns the loader flags for Tags.
func (c *Config) BuildFlags() []string {
	if len(c.Tags) == 0 {
		return nil
	}

	return []string{"-tags=" + strings.Join(c.Tags, ",")}
}
