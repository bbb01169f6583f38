// Package config loads the .tstpatch.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working
// directory.
const FileName = ".tstpatch.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTST  = "tst"

	// FormatCases writes the patched test cases in the input JSON
	// shape.
	FormatCases = "cases"
)

// Config is the project configuration.
type Config struct {
	// MaxIdentifierIndex is how many elements of each pointer or
	// unbounded array the type resolver expands.
	MaxIdentifierIndex int `yaml:"max_identifier_index" validate:"gte=1"`

	// Workers bounds concurrent patching of a test-case batch.
	Workers int `yaml:"workers" validate:"gte=1"`

	// Format is the default output format of the patch command.
	Format string `yaml:"format" validate:"oneof=text json tst cases"`

	Subprograms SubprogramConfig `yaml:"subprograms"`
	Script      ScriptConfig     `yaml:"script"`
}

// SubprogramConfig selects which subprograms are patched. Test cases
// for other subprograms pass through unchanged.
type SubprogramConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// ScriptConfig controls test-script rendering.
type ScriptConfig struct {
	// AddUUID appends a random UUID to every emitted test name.
	AddUUID bool `yaml:"add_uuid"`

	// Environment is written into the script header.
	Environment string `yaml:"environment"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		MaxIdentifierIndex: 3,
		Workers:            4,
		Format:             FormatText,
	}
}

var validate = validator.New()

// Load reads the configuration at path over the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the value ranges and the output format.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadDir loads FileName from dir.
func LoadDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
