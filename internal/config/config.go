// Package config loads the application configuration from environment
// variables and an optional YAML file. Environment variables win over the
// file; defaults cover a plain checkout where neither exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Batch   BatchConfig   `yaml:"batch" envconfig:"BATCH"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/kitacli.log"`
}

// PathsConfig holds the filesystem layout of a run.
type PathsConfig struct {
	InputDir     string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"data/input" validate:"required"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/output" validate:"required"`
	StructureDir string `yaml:"structure_dir" envconfig:"STRUCTURE_DIR" default:"config/structures" validate:"required"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE"`
}

// BatchConfig tunes the batch loop.
type BatchConfig struct {
	FilePattern string `yaml:"file_pattern" envconfig:"FILE_PATTERN" default:"*.xlsx" validate:"required"`
	DebugLimit  int    `yaml:"debug_limit" envconfig:"DEBUG_LIMIT" validate:"gte=0"`
}

var validate = validator.New()

// Load builds the configuration: defaults, then the YAML file if present,
// then environment overrides.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// envconfig applies struct defaults for unset variables.
	if err := envconfig.Process("KITA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
		cfg = merge(cfg, *fileCfg)
		// Environment still wins over the file. Re-running envconfig here
		// would reset file values to the struct defaults, so only variables
		// actually present in the environment are overlaid.
		if err := applyEnvOverrides(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply env overrides: %w", err)
		}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays non-zero file values onto the defaults.
func merge(base, file Config) Config {
	out := base
	if file.Logging.Level != "" {
		out.Logging.Level = file.Logging.Level
	}
	if file.Logging.Output != "" {
		out.Logging.Output = file.Logging.Output
	}
	if file.Logging.FilePath != "" {
		out.Logging.FilePath = file.Logging.FilePath
	}
	if file.Paths.InputDir != "" {
		out.Paths.InputDir = file.Paths.InputDir
	}
	if file.Paths.OutputDir != "" {
		out.Paths.OutputDir = file.Paths.OutputDir
	}
	if file.Paths.StructureDir != "" {
		out.Paths.StructureDir = file.Paths.StructureDir
	}
	if file.Paths.DatabaseFile != "" {
		out.Paths.DatabaseFile = file.Paths.DatabaseFile
	}
	if file.Batch.FilePattern != "" {
		out.Batch.FilePattern = file.Batch.FilePattern
	}
	if file.Batch.DebugLimit != 0 {
		out.Batch.DebugLimit = file.Batch.DebugLimit
	}
	return out
}

// applyEnvOverrides copies set environment variables onto the merged config.
func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("KITA_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("KITA_LOGGING_OUTPUT", &cfg.Logging.Output)
	setString("KITA_LOGGING_FILE_PATH", &cfg.Logging.FilePath)
	setString("KITA_PATHS_INPUT_DIR", &cfg.Paths.InputDir)
	setString("KITA_PATHS_OUTPUT_DIR", &cfg.Paths.OutputDir)
	setString("KITA_PATHS_STRUCTURE_DIR", &cfg.Paths.StructureDir)
	setString("KITA_PATHS_DATABASE_FILE", &cfg.Paths.DatabaseFile)
	setString("KITA_BATCH_FILE_PATTERN", &cfg.Batch.FilePattern)

	if v, ok := os.LookupEnv("KITA_BATCH_DEBUG_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KITA_BATCH_DEBUG_LIMIT must be an integer: %w", err)
		}
		cfg.Batch.DebugLimit = n
	}
	return nil
}

// StructurePath returns the structure spec file for a report type.
func (c *Config) StructurePath(extractorName string) string {
	return filepath.Join(c.Paths.StructureDir, extractorName+"_structure.yaml")
}

// CheckpointPath returns the checkpoint file for a report type.
func (c *Config) CheckpointPath(extractorName string) string {
	return filepath.Join(c.Paths.OutputDir, "processed_files_"+extractorName+".json")
}
