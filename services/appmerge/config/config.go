// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates run configuration for comparison
// runs.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config configures a comparison run. The zero value is not usable;
// start from Default().
type Config struct {
	// Workers is the classification fan-out width. Zero selects
	// min(NumCPU, 8).
	Workers int `yaml:"workers" validate:"gte=0,lte=64"`

	// MaxEntryBytes is the per-entry archive size limit. Entries above
	// it are downgraded to Unknown objects.
	MaxEntryBytes int64 `yaml:"max_entry_bytes" validate:"gte=0"`

	// DiffContext is the number of context lines per diff hunk.
	DiffContext int `yaml:"diff_context" validate:"gte=0,lte=100"`

	// FlowGraphs toggles flow-graph reconstruction for process models.
	FlowGraphs bool `yaml:"flow_graphs"`

	// FormatSail toggles name-resolved SAIL rendering in the result.
	FormatSail bool `yaml:"format_sail"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Workers:       0,
		MaxEntryBytes: 0, // archive package default
		DiffContext:   3,
		FlowGraphs:    true,
		FormatSail:    true,
	}
}

// Load reads a YAML configuration file, layering it over Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
