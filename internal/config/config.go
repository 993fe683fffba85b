// Package config loads the optional apedash.yaml placed next to the data.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"apedash/internal/results"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "apedash.yaml"

// Config holds dashboard settings. Flags override these; these override
// the built-in defaults.
type Config struct {
	Results     string   `yaml:"results"`
	Plots       string   `yaml:"plots"`
	Previews    string   `yaml:"previews"`
	Port        int      `yaml:"port"`
	Bind        string   `yaml:"bind"`
	SubtagOrder []string `yaml:"subtag_order"`
}

// Default returns the built-in configuration, matching the conventional
// layout: results file and the two artifact folders next to the binary.
func Default() Config {
	return Config{
		Results:     "ape_results.json",
		Plots:       "plots",
		Previews:    "plots_previews",
		Port:        8501,
		Bind:        "127.0.0.1",
		SubtagOrder: append([]string(nil), results.DefaultSubtagOrder...),
	}
}

// Load reads a YAML config file and merges it over the defaults.
// A missing file at the default path is not an error; a missing file at an
// explicitly requested path is. Malformed YAML is always an error.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if file.Results != "" {
		cfg.Results = file.Results
	}
	if file.Plots != "" {
		cfg.Plots = file.Plots
	}
	if file.Previews != "" {
		cfg.Previews = file.Previews
	}
	if file.Port != 0 {
		cfg.Port = file.Port
	}
	if file.Bind != "" {
		cfg.Bind = file.Bind
	}
	if len(file.SubtagOrder) > 0 {
		cfg.SubtagOrder = file.SubtagOrder
	}
	return cfg, nil
}
