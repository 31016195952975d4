// Package config handles bake configuration loading and management.
package config

import (
	"github.com/Faultbox/midgard-atmos/internal/bake"
	"github.com/Faultbox/midgard-atmos/pkg/atmos"
)

// Config holds all bake settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds table file locations.
type DataConfig struct {
	ResourceRoot string `yaml:"resource_root"` // Directory holding the .lut files
}

// BakeConfig holds generator settings.
type BakeConfig struct {
	Workers             int             `yaml:"workers"` // 0 = all CPUs
	Seed                uint64          `yaml:"seed"`
	AllInscattering     bool            `yaml:"all_inscattering"`
	InscatteringClasses []atmos.Class   `yaml:"inscattering_classes"`
	Resolution          bake.Resolution `yaml:"resolution"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			ResourceRoot: "data/atmosphere",
		},
		Bake: BakeConfig{
			Workers:             0,
			Seed:                1,
			AllInscattering:     false,
			InscatteringClasses: []atmos.Class{bake.EarthClass},
			Resolution:          bake.DefaultResolution(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Plan returns the bake plan described by the config.
func (c *Config) Plan() bake.Plan {
	if c.Bake.AllInscattering {
		return bake.FullPlan()
	}
	plan := bake.DefaultPlan()
	plan.Inscattering = append([]atmos.Class(nil), c.Bake.InscatteringClasses...)
	return plan
}

// Options returns generator options for the config. The logger is left to
// the caller.
func (c *Config) Options() bake.Options {
	return bake.Options{
		Resolution: c.Bake.Resolution,
		Workers:    c.Bake.Workers,
		Seed:       c.Bake.Seed,
	}
}
