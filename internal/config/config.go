// Package config holds the YAML-file configuration of the asphersim CLI.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUnits  = "lj"
	DefaultDim    = 3
	DefaultSteps  = 100
	DefaultTarget = 1.0
	DefaultFrac   = 0.5
	DefaultN      = 32
	DefaultSide   = 10.0
)

type Config struct {
	Units    string           `yaml:"units"`
	Dim      int              `yaml:"dim"`
	Workers  int              `yaml:"workers"`
	Group    string           `yaml:"group"`
	ExtraDOF int              `yaml:"extra_dof"`
	Dynamic  bool             `yaml:"dynamic"`
	Bias     BiasConfig       `yaml:"bias"`
	Rescale  ThermostatConfig `yaml:"rescale"`
	Gen      GenConfig        `yaml:"gen"`
}

// BiasConfig selects the optional velocity bias. Kind is one of "",
// "partial", "com" or "region".
type BiasConfig struct {
	Kind   string     `yaml:"kind"`
	Keep   string     `yaml:"keep"`   // partial: thermal components, e.g. "xy"
	Region string     `yaml:"region"` // region: "block" or "sphere"
	Lo     [3]float64 `yaml:"lo"`
	Hi     [3]float64 `yaml:"hi"`
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
}

type ThermostatConfig struct {
	Steps  int     `yaml:"steps"`
	Target float64 `yaml:"target"`
	Frac   float64 `yaml:"frac"`
}

type GenConfig struct {
	N    int     `yaml:"n"`
	Seed int64   `yaml:"seed"`
	Temp float64 `yaml:"temp"`
	Side float64 `yaml:"side"`
}

func DefaultConfig() *Config {
	return &Config{
		Units: DefaultUnits,
		Dim:   DefaultDim,
		Rescale: ThermostatConfig{
			Steps:  DefaultSteps,
			Target: DefaultTarget,
			Frac:   DefaultFrac,
		},
		Gen: GenConfig{
			N:    DefaultN,
			Seed: 1,
			Temp: DefaultTarget,
			Side: DefaultSide,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
