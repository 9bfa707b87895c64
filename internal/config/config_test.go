package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Units != "lj" || cfg.Dim != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Rescale.Steps != DefaultSteps || cfg.Rescale.Target != DefaultTarget {
		t.Errorf("unexpected thermostat defaults: %+v", cfg.Rescale)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.Bias = BiasConfig{Kind: "region", Region: "sphere", Center: [3]float64{1, 2, 3}, Radius: 5}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", loaded.Workers)
	}
	if loaded.Bias.Kind != "region" || loaded.Bias.Radius != 5 {
		t.Errorf("bias config did not survive round trip: %+v", loaded.Bias)
	}
}

func TestPresets(t *testing.T) {
	if GetPreset("equilibrate") == nil {
		t.Error("expected equilibrate preset")
	}
	if GetPreset("nope") != nil {
		t.Error("expected nil for unknown preset")
	}
	if p := GetPreset("planar"); p.Dim != 2 {
		t.Errorf("planar preset should be 2d, got dim %d", p.Dim)
	}
}
