package config

// Presets are named starting configurations for the thermostat commands.
var presets = map[string]*Config{
	"equilibrate": {
		Units:   "lj",
		Dim:     3,
		Rescale: ThermostatConfig{Steps: 200, Target: 1.0, Frac: 0.5},
		Gen:     GenConfig{N: 64, Seed: 1, Temp: 3.0, Side: 12.0},
	},
	"quench": {
		Units:   "lj",
		Dim:     3,
		Rescale: ThermostatConfig{Steps: 50, Target: 0.1, Frac: 1.0},
		Gen:     GenConfig{N: 64, Seed: 1, Temp: 2.0, Side: 12.0},
	},
	"planar": {
		Units:   "lj",
		Dim:     2,
		Rescale: ThermostatConfig{Steps: 100, Target: 1.0, Frac: 0.5},
		Gen:     GenConfig{N: 48, Seed: 1, Temp: 1.0, Side: 15.0},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// ListPresets names the available presets.
func ListPresets() []string {
	return []string{"equilibrate", "planar", "quench"}
}
