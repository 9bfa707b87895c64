// Package units defines the physical unit systems the simulation supports
// and the conversion constants temperature computations depend on.
package units

import "fmt"

// System holds the conversion constants of one unit system.
//
// Mvv2e converts mass*velocity^2 into energy units, Boltz is the Boltzmann
// constant expressed in the system's energy/temperature units.
type System struct {
	Name  string
	Mvv2e float64
	Boltz float64
}

var (
	// LJ is the reduced Lennard-Jones system where all constants are 1.
	LJ = System{Name: "lj", Mvv2e: 1.0, Boltz: 1.0}

	// Real uses g/mol, angstroms/fs and kcal/mol.
	Real = System{Name: "real", Mvv2e: 48.88821291 * 48.88821291, Boltz: 0.0019872067}

	// Metal uses g/mol, angstroms/ps and eV.
	Metal = System{Name: "metal", Mvv2e: 1.0364269e-4, Boltz: 8.617343e-5}

	// SI uses kg, m/s and joules.
	SI = System{Name: "si", Mvv2e: 1.0, Boltz: 1.3806504e-23}
)

var systems = map[string]System{
	"lj":    LJ,
	"real":  Real,
	"metal": Metal,
	"si":    SI,
}

// Lookup resolves a unit system by name.
func Lookup(name string) (System, error) {
	s, ok := systems[name]
	if !ok {
		return System{}, fmt.Errorf("units: unknown unit system %q", name)
	}
	return s, nil
}

// Names lists the supported unit system names.
func Names() []string {
	return []string{"lj", "real", "metal", "si"}
}
