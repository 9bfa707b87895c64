package engine

import (
	"errors"
	"math"

	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/snapshot"
	"github.com/avelkov/asphersim/internal/thermo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrTarget indicates a non-positive thermostat target temperature.
var ErrTarget = errors.New("engine: thermostat target temperature must be positive")

// Thermostat relaxes a system toward a target temperature by rescaling
// group velocities and angular momenta after each evaluation. It runs on a
// single worker; the compute it drives is the same one Evaluate uses.
type Thermostat struct {
	store  *atoms.Store
	comp   *thermo.Asphere
	group  atoms.Group
	target float64
	frac   float64
	step   int64
}

// NewThermostat builds a serial thermostat over the snapshot. frac in
// (0, 1] is the fraction of the temperature gap closed per step; 1
// rescales exactly onto the target.
func NewThermostat(snap *snapshot.Snapshot, opts Options, target, frac float64) (*Thermostat, error) {
	if target <= 0 {
		return nil, ErrTarget
	}
	if frac <= 0 || frac > 1 {
		frac = 1
	}

	u, g, err := resolve(snap, opts)
	if err != nil {
		return nil, err
	}
	store, err := snap.Build()
	if err != nil {
		return nil, err
	}
	comp, err := newCompute(g, u, snap.Dim, comm.Serial{}, opts)
	if err != nil {
		return nil, err
	}
	if err := comp.Init(atoms.Frame{Atoms: store, Step: opts.Step}); err != nil {
		return nil, err
	}
	return &Thermostat{
		store:  store,
		comp:   comp,
		group:  g,
		target: target,
		frac:   frac,
		step:   opts.Step,
	}, nil
}

// Step evaluates the current temperature, rescales toward the target and
// advances the step counter. It returns the temperature before rescaling.
func (t *Thermostat) Step() (float64, error) {
	fr := atoms.Frame{Atoms: t.store, Step: t.step}
	temp, err := t.comp.Scalar(fr)
	if err != nil {
		return 0, err
	}

	if temp > 0 {
		lambda := math.Sqrt(1 + t.frac*(t.target/temp-1))
		for i := 0; i < t.store.N(); i++ {
			if !t.store.InGroup(i, t.group) {
				continue
			}
			t.store.Vel[i] = r3.Scale(lambda, t.store.Vel[i])
			t.store.AngMom[i] = r3.Scale(lambda, t.store.AngMom[i])
		}
	}

	t.step++
	return temp, nil
}

// Run performs n thermostat steps and returns the temperature series.
func (t *Thermostat) Run(n int) ([]float64, error) {
	series := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		temp, err := t.Step()
		if err != nil {
			return series, err
		}
		series = append(series, temp)
	}
	return series, nil
}

// Tensor evaluates the kinetic tensor of the current state.
func (t *Thermostat) Tensor() ([6]float64, error) {
	return t.comp.Vector(atoms.Frame{Atoms: t.store, Step: t.step})
}

// DOF reports the compute's current degrees of freedom.
func (t *Thermostat) DOF() float64 { return t.comp.DOF() }

// StepCount is the step the next evaluation will be tagged with.
func (t *Thermostat) StepCount() int64 { return t.step }
