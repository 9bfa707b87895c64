package thermo

import (
	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/bias"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/fix"
	"github.com/avelkov/asphersim/internal/rigid"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

type biasMode int

const (
	biasNone biasMode = iota
	biasGeneric
	biasRegion
)

// Config assembles the collaborators of an Asphere compute. Group, Units,
// Dim and Reducer are required; the rest are optional.
type Config struct {
	Group   atoms.Group
	Units   units.System
	Dim     int
	Reducer comm.Reducer

	// Fixes is the external constraint registry, queried once at Init.
	Fixes *fix.Registry

	// Bias is the optional upstream velocity-bias compute.
	Bias bias.Bias

	// ExtraDOF is a caller-provided correction subtracted from the
	// computed degrees of freedom.
	ExtraDOF int

	// Dynamic marks configurations whose DOF may legitimately change
	// between evaluations, forcing a recount before every scalar result.
	Dynamic bool
}

// Asphere computes the kinetic temperature and kinetic tensor of a group
// of rigid ellipsoidal particles. Each worker owns one instance; results
// are identical across the worker set after reduction.
type Asphere struct {
	group    atoms.Group
	u        units.System
	dim      int
	red      comm.Reducer
	fixes    *fix.Registry
	bias     bias.Bias
	extraDOF int
	dynamic  bool

	mode   biasMode
	fixDOF int

	dof     float64
	tfactor float64

	scalarStep int64
	scalarOK   bool
	scalarVal  float64

	vectorStep int64
	vectorOK   bool
	vectorVal  [6]float64
}

// New validates the configuration and creates the compute. Init must be
// called with a frame before the first evaluation.
func New(cfg Config) (*Asphere, error) {
	if cfg.Dim != 2 && cfg.Dim != 3 {
		return nil, ErrDimension
	}
	if cfg.Reducer == nil {
		return nil, ErrNoReducer
	}
	c := &Asphere{
		group:    cfg.Group,
		u:        cfg.Units,
		dim:      cfg.Dim,
		red:      cfg.Reducer,
		fixes:    cfg.Fixes,
		bias:     cfg.Bias,
		extraDOF: cfg.ExtraDOF,
		dynamic:  cfg.Dynamic,
	}
	return c, nil
}

// Init validates that every monitored particle on this worker carries an
// ellipsoid record, resolves the bias configuration and computes the
// initial degrees of freedom. It must be called by every worker in the
// reducer's set.
func (c *Asphere) Init(fr atoms.Frame) error {
	st := fr.Atoms
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, c.group) && st.EllipsoidIdx[i] < 0 {
			return ErrPointParticle
		}
	}

	c.mode = biasNone
	if c.bias != nil {
		if c.bias.Group() != c.group {
			return ErrBiasGroup
		}
		if err := c.bias.Init(fr); err != nil {
			return err
		}
		if c.bias.Kind() == bias.RegionLocal {
			c.mode = biasRegion
		} else {
			c.mode = biasGeneric
		}
	}

	c.fixDOF = c.fixes.Total(c.group)
	c.scalarOK = false
	c.vectorOK = false
	return c.ComputeDOF(fr)
}

// DOF returns the degrees of freedom from the last (re)count. May be
// non-positive for tiny or fully constrained groups.
func (c *Asphere) DOF() float64 { return c.dof }

// TFactor returns the current energy-to-temperature scale factor; exactly
// zero whenever DOF is non-positive.
func (c *Asphere) TFactor() float64 { return c.tfactor }

// ComputeDOF recounts the group's active degrees of freedom and refreshes
// the temperature scale factor. It performs one collective reduction for
// the global group count, plus a second one for region-local biases.
func (c *Asphere) ComputeDOF(fr atoms.Frame) error {
	st := fr.Atoms

	// Full rotation of extended particles is assumed: 6 DOF per particle
	// in 3d. The 2d convention keeps the scalar base multiplier of 3.
	nper := 6
	if c.dim == 2 {
		nper = 3
	}

	buf := []float64{float64(st.CountGroup(c.group))}
	if err := c.red.SumFloats(buf); err != nil {
		return err
	}
	natoms := buf[0]
	c.dof = float64(nper) * natoms

	switch c.mode {
	case biasGeneric:
		c.dof -= float64(c.bias.DOFRemove(fr, bias.GlobalDOF)) * natoms
	case biasRegion:
		count := []float64{0}
		for i := 0; i < st.N(); i++ {
			if st.InGroup(i, c.group) && c.bias.DOFRemove(fr, i) > 0 {
				count[0]++
			}
		}
		if err := c.red.SumFloats(count); err != nil {
			return err
		}
		c.dof -= float64(nper) * count[0]
	}

	c.dof -= float64(c.extraDOF + c.fixDOF)
	if c.dof > 0 {
		c.tfactor = c.u.Mvv2e / (c.dof * c.u.Boltz)
	} else {
		c.tfactor = 0.0
	}
	return nil
}

// Scalar evaluates the instantaneous kinetic temperature of the monitored
// group for the frame's step. Results are memoized per step.
func (c *Asphere) Scalar(fr atoms.Frame) (float64, error) {
	if c.scalarOK && c.scalarStep == fr.Step {
		return c.scalarVal, nil
	}

	if c.bias != nil {
		if _, err := c.bias.Scalar(fr); err != nil {
			return 0, err
		}
		if err := c.bias.RemoveAll(fr); err != nil {
			return 0, err
		}
	}

	st := fr.Atoms
	t := 0.0
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, c.group) {
			continue
		}
		rec := st.Ellipsoids[st.EllipsoidIdx[i]]
		m := st.Mass[i]
		v := st.Vel[i]

		t += m * r3.Dot(v, v)

		inertia := rigid.Moments(m, rec.Shape)
		w := rigid.AngVelBody(rec.Quat, st.AngMom[i], inertia)
		t += rigid.KE(inertia, w)
	}

	// Bias must never remain stripped, whatever happens next.
	if c.bias != nil {
		c.bias.RestoreAll(fr)
	}

	buf := []float64{t}
	if err := c.red.SumFloats(buf); err != nil {
		return 0, err
	}

	if c.dynamic || c.mode == biasRegion {
		if err := c.ComputeDOF(fr); err != nil {
			return 0, err
		}
	}

	c.scalarVal = buf[0] * c.tfactor
	c.scalarStep = fr.Step
	c.scalarOK = true
	return c.scalarVal, nil
}

// Vector evaluates the six-component kinetic tensor (xx, yy, zz, xy, xz,
// yz) of the monitored group for the frame's step. The tensor is a second
// moment: it carries the units conversion but no DOF normalization.
func (c *Asphere) Vector(fr atoms.Frame) ([6]float64, error) {
	if c.vectorOK && c.vectorStep == fr.Step {
		return c.vectorVal, nil
	}

	if c.bias != nil {
		if _, err := c.bias.Vector(fr); err != nil {
			return [6]float64{}, err
		}
		if err := c.bias.RemoveAll(fr); err != nil {
			return [6]float64{}, err
		}
	}

	st := fr.Atoms
	var t [6]float64
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, c.group) {
			continue
		}
		rec := st.Ellipsoids[st.EllipsoidIdx[i]]
		m := st.Mass[i]
		v := st.Vel[i]

		t[0] += m * v.X * v.X
		t[1] += m * v.Y * v.Y
		t[2] += m * v.Z * v.Z
		t[3] += m * v.X * v.Y
		t[4] += m * v.X * v.Z
		t[5] += m * v.Y * v.Z

		inertia := rigid.Moments(m, rec.Shape)
		w := rigid.AngVelBody(rec.Quat, st.AngMom[i], inertia)
		rigid.KETensor(inertia, w, &t)
	}

	if c.bias != nil {
		c.bias.RestoreAll(fr)
	}

	buf := t[:]
	if err := c.red.SumFloats(buf); err != nil {
		return [6]float64{}, err
	}
	for i := range t {
		t[i] *= c.u.Mvv2e
	}

	c.vectorVal = t
	c.vectorStep = fr.Step
	c.vectorOK = true
	return t, nil
}

// Remove strips the configured velocity bias from particle i, leaving its
// thermal velocity. No-op without a bias.
func (c *Asphere) Remove(fr atoms.Frame, i int) {
	if c.bias != nil {
		c.bias.Remove(fr, i)
	}
}

// Restore adds back the bias previously stripped from particle i by
// Remove.
func (c *Asphere) Restore(fr atoms.Frame, i int) {
	if c.bias != nil {
		c.bias.Restore(fr, i)
	}
}
