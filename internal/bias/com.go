package bias

import (
	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// COM subtracts the group's mass-weighted mean velocity, leaving the
// thermal residual. The mean is a global quantity, so establishing it
// performs one collective reduction per step. It removes no DOF through
// DOFRemove; callers account for the removed center-of-mass motion via an
// extra-DOF correction or a momentum constraint.
type COM struct {
	group atoms.Group
	u     units.System
	dim   int
	red   comm.Reducer

	vbias    r3.Vec
	natoms   float64
	biasStep int64
	biasOK   bool

	scalar scalarMemo
	vector vectorMemo
}

func NewCOM(g atoms.Group, u units.System, dim int, red comm.Reducer) *COM {
	return &COM{group: g, u: u, dim: dim, red: red}
}

func (c *COM) Kind() Kind         { return Generic }
func (c *COM) Group() atoms.Group { return c.group }

func (c *COM) Init(fr atoms.Frame) error {
	c.biasOK = false
	c.scalar.ok = false
	c.vector.ok = false
	return nil
}

// ensureBias computes the group center-of-mass velocity for the frame's
// step, once per step across all workers.
func (c *COM) ensureBias(fr atoms.Frame) error {
	if c.biasOK && c.biasStep == fr.Step {
		return nil
	}

	st := fr.Atoms
	buf := []float64{0, 0, 0, 0, 0} // m*vx, m*vy, m*vz, m, count
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, c.group) {
			continue
		}
		m := st.Mass[i]
		buf[0] += m * st.Vel[i].X
		buf[1] += m * st.Vel[i].Y
		buf[2] += m * st.Vel[i].Z
		buf[3] += m
		buf[4]++
	}
	if err := c.red.SumFloats(buf); err != nil {
		return err
	}

	if buf[3] > 0 {
		c.vbias = r3.Vec{X: buf[0] / buf[3], Y: buf[1] / buf[3], Z: buf[2] / buf[3]}
	} else {
		c.vbias = r3.Vec{}
	}
	c.natoms = buf[4]
	c.biasStep = fr.Step
	c.biasOK = true
	return nil
}

func (c *COM) Scalar(fr atoms.Frame) (float64, error) {
	if c.scalar.ok && c.scalar.step == fr.Step {
		return c.scalar.val, nil
	}
	if err := c.ensureBias(fr); err != nil {
		return 0, err
	}

	st := fr.Atoms
	buf := []float64{0}
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, c.group) {
			continue
		}
		v := r3.Sub(st.Vel[i], c.vbias)
		buf[0] += st.Mass[i] * r3.Dot(v, v)
	}
	if err := c.red.SumFloats(buf); err != nil {
		return 0, err
	}

	// Center-of-mass motion consumes dim degrees of freedom.
	dof := float64(c.dim)*c.natoms - float64(c.dim)
	t := 0.0
	if dof > 0 {
		t = buf[0] * c.u.Mvv2e / (dof * c.u.Boltz)
	}
	c.scalar = scalarMemo{step: fr.Step, ok: true, val: t}
	return t, nil
}

func (c *COM) Vector(fr atoms.Frame) ([6]float64, error) {
	if c.vector.ok && c.vector.step == fr.Step {
		return c.vector.val, nil
	}
	if err := c.ensureBias(fr); err != nil {
		return [6]float64{}, err
	}

	st := fr.Atoms
	buf := make([]float64, 6)
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, c.group) {
			continue
		}
		v := r3.Sub(st.Vel[i], c.vbias)
		m := st.Mass[i]
		buf[0] += m * v.X * v.X
		buf[1] += m * v.Y * v.Y
		buf[2] += m * v.Z * v.Z
		buf[3] += m * v.X * v.Y
		buf[4] += m * v.X * v.Z
		buf[5] += m * v.Y * v.Z
	}
	if err := c.red.SumFloats(buf); err != nil {
		return [6]float64{}, err
	}

	var out [6]float64
	for i, v := range buf {
		out[i] = v * c.u.Mvv2e
	}
	c.vector = vectorMemo{step: fr.Step, ok: true, val: out}
	return out, nil
}

func (c *COM) RemoveAll(fr atoms.Frame) error {
	if err := c.ensureBias(fr); err != nil {
		return err
	}
	st := fr.Atoms
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, c.group) {
			st.Vel[i] = r3.Sub(st.Vel[i], c.vbias)
		}
	}
	return nil
}

func (c *COM) RestoreAll(fr atoms.Frame) {
	st := fr.Atoms
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, c.group) {
			st.Vel[i] = r3.Add(st.Vel[i], c.vbias)
		}
	}
}

// Remove assumes the bias velocity is current for the frame's step.
func (c *COM) Remove(fr atoms.Frame, i int) {
	fr.Atoms.Vel[i] = r3.Sub(fr.Atoms.Vel[i], c.vbias)
}

func (c *COM) Restore(fr atoms.Frame, i int) {
	fr.Atoms.Vel[i] = r3.Add(fr.Atoms.Vel[i], c.vbias)
}

func (c *COM) DOFRemove(fr atoms.Frame, i int) int { return 0 }
