package bias

import (
	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/region"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region restricts thermal motion to particles currently inside a spatial
// region. Removing the bias zeroes the velocity of particles outside the
// region so they contribute nothing to the accumulation; DOFRemove(i)
// reports 1 for each particle outside. Because membership follows particle
// positions, consumers must re-count removed DOF every evaluation.
type Region struct {
	group atoms.Group
	u     units.System
	dim   int
	red   comm.Reducer
	reg   region.Region

	saved   []r3.Vec
	removed []bool

	scalar scalarMemo
	vector vectorMemo
}

func NewRegion(g atoms.Group, u units.System, dim int, red comm.Reducer, reg region.Region) *Region {
	return &Region{group: g, u: u, dim: dim, red: red, reg: reg}
}

func (r *Region) Kind() Kind         { return RegionLocal }
func (r *Region) Group() atoms.Group { return r.group }

func (r *Region) Init(fr atoms.Frame) error {
	r.scalar.ok = false
	r.vector.ok = false
	return nil
}

func (r *Region) Scalar(fr atoms.Frame) (float64, error) {
	if r.scalar.ok && r.scalar.step == fr.Step {
		return r.scalar.val, nil
	}

	st := fr.Atoms
	buf := []float64{0, 0} // energy, count inside
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, r.group) || !r.reg.Inside(st.Pos[i]) {
			continue
		}
		v := st.Vel[i]
		buf[0] += st.Mass[i] * r3.Dot(v, v)
		buf[1]++
	}
	if err := r.red.SumFloats(buf); err != nil {
		return 0, err
	}

	dof := float64(r.dim) * buf[1]
	t := 0.0
	if dof > 0 {
		t = buf[0] * r.u.Mvv2e / (dof * r.u.Boltz)
	}
	r.scalar = scalarMemo{step: fr.Step, ok: true, val: t}
	return t, nil
}

func (r *Region) Vector(fr atoms.Frame) ([6]float64, error) {
	if r.vector.ok && r.vector.step == fr.Step {
		return r.vector.val, nil
	}

	st := fr.Atoms
	buf := make([]float64, 6)
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, r.group) || !r.reg.Inside(st.Pos[i]) {
			continue
		}
		v := st.Vel[i]
		m := st.Mass[i]
		buf[0] += m * v.X * v.X
		buf[1] += m * v.Y * v.Y
		buf[2] += m * v.Z * v.Z
		buf[3] += m * v.X * v.Y
		buf[4] += m * v.X * v.Z
		buf[5] += m * v.Y * v.Z
	}
	if err := r.red.SumFloats(buf); err != nil {
		return [6]float64{}, err
	}

	var out [6]float64
	for i, v := range buf {
		out[i] = v * r.u.Mvv2e
	}
	r.vector = vectorMemo{step: fr.Step, ok: true, val: out}
	return out, nil
}

func (r *Region) RemoveAll(fr atoms.Frame) error {
	st := fr.Atoms
	r.ensureBuffers(st.N())
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, r.group) {
			r.Remove(fr, i)
		}
	}
	return nil
}

func (r *Region) RestoreAll(fr atoms.Frame) {
	st := fr.Atoms
	for i := 0; i < st.N() && i < len(r.removed); i++ {
		if r.removed[i] {
			r.Restore(fr, i)
		}
	}
}

// Remove zeroes the velocity of particle i when it is outside the region.
func (r *Region) Remove(fr atoms.Frame, i int) {
	r.ensureBuffers(fr.Atoms.N())
	if r.reg.Inside(fr.Atoms.Pos[i]) {
		return
	}
	r.saved[i] = fr.Atoms.Vel[i]
	fr.Atoms.Vel[i] = r3.Vec{}
	r.removed[i] = true
}

func (r *Region) Restore(fr atoms.Frame, i int) {
	if i >= len(r.removed) || !r.removed[i] {
		return
	}
	fr.Atoms.Vel[i] = r3.Add(fr.Atoms.Vel[i], r.saved[i])
	r.saved[i] = r3.Vec{}
	r.removed[i] = false
}

// DOFRemove reports 1 when particle i is outside the region. The global
// query returns 0; region biases are accounted per particle.
func (r *Region) DOFRemove(fr atoms.Frame, i int) int {
	if i == GlobalDOF {
		return 0
	}
	if r.reg.Inside(fr.Atoms.Pos[i]) {
		return 0
	}
	return 1
}

func (r *Region) ensureBuffers(n int) {
	if len(r.saved) < n {
		r.saved = make([]r3.Vec, n)
		r.removed = make([]bool, n)
	}
}
