package bias

import (
	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// Partial treats only selected velocity components as thermal. Removing the
// bias zeroes the masked components (saving them per particle); each masked
// component removes one DOF per particle, reported globally.
type Partial struct {
	group atoms.Group
	u     units.System
	dim   int
	red   comm.Reducer

	keepX, keepY, keepZ bool

	saved  []r3.Vec
	scalar scalarMemo
	vector vectorMemo
}

// NewPartial creates a partial bias keeping the flagged components thermal.
func NewPartial(g atoms.Group, u units.System, dim int, red comm.Reducer, keepX, keepY, keepZ bool) *Partial {
	return &Partial{group: g, u: u, dim: dim, red: red, keepX: keepX, keepY: keepY, keepZ: keepZ}
}

func (p *Partial) Kind() Kind         { return Generic }
func (p *Partial) Group() atoms.Group { return p.group }

func (p *Partial) Init(fr atoms.Frame) error {
	p.scalar.ok = false
	p.vector.ok = false
	return nil
}

func (p *Partial) masked(v r3.Vec) r3.Vec {
	if !p.keepX {
		v.X = 0
	}
	if !p.keepY {
		v.Y = 0
	}
	if !p.keepZ {
		v.Z = 0
	}
	return v
}

func (p *Partial) Scalar(fr atoms.Frame) (float64, error) {
	if p.scalar.ok && p.scalar.step == fr.Step {
		return p.scalar.val, nil
	}

	st := fr.Atoms
	buf := []float64{0, 0}
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, p.group) {
			continue
		}
		v := p.masked(st.Vel[i])
		buf[0] += st.Mass[i] * r3.Dot(v, v)
		buf[1]++
	}
	if err := p.red.SumFloats(buf); err != nil {
		return 0, err
	}

	dof := float64(p.thermalComponents())*buf[1] - float64(p.dim)
	t := 0.0
	if dof > 0 {
		t = buf[0] * p.u.Mvv2e / (dof * p.u.Boltz)
	}
	p.scalar = scalarMemo{step: fr.Step, ok: true, val: t}
	return t, nil
}

func (p *Partial) Vector(fr atoms.Frame) ([6]float64, error) {
	if p.vector.ok && p.vector.step == fr.Step {
		return p.vector.val, nil
	}

	st := fr.Atoms
	buf := make([]float64, 6)
	for i := 0; i < st.N(); i++ {
		if !st.InGroup(i, p.group) {
			continue
		}
		v := p.masked(st.Vel[i])
		m := st.Mass[i]
		buf[0] += m * v.X * v.X
		buf[1] += m * v.Y * v.Y
		buf[2] += m * v.Z * v.Z
		buf[3] += m * v.X * v.Y
		buf[4] += m * v.X * v.Z
		buf[5] += m * v.Y * v.Z
	}
	if err := p.red.SumFloats(buf); err != nil {
		return [6]float64{}, err
	}

	var out [6]float64
	for i, v := range buf {
		out[i] = v * p.u.Mvv2e
	}
	p.vector = vectorMemo{step: fr.Step, ok: true, val: out}
	return out, nil
}

func (p *Partial) RemoveAll(fr atoms.Frame) error {
	st := fr.Atoms
	if len(p.saved) < st.N() {
		p.saved = make([]r3.Vec, st.N())
	}
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, p.group) {
			p.Remove(fr, i)
		}
	}
	return nil
}

func (p *Partial) RestoreAll(fr atoms.Frame) {
	st := fr.Atoms
	for i := 0; i < st.N(); i++ {
		if st.InGroup(i, p.group) {
			p.Restore(fr, i)
		}
	}
}

// Remove zeroes the masked components of particle i, saving them for
// Restore.
func (p *Partial) Remove(fr atoms.Frame, i int) {
	if len(p.saved) < fr.Atoms.N() {
		p.saved = make([]r3.Vec, fr.Atoms.N())
	}
	v := &fr.Atoms.Vel[i]
	s := &p.saved[i]
	if !p.keepX {
		s.X, v.X = v.X, 0
	}
	if !p.keepY {
		s.Y, v.Y = v.Y, 0
	}
	if !p.keepZ {
		s.Z, v.Z = v.Z, 0
	}
}

func (p *Partial) Restore(fr atoms.Frame, i int) {
	if i >= len(p.saved) {
		return
	}
	v := &fr.Atoms.Vel[i]
	s := &p.saved[i]
	if !p.keepX {
		v.X = s.X
	}
	if !p.keepY {
		v.Y = s.Y
	}
	if !p.keepZ {
		v.Z = s.Z
	}
	*s = r3.Vec{}
}

func (p *Partial) thermalComponents() int {
	n := 0
	flags := []bool{p.keepX, p.keepY, p.keepZ}
	for d := 0; d < p.dim; d++ {
		if flags[d] {
			n++
		}
	}
	return n
}

// DOFRemove reports, for the global query, how many velocity components per
// particle this bias removes.
func (p *Partial) DOFRemove(fr atoms.Frame, i int) int {
	if i != GlobalDOF {
		return 0
	}
	return p.dim - p.thermalComponents()
}
