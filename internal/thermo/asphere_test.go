package thermo

import (
	"errors"
	"math"
	"testing"

	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/bias"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/fix"
	"github.com/avelkov/asphersim/internal/region"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func sphereRec(radius float64) atoms.Ellipsoid {
	return atoms.Ellipsoid{
		Shape: r3.Vec{X: radius, Y: radius, Z: radius},
		Quat:  quat.Number{Real: 1},
	}
}

// mixedStore builds a small anisotropic ensemble with nonzero velocities
// and angular momenta.
func mixedStore() *atoms.Store {
	s := atoms.NewStore(4)
	q := quat.Number{Real: math.Sqrt(0.5), Kmag: math.Sqrt(0.5)}
	s.AddEllipsoid(1.0, r3.Vec{X: 0}, r3.Vec{X: 1, Y: -2, Z: 0.5}, r3.Vec{X: 0.2, Y: 0, Z: 1}, 0,
		atoms.Ellipsoid{Shape: r3.Vec{X: 1, Y: 2, Z: 3}, Quat: q})
	s.AddEllipsoid(2.5, r3.Vec{X: 4}, r3.Vec{X: -0.5, Y: 0.25, Z: 2}, r3.Vec{X: 1, Y: -1, Z: 0.5}, 0,
		atoms.Ellipsoid{Shape: r3.Vec{X: 0.5, Y: 0.5, Z: 1.5}, Quat: quat.Number{Real: 1}})
	s.AddEllipsoid(0.75, r3.Vec{X: 9}, r3.Vec{X: 0, Y: 1, Z: -1}, r3.Vec{X: 0, Y: 2, Z: 0}, 0,
		sphereRec(1.2))
	return s
}

func newCompute(t *testing.T, cfg Config) *Asphere {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestScalarSingleIsotropic(t *testing.T) {
	s := atoms.NewStore(1)
	s.AddEllipsoid(2.0, r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{}, 0, sphereRec(1))
	fr := atoms.Frame{Atoms: s, Step: 0}

	// Full 6 DOF: temperature is m|v|^2 / 6 in lj units.
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	got, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	want := 2.0 * 14.0 / 6.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected temperature %f, got %f", want, got)
	}

	// Configured down to 3 DOF via the extra-DOF correction.
	c3 := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, ExtraDOF: 3})
	if err := c3.Init(fr); err != nil {
		t.Fatal(err)
	}
	got3, err := c3.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	want3 := 2.0 * 14.0 / 3.0
	if math.Abs(got3-want3) > 1e-12 {
		t.Errorf("expected temperature %f with dof=3, got %f", want3, got3)
	}
}

func TestScalarRotationalOnly(t *testing.T) {
	// Anisotropic particle at identity orientation: energy is sum L_i^2/I_i.
	mass := 2.0
	shape := r3.Vec{X: 1, Y: 2, Z: 3}
	l := r3.Vec{X: 0.5, Y: -1, Z: 2}

	s := atoms.NewStore(1)
	s.AddEllipsoid(mass, r3.Vec{}, r3.Vec{}, l, 0,
		atoms.Ellipsoid{Shape: shape, Quat: quat.Number{Real: 1}})
	fr := atoms.Frame{Atoms: s, Step: 0}

	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	got, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}

	ix := mass * (shape.Y*shape.Y + shape.Z*shape.Z) / 5.0
	iy := mass * (shape.X*shape.X + shape.Z*shape.Z) / 5.0
	iz := mass * (shape.X*shape.X + shape.Y*shape.Y) / 5.0
	energy := l.X*l.X/ix + l.Y*l.Y/iy + l.Z*l.Z/iz
	want := energy / 6.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected temperature %f, got %f", want, got)
	}
}

func TestTensorTraceMatchesScalar(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}

	scalar, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	tensor, err := c.Vector(fr)
	if err != nil {
		t.Fatal(err)
	}

	// The tensor carries no DOF normalization; its trace equals the raw
	// energy sum, which is the scalar divided by tfactor.
	trace := tensor[0] + tensor[1] + tensor[2]
	if math.Abs(trace*c.TFactor()-scalar) > 1e-10 {
		t.Errorf("trace*tfactor=%f does not match scalar=%f", trace*c.TFactor(), scalar)
	}
}

func TestDOFMonotonic(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	base := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := base.Init(fr); err != nil {
		t.Fatal(err)
	}

	var reg fix.Registry
	reg.Add(fix.Static{Label: "wall", Group: atoms.All, N: 5})
	constrained := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Fixes: &reg})
	if err := constrained.Init(fr); err != nil {
		t.Fatal(err)
	}

	if constrained.DOF() >= base.DOF() {
		t.Errorf("constraint did not decrease dof: %f vs %f", constrained.DOF(), base.DOF())
	}
	if got := base.DOF() - constrained.DOF(); got != 5 {
		t.Errorf("expected dof reduced by 5, got %f", got)
	}
}

func TestNonPositiveDOFYieldsZero(t *testing.T) {
	s := atoms.NewStore(1)
	s.AddEllipsoid(1.0, r3.Vec{}, r3.Vec{X: 100}, r3.Vec{}, 0, sphereRec(1))
	fr := atoms.Frame{Atoms: s, Step: 0}

	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, ExtraDOF: 100})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	if c.DOF() > 0 {
		t.Fatalf("expected non-positive dof, got %f", c.DOF())
	}
	if c.TFactor() != 0 {
		t.Errorf("expected tfactor exactly 0, got %g", c.TFactor())
	}
	got, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("expected zero temperature, got %f", got)
	}
}

func TestTwoDimensionalMultiplier(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	c2 := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 2, Reducer: comm.Serial{}})
	if err := c2.Init(fr); err != nil {
		t.Fatal(err)
	}
	if want := 3.0 * float64(s.N()); c2.DOF() != want {
		t.Errorf("2d: expected dof %f, got %f", want, c2.DOF())
	}

	c3 := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := c3.Init(fr); err != nil {
		t.Fatal(err)
	}
	if want := 6.0 * float64(s.N()); c3.DOF() != want {
		t.Errorf("3d: expected dof %f, got %f", want, c3.DOF())
	}
}

func TestScalarMemoizedByStep(t *testing.T) {
	s := mixedStore()
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	fr := atoms.Frame{Atoms: s, Step: 5}
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}

	t1, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}

	s.Vel[0] = r3.Scale(3, s.Vel[0])
	t2, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Errorf("repeated evaluation within a step recomputed: %f vs %f", t1, t2)
	}

	t3, err := c.Scalar(atoms.Frame{Atoms: s, Step: 6})
	if err != nil {
		t.Fatal(err)
	}
	if t3 == t1 {
		t.Error("evaluation did not recompute after the step advanced")
	}
}

func TestInitRejectsPointParticles(t *testing.T) {
	s := mixedStore()
	s.Add(1.0, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{}, 0)
	fr := atoms.Frame{Atoms: s, Step: 0}

	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := c.Init(fr); !errors.Is(err, ErrPointParticle) {
		t.Errorf("expected ErrPointParticle, got %v", err)
	}
}

func TestInitRejectsBiasGroupMismatch(t *testing.T) {
	const other atoms.Group = 2
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	b := bias.NewPartial(other, units.LJ, 3, comm.Serial{}, true, true, false)
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); !errors.Is(err, ErrBiasGroup) {
		t.Errorf("expected ErrBiasGroup, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Dim: 4, Reducer: comm.Serial{}}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
	if _, err := New(Config{Dim: 3}); !errors.Is(err, ErrNoReducer) {
		t.Errorf("expected ErrNoReducer, got %v", err)
	}
}

func TestScalarBracketsBiasRemoval(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	before := make([]r3.Vec, s.N())
	copy(before, s.Vel)

	b := bias.NewPartial(atoms.All, units.LJ, 3, comm.Serial{}, true, false, true)
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Scalar(fr); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Vector(atoms.Frame{Atoms: s, Step: 1}); err != nil {
		t.Fatal(err)
	}

	for i := range before {
		if s.Vel[i] != before[i] {
			t.Errorf("particle %d: velocity not restored after evaluation: %v vs %v", i, s.Vel[i], before[i])
		}
	}
}

func TestGenericBiasReducesDOF(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	// Partial bias masking y and z removes 2 DOF per particle.
	b := bias.NewPartial(atoms.All, units.LJ, 3, comm.Serial{}, true, false, false)
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}

	want := 6.0*float64(s.N()) - 2.0*float64(s.N())
	if c.DOF() != want {
		t.Errorf("expected dof %f, got %f", want, c.DOF())
	}
}

func TestCOMBiasZeroesUniformFlow(t *testing.T) {
	// Two identical particles streaming together have no thermal motion.
	flow := r3.Vec{X: 3, Y: -1, Z: 0.5}
	s := atoms.NewStore(2)
	s.AddEllipsoid(1.5, r3.Vec{X: 0}, flow, r3.Vec{}, 0, sphereRec(1))
	s.AddEllipsoid(1.5, r3.Vec{X: 2}, flow, r3.Vec{}, 0, sphereRec(1))
	fr := atoms.Frame{Atoms: s, Step: 0}

	b := bias.NewCOM(atoms.All, units.LJ, 3, comm.Serial{})
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	got, err := c.Scalar(fr)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got) > 1e-14 {
		t.Errorf("expected zero thermal temperature for uniform flow, got %g", got)
	}
}

func TestRegionBiasDOFTracksPositions(t *testing.T) {
	s := mixedStore() // positions x = 0, 4, 9
	fr := atoms.Frame{Atoms: s, Step: 0}

	reg := region.Block{Lo: r3.Vec{X: -1, Y: -10, Z: -10}, Hi: r3.Vec{X: 5, Y: 10, Z: 10}}
	b := bias.NewRegion(atoms.All, units.LJ, 3, comm.Serial{}, reg)
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}

	// One of three particles sits outside the region.
	if want := 6.0*3 - 6.0*1; c.DOF() != want {
		t.Fatalf("expected dof %f, got %f", want, c.DOF())
	}

	// Move a second particle out; the next evaluation must recount.
	s.Pos[1] = r3.Vec{X: 20}
	if _, err := c.Scalar(atoms.Frame{Atoms: s, Step: 1}); err != nil {
		t.Fatal(err)
	}
	if want := 6.0*3 - 6.0*2; c.DOF() != want {
		t.Errorf("expected dof %f after move, got %f", want, c.DOF())
	}
}

func TestDynamicRecountsGroupCount(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Dynamic: true})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}
	dof0 := c.DOF()

	// Grow the population between steps; dynamic mode must pick it up.
	s.AddEllipsoid(1.0, r3.Vec{X: 12}, r3.Vec{Y: 1}, r3.Vec{}, 0, sphereRec(1))
	if _, err := c.Scalar(atoms.Frame{Atoms: s, Step: 1}); err != nil {
		t.Fatal(err)
	}
	if c.DOF() != dof0+6 {
		t.Errorf("expected dof %f after growth, got %f", dof0+6, c.DOF())
	}
}

func TestSingleParticlePassthrough(t *testing.T) {
	s := mixedStore()
	fr := atoms.Frame{Atoms: s, Step: 0}

	b := bias.NewPartial(atoms.All, units.LJ, 3, comm.Serial{}, false, true, true)
	c := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}, Bias: b})
	if err := c.Init(fr); err != nil {
		t.Fatal(err)
	}

	orig := s.Vel[1]
	c.Remove(fr, 1)
	if s.Vel[1].X != 0 {
		t.Errorf("expected x component stripped, got %v", s.Vel[1])
	}
	c.Restore(fr, 1)
	if s.Vel[1] != orig {
		t.Errorf("restore mismatch: %v vs %v", s.Vel[1], orig)
	}

	// Without a bias both calls are no-ops.
	plain := newCompute(t, Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
	if err := plain.Init(fr); err != nil {
		t.Fatal(err)
	}
	orig = s.Vel[2]
	plain.Remove(fr, 2)
	plain.Restore(fr, 2)
	if s.Vel[2] != orig {
		t.Error("bias-less passthrough mutated velocity")
	}
}
