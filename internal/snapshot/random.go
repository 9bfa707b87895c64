package snapshot

import (
	"math"
	"math/rand"

	"github.com/avelkov/asphersim/internal/rigid"
	"github.com/avelkov/asphersim/internal/units"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Random generates a reproducible ensemble of n ellipsoidal particles with
// Maxwell-Boltzmann velocities and angular momenta at the target
// temperature. Positions are scattered uniformly in a cube of the given
// side length centered on the origin.
func Random(n int, seed int64, temp, side float64, u units.System, dim int) *Snapshot {
	rng := rand.New(rand.NewSource(seed))

	s := &Snapshot{Units: u.Name, Dim: dim, Particles: make([]Particle, 0, n)}
	for i := 0; i < n; i++ {
		mass := 0.5 + rng.Float64()
		shape := [3]float64{
			0.5 + rng.Float64(),
			0.5 + rng.Float64(),
			0.5 + rng.Float64(),
		}
		if dim == 2 {
			shape[2] = shape[0]
		}
		q := randomQuat(rng, dim)

		p := Particle{
			Mass:  mass,
			Shape: shape,
			Quat:  [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
		}
		for d := 0; d < dim; d++ {
			p.Pos[d] = (rng.Float64() - 0.5) * side
		}

		// Equipartition: each quadratic term carries kB*T/2, and the
		// accumulated energies are m*v^2 and I*w^2 (no half), so the
		// per-component variance is kB*T/(m*mvv2e).
		sigma := math.Sqrt(u.Boltz * temp / (mass * u.Mvv2e))
		for d := 0; d < dim; d++ {
			p.Vel[d] = sigma * rng.NormFloat64()
		}

		inertia := rigid.Moments(mass, r3.Vec{X: shape[0], Y: shape[1], Z: shape[2]})
		wb := r3.Vec{
			X: math.Sqrt(u.Boltz*temp/(inertia.X*u.Mvv2e)) * rng.NormFloat64(),
			Y: math.Sqrt(u.Boltz*temp/(inertia.Y*u.Mvv2e)) * rng.NormFloat64(),
			Z: math.Sqrt(u.Boltz*temp/(inertia.Z*u.Mvv2e)) * rng.NormFloat64(),
		}
		lb := r3.Vec{X: inertia.X * wb.X, Y: inertia.Y * wb.Y, Z: inertia.Z * wb.Z}
		l := rigid.ToSpace(q, lb)
		p.AngMom = [3]float64{l.X, l.Y, l.Z}

		s.Particles = append(s.Particles, p)
	}
	return s
}

func randomQuat(rng *rand.Rand, dim int) quat.Number {
	if dim == 2 {
		// Rotation about z only.
		theta := rng.Float64() * math.Pi
		return quat.Number{Real: math.Cos(theta), Kmag: math.Sin(theta)}
	}
	// Shoemake's uniform unit quaternion.
	u1, u2, u3 := rng.Float64(), rng.Float64()*2*math.Pi, rng.Float64()*2*math.Pi
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return quat.Number{
		Real: a * math.Sin(u2),
		Imag: a * math.Cos(u2),
		Jmag: b * math.Sin(u3),
		Kmag: b * math.Cos(u3),
	}
}
