// Package rigid implements the per-particle rigid-body kinematics of
// uniform-density ellipsoids: principal moments of inertia, body-frame
// angular velocity and rotational kinetic energy.
package rigid

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Moments returns the principal moments of inertia of a uniform ellipsoid
// of the given mass and semi-axes (a, b, c):
//
//	Ix = m(b²+c²)/5, Iy = m(a²+c²)/5, Iz = m(a²+b²)/5
func Moments(mass float64, shape r3.Vec) r3.Vec {
	return r3.Vec{
		X: mass * (shape.Y*shape.Y + shape.Z*shape.Z) / 5.0,
		Y: mass * (shape.X*shape.X + shape.Z*shape.Z) / 5.0,
		Z: mass * (shape.X*shape.X + shape.Y*shape.Y) / 5.0,
	}
}

// ToBody transforms a space-frame vector into the body frame of a particle
// with unit orientation quaternion q. This is the transpose rotation
// Rᵗ(q)·v, applied as rotation by the conjugate quaternion.
func ToBody(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(quat.Conj(q)).Rotate(v)
}

// ToSpace transforms a body-frame vector into the space frame, R(q)·v.
func ToSpace(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// AngVelBody converts a space-frame angular momentum into the body-frame
// angular velocity of a particle with orientation q and principal moments
// inertia. The moments must be nonzero; callers guarantee extended
// particles only.
func AngVelBody(q quat.Number, angmom, inertia r3.Vec) r3.Vec {
	w := ToBody(q, angmom)
	return r3.Vec{X: w.X / inertia.X, Y: w.Y / inertia.Y, Z: w.Z / inertia.Z}
}

// KE returns the rotational kinetic energy contraction I·ω² (without the
// conventional 1/2, matching the translational m·v² accumulation it is
// summed with).
func KE(inertia, w r3.Vec) float64 {
	return inertia.X*w.X*w.X + inertia.Y*w.Y*w.Y + inertia.Z*w.Z*w.Z
}

// KETensor accumulates the rotational kinetic tensor contributions into t.
// Component order is xx, yy, zz, xy, xz, yz; the off-diagonal terms pair
// each moment with the cross product of angular velocity components
// associated with its diagonal term.
func KETensor(inertia, w r3.Vec, t *[6]float64) {
	t[0] += inertia.X * w.X * w.X
	t[1] += inertia.Y * w.Y * w.Y
	t[2] += inertia.Z * w.Z * w.Z
	t[3] += inertia.X * w.X * w.Y
	t[4] += inertia.Y * w.X * w.Z
	t[5] += inertia.Z * w.Y * w.Z
}
