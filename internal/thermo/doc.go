// Package thermo computes instantaneous kinetic temperatures of particle
// groups distributed across a worker set.
//
// The central type is [Asphere], the temperature compute for rigid
// aspherical (ellipsoidal) particles. It combines translational and
// rotational kinetic energy per particle, using each particle's principal
// moments of inertia, into a scalar temperature and a six-component
// kinetic tensor (xx, yy, zz, xy, xz, yz):
//
//	c, _ := thermo.New(thermo.Config{Group: atoms.All, Units: units.LJ, Dim: 3, Reducer: comm.Serial{}})
//	fr := atoms.Frame{Atoms: store, Step: step}
//	if err := c.Init(fr); err != nil { ... }
//	temp, err := c.Scalar(fr)
//
// Every worker in the reducer's set must drive its own Asphere instance
// through the same sequence of calls: evaluations contain blocking
// collective reductions.
//
// An optional velocity bias (see package bias) is stripped before each
// accumulation pass and restored afterwards, and its degree-of-freedom
// consumption is folded into the temperature normalization.
package thermo
