// Package region defines the spatial predicates used by region-local
// velocity-bias computations.
package region

import "gonum.org/v1/gonum/spatial/r3"

// Region is a spatial membership predicate over particle positions.
type Region interface {
	Name() string
	Inside(p r3.Vec) bool
}

// Block is an axis-aligned box, inclusive on both faces.
type Block struct {
	Lo, Hi r3.Vec
}

func (Block) Name() string { return "block" }

func (b Block) Inside(p r3.Vec) bool {
	return p.X >= b.Lo.X && p.X <= b.Hi.X &&
		p.Y >= b.Lo.Y && p.Y <= b.Hi.Y &&
		p.Z >= b.Lo.Z && p.Z <= b.Hi.Z
}

// Sphere is a ball around Center, inclusive of the surface.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

func (Sphere) Name() string { return "sphere" }

func (s Sphere) Inside(p r3.Vec) bool {
	d := r3.Sub(p, s.Center)
	return r3.Dot(d, d) <= s.Radius*s.Radius
}
