// Package fix models external constraints that consume thermodynamic
// degrees of freedom. A Registry enumerates the active constraints so
// temperature computations can subtract their contributions for a group.
package fix

import "github.com/avelkov/asphersim/internal/atoms"

// Constraint reports how many degrees of freedom it removes from a group.
type Constraint interface {
	Name() string
	DOF(g atoms.Group) int
}

// Registry holds the active constraints, queried once at compute
// initialization.
type Registry struct {
	cs []Constraint
}

func (r *Registry) Add(c Constraint) { r.cs = append(r.cs, c) }

// Total sums the DOF contributions of every active constraint for group g.
func (r *Registry) Total(g atoms.Group) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, c := range r.cs {
		n += c.DOF(g)
	}
	return n
}

// Static is a constraint with a fixed DOF contribution for one group.
type Static struct {
	Label string
	Group atoms.Group
	N     int
}

func (s Static) Name() string { return s.Label }

func (s Static) DOF(g atoms.Group) int {
	if g != s.Group {
		return 0
	}
	return s.N
}

// ZeroMomentum removes the group's linear momentum, consuming one DOF per
// spatial dimension.
type ZeroMomentum struct {
	Group atoms.Group
	Dim   int
}

func (ZeroMomentum) Name() string { return "momentum" }

func (z ZeroMomentum) DOF(g atoms.Group) int {
	if g != z.Group {
		return 0
	}
	return z.Dim
}
