// Package atoms holds the per-worker particle storage: velocities, angular
// momenta, masses, group membership masks and the ellipsoid shape records
// of extended particles. Computations borrow a Store read-only; velocities
// are mutated only transiently during bias removal.
package atoms

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Group is a single group-membership bit. A particle's mask is the union of
// the bits of every group it belongs to.
type Group uint32

// All is the implicit group every particle belongs to.
const All Group = 1

// Ellipsoid is one extended-particle shape record: the three semi-axis
// lengths and the orientation quaternion (unit norm, w first).
type Ellipsoid struct {
	Shape r3.Vec
	Quat  quat.Number
}

// Store is one worker's locally owned particles. Slices are parallel and
// indexed by local particle index. EllipsoidIdx is -1 for point particles.
type Store struct {
	Mass         []float64
	Pos          []r3.Vec
	Vel          []r3.Vec
	AngMom       []r3.Vec
	Mask         []Group
	EllipsoidIdx []int
	Ellipsoids   []Ellipsoid
}

// NewStore allocates an empty store with capacity for n particles.
func NewStore(n int) *Store {
	return &Store{
		Mass:         make([]float64, 0, n),
		Pos:          make([]r3.Vec, 0, n),
		Vel:          make([]r3.Vec, 0, n),
		AngMom:       make([]r3.Vec, 0, n),
		Mask:         make([]Group, 0, n),
		EllipsoidIdx: make([]int, 0, n),
	}
}

// Add appends a point particle and returns its local index.
func (s *Store) Add(mass float64, pos, vel, angmom r3.Vec, mask Group) int {
	s.Mass = append(s.Mass, mass)
	s.Pos = append(s.Pos, pos)
	s.Vel = append(s.Vel, vel)
	s.AngMom = append(s.AngMom, angmom)
	s.Mask = append(s.Mask, mask|All)
	s.EllipsoidIdx = append(s.EllipsoidIdx, -1)
	return len(s.Mass) - 1
}

// AddEllipsoid appends an extended particle with the given shape record.
func (s *Store) AddEllipsoid(mass float64, pos, vel, angmom r3.Vec, mask Group, e Ellipsoid) int {
	i := s.Add(mass, pos, vel, angmom, mask)
	s.Ellipsoids = append(s.Ellipsoids, e)
	s.EllipsoidIdx[i] = len(s.Ellipsoids) - 1
	return i
}

// N is the number of locally owned particles.
func (s *Store) N() int { return len(s.Mass) }

// InGroup reports whether local particle i belongs to group g.
func (s *Store) InGroup(i int, g Group) bool { return s.Mask[i]&g != 0 }

// CountGroup counts the locally owned members of group g.
func (s *Store) CountGroup(g Group) int {
	n := 0
	for i := range s.Mask {
		if s.Mask[i]&g != 0 {
			n++
		}
	}
	return n
}

// Record returns the ellipsoid record of local particle i, or false if the
// particle is a point particle.
func (s *Store) Record(i int) (Ellipsoid, bool) {
	idx := s.EllipsoidIdx[i]
	if idx < 0 {
		return Ellipsoid{}, false
	}
	return s.Ellipsoids[idx], true
}

// Frame is the borrowed view a computation receives for one evaluation:
// the worker's local store plus the current simulation step used for
// result memoization.
type Frame struct {
	Atoms *Store
	Step  int64
}
