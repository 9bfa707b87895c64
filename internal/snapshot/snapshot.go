// Package snapshot reads and writes particle-system snapshots: the YAML
// description of an ensemble of ellipsoidal particles from which worker
// stores are built.
package snapshot

import (
	"fmt"
	"math"
	"os"

	"github.com/avelkov/asphersim/internal/atoms"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const quatTol = 1e-6

// Particle is one particle record. Shape omitted (all zeros) means a point
// particle without an ellipsoid record. Quat is stored w-first.
type Particle struct {
	Mass   float64    `yaml:"mass"`
	Shape  [3]float64 `yaml:"shape,omitempty"`
	Quat   [4]float64 `yaml:"quat,omitempty"`
	Pos    [3]float64 `yaml:"pos"`
	Vel    [3]float64 `yaml:"vel"`
	AngMom [3]float64 `yaml:"angmom,omitempty"`
	Groups []string   `yaml:"groups,omitempty"`
}

// Snapshot is a complete system description. Groups lists the named groups
// in bit order; "all" is implicit and owns bit zero.
type Snapshot struct {
	Units     string     `yaml:"units"`
	Dim       int        `yaml:"dim"`
	Groups    []string   `yaml:"groups,omitempty"`
	Particles []Particle `yaml:"particles"`
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the snapshot as YAML.
func Save(path string, s *Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *Particle) extended() bool {
	return p.Shape[0] != 0 || p.Shape[1] != 0 || p.Shape[2] != 0
}

// Validate checks masses, semi-axes, quaternion norms and group names.
func (s *Snapshot) Validate() error {
	if s.Dim != 2 && s.Dim != 3 {
		return fmt.Errorf("snapshot: dim must be 2 or 3, got %d", s.Dim)
	}
	if len(s.Groups) > 31 {
		return fmt.Errorf("snapshot: too many groups (%d), at most 31", len(s.Groups))
	}
	for i, p := range s.Particles {
		if p.Mass <= 0 {
			return fmt.Errorf("snapshot: particle %d has non-positive mass %g", i, p.Mass)
		}
		if p.extended() {
			for _, a := range p.Shape {
				if a <= 0 {
					return fmt.Errorf("snapshot: particle %d has non-positive semi-axis %g", i, a)
				}
			}
			n := math.Sqrt(p.Quat[0]*p.Quat[0] + p.Quat[1]*p.Quat[1] + p.Quat[2]*p.Quat[2] + p.Quat[3]*p.Quat[3])
			if math.Abs(n-1) > quatTol {
				return fmt.Errorf("snapshot: particle %d quaternion norm %g is not unit", i, n)
			}
		}
		for _, g := range p.Groups {
			if _, err := s.GroupNamed(g); err != nil {
				return fmt.Errorf("snapshot: particle %d: %w", i, err)
			}
		}
	}
	return nil
}

// GroupNamed resolves a group name to its membership bit.
func (s *Snapshot) GroupNamed(name string) (atoms.Group, error) {
	if name == "all" {
		return atoms.All, nil
	}
	for i, g := range s.Groups {
		if g == name {
			return atoms.Group(1) << uint(i+1), nil
		}
	}
	return 0, fmt.Errorf("snapshot: unknown group %q", name)
}

// Build materializes the snapshot into a particle store.
func (s *Snapshot) Build() (*atoms.Store, error) {
	st := atoms.NewStore(len(s.Particles))
	for i, p := range s.Particles {
		var mask atoms.Group
		for _, g := range p.Groups {
			bit, err := s.GroupNamed(g)
			if err != nil {
				return nil, fmt.Errorf("snapshot: particle %d: %w", i, err)
			}
			mask |= bit
		}
		pos := r3.Vec{X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2]}
		vel := r3.Vec{X: p.Vel[0], Y: p.Vel[1], Z: p.Vel[2]}
		angmom := r3.Vec{X: p.AngMom[0], Y: p.AngMom[1], Z: p.AngMom[2]}
		if p.extended() {
			rec := atoms.Ellipsoid{
				Shape: r3.Vec{X: p.Shape[0], Y: p.Shape[1], Z: p.Shape[2]},
				Quat:  quat.Number{Real: p.Quat[0], Imag: p.Quat[1], Jmag: p.Quat[2], Kmag: p.Quat[3]},
			}
			st.AddEllipsoid(p.Mass, pos, vel, angmom, mask, rec)
		} else {
			st.Add(p.Mass, pos, vel, angmom, mask)
		}
	}
	return st, nil
}

// Partition splits the snapshot into n contiguous worker slices. Every
// slice shares the snapshot's units, dimensionality and group table.
func (s *Snapshot) Partition(n int) []*Snapshot {
	if n < 1 {
		n = 1
	}
	parts := make([]*Snapshot, n)
	total := len(s.Particles)
	chunk := (total + n - 1) / n
	for w := 0; w < n; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo > total {
			lo = total
		}
		if hi > total {
			hi = total
		}
		parts[w] = &Snapshot{
			Units:     s.Units,
			Dim:       s.Dim,
			Groups:    s.Groups,
			Particles: s.Particles[lo:hi],
		}
	}
	return parts
}
