// Package comm provides the collective reduction capability that
// distributed computations are written against. A Reducer sums a
// fixed-size numeric buffer element-wise across a worker set; Serial is
// the single-worker identity and Group is an in-process all-reduce over
// a set of goroutine workers.
package comm

import (
	"errors"
	"sync"
)

// ErrBufferSize indicates workers presented different buffer lengths to
// the same reduction round.
var ErrBufferSize = errors.New("comm: reduction buffer length mismatch across workers")

// Reducer is the collective sum capability. SumFloats replaces vals with
// the element-wise sum over all workers in the set.
//
// SumFloats is a blocking barrier: every worker in the set must call it
// exactly once per round, with the same buffer length, before any call
// returns. A worker that skips a round deadlocks the rest.
type Reducer interface {
	SumFloats(vals []float64) error
	Size() int
	Rank() int
}

// Serial is the identity reducer for single-process evaluation.
type Serial struct{}

func (Serial) SumFloats([]float64) error { return nil }
func (Serial) Size() int                 { return 1 }
func (Serial) Rank() int                 { return 0 }

// Group is one worker's handle onto a shared all-reduce set.
type Group struct {
	rank int
	s    *shared
}

type shared struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	arrived int
	gen     uint64
	acc     []float64
	out     []float64
	fail    bool
}

// NewGroup creates an all-reduce set of n workers and returns one handle
// per worker rank.
func NewGroup(n int) []*Group {
	s := &shared{n: n}
	s.cond = sync.NewCond(&s.mu)
	gs := make([]*Group, n)
	for i := range gs {
		gs[i] = &Group{rank: i, s: s}
	}
	return gs
}

func (g *Group) Size() int { return g.s.n }
func (g *Group) Rank() int { return g.rank }

// SumFloats performs one blocking all-reduce round. On return vals holds
// the element-wise sum of every worker's input.
func (g *Group) SumFloats(vals []float64) error {
	s := g.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acc == nil {
		s.acc = make([]float64, len(vals))
	}
	if len(s.acc) != len(vals) {
		// Poison the round so blocked workers do not hang forever.
		s.fail = true
		s.arrived = 0
		s.acc = nil
		s.gen++
		s.cond.Broadcast()
		return ErrBufferSize
	}
	for i, v := range vals {
		s.acc[i] += v
	}
	s.arrived++

	if s.arrived == s.n {
		s.out = s.acc
		s.acc = nil
		s.arrived = 0
		s.gen++
		s.cond.Broadcast()
		copy(vals, s.out)
		return nil
	}

	gen := s.gen
	for s.gen == gen {
		s.cond.Wait()
	}
	if s.fail {
		return ErrBufferSize
	}
	copy(vals, s.out)
	return nil
}
