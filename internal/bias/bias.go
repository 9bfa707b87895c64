// Package bias implements removable velocity biases: non-thermal velocity
// components (streaming flow, masked directions, region-local selection)
// that a temperature computation strips before accumulating kinetic energy
// and restores afterwards.
//
// Remove/Restore pairs must bracket exactly: RestoreAll undoes precisely
// what the previous RemoveAll did, with no intervening velocity mutation.
// Single-particle Remove/Restore assume the bias term is current for the
// frame's step, which RemoveAll or Scalar establish.
package bias

import "github.com/avelkov/asphersim/internal/atoms"

// Kind discriminates how a bias contributes to degrees-of-freedom
// accounting.
type Kind int

const (
	// Generic biases report one global DOF count via DOFRemove(GlobalDOF).
	Generic Kind = iota
	// RegionLocal biases must be queried per particle; their contribution
	// depends on each particle's instantaneous position.
	RegionLocal
)

// GlobalDOF is the particle-index sentinel for the whole-group DOF query.
const GlobalDOF = -1

// Bias is the capability interface consumed by temperature computations.
//
// Scalar and Vector memoize by frame step, so re-invoking them within one
// step is free. RemoveAll may perform a collective reduction and must
// therefore be called by every worker in the same evaluation.
type Bias interface {
	Kind() Kind
	Group() atoms.Group
	Init(fr atoms.Frame) error
	Scalar(fr atoms.Frame) (float64, error)
	Vector(fr atoms.Frame) ([6]float64, error)
	RemoveAll(fr atoms.Frame) error
	RestoreAll(fr atoms.Frame)
	Remove(fr atoms.Frame, i int)
	Restore(fr atoms.Frame, i int)
	DOFRemove(fr atoms.Frame, i int) int
}

type scalarMemo struct {
	step int64
	ok   bool
	val  float64
}

type vectorMemo struct {
	step int64
	ok   bool
	val  [6]float64
}
