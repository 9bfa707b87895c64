// Package engine drives temperature evaluations over a set of workers.
// Each worker goroutine owns a contiguous partition of the particle
// population and its own compute instance; partial sums meet at the
// collective reduction, so every worker reports the same global result.
package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/bias"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/fix"
	"github.com/avelkov/asphersim/internal/snapshot"
	"github.com/avelkov/asphersim/internal/thermo"
	"github.com/avelkov/asphersim/internal/units"
)

// BiasFactory builds one worker's bias instance. Bias computes hold
// per-worker scratch state, so each worker needs its own.
type BiasFactory func(g atoms.Group, u units.System, dim int, red comm.Reducer) bias.Bias

// Options configures an evaluation run.
type Options struct {
	Workers  int
	Group    string // group name within the snapshot; empty means "all"
	Bias     BiasFactory
	Fixes    *fix.Registry
	ExtraDOF int
	Dynamic  bool
	Step     int64
}

// Result is the outcome of one evaluation, identical on every worker.
type Result struct {
	Temp    float64
	Tensor  [6]float64
	DOF     float64
	TFactor float64
	Natoms  int
}

// Evaluate computes the scalar temperature and kinetic tensor of the
// snapshot, split across opts.Workers concurrent workers.
func Evaluate(snap *snapshot.Snapshot, opts Options) (*Result, error) {
	u, g, err := resolve(snap, opts)
	if err != nil {
		return nil, err
	}

	// Validate the whole configuration serially first: a worker failing
	// validation after others entered a collective reduction would
	// deadlock the set.
	full, err := snap.Build()
	if err != nil {
		return nil, err
	}
	probe, err := newCompute(g, u, snap.Dim, comm.Serial{}, opts)
	if err != nil {
		return nil, err
	}
	if err := probe.Init(atoms.Frame{Atoms: full, Step: opts.Step}); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		return evalWorker(probe, full, opts.Step, full.CountGroup(g))
	}

	parts := snap.Partition(workers)
	stores := make([]*atoms.Store, workers)
	for w := range parts {
		if stores[w], err = parts[w].Build(); err != nil {
			return nil, err
		}
	}

	reducers := comm.NewGroup(workers)
	computes := make([]*thermo.Asphere, workers)
	for w := 0; w < workers; w++ {
		if computes[w], err = newCompute(g, u, snap.Dim, reducers[w], opts); err != nil {
			return nil, err
		}
	}

	results := make([]*Result, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			fr := atoms.Frame{Atoms: stores[rank], Step: opts.Step}
			if errs[rank] = computes[rank].Init(fr); errs[rank] != nil {
				return
			}
			results[rank], errs[rank] = evalWorker(computes[rank], stores[rank], opts.Step, full.CountGroup(g))
		}(w)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	for w := 1; w < workers; w++ {
		if math.Abs(results[w].Temp-results[0].Temp) > 1e-9 {
			return nil, fmt.Errorf("engine: workers disagree on temperature: %g vs %g", results[0].Temp, results[w].Temp)
		}
	}
	return results[0], nil
}

func evalWorker(c *thermo.Asphere, st *atoms.Store, step int64, natoms int) (*Result, error) {
	fr := atoms.Frame{Atoms: st, Step: step}
	temp, err := c.Scalar(fr)
	if err != nil {
		return nil, err
	}
	tensor, err := c.Vector(fr)
	if err != nil {
		return nil, err
	}
	return &Result{
		Temp:    temp,
		Tensor:  tensor,
		DOF:     c.DOF(),
		TFactor: c.TFactor(),
		Natoms:  natoms,
	}, nil
}

func resolve(snap *snapshot.Snapshot, opts Options) (units.System, atoms.Group, error) {
	u, err := units.Lookup(snap.Units)
	if err != nil {
		return units.System{}, 0, err
	}
	name := opts.Group
	if name == "" {
		name = "all"
	}
	g, err := snap.GroupNamed(name)
	if err != nil {
		return units.System{}, 0, err
	}
	return u, g, nil
}

func newCompute(g atoms.Group, u units.System, dim int, red comm.Reducer, opts Options) (*thermo.Asphere, error) {
	cfg := thermo.Config{
		Group:    g,
		Units:    u,
		Dim:      dim,
		Reducer:  red,
		Fixes:    opts.Fixes,
		ExtraDOF: opts.ExtraDOF,
		Dynamic:  opts.Dynamic,
	}
	if opts.Bias != nil {
		cfg.Bias = opts.Bias(g, u, dim, red)
	}
	return thermo.New(cfg)
}
