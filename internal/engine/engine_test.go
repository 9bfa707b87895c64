package engine

import (
	"math"
	"testing"

	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/bias"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/snapshot"
	"github.com/avelkov/asphersim/internal/units"
)

func TestEvaluateWorkerDeterminism(t *testing.T) {
	snap := snapshot.Random(24, 99, 1.5, 12.0, units.LJ, 3)

	serial, err := Evaluate(snap, Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	for _, workers := range []int{2, 4, 7} {
		got, err := Evaluate(snap, Options{Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if math.Abs(got.Temp-serial.Temp) > 1e-10 {
			t.Errorf("workers=%d: temperature %g differs from serial %g", workers, got.Temp, serial.Temp)
		}
		for i := range got.Tensor {
			if math.Abs(got.Tensor[i]-serial.Tensor[i]) > 1e-10 {
				t.Errorf("workers=%d: tensor[%d] %g differs from serial %g", workers, i, got.Tensor[i], serial.Tensor[i])
			}
		}
		if got.DOF != serial.DOF {
			t.Errorf("workers=%d: dof %f differs from serial %f", workers, got.DOF, serial.DOF)
		}
	}
}

func TestEvaluateWithCOMBiasAcrossWorkers(t *testing.T) {
	snap := snapshot.Random(16, 3, 0.8, 8.0, units.LJ, 3)
	factory := func(g atoms.Group, u units.System, dim int, red comm.Reducer) bias.Bias {
		return bias.NewCOM(g, u, dim, red)
	}

	serial, err := Evaluate(snap, Options{Workers: 1, Bias: factory})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := Evaluate(snap, Options{Workers: 4, Bias: factory})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(serial.Temp-parallel.Temp) > 1e-10 {
		t.Errorf("biased temperature differs: serial %g vs parallel %g", serial.Temp, parallel.Temp)
	}
}

func TestEvaluateRejectsPointParticles(t *testing.T) {
	snap := &snapshot.Snapshot{
		Units: "lj",
		Dim:   3,
		Particles: []snapshot.Particle{
			{Mass: 1, Vel: [3]float64{1, 0, 0}}, // point particle
		},
	}
	if _, err := Evaluate(snap, Options{Workers: 2}); err == nil {
		t.Error("expected point-particle validation error")
	}
}

func TestThermostatReachesTarget(t *testing.T) {
	snap := snapshot.Random(12, 11, 3.0, 10.0, units.LJ, 3)

	th, err := NewThermostat(snap, Options{}, 1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	series, err := th.Run(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(series))
	}

	// With frac=1 the rescale lands exactly on the target from the second
	// evaluation onward.
	for i := 1; i < len(series); i++ {
		if math.Abs(series[i]-1.0) > 1e-9 {
			t.Errorf("step %d: expected temperature 1.0, got %f", i, series[i])
		}
	}
}

func TestThermostatRejectsBadTarget(t *testing.T) {
	snap := snapshot.Random(4, 1, 1.0, 5.0, units.LJ, 3)
	if _, err := NewThermostat(snap, Options{}, -1, 1); err != ErrTarget {
		t.Errorf("expected ErrTarget, got %v", err)
	}
}
