package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mean is the arithmetic mean of the series, 0 for an empty one.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return floats.Sum(series) / float64(len(series))
}

// StdDev is the population standard deviation of the series.
func StdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mean := Mean(series)
	sum := 0.0
	for _, v := range series {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)))
}

// Drift is the mean change per step over the series. A thermostat run
// that has converged shows drift near zero.
func Drift(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return (series[len(series)-1] - series[0]) / float64(len(series)-1)
}

// Autocorrelation returns the normalized autocorrelation of the series
// up to maxLag. Index 0 is always 1 for a non-constant series.
func Autocorrelation(series []float64, maxLag int) []float64 {
	n := len(series)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := Mean(series)
	var c0 float64
	for _, v := range series {
		d := v - mean
		c0 += d * d
	}

	ac := make([]float64, maxLag+1)
	if c0 == 0 {
		return ac
	}
	for lag := 0; lag <= maxLag; lag++ {
		var c float64
		for i := 0; i+lag < n; i++ {
			c += (series[i] - mean) * (series[i+lag] - mean)
		}
		ac[lag] = c / c0
	}
	return ac
}

// EquilibrationStep is the first step whose value stays within tol of
// the target for the remainder of the series, or -1 if it never settles.
func EquilibrationStep(series []float64, target, tol float64) int {
	settled := -1
	for i, v := range series {
		if math.Abs(v-target) <= tol {
			if settled < 0 {
				settled = i
			}
		} else {
			settled = -1
		}
	}
	return settled
}
