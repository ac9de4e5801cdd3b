package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shared numeric helpers for the analyzers. Everything here is a pure
// function of its inputs; degenerate cases (empty input, zero variance)
// return guarded values instead of NaN.

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// stdDev is the population standard deviation, matching the z-score
// definition used for anomaly flagging.
func stdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	m := stat.Mean(values, nil)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// pearson computes the Pearson correlation coefficient between two
// equal-length samples. Zero variance on either side yields 0.
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if stdDev(x) == 0 || stdDev(y) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	// Clamp floating-point overshoot so downstream t-tests stay defined.
	return math.Max(-1, math.Min(1, r))
}

// pearsonPValue is the two-tailed p-value for a Pearson coefficient under the
// t-distribution with n-2 degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * (1 - dist.CDF(t))
}

// normalTwoTailedP converts a z statistic to a two-tailed p-value.
func normalTwoTailedP(z float64) float64 {
	return 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
}

// fTestPValue is the upper-tail p-value of an F statistic.
func fTestPValue(f float64, d1, d2 int) float64 {
	if f <= 0 || d1 <= 0 || d2 <= 0 {
		return 1
	}
	dist := distuv.F{D1: float64(d1), D2: float64(d2)}
	return 1 - dist.CDF(f)
}

// median returns the exact median of values without mutating the input.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentChange compares the averages of the first and last thirds of the
// series, which is less noise-sensitive than endpoint deltas on daily data.
func percentChange(values []float64) float64 {
	n := len(values)
	if n < 3 {
		return 0
	}
	third := n / 3
	if third == 0 {
		third = 1
	}
	first := mean(values[:third])
	last := mean(values[n-third:])
	if first == 0 {
		return 0
	}
	return (last - first) / math.Abs(first) * 100
}
