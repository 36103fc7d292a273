// Package stats provides the correlation tables, portmanteau and normality
// tests, and stationarity checks used across the pipeline.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// Correlation is one row of an ACF or PACF table.
type Correlation struct {
	Lag   int     `json:"lag" yaml:"lag"`
	Value float64 `json:"value" yaml:"value"`
	Bound float64 `json:"bound" yaml:"bound"` // 95% bound, ±1.96/sqrt(n)
}

// Significant reports whether the value lies outside ±Bound.
func (c Correlation) Significant() bool {
	return math.Abs(c.Value) > c.Bound
}

// ACF returns the sample autocorrelations at lags 1..maxLag.
func ACF(values []float64, maxLag int) ([]Correlation, error) {
	acf, err := Autocorrelations(values, maxLag)
	if err != nil {
		return nil, err
	}
	return table(acf[1:], len(values)), nil
}

// PACF returns the partial autocorrelations at lags 1..maxLag, computed with
// the Durbin-Levinson recursion.
func PACF(values []float64, maxLag int) ([]Correlation, error) {
	acf, err := Autocorrelations(values, maxLag)
	if err != nil {
		return nil, err
	}
	return table(durbinLevinson(acf), len(values)), nil
}

// Autocorrelations returns r_0..r_maxLag with r_0 = 1. maxLag is clamped to
// n-1.
func Autocorrelations(values []float64, maxLag int) ([]float64, error) {
	n := len(values)
	if n < 3 {
		return nil, tserr.New(tserr.KindData, "autocorrelation", "need at least 3 observations, got %d", n)
	}
	if maxLag < 1 {
		return nil, tserr.New(tserr.KindData, "autocorrelation", "max lag must be positive, got %d", maxLag)
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := stat.Mean(values, nil)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil, tserr.New(tserr.KindData, "autocorrelation", "series is constant")
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf, nil
}

// durbinLevinson returns φ_kk for k = 1..len(acf)-1.
func durbinLevinson(acf []float64) []float64 {
	maxLag := len(acf) - 1
	pacf := make([]float64, maxLag)
	phi := make([]float64, maxLag+1)
	prev := make([]float64, maxLag+1)

	for k := 1; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}
		if den == 0 {
			break
		}

		phi[k] = num / den
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		pacf[k-1] = phi[k]
		copy(prev, phi)
	}

	return pacf
}

func table(values []float64, n int) []Correlation {
	bound := 1.96 / math.Sqrt(float64(n))
	out := make([]Correlation, len(values))
	for i, v := range values {
		out[i] = Correlation{Lag: i + 1, Value: v, Bound: bound}
	}
	return out
}

// SignificantLags returns the lags whose values exceed their bound.
func SignificantLags(rows []Correlation) []int {
	var significant []int
	for _, r := range rows {
		if r.Significant() {
			significant = append(significant, r.Lag)
		}
	}
	return significant
}

// SplitBySeason separates lags into within-period lags (1..period-1) and
// seasonal multiples (period, 2*period, ...). Other lags are dropped.
func SplitBySeason(lags []int, period int) (within, seasonal []int) {
	for _, lag := range lags {
		switch {
		case period > 1 && lag%period == 0:
			seasonal = append(seasonal, lag)
		case lag < period || period <= 1:
			within = append(within, lag)
		}
	}
	return within, seasonal
}
