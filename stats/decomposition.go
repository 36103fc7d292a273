package stats

import (
	"math"
)

// Decomposition is an additive classical decomposition Y = T + S + R. Trend
// and Residual are NaN where the centred moving average is undefined.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
}

// Decompose performs additive classical decomposition with a centred
// moving-average trend. Returns nil if values span fewer than two periods.
func Decompose(values []float64, period int) *Decomposition {
	n := len(values)
	if period < 2 || n < 2*period {
		return nil
	}

	trend := centredMovingAverage(values, period)

	// Average the detrended values within each season.
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range values {
		if !math.IsNaN(trend[i]) {
			pattern[i%period] += v - trend[i]
			counts[i%period]++
		}
	}
	mean := 0.0
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
		mean += pattern[i]
	}
	mean /= float64(period)
	for i := range pattern {
		pattern[i] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i, v := range values {
		seasonal[i] = pattern[i%period]
		residual[i] = v - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Period:   period,
	}
}

// centredMovingAverage uses a 2xperiod MA for even periods.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += values[i-half] * 0.5
			sum += values[i+half] * 0.5
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}

// SeasonalStrength is F_S = max(0, 1 - Var(R)/Var(S+R)) from an additive
// decomposition. Values near 1 indicate strong seasonality.
func SeasonalStrength(values []float64, period int) float64 {
	decomp := Decompose(values, period)
	if decomp == nil {
		return 0
	}

	var resid, seasonalPlusResid []float64
	for i, r := range decomp.Residual {
		if math.IsNaN(r) {
			continue
		}
		resid = append(resid, r)
		seasonalPlusResid = append(seasonalPlusResid, decomp.Seasonal[i]+r)
	}

	varSR := variance(seasonalPlusResid)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-variance(resid)/varSR)
}
