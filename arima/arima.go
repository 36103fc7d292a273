package arima

import (
	"math"

	"github.com/asamerry/Time-Series-Project/stats"
)

// Likelihood filters a zero-mean series through the ARMA(phi, theta) model
// and returns the innovations and the concentrated likelihood terms.
func Likelihood(y, phi, theta []float64) (*FilterResult, error) {
	return NewStateSpace(phi, theta).Filter(y)
}

// YuleWalker estimates AR(order) coefficients from the sample
// autocorrelations of values. It returns nil if the series is too short or
// constant.
func YuleWalker(values []float64, order int) []float64 {
	if order <= 0 {
		return nil
	}
	acf, err := stats.Autocorrelations(values, order)
	if err != nil || len(acf) <= order {
		return nil
	}
	return yuleWalker(acf, order)
}

// yuleWalker solves the Toeplitz system R φ = r with the Levinson-Durbin
// recursion.
func yuleWalker(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	for _, c := range phi {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return make([]float64, order)
		}
	}
	return phi
}
