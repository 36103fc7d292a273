// Package arima holds the numerical core shared by the seasonal model
// fitter and the forecaster: lag-polynomial algebra, the Harvey state-space
// form of an ARMA process, and its exact Gaussian likelihood.
//
// # Lag polynomials
//
// Polynomials are kept in full form, p[0] being the coefficient of B^0.
// Coefficients are converted with the usual sign conventions:
//
//	φ(B) = 1 - φ1 B - ... - φp B^p
//	θ(B) = 1 + θ1 B + ... + θq B^q
//
// A seasonal model expands to an ordinary ARMA by multiplying its
// polynomials:
//
//	ar := arima.ExpandAR([]float64{0.5}, []float64{0.3}, 12) // (1-0.5B)(1-0.3B^12)
//	ma := arima.ExpandMA(nil, []float64{-0.6}, 12)
//
// # Likelihood
//
// The state vector has r = max(p, q+1) elements. The filter starts from the
// stationary covariance (a discrete Lyapunov equation solved by doubling),
// so the likelihood is exact rather than conditional:
//
//	res, err := arima.Likelihood(y, ar, ma)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Sigma2(), res.LogLik())
//
// The innovation variance is concentrated out. FilterResult.Forecast
// continues the state beyond the last observation.
package arima
