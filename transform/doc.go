// Package transform turns a trending, heteroskedastic series into an
// approximately stationary one.
//
// The exponent λ is chosen by maximising the Box-Cox profile log-likelihood
// of the series regressed on a linear trend. The applied transform is the
// simplified power Y = X^λ (log X at λ = 0). Differencing is configured, not
// detected; a KPSS-based suggestion is logged when it disagrees.
//
//	tr := transform.NewTransformer(transform.DefaultConfig(), logger)
//	result, err := tr.Transform(series)
//	// result.Series is stationary; result.Differenced integrates forecasts back.
//
// Differencing drops the first Lag*Order observations. The stationary series
// keeps the timestamps of the observations it was computed at, so forecast
// timestamps continue monthly from the last observation.
package transform
