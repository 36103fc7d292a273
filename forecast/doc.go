// Package forecast turns a fitted model into dated point forecasts with
// standard errors and approximate 95% bounds on both the transformed and
// the original scale.
//
// Standard errors come from the ψ weights of the complete operator, model
// and transformer differencing included, so they never shrink as the lead
// time grows. The bounds Mean ± 2·StdErr assume Gaussian innovations; when
// the residual diagnostics reject that, the forecast carries a Caveat.
//
// Long horizons are supported numerically. Transformed values with no
// preimage under X^λ map to the domain limit instead of NaN. Accuracy still
// decays with the horizon and nothing here anticipates structural breaks.
package forecast
