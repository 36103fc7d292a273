// Package sarima fits seasonal ARIMA models by exact maximum likelihood.
//
// A SARIMA(p,d,q)(P,D,Q)[s] model for a series y is
//
//	φ(B) Φ(B^s) (1-B)^d (1-B^s)^D (y_t - μ) = θ(B) Θ(B^s) e_t
//
// where μ is only present when Spec.IncludeMean is set. The seasonal
// polynomials are expanded into an ordinary ARMA and its Gaussian
// likelihood is evaluated with a Kalman filter; σ² is concentrated out.
// Nelder-Mead searches the remaining parameters and standard errors come
// from the numerical Hessian at the optimum.
//
// # Basic Usage
//
// The airline model for monthly data:
//
//	spec, err := sarima.NewSpec("airline", sarima.Order{Q: 1, D: 1, SQ: 1, SD: 1, Period: 12}, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model, err := sarima.Fit(ctx, values, spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, _ := model.Predict(24)
//
// # Fixed Coefficients
//
// Coefficients are named ar1..arp, ma1..maq, sar1..sarP and sma1..smaQ.
// Fix holds them at zero; they stay in the characteristic polynomials as
// structural zeros:
//
//	spec, _ = spec.Fix("ar2")
//
// # Pruning
//
// Prune removes the least significant coefficient (smallest |t|) one round
// at a time while |t| is below the threshold and AICc does not increase.
// Every accepted model is kept in PruneResult.Steps.
//
// A fitted Model is immutable. Refitting always produces a new Model.
package sarima
