// Package selection evaluates a configured set of seasonal ARIMA candidates
// and picks the best one.
//
// Candidate orders are a modelling decision read off the ACF and PACF, so
// they arrive as configuration rather than from a search. Each candidate is
// fitted, pruned, checked for causality and invertibility, and its
// residuals are diagnosed:
//
//	cfg := selection.DefaultConfig()
//	airline, _ := sarima.NewSpec("airline", sarima.Order{Q: 1, SD: 1, SQ: 1, Period: 12}, false)
//	cfg.Candidates = []sarima.Spec{airline}
//
//	res, err := selection.NewEvaluator(cfg, logger).Evaluate(ctx, tr.Differenced.Values)
//	if err != nil {
//	    return err // DataError or cancellation
//	}
//	fmt.Println(res.Best.Name(), res.Best.Model.AICc())
//
// # Error policy
//
// An EstimationError drops the candidate and a NonCausalModel or
// NonInvertibleModel error excludes it; both are recorded on the Outcome and
// evaluation continues. A DiagnosticFailure leaves the candidate accepted
// with Outcome.Advisory set. A DataError aborts the evaluation.
//
// # Choosing the best model
//
// Best compares accepted candidates by AICc (or AIC/BIC when configured).
// Ties go to the candidate with fewer parameters, then to the one listed
// first.
package selection
