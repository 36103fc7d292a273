package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NDiffs suggests the number of first differences needed for stationarity,
// up to maxD (default 2). testType is "kpss" (default) or "adf".
func NDiffs(values []float64, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := values
	for d := 0; d < maxD; d++ {
		isStationary := false

		if testType == "adf" {
			if result := ADF(current, 0); result != nil && result.IsStationary {
				isStationary = true
			}
		} else {
			if result := KPSS(current, "c", 0); result != nil && result.IsStationary {
				isStationary = true
			}
		}

		if isStationary {
			return d
		}

		current = lagDiff(current, 1)
		if len(current) < 10 {
			return d
		}
	}

	return maxD
}

// NSDiffs suggests the number of seasonal differences: one more while the
// seasonal strength is at least 0.64.
func NSDiffs(values []float64, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || len(values) < 2*period {
		return 0
	}

	current := values
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}

		current = lagDiff(current, period)
		if len(current) < 2*period {
			return d
		}
	}

	return maxD
}

func lagDiff(values []float64, lag int) []float64 {
	if len(values) <= lag {
		return nil
	}
	out := make([]float64, len(values)-lag)
	for i := range out {
		out[i] = values[i+lag] - values[i]
	}
	return out
}

// variance is the sample variance, ignoring NaN values.
func variance(data []float64) float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 2 {
		return 0
	}
	return stat.Variance(valid, nil)
}

// InformationCriteria holds AIC, AICc and BIC for one likelihood.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC computes the information criteria for a log-likelihood with
// nParams estimated parameters over nObs observations. AICc is
// AIC + 2k(k+1)/(n-k-1), +Inf when n-k-1 <= 0.
func CalculateIC(logLik float64, nObs int, nParams int) InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
