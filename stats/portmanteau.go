package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is a test statistic with its p-value.
type TestResult struct {
	Name      string  `json:"name" yaml:"name"`
	Statistic float64 `json:"statistic" yaml:"statistic"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
	Lags      int     `json:"lags,omitempty" yaml:"lags,omitempty"`
	DOF       int     `json:"dof,omitempty" yaml:"dof,omitempty"` // Degrees of freedom
}

// Rejects reports whether the null hypothesis is rejected at level alpha.
func (r TestResult) Rejects(alpha float64) bool {
	return r.PValue < alpha
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of ARMA parameters estimated in the model.
func LjungBox(residuals []float64, lags, fitdf int) (*TestResult, error) {
	n := len(residuals)
	acf, err := Autocorrelations(residuals, lags)
	if err != nil {
		return nil, err
	}
	lags = len(acf) - 1

	// Ljung-Box Q statistic
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := portmanteauDOF(lags, fitdf)
	return &TestResult{
		Name:      "ljung-box",
		Statistic: q,
		PValue:    chiSquaredSurvival(q, dof),
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// BoxPierce performs the Box-Pierce test for autocorrelation.
// Similar to Ljung-Box but without the small-sample weighting.
func BoxPierce(residuals []float64, lags, fitdf int) (*TestResult, error) {
	n := len(residuals)
	acf, err := Autocorrelations(residuals, lags)
	if err != nil {
		return nil, err
	}
	lags = len(acf) - 1

	// Box-Pierce Q statistic
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k]
	}
	q *= float64(n)

	dof := portmanteauDOF(lags, fitdf)
	return &TestResult{
		Name:      "box-pierce",
		Statistic: q,
		PValue:    chiSquaredSurvival(q, dof),
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// McLeodLi applies the Ljung-Box test to squared residuals with no
// degrees-of-freedom adjustment, detecting ARCH-type dependence.
func McLeodLi(residuals []float64, lags int) (*TestResult, error) {
	sq := make([]float64, len(residuals))
	for i, r := range residuals {
		sq[i] = r * r
	}
	res, err := LjungBox(sq, lags, 0)
	if err != nil {
		return nil, err
	}
	res.Name = "mcleod-li"
	return res, nil
}

// portmanteauDOF is lags - fitdf, kept at least 1.
func portmanteauDOF(lags, fitdf int) int {
	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}
	return dof
}

func chiSquaredSurvival(x float64, dof int) float64 {
	if x <= 0 {
		return 1
	}
	p := distuv.ChiSquared{K: float64(dof)}.Survival(x)
	return math.Max(0, math.Min(1, p))
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. d ≈ 2 means none; d < 2 positive; d > 2 negative.
func DurbinWatson(residuals []float64) (float64, bool) {
	n := len(residuals)
	if n < 2 {
		return 0, false
	}

	numerator := 0.0
	denominator := 0.0

	for i := 1; i < n; i++ {
		diff := residuals[i] - residuals[i-1]
		numerator += diff * diff
	}

	for _, r := range residuals {
		denominator += r * r
	}

	if denominator == 0 {
		return 0, false
	}

	return numerator / denominator, true
}
