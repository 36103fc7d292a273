package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64            `json:"statistic" yaml:"statistic"`
	PValue       float64            `json:"p_value" yaml:"p_value"`
	Lags         int                `json:"lags" yaml:"lags"`
	NObs         int                `json:"n_obs" yaml:"n_obs"`
	CriticalVals map[string]float64 `json:"critical_values" yaml:"critical_values"` // 1%, 5%, 10%
	IsStationary bool               `json:"is_stationary" yaml:"is_stationary"`
}

// ADF performs the Augmented Dickey-Fuller test for unit root.
// The null hypothesis is that the series has a unit root (is non-stationary).
// Returns nil when the series is too short or the regression is singular.
func ADF(values []float64, maxLag int) *ADFResult {
	n := len(values)
	if n < 10 {
		return nil
	}

	// Use default lag selection (floor of (n-1)^(1/3))
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := make([]float64, n-1)
	for i := range diff {
		diff[i] = values[i+1] - values[i]
	}

	// delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i}) + epsilon
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil
	}

	y := make([]float64, nObs)
	x := mat.NewDense(nObs, 2+maxLag, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, values[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff[t-j])
		}
	}

	coeffs, se, ok := olsRegression(x, y)
	if !ok || se[1] == 0 {
		return nil
	}

	tStat := coeffs[1] / se[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue < 0.05,
	}
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64            `json:"statistic" yaml:"statistic"`
	PValue       float64            `json:"p_value" yaml:"p_value"`
	Lags         int                `json:"lags" yaml:"lags"`
	CriticalVals map[string]float64 `json:"critical_values" yaml:"critical_values"`
	IsStationary bool               `json:"is_stationary" yaml:"is_stationary"`
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is level ("c") or trend ("ct")
// stationary.
func KPSS(values []float64, regression string, nlags int) *KPSSResult {
	n := len(values)
	if n < 10 {
		return nil
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == "ct" {
		trend := make([]float64, n)
		for i := range trend {
			trend[i] = float64(i)
		}
		a, b := stat.LinearRegression(trend, values, nil, false)
		for i, v := range values {
			residuals[i] = v - a - b*trend[i]
		}
	} else {
		regression = "c"
		mean := stat.Mean(values, nil)
		for i, v := range values {
			residuals[i] = v - mean
		}
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	cumSum := 0.0
	for _, r := range residuals {
		cumSum += r
		etaSq += cumSum * cumSum
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	var criticalVals map[string]float64
	if regression == "ct" {
		criticalVals = map[string]float64{"10%": 0.119, "5%": 0.146, "1%": 0.216}
	} else {
		criticalVals = map[string]float64{"10%": 0.347, "5%": 0.463, "1%": 0.739}
	}

	pValue := kpssPValue(kpssStat, regression)

	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: criticalVals,
		IsStationary: pValue >= 0.05,
	}
}

// olsRegression returns least-squares coefficients and their standard
// errors. ok is false for a rank-deficient design.
func olsRegression(x *mat.Dense, y []float64) (coeffs, stdErrors []float64, ok bool) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, false
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var chol mat.Cholesky
	if !chol.Factorize(&xtx) {
		return nil, nil, false
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, nil, false
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		sse += r * r
	}
	s2 := sse / float64(n-k)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, nil, false
	}

	coeffs = make([]float64, k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return coeffs, stdErrors, true
}

// mackinnonPValue interpolates the asymptotic MacKinnon (1994) critical
// values for the constant-only regression.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

// kpssPValue approximates p-value for KPSS test.
func kpssPValue(stat float64, regression string) float64 {
	if regression == "ct" {
		switch {
		case stat > 0.216:
			return 0.01
		case stat > 0.146:
			return 0.05
		case stat > 0.119:
			return 0.10
		default:
			return math.Min(0.10+(0.119-stat)*2, 1)
		}
	}

	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return math.Min(0.10+(0.347-stat)*0.5, 1)
	}
}
