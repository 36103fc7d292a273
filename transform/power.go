package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// Params holds the selected power-transform exponent and the profile it was
// chosen from. It is not modified after SelectLambda returns.
type Params struct {
	Lambda  float64
	Grid    []float64
	Profile []float64
}

// Grid returns the candidate exponents lo, lo+step, ..., hi. The endpoints
// are snapped to a multiple of step so that 0 is hit exactly when it lies in
// range.
func Grid(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return nil
	}
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((lo+float64(i)*step)/step) * step
	}
	return out
}

// DefaultGrid is -2..2 in steps of 0.01.
func DefaultGrid() []float64 {
	return Grid(-2, 2, 0.01)
}

// Power applies Y = X^λ, with λ = 0 meaning log X.
func Power(x, lambda float64) float64 {
	if lambda == 0 {
		return math.Log(x)
	}
	return math.Pow(x, lambda)
}

// InversePower maps a transformed value back, Y^(1/λ) or exp Y for λ = 0.
func InversePower(y, lambda float64) float64 {
	if lambda == 0 {
		return math.Exp(y)
	}
	return math.Pow(y, 1/lambda)
}

// BackTransform is InversePower restricted to the transform's range. A value
// with no preimage maps to the domain limit it approaches, 0 when λ > 0 and
// +Inf when λ < 0, instead of NaN.
func BackTransform(y, lambda float64) float64 {
	if lambda == 0 || y > 0 {
		return InversePower(y, lambda)
	}
	if math.IsNaN(y) {
		return y
	}
	if lambda > 0 {
		return 0
	}
	return math.Inf(1)
}

// PowerAll applies Power to every value. Values must be positive.
func PowerAll(values []float64, lambda float64) ([]float64, error) {
	if err := checkPositive(values); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Power(v, lambda)
	}
	return out, nil
}

// SelectLambda maximises the Box-Cox profile log-likelihood of values
// regressed on a linear trend over grid. Ties go to the smallest |λ|, then to
// the more negative λ.
func SelectLambda(values []float64, grid []float64) (*Params, error) {
	if len(values) < 3 {
		return nil, tserr.New(tserr.KindData, "transform", "need at least 3 observations, got %d", len(values))
	}
	if err := checkPositive(values); err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, tserr.New(tserr.KindTransform, "transform", "empty lambda grid")
	}

	n := len(values)
	trend := make([]float64, n)
	logs := make([]float64, n)
	for i, v := range values {
		trend[i] = float64(i + 1)
		logs[i] = math.Log(v)
	}
	sumLog := floats.Sum(logs)

	profile := make([]float64, len(grid))
	best := -1
	z := make([]float64, n)
	for i, lambda := range grid {
		for t, v := range values {
			z[t] = boxCox(v, logs[t], lambda)
		}
		profile[i] = profileLogLik(trend, z, lambda, sumLog)
		if math.IsNaN(profile[i]) || math.IsInf(profile[i], 0) {
			continue
		}
		if best < 0 || better(profile[i], lambda, profile[best], grid[best]) {
			best = i
		}
	}

	if best < 0 {
		return nil, tserr.New(tserr.KindTransform, "transform",
			"no finite profile value over %d candidate exponents", len(grid))
	}

	return &Params{
		Lambda:  grid[best],
		Grid:    append([]float64(nil), grid...),
		Profile: profile,
	}, nil
}

func better(ll, lambda, bestLL, bestLambda float64) bool {
	const tieTol = 1e-9
	if ll > bestLL+tieTol*math.Max(1, math.Abs(bestLL)) {
		return true
	}
	if ll < bestLL-tieTol*math.Max(1, math.Abs(bestLL)) {
		return false
	}
	if math.Abs(lambda) != math.Abs(bestLambda) {
		return math.Abs(lambda) < math.Abs(bestLambda)
	}
	return lambda < bestLambda
}

func boxCox(x, logx, lambda float64) float64 {
	if math.Abs(lambda) < 1e-12 {
		return logx
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

// profileLogLik is -n/2 log(RSS/n) + (λ-1) Σ log x for the trend regression.
func profileLogLik(trend, z []float64, lambda, sumLog float64) float64 {
	alpha, beta := stat.LinearRegression(trend, z, nil, false)
	rss := 0.0
	for i, zi := range z {
		r := zi - alpha - beta*trend[i]
		rss += r * r
	}
	n := float64(len(z))
	if rss <= 0 {
		return math.NaN()
	}
	return -n/2*math.Log(rss/n) + (lambda-1)*sumLog
}

func checkPositive(values []float64) error {
	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return tserr.New(tserr.KindData, "transform",
				"power transform needs positive finite values, got %g at index %d", v, i)
		}
	}
	return nil
}
