package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// Royston (1995) polynomial approximations, algorithm AS R94.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk tests the null hypothesis that values are drawn from a normal
// distribution. Valid for 3 <= n <= 5000.
func ShapiroWilk(values []float64) (*TestResult, error) {
	n := len(values)
	if n < 3 {
		return nil, tserr.New(tserr.KindData, "shapiro-wilk", "need at least 3 observations, got %d", n)
	}
	if n > 5000 {
		return nil, tserr.New(tserr.KindData, "shapiro-wilk", "sample size %d exceeds 5000", n)
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	if x[n-1]-x[0] < 1e-19*math.Max(1, math.Abs(x[0])) {
		return nil, tserr.New(tserr.KindData, "shapiro-wilk", "all values are identical")
	}

	a := swilkCoefficients(n)
	w := swilkW(x, a)
	return &TestResult{
		Name:      "shapiro-wilk",
		Statistic: w,
		PValue:    swilkPValue(w, n),
	}, nil
}

// swilkCoefficients returns the n antisymmetric weights, negative on the
// lower half of the order statistics.
func swilkCoefficients(n int) []float64 {
	half := n / 2
	upper := make([]float64, half)

	if n == 3 {
		upper[0] = math.Sqrt(0.5)
	} else {
		an := float64(n)
		m := make([]float64, half)
		summ2 := 0.0
		for i := range m {
			m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
			summ2 += m[i] * m[i]
		}
		summ2 *= 2
		ssumm2 := math.Sqrt(summ2)
		rsn := 1 / math.Sqrt(an)
		a1 := horner(swC1, rsn) - m[0]/ssumm2

		first := 1
		var fac float64
		if n > 5 {
			first = 2
			a2 := -m[1]/ssumm2 + horner(swC2, rsn)
			fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) /
				(1 - 2*a1*a1 - 2*a2*a2))
			upper[1] = a2
		} else {
			fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
		}
		upper[0] = a1
		for i := first; i < half; i++ {
			upper[i] = -m[i] / fac
		}
	}

	a := make([]float64, n)
	for i, v := range upper {
		a[i] = -v
		a[n-1-i] = v
	}
	return a
}

// swilkW is the squared correlation between the sorted sample and a.
func swilkW(x, a []float64) float64 {
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	var sax, ssa, ssx float64
	for i, v := range x {
		d := v - mean
		sax += a[i] * d
		ssa += a[i] * a[i]
		ssx += d * d
	}
	w := sax * sax / (ssa * ssx)
	return math.Min(w, 1)
}

func swilkPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6, stqr = 6 / math.Pi, math.Pi / 3
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(0, math.Min(1, p))
	}

	w1 := 1 - w
	if w1 <= 0 {
		return 1
	}
	y := math.Log(w1)
	an := float64(n)

	var m, s float64
	if n <= 11 {
		gamma := horner(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = horner(swC3, an)
		s = math.Exp(horner(swC4, an))
	} else {
		xx := math.Log(an)
		m = horner(swC5, xx)
		s = math.Exp(horner(swC6, xx))
	}
	return distuv.Normal{Mu: m, Sigma: s}.Survival(y)
}

// horner evaluates c[0] + c[1]x + ... + c[k]x^k.
func horner(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
