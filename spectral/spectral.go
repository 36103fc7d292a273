// Package spectral estimates the periodogram of a series and tests it for
// hidden periodicities, independently of the autocorrelation analysis.
package spectral

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// Ordinate is one periodogram value.
type Ordinate struct {
	Frequency float64 `json:"frequency" yaml:"frequency"` // cycles per observation
	Period    float64 `json:"period" yaml:"period"`       // observations per cycle
	Power     float64 `json:"power" yaml:"power"`
}

// Periodogram returns |X(f)|²/n of the demeaned series at the Fourier
// frequencies j/n, j = 1..n/2.
func Periodogram(values []float64) ([]Ordinate, error) {
	return periodogram(values, 0)
}

func periodogram(values []float64, taper float64) ([]Ordinate, error) {
	n := len(values)
	if n < 4 {
		return nil, tserr.New(tserr.KindData, "spectrum", "need at least 4 observations, got %d", n)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, tserr.New(tserr.KindData, "spectrum", "series contains non-finite values")
		}
	}

	x := make([]float64, n)
	copy(x, values)
	floats.AddConst(-stat.Mean(values, nil), x)
	if taper > 0 {
		cosineTaper(x, taper)
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, x)

	out := make([]Ordinate, 0, n/2)
	for j := 1; j <= n/2; j++ {
		a := cmplx.Abs(coeffs[j])
		f := fft.Freq(j)
		out = append(out, Ordinate{
			Frequency: f,
			Period:    1 / f,
			Power:     a * a / float64(n),
		})
	}
	return out, nil
}

// cosineTaper applies a split cosine bell to proportion p at each end.
func cosineTaper(x []float64, p float64) {
	n := len(x)
	m := int(math.Floor(float64(n) * p))
	if m == 0 {
		return
	}
	for i := 0; i < m; i++ {
		w := 0.5 * (1 - math.Cos(math.Pi*float64(2*i+1)/float64(2*m)))
		x[i] *= w
		x[n-1-i] *= w
	}
}

// DominantPeriod returns the ordinate with the largest power.
func DominantPeriod(ordinates []Ordinate) (Ordinate, bool) {
	if len(ordinates) == 0 {
		return Ordinate{}, false
	}
	best := ordinates[0]
	for _, o := range ordinates[1:] {
		if o.Power > best.Power {
			best = o
		}
	}
	return best, true
}

// GTest is Fisher's test for a single hidden periodicity.
type GTest struct {
	G         float64 `json:"g" yaml:"g"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
	M         int     `json:"m" yaml:"m"` // ordinates used
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Period    float64 `json:"period" yaml:"period"`
}

// Rejects reports whether the white-noise null is rejected at alpha.
func (g GTest) Rejects(alpha float64) bool {
	return g.PValue < alpha
}

// FisherG computes g = max I(f_j) / Σ I(f_j) over the Fourier frequencies
// strictly between 0 and 1/2 and its exact p-value
//
//	P(g > x) = Σ_{k=1}^{⌊1/x⌋} (-1)^(k-1) C(m,k) (1-kx)^(m-1).
func FisherG(values []float64) (*GTest, error) {
	ords, err := Periodogram(values)
	if err != nil {
		return nil, err
	}
	m := (len(values) - 1) / 2
	ords = ords[:m]

	total := 0.0
	best := ords[0]
	for _, o := range ords {
		total += o.Power
		if o.Power > best.Power {
			best = o
		}
	}
	if total == 0 {
		return nil, tserr.New(tserr.KindData, "spectrum", "series has no variation")
	}

	g := best.Power / total
	return &GTest{
		G:         g,
		PValue:    fisherPValue(g, m),
		M:         m,
		Frequency: best.Frequency,
		Period:    best.Period,
	}, nil
}

func fisherPValue(g float64, m int) float64 {
	if g <= 0 {
		return 1
	}
	upper := int(math.Floor(1 / g))
	if upper > m {
		upper = m
	}
	lgm, _ := math.Lgamma(float64(m + 1))
	p := 0.0
	for k := 1; k <= upper; k++ {
		base := 1 - float64(k)*g
		if base <= 0 {
			break
		}
		lgk, _ := math.Lgamma(float64(k + 1))
		lgmk, _ := math.Lgamma(float64(m - k + 1))
		term := math.Exp(lgm - lgk - lgmk + float64(m-1)*math.Log(base))
		if k%2 == 1 {
			p += term
		} else {
			p -= term
		}
	}
	return math.Max(0, math.Min(1, p))
}

// Cumulative is the normalised cumulative periodogram with its
// Kolmogorov-Smirnov band. Under white noise Values[i] stays within Bound of
// Expected[i] = 2·Frequencies[i].
type Cumulative struct {
	Frequencies []float64 `json:"frequencies" yaml:"frequencies"`
	Values      []float64 `json:"values" yaml:"values"`
	Expected    []float64 `json:"expected" yaml:"expected"`
	Bound       float64   `json:"bound" yaml:"bound"` // 95% band half-width
}

// WithinBounds reports whether the whole path stays inside the band.
func (c *Cumulative) WithinBounds() bool {
	return c.MaxDeviation() <= c.Bound
}

// MaxDeviation is the largest distance from the white-noise line.
func (c *Cumulative) MaxDeviation() float64 {
	dev := 0.0
	for i, v := range c.Values {
		dev = math.Max(dev, math.Abs(v-c.Expected[i]))
	}
	return dev
}

// CumulativePeriodogram builds the cumulative periodogram of values after
// tapering proportion taper of each end (0.1 is customary).
func CumulativePeriodogram(values []float64, taper float64) (*Cumulative, error) {
	if taper < 0 || taper > 0.5 {
		return nil, tserr.New(tserr.KindData, "spectrum", "taper %g outside [0, 0.5]", taper)
	}
	ords, err := periodogram(values, taper)
	if err != nil {
		return nil, err
	}
	// drop the Nyquist ordinate when n is even
	if len(values)%2 == 0 {
		ords = ords[:len(ords)-1]
	}
	if len(ords) == 0 {
		return nil, tserr.New(tserr.KindData, "spectrum", "too few ordinates")
	}

	c := &Cumulative{
		Frequencies: make([]float64, len(ords)),
		Values:      make([]float64, len(ords)),
		Expected:    make([]float64, len(ords)),
	}
	total := 0.0
	for _, o := range ords {
		total += o.Power
	}
	if total == 0 {
		return nil, tserr.New(tserr.KindData, "spectrum", "series has no variation")
	}
	cum := 0.0
	for i, o := range ords {
		cum += o.Power
		c.Frequencies[i] = o.Frequency
		c.Values[i] = cum / total
		c.Expected[i] = 2 * o.Frequency
	}

	mp := float64(len(ords))
	c.Bound = 1.358 / (math.Sqrt(mp) + 0.12 + 0.11/math.Sqrt(mp))
	return c, nil
}
