// Package stability checks causality and invertibility of a fitted model by
// locating the roots of its characteristic polynomials.
package stability

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// DefaultTolerance rejects any root whose modulus is within 1e-6 of 1.
const DefaultTolerance = 1e-6

// Roots returns the roots of 1 + c[0]z + c[1]z^2 + ... + c[n-1]z^n, found as
// the eigenvalues of the companion matrix. Trailing zero coefficients lower
// the degree; a constant polynomial has no roots.
func Roots(c []float64) ([]complex128, error) {
	deg := len(c)
	for deg > 0 && c[deg-1] == 0 {
		deg--
	}
	if deg == 0 {
		return nil, nil
	}
	for _, v := range c[:deg] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite coefficient %g", v)
		}
	}

	lead := c[deg-1]
	if deg == 1 {
		return []complex128{complex(-1/lead, 0)}, nil
	}

	// Monic form z^n + a[n-1]z^(n-1) + ... + a[0], with a[0] = 1/lead.
	comp := mat.NewDense(deg, deg, nil)
	for j := 0; j < deg; j++ {
		// first row holds -a[n-1], ..., -a[0]
		k := deg - 1 - j
		var ak float64
		if k == 0 {
			ak = 1 / lead
		} else {
			ak = c[k-1] / lead
		}
		comp.Set(0, j, -ak)
	}
	for i := 1; i < deg; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return nil, fmt.Errorf("eigen decomposition of %dx%d companion matrix failed", deg, deg)
	}
	roots := eig.Values(nil)
	sort.Slice(roots, func(i, j int) bool {
		return cmplx.Abs(roots[i]) < cmplx.Abs(roots[j])
	})
	return roots, nil
}

// Polynomial is the outcome of checking one characteristic polynomial.
type Polynomial struct {
	Name string `json:"name" yaml:"name"`
	// Coefficients of z^1..z^n after the leading 1.
	Coefficients []float64    `json:"coefficients" yaml:"coefficients"`
	Roots        []complex128 `json:"-" yaml:"-"`
	MinModulus   float64      `json:"min_modulus" yaml:"min_modulus"`
	Stable       bool         `json:"stable" yaml:"stable"`
}

// CheckPolynomial computes the roots of 1 + c[0]z + ... and marks the
// polynomial stable iff every root has modulus greater than 1 + tol.
func CheckPolynomial(name string, c []float64, tol float64) (Polynomial, error) {
	roots, err := Roots(c)
	if err != nil {
		return Polynomial{}, fmt.Errorf("%s polynomial: %w", name, err)
	}
	p := Polynomial{
		Name:         name,
		Coefficients: append([]float64(nil), c...),
		Roots:        roots,
		MinModulus:   math.Inf(1),
		Stable:       true,
	}
	for _, r := range roots {
		m := cmplx.Abs(r)
		p.MinModulus = math.Min(p.MinModulus, m)
		if !(m > 1+tol) {
			p.Stable = false
		}
	}
	return p, nil
}

// Input holds the estimated coefficients in the usual sign conventions:
// AR polynomials are 1 - φ1 z - ..., MA polynomials are 1 + θ1 z + ....
// Seasonal polynomials are checked in z = B^Period.
type Input struct {
	AR, MA, SAR, SMA []float64
	Period           int
}

// Report collects the four polynomial checks.
type Report struct {
	Polynomials []Polynomial `json:"polynomials" yaml:"polynomials"`
	Causal      bool         `json:"causal" yaml:"causal"`
	Invertible  bool         `json:"invertible" yaml:"invertible"`
}

// Stable reports whether all four polynomials passed.
func (r *Report) Stable() bool {
	return r.Causal && r.Invertible
}

// Check verifies all four characteristic polynomials. The report is always
// returned when the roots could be computed; a failing AR side yields a
// NonCausalModel error and a failing MA side a NonInvertibleModel error.
func Check(in Input, tol float64) (*Report, error) {
	if tol < 0 {
		tol = DefaultTolerance
	}

	specs := []struct {
		name string
		c    []float64
		ar   bool
	}{
		{"ar", negate(in.AR), true},
		{"sar", negate(in.SAR), true},
		{"ma", in.MA, false},
		{"sma", in.SMA, false},
	}

	report := &Report{Causal: true, Invertible: true}
	for _, s := range specs {
		p, err := CheckPolynomial(s.name, s.c, tol)
		if err != nil {
			return nil, tserr.Wrap(tserr.KindEstimation, "stability", err, "root finding failed")
		}
		report.Polynomials = append(report.Polynomials, p)
		if !p.Stable {
			if s.ar {
				report.Causal = false
			} else {
				report.Invertible = false
			}
		}
	}

	if !report.Causal {
		return report, tserr.New(tserr.KindNonCausal, "stability",
			"AR roots on or inside the unit circle: %s", failing(report, "ar", "sar"))
	}
	if !report.Invertible {
		return report, tserr.New(tserr.KindNonInvertible, "stability",
			"MA roots on or inside the unit circle: %s", failing(report, "ma", "sma"))
	}
	return report, nil
}

// IsStable is a cheap yes/no form of Check, used inside the likelihood.
func IsStable(in Input, tol float64) bool {
	for _, c := range [][]float64{negate(in.AR), negate(in.SAR), in.MA, in.SMA} {
		p, err := CheckPolynomial("", c, tol)
		if err != nil || !p.Stable {
			return false
		}
	}
	return true
}

func negate(c []float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = -v
	}
	return out
}

func failing(r *Report, names ...string) string {
	var parts []string
	for _, p := range r.Polynomials {
		for _, n := range names {
			if p.Name == n && !p.Stable {
				parts = append(parts, fmt.Sprintf("%s min |root| %.4g", p.Name, p.MinModulus))
			}
		}
	}
	return strings.Join(parts, ", ")
}
