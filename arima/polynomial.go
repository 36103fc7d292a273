package arima

// Lag polynomials are stored in full form: p[0] is the coefficient of B^0.

// Multiply returns the product of two lag polynomials in full form.
func Multiply(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// ARPolynomial returns 1 - phi[0]B^step - phi[1]B^(2 step) - ....
func ARPolynomial(phi []float64, step int) []float64 {
	return lagPolynomial(phi, step, -1)
}

// MAPolynomial returns 1 + theta[0]B^step + theta[1]B^(2 step) + ....
func MAPolynomial(theta []float64, step int) []float64 {
	return lagPolynomial(theta, step, 1)
}

func lagPolynomial(c []float64, step int, sign float64) []float64 {
	if step < 1 {
		step = 1
	}
	out := make([]float64, len(c)*step+1)
	out[0] = 1
	for i, v := range c {
		out[(i+1)*step] = sign * v
	}
	return out
}

// DifferencingPolynomial returns (1 - B)^d (1 - B^s)^D in full form.
func DifferencingPolynomial(d, sd, period int) []float64 {
	out := []float64{1}
	for i := 0; i < d; i++ {
		out = Multiply(out, []float64{1, -1})
	}
	if period > 0 {
		seasonal := make([]float64, period+1)
		seasonal[0], seasonal[period] = 1, -1
		for i := 0; i < sd; i++ {
			out = Multiply(out, seasonal)
		}
	}
	return out
}

// ARCoefficients converts a full-form AR polynomial 1 - c1 B - ... back to
// the coefficients c1, c2, ....
func ARCoefficients(poly []float64) []float64 {
	if len(poly) < 2 {
		return nil
	}
	out := make([]float64, len(poly)-1)
	for i := range out {
		out[i] = -poly[i+1]
	}
	return trimZeros(out)
}

// MACoefficients converts a full-form MA polynomial 1 + c1 B + ... back to
// the coefficients c1, c2, ....
func MACoefficients(poly []float64) []float64 {
	if len(poly) < 2 {
		return nil
	}
	return trimZeros(append([]float64(nil), poly[1:]...))
}

func trimZeros(c []float64) []float64 {
	n := len(c)
	for n > 0 && c[n-1] == 0 {
		n--
	}
	return c[:n]
}

// ExpandAR multiplies the non-seasonal and seasonal AR polynomials and
// returns the coefficients of the product in AR sign convention.
func ExpandAR(phi, seasonalPhi []float64, period int) []float64 {
	return ARCoefficients(Multiply(ARPolynomial(phi, 1), ARPolynomial(seasonalPhi, period)))
}

// ExpandMA multiplies the non-seasonal and seasonal MA polynomials and
// returns the coefficients of the product in MA sign convention.
func ExpandMA(theta, seasonalTheta []float64, period int) []float64 {
	return MACoefficients(Multiply(MAPolynomial(theta, 1), MAPolynomial(seasonalTheta, period)))
}

// PsiWeights returns ψ_0..ψ_(h-1) of the MA(∞) representation of
// φ(B) y = θ(B) e, with phi and theta in AR and MA sign conventions. phi may
// include unit roots, for instance a differencing operator folded in.
func PsiWeights(phi, theta []float64, h int) []float64 {
	if h <= 0 {
		return nil
	}
	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		var v float64
		if j <= len(theta) {
			v = theta[j-1]
		}
		for i := 1; i <= len(phi) && i <= j; i++ {
			v += phi[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
