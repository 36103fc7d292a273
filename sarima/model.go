package sarima

import (
	"math"

	"github.com/asamerry/Time-Series-Project/arima"
	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/stats"
	"github.com/asamerry/Time-Series-Project/transform"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Coefficient is one estimated (or fixed) model parameter.
type Coefficient struct {
	Name   string  `json:"name" yaml:"name"`
	Value  float64 `json:"value" yaml:"value"`
	StdErr float64 `json:"std_err" yaml:"std_err"`
	Fixed  bool    `json:"fixed" yaml:"fixed"`
}

// TStat is Value/StdErr, or 0 for a fixed coefficient.
func (c Coefficient) TStat() float64 {
	if c.Fixed || c.StdErr == 0 {
		return 0
	}
	return c.Value / c.StdErr
}

// Model is a fitted SARIMA model. It is immutable; accessors return copies.
type Model struct {
	spec Spec

	ar, ma, sar, sma         []float64
	arSE, maSE, sarSE, smaSE []float64
	mean, meanSE             float64

	sigma2 float64
	logLik float64
	ic     stats.InformationCriteria
	nobs   int

	residuals []float64
	evals     int

	// state for forecasting
	filter *arima.FilterResult
	diffs  []*transform.Differenced // applied in order; undone in reverse
}

// Spec returns the specification the model was fitted with.
func (m *Model) Spec() Spec {
	s := m.spec
	s.Mask = s.fullMask()
	return s
}

// Order returns the model order.
func (m *Model) Order() Order {
	return m.spec.Order
}

// Name returns the candidate name.
func (m *Model) Name() string {
	return m.spec.Name
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// AR returns the non-seasonal AR coefficients φ, zeros at fixed lags.
func (m *Model) AR() []float64 { return clone(m.ar) }

// MA returns the non-seasonal MA coefficients θ.
func (m *Model) MA() []float64 { return clone(m.ma) }

// SAR returns the seasonal AR coefficients Φ.
func (m *Model) SAR() []float64 { return clone(m.sar) }

// SMA returns the seasonal MA coefficients Θ.
func (m *Model) SMA() []float64 { return clone(m.sma) }

// Mean returns the estimated mean of the differenced series (0 when not
// estimated).
func (m *Model) Mean() float64 { return m.mean }

// Sigma2 is the maximum likelihood innovation variance.
func (m *Model) Sigma2() float64 { return m.sigma2 }

// LogLik is the maximised exact log-likelihood.
func (m *Model) LogLik() float64 { return m.logLik }

// AIC returns the Akaike information criterion.
func (m *Model) AIC() float64 { return m.ic.AIC }

// AICc returns the small-sample corrected AIC.
func (m *Model) AICc() float64 { return m.ic.AICc }

// BIC returns the Bayesian information criterion.
func (m *Model) BIC() float64 { return m.ic.BIC }

// Criteria returns all information criteria.
func (m *Model) Criteria() stats.InformationCriteria { return m.ic }

// NObs is the effective sample size after the model's differencing.
func (m *Model) NObs() int { return m.nobs }

// NumParams is k in the information criteria.
func (m *Model) NumParams() int { return m.spec.NumParams() }

// FitDF is the number of estimated AR and MA coefficients, used as the
// degrees-of-freedom adjustment in portmanteau tests.
func (m *Model) FitDF() int { return m.spec.NumFree() }

// Evaluations is the number of likelihood evaluations the optimiser used.
func (m *Model) Evaluations() int { return m.evals }

// Residuals returns the one-step-ahead innovations, scaled to have
// variance σ².
func (m *Model) Residuals() []float64 { return clone(m.residuals) }

// Coefficients lists every AR and MA coefficient in canonical order,
// followed by the mean when it is estimated.
func (m *Model) Coefficients() []Coefficient {
	mask := m.spec.fullMask()
	var out []Coefficient
	for _, sl := range m.spec.slots() {
		vals, ses := m.group(sl.g)
		out = append(out, Coefficient{
			Name:   sl.name(),
			Value:  vals[sl.i],
			StdErr: ses[sl.i],
			Fixed:  m.spec.groupMask(mask, sl.g)[sl.i],
		})
	}
	if m.spec.IncludeMean {
		out = append(out, Coefficient{Name: "mean", Value: m.mean, StdErr: m.meanSE})
	}
	return out
}

// Coefficient returns the named coefficient.
func (m *Model) Coefficient(name string) (Coefficient, bool) {
	for _, c := range m.Coefficients() {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

func (m *Model) group(g group) (vals, ses []float64) {
	switch g {
	case groupAR:
		return m.ar, m.arSE
	case groupMA:
		return m.ma, m.maSE
	case groupSAR:
		return m.sar, m.sarSE
	default:
		return m.sma, m.smaSE
	}
}

// StabilityInput returns the four polynomials for the stability checker.
func (m *Model) StabilityInput() stability.Input {
	return stability.Input{
		AR:     m.AR(),
		MA:     m.MA(),
		SAR:    m.SAR(),
		SMA:    m.SMA(),
		Period: m.spec.Order.Period,
	}
}

// ExpandedAR returns φ(B)Φ(B^s) as ordinary AR coefficients.
func (m *Model) ExpandedAR() []float64 {
	return arima.ExpandAR(m.ar, m.sar, m.spec.Order.Period)
}

// ExpandedMA returns θ(B)Θ(B^s) as ordinary MA coefficients.
func (m *Model) ExpandedMA() []float64 {
	return arima.ExpandMA(m.ma, m.sma, m.spec.Order.Period)
}

// PsiOperator returns the AR side of the model including its own
// differencing, φ(B)Φ(B^s)(1-B)^d(1-B^s)^D, as AR coefficients.
func (m *Model) PsiOperator() []float64 {
	o := m.spec.Order
	poly := arima.Multiply(
		arima.ARPolynomial(m.ExpandedAR(), 1),
		arima.DifferencingPolynomial(o.D, o.SD, o.Period),
	)
	return arima.ARCoefficients(poly)
}

// Prediction is an h-step forecast on the scale of the series passed to
// Fit.
type Prediction struct {
	Mean   []float64
	StdErr []float64
}

// Predict forecasts h steps past the end of the fitted series. Points come
// from the state-space recursion and are integrated through the model's
// differencing; standard errors come from the ψ weights of the full
// operator, so they never decrease with lead time.
func (m *Model) Predict(h int) (*Prediction, error) {
	if h < 1 {
		return nil, tserr.New(tserr.KindData, "predict", "horizon must be at least 1, got %d", h)
	}

	mean, _ := m.filter.Forecast(h)
	for i := range mean {
		mean[i] += m.mean
	}
	for i := len(m.diffs) - 1; i >= 0; i-- {
		mean = m.diffs[i].Extend(mean)
	}

	psi := arima.PsiWeights(m.PsiOperator(), m.ExpandedMA(), h)
	se := make([]float64, h)
	cum := 0.0
	for i := range se {
		cum += psi[i] * psi[i]
		se[i] = math.Sqrt(m.sigma2 * cum)
	}

	return &Prediction{Mean: mean, StdErr: se}, nil
}
