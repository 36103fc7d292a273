package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/asamerry/Time-Series-Project/arima"
	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/transform"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// DefaultMultiplier gives approximately 95% bounds under Gaussian errors.
const DefaultMultiplier = 2.0

// Options controls interval construction.
type Options struct {
	Multiplier float64 // bounds are Mean ± Multiplier·StdErr; 0 means 2
}

// Point is one lead time. Mean, StdErr, Lower and Upper are on the
// power-transformed scale; the Original fields are back-transformed.
type Point struct {
	Step   int       `json:"step" yaml:"step"`
	Time   time.Time `json:"time" yaml:"time"`
	Mean   float64   `json:"mean" yaml:"mean"`
	StdErr float64   `json:"std_err" yaml:"std_err"`
	Lower  float64   `json:"lower" yaml:"lower"`
	Upper  float64   `json:"upper" yaml:"upper"`

	Original      float64 `json:"original" yaml:"original"`
	OriginalLower float64 `json:"original_lower" yaml:"original_lower"`
	OriginalUpper float64 `json:"original_upper" yaml:"original_upper"`
}

// Forecast is an h-step forecast from one fitted model.
type Forecast struct {
	Candidate  string  `json:"candidate" yaml:"candidate"`
	Horizon    int     `json:"horizon" yaml:"horizon"`
	Lambda     float64 `json:"lambda" yaml:"lambda"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Points     []Point `json:"points" yaml:"points"`
	// Caveat is set when the residual diagnostics rejected white noise.
	Caveat string `json:"caveat,omitempty" yaml:"caveat,omitempty"`
}

// New forecasts horizon steps past the end of the transformed series.
// model must have been fitted to tr.Differenced.Values. Points are integrated
// first through the model's own differencing and then through the
// transformer's, and finally raised to 1/λ.
func New(model *sarima.Model, tr *transform.Result, horizon int, opts Options) (*Forecast, error) {
	if horizon < 1 {
		return nil, tserr.New(tserr.KindData, "forecast", "horizon must be at least 1, got %d", horizon)
	}
	if model == nil || tr == nil {
		return nil, tserr.New(tserr.KindData, "forecast", "model and transform result are required")
	}
	mult := opts.Multiplier
	if mult <= 0 {
		mult = DefaultMultiplier
	}

	pred, err := model.Predict(horizon)
	if err != nil {
		return nil, tserr.WithCandidate(err, model.Name())
	}
	means := tr.Differenced.Extend(pred.Mean)

	d := tr.Differenced
	operator := arima.ARCoefficients(arima.Multiply(
		arima.ARPolynomial(model.PsiOperator(), 1),
		arima.DifferencingPolynomial(0, d.Order, d.Lag),
	))
	psi := arima.PsiWeights(operator, model.ExpandedMA(), horizon)

	lambda := tr.Lambda()
	times := tr.Original.FutureTimestamps(horizon)

	f := &Forecast{
		Candidate:  model.Name(),
		Horizon:    horizon,
		Lambda:     lambda,
		Multiplier: mult,
		Points:     make([]Point, horizon),
	}
	cum := 0.0
	for h := range f.Points {
		cum += psi[h] * psi[h]
		se := math.Sqrt(model.Sigma2() * cum)
		lo, hi := means[h]-mult*se, means[h]+mult*se

		bounds := []float64{
			transform.BackTransform(lo, lambda),
			transform.BackTransform(hi, lambda),
		}
		sort.Float64s(bounds)

		f.Points[h] = Point{
			Step:          h + 1,
			Time:          times[h],
			Mean:          means[h],
			StdErr:        se,
			Lower:         lo,
			Upper:         hi,
			Original:      transform.BackTransform(means[h], lambda),
			OriginalLower: bounds[0],
			OriginalUpper: bounds[1],
		}
	}
	return f, nil
}

// WithCaveat returns a copy of f annotated as lower-confidence.
func (f *Forecast) WithCaveat(caveat string) *Forecast {
	out := *f
	out.Points = append([]Point(nil), f.Points...)
	out.Caveat = caveat
	return &out
}

// Truncate returns the first h points as a forecast of horizon h.
func (f *Forecast) Truncate(h int) *Forecast {
	if h >= len(f.Points) {
		return f
	}
	out := *f
	out.Horizon = h
	out.Points = append([]Point(nil), f.Points[:h]...)
	return &out
}

// Means returns the point forecasts on the transformed scale.
func (f *Forecast) Means() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Mean
	}
	return out
}

// Originals returns the point forecasts on the original scale.
func (f *Forecast) Originals() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Original
	}
	return out
}

// StdErrs returns the standard errors by lead time.
func (f *Forecast) StdErrs() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.StdErr
	}
	return out
}
