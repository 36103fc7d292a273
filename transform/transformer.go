package transform

import (
	"io"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/stats"
	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Config controls the stationarity transform.
type Config struct {
	// Grid of candidate exponents. Empty means DefaultGrid.
	Grid []float64
	// Lambda, when non-nil, skips selection and uses this exponent.
	Lambda *float64
	// DiffLag and DiffOrder give the differencing (1 - B^DiffLag)^DiffOrder.
	DiffLag   int
	DiffOrder int
	// Period is used for the advisory seasonal-differencing suggestion.
	Period int
}

// DefaultConfig returns second-order differencing at lag 1 on a monthly period.
func DefaultConfig() Config {
	return Config{
		DiffLag:   1,
		DiffOrder: 2,
		Period:    timeseries.PeriodMonthly,
	}
}

// VarianceReport holds the sample variance after each stage.
type VarianceReport struct {
	Raw         float64 `json:"raw" yaml:"raw"`
	Transformed float64 `json:"transformed" yaml:"transformed"`
	Differenced float64 `json:"differenced" yaml:"differenced"`
}

// Reduction is Raw / Differenced.
func (v VarianceReport) Reduction() float64 {
	if v.Differenced == 0 {
		return 0
	}
	return v.Raw / v.Differenced
}

// Result is the output of Transformer.Transform.
type Result struct {
	Params      *Params
	Original    *timeseries.Series
	Transformed []float64
	Differenced *Differenced
	// Series is the differenced series with the timestamps it aligns to.
	Series   *timeseries.Series
	Variance VarianceReport

	// Advisory only; the configured differencing is always applied.
	SuggestedOrder         int
	SuggestedSeasonalOrder int
	KPSS                   *stats.KPSSResult
	ADF                    *stats.ADFResult
}

// Lambda returns the applied exponent.
func (r *Result) Lambda() float64 {
	return r.Params.Lambda
}

// Transformer applies the power transform and differencing.
type Transformer struct {
	config Config
	logger *logrus.Logger
}

// NewTransformer creates a transformer. A nil logger discards output.
func NewTransformer(config Config, logger *logrus.Logger) *Transformer {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if config.DiffLag == 0 {
		config.DiffLag = 1
	}
	return &Transformer{config: config, logger: logger}
}

// Transform selects λ, applies Y = X^λ and then the configured differencing.
func (t *Transformer) Transform(series *timeseries.Series) (*Result, error) {
	if err := series.ValidateMonthly(); err != nil {
		return nil, err
	}

	var params *Params
	if t.config.Lambda != nil {
		if err := checkPositive(series.Values); err != nil {
			return nil, err
		}
		params = &Params{Lambda: *t.config.Lambda}
	} else {
		grid := t.config.Grid
		if len(grid) == 0 {
			grid = DefaultGrid()
		}
		var err error
		params, err = SelectLambda(series.Values, grid)
		if err != nil {
			return nil, err
		}
	}

	transformed, err := PowerAll(series.Values, params.Lambda)
	if err != nil {
		return nil, err
	}

	diffed, err := Difference(transformed, t.config.DiffLag, t.config.DiffOrder)
	if err != nil {
		return nil, err
	}
	if len(diffed.Values) < 3 {
		return nil, tserr.New(tserr.KindData, "transform",
			"only %d observations left after differencing", len(diffed.Values))
	}

	out := series.Slice(diffed.Dropped(), series.Len())
	out.Values = append([]float64(nil), diffed.Values...)
	out.Name = series.Name + "_stationary"

	result := &Result{
		Params:      params,
		Original:    series,
		Transformed: transformed,
		Differenced: diffed,
		Series:      out,
		Variance: VarianceReport{
			Raw:         sampleVariance(series.Values),
			Transformed: sampleVariance(transformed),
			Differenced: sampleVariance(diffed.Values),
		},
		SuggestedOrder: stats.NDiffs(transformed, 2, "kpss"),
		KPSS:           stats.KPSS(diffed.Values, "c", 0),
		ADF:            stats.ADF(diffed.Values, 0),
	}
	if t.config.Period > 1 {
		result.SuggestedSeasonalOrder = stats.NSDiffs(transformed, t.config.Period, 1)
	}

	fields := logrus.Fields{
		"series":               series.Name,
		"lambda":               params.Lambda,
		"diff_lag":             diffed.Lag,
		"diff_order":           diffed.Order,
		"dropped":              diffed.Dropped(),
		"variance_raw":         result.Variance.Raw,
		"variance_transformed": result.Variance.Transformed,
		"variance_differenced": result.Variance.Differenced,
		"suggested_order":      result.SuggestedOrder,
	}
	if result.KPSS != nil {
		fields["kpss_p"] = result.KPSS.PValue
	}
	t.logger.WithFields(fields).Info("Series transformed")

	if result.SuggestedOrder != diffed.Order && diffed.Lag == 1 {
		t.logger.WithFields(logrus.Fields{
			"configured": diffed.Order,
			"suggested":  result.SuggestedOrder,
		}).Warn("KPSS suggests a different differencing order")
	}

	return result, nil
}

func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}
