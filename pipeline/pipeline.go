// Package pipeline runs the Box-Jenkins workflow end to end: window the
// series, transform it to stationarity, evaluate the configured candidates,
// corroborate the seasonal period spectrally and forecast with the best
// model.
package pipeline

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/asamerry/Time-Series-Project/config"
	"github.com/asamerry/Time-Series-Project/forecast"
	"github.com/asamerry/Time-Series-Project/selection"
	"github.com/asamerry/Time-Series-Project/spectral"
	"github.com/asamerry/Time-Series-Project/stats"
	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/transform"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// taper is the split-cosine taper fraction for the residual cumulative
// periodogram.
const taper = 0.1

// Correlogram is the ACF/PACF decision aid for the differenced series.
type Correlogram struct {
	ACF  []stats.Correlation `json:"acf" yaml:"acf"`
	PACF []stats.Correlation `json:"pacf" yaml:"pacf"`
	// Significant lags split into within-period and seasonal multiples.
	ACFWithin    []int `json:"acf_within,omitempty" yaml:"acf_within,omitempty"`
	ACFSeasonal  []int `json:"acf_seasonal,omitempty" yaml:"acf_seasonal,omitempty"`
	PACFWithin   []int `json:"pacf_within,omitempty" yaml:"pacf_within,omitempty"`
	PACFSeasonal []int `json:"pacf_seasonal,omitempty" yaml:"pacf_seasonal,omitempty"`
}

// Spectral is the frequency-domain evidence for the seasonal period.
type Spectral struct {
	DominantPeriod   float64              `json:"dominant_period" yaml:"dominant_period"`
	PeriodConfirmed  bool                 `json:"period_confirmed" yaml:"period_confirmed"`
	FisherG          *spectral.GTest      `json:"fisher_g,omitempty" yaml:"fisher_g,omitempty"`
	SeasonalStrength float64              `json:"seasonal_strength" yaml:"seasonal_strength"`
	Residual         *spectral.Cumulative `json:"residual_cumulative,omitempty" yaml:"residual_cumulative,omitempty"`
	ResidualWhite    bool                 `json:"residual_white" yaml:"residual_white"`
}

// Result is everything a run produced.
type Result struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Series   string    `json:"series" yaml:"series"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`

	Train *timeseries.Series `json:"-" yaml:"-"`
	Test  *timeseries.Series `json:"-" yaml:"-"`

	Transform   *transform.Result    `json:"-" yaml:"-"`
	Correlogram *Correlogram         `json:"correlogram,omitempty" yaml:"correlogram,omitempty"`
	Selection   *selection.Result    `json:"selection" yaml:"selection"`
	Best        *selection.Outcome   `json:"-" yaml:"-"`
	Spectral    *Spectral            `json:"spectral,omitempty" yaml:"spectral,omitempty"`
	Forecasts   []*forecast.Forecast `json:"forecasts" yaml:"forecasts"`
	// Accuracy holds held-out accuracy per accepted candidate, keyed by name.
	Accuracy map[string]forecast.Accuracy `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// Runner executes the pipeline for one configuration.
type Runner struct {
	config  *config.Config
	logger  *logrus.Logger
	metrics *Metrics
}

// NewRunner creates a runner. A nil logger discards output; nil metrics
// disables collection.
func NewRunner(cfg *config.Config, logger *logrus.Logger, metrics *Metrics) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Runner{config: cfg, logger: logger, metrics: metrics}
}

// Run executes the pipeline with cfg and no metrics.
func Run(ctx context.Context, cfg *config.Config, series *timeseries.Series, logger *logrus.Logger) (*Result, error) {
	return NewRunner(cfg, logger, nil).Run(ctx, series)
}

// Run executes every stage on series. DataError and TransformError abort
// the run, as does losing every candidate. Candidate-level failures are
// recorded in Result.Selection and a residual DiagnosticFailure on the best
// model becomes a caveat on its forecasts.
func (r *Runner) Run(ctx context.Context, series *timeseries.Series) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, tserr.Wrap(tserr.KindData, "config", err, "invalid configuration")
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Series:  series.Name,
		Started: time.Now(),
	}
	log := r.logger.WithFields(logrus.Fields{"run_id": res.RunID, "series": series.Name})
	log.WithField("observations", series.Len()).Info("Pipeline started")

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		r.metrics.observeStage(name, time.Since(start))
		if err != nil {
			log.WithError(err).WithField("stage", name).Error("Stage failed")
		}
		return err
	}

	if err := stage("window", func() error { return r.split(series, res) }); err != nil {
		return nil, err
	}

	if err := stage("transform", func() error {
		tr, err := transform.NewTransformer(r.config.TransformerConfig(), r.logger).Transform(res.Train)
		if err != nil {
			return err
		}
		res.Transform = tr
		r.metrics.setLambda(tr.Lambda())
		return nil
	}); err != nil {
		return nil, err
	}
	values := res.Transform.Differenced.Values

	_ = stage("correlogram", func() error {
		c, err := r.correlogram(values)
		if err != nil {
			log.WithError(err).Warn("Correlogram unavailable")
			return nil
		}
		res.Correlogram = c
		log.WithFields(logrus.Fields{
			"acf_within":    c.ACFWithin,
			"acf_seasonal":  c.ACFSeasonal,
			"pacf_within":   c.PACFWithin,
			"pacf_seasonal": c.PACFSeasonal,
		}).Info("Significant correlations")
		return nil
	})

	if err := stage("selection", func() error {
		cfg, err := r.config.SelectionConfig()
		if err != nil {
			return tserr.Wrap(tserr.KindData, "selection", err, "bad candidate")
		}
		sel, err := selection.NewEvaluator(cfg, r.logger).Evaluate(ctx, values)
		if err != nil {
			return err
		}
		res.Selection = sel
		res.Best = sel.Best
		r.recordSelection(sel)
		if sel.Best == nil {
			return tserr.New(tserr.KindEstimation, "selection",
				"no candidate survived estimation and the stability gate")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	_ = stage("spectral", func() error {
		res.Spectral = r.spectral(log, res)
		return nil
	})

	if err := stage("forecast", func() error { return r.forecast(res) }); err != nil {
		return nil, err
	}

	if res.Test != nil {
		_ = stage("evaluate", func() error {
			r.evaluate(log, res)
			return nil
		})
	}

	res.Finished = time.Now()
	r.metrics.markSuccess(res.Finished)
	log.WithFields(logrus.Fields{
		"best":     res.Best.Name(),
		"aicc":     res.Best.Model.AICc(),
		"caveat":   res.Best.Caveat() != "",
		"duration": res.Finished.Sub(res.Started).String(),
	}).Info("Pipeline finished")
	return res, nil
}

// split applies the training and testing windows.
func (r *Runner) split(series *timeseries.Series, res *Result) error {
	w := r.config.Window
	month := func(label string) (time.Time, error) {
		if label == "" {
			return time.Time{}, nil
		}
		return timeseries.ParseMonth(label)
	}

	if err := series.ValidateMonthly(); err != nil {
		return err
	}

	start, err := month(w.TrainStart)
	if err != nil {
		return err
	}
	end, err := month(w.TrainEnd)
	if err != nil {
		return err
	}
	train, err := series.Window(start, end)
	if err != nil {
		return err
	}
	res.Train = train

	if w.TestStart == "" {
		return nil
	}
	start, err = month(w.TestStart)
	if err != nil {
		return err
	}
	end, err = month(w.TestEnd)
	if err != nil {
		return err
	}
	if !start.After(train.End()) {
		return tserr.New(tserr.KindData, "window",
			"test window starts %s, not after training end %s",
			start.Format(timeseries.MonthLayout), train.End().Format(timeseries.MonthLayout))
	}
	test, err := series.Window(start, end)
	if err != nil {
		return err
	}
	res.Test = test
	return nil
}

func (r *Runner) correlogram(values []float64) (*Correlogram, error) {
	period := r.config.Transform.Period
	maxLag := 3 * period
	if maxLag < 24 {
		maxLag = 24
	}
	if maxLag > len(values)/2 {
		maxLag = len(values) / 2
	}

	acf, err := stats.ACF(values, maxLag)
	if err != nil {
		return nil, err
	}
	pacf, err := stats.PACF(values, maxLag)
	if err != nil {
		return nil, err
	}
	c := &Correlogram{ACF: acf, PACF: pacf}
	c.ACFWithin, c.ACFSeasonal = stats.SplitBySeason(stats.SignificantLags(acf), period)
	c.PACFWithin, c.PACFSeasonal = stats.SplitBySeason(stats.SignificantLags(pacf), period)
	return c, nil
}

// spectral gathers the periodogram evidence. Every piece is optional; a
// failure is logged and leaves the field empty.
func (r *Runner) spectral(log *logrus.Entry, res *Result) *Spectral {
	values := res.Transform.Differenced.Values
	period := r.config.Transform.Period
	out := &Spectral{
		SeasonalStrength: stats.SeasonalStrength(res.Transform.Transformed, period),
	}

	if ords, err := spectral.Periodogram(values); err != nil {
		log.WithError(err).Warn("Periodogram unavailable")
	} else if best, ok := spectral.DominantPeriod(ords); ok {
		out.DominantPeriod = best.Period
		out.PeriodConfirmed = harmonicOf(best.Period, float64(period))
	}

	if g, err := spectral.FisherG(values); err != nil {
		log.WithError(err).Warn("Fisher g test unavailable")
	} else {
		out.FisherG = g
	}

	if c, err := spectral.CumulativePeriodogram(res.Best.Model.Residuals(), taper); err != nil {
		log.WithError(err).Warn("Residual cumulative periodogram unavailable")
	} else {
		out.Residual = c
		out.ResidualWhite = c.WithinBounds()
	}

	fields := logrus.Fields{
		"dominant_period":   out.DominantPeriod,
		"configured_period": period,
		"confirmed":         out.PeriodConfirmed,
		"seasonal_strength": out.SeasonalStrength,
		"residual_white":    out.ResidualWhite,
	}
	if out.FisherG != nil {
		fields["fisher_g_p"] = out.FisherG.PValue
	}
	entry := log.WithFields(fields)
	if period > 1 && !out.PeriodConfirmed {
		entry.Warn("Spectral peak does not match the configured period")
	} else {
		entry.Info("Spectral evidence")
	}
	return out
}

// harmonicOf reports whether p is s/k for a whole k, within 5%.
func harmonicOf(p, s float64) bool {
	if p <= 0 || s <= 1 {
		return false
	}
	k := math.Round(s / p)
	if k < 1 {
		return false
	}
	return math.Abs(s/k-p) <= 0.05*p
}

func (r *Runner) forecast(res *Result) error {
	best := res.Best
	opts := forecast.Options{Multiplier: r.config.Forecast.Multiplier}

	horizons := r.config.Horizons()
	longest := horizons[len(horizons)-1]
	full, err := forecast.New(best.Model, res.Transform, longest, opts)
	if err != nil {
		return err
	}
	if caveat := best.Caveat(); caveat != "" {
		full = full.WithCaveat(caveat)
	}
	for _, h := range horizons {
		f := full.Truncate(h)
		res.Forecasts = append(res.Forecasts, f)
		r.metrics.recordForecast(h, len(f.Points))
	}
	return nil
}

// evaluate scores every accepted candidate on the testing window, in the
// original units.
func (r *Runner) evaluate(log *logrus.Entry, res *Result) {
	h := monthsBetween(res.Train.End(), res.Test.End())
	opts := forecast.Options{Multiplier: r.config.Forecast.Multiplier}

	res.Accuracy = map[string]forecast.Accuracy{}
	for _, o := range res.Selection.Accepted() {
		f, err := forecast.New(o.Model, res.Transform, h, opts)
		if err != nil {
			log.WithError(err).WithField("candidate", o.Name()).Warn("Holdout forecast failed")
			continue
		}
		acc, err := f.Evaluate(res.Test)
		if err != nil {
			log.WithError(err).WithField("candidate", o.Name()).Warn("Holdout evaluation failed")
			continue
		}
		res.Accuracy[o.Name()] = acc
		log.WithFields(logrus.Fields{
			"candidate": o.Name(),
			"rmse":      acc.RMSE,
			"mae":       acc.MAE,
			"mape":      acc.MAPE,
			"coverage":  acc.Coverage,
		}).Info("Holdout accuracy")
	}
}

func monthsBetween(from, to time.Time) int {
	from, to = timeseries.MonthStart(from), timeseries.MonthStart(to)
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}

func (r *Runner) recordSelection(sel *selection.Result) {
	r.metrics.addFits(sel.ModelsEvaluated)
	for _, o := range sel.Outcomes {
		if !o.Accepted() {
			r.metrics.recordCandidate(string(o.Status), "", 0, false)
			continue
		}
		white := o.Diagnostics != nil && o.Diagnostics.WhiteNoise
		r.metrics.recordCandidate(string(o.Status), o.Name(), o.Model.AICc(), white)
	}
}
