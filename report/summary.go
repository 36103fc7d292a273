// Package report renders a pipeline result as a JSON or YAML summary and as
// CSV or XLSX forecast tables. It holds no logic beyond shaping the output.
package report

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/asamerry/Time-Series-Project/forecast"
	"github.com/asamerry/Time-Series-Project/pipeline"
	"github.com/asamerry/Time-Series-Project/selection"
	"github.com/asamerry/Time-Series-Project/timeseries"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null. An AICc is
// +Inf when a candidate has too few observations, and MAPE is NaN on zero
// actuals; encoding/json rejects both.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Summary is the serialisable view of a run.
type Summary struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Series   string    `json:"series" yaml:"series"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`

	TrainStart string `json:"train_start" yaml:"train_start"`
	TrainEnd   string `json:"train_end" yaml:"train_end"`
	TestStart  string `json:"test_start,omitempty" yaml:"test_start,omitempty"`
	TestEnd    string `json:"test_end,omitempty" yaml:"test_end,omitempty"`

	Transform   Transform    `json:"transform" yaml:"transform"`
	Correlogram *Correlogram `json:"correlogram,omitempty" yaml:"correlogram,omitempty"`
	Candidates  []Candidate  `json:"candidates" yaml:"candidates"`
	Best        string       `json:"best" yaml:"best"`
	Spectral    *Spectral    `json:"spectral,omitempty" yaml:"spectral,omitempty"`
	Forecasts   []Forecast   `json:"forecasts" yaml:"forecasts"`
	Accuracy    []Accuracy   `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// Transform records the stationarity transform.
type Transform struct {
	Lambda                 Float `json:"lambda" yaml:"lambda"`
	DiffLag                int   `json:"diff_lag" yaml:"diff_lag"`
	DiffOrder              int   `json:"diff_order" yaml:"diff_order"`
	VarianceRaw            Float `json:"variance_raw" yaml:"variance_raw"`
	VarianceTransformed    Float `json:"variance_transformed" yaml:"variance_transformed"`
	VarianceDifferenced    Float `json:"variance_differenced" yaml:"variance_differenced"`
	SuggestedOrder         int   `json:"suggested_order" yaml:"suggested_order"`
	SuggestedSeasonalOrder int   `json:"suggested_seasonal_order" yaml:"suggested_seasonal_order"`
	KPSSPValue             Float `json:"kpss_p_value" yaml:"kpss_p_value"`
	ADFPValue              Float `json:"adf_p_value" yaml:"adf_p_value"`
}

// Correlogram lists the significant lags of the differenced series.
type Correlogram struct {
	ACFWithin    []int `json:"acf_within" yaml:"acf_within"`
	ACFSeasonal  []int `json:"acf_seasonal" yaml:"acf_seasonal"`
	PACFWithin   []int `json:"pacf_within" yaml:"pacf_within"`
	PACFSeasonal []int `json:"pacf_seasonal" yaml:"pacf_seasonal"`
}

// Candidate is one evaluated model.
type Candidate struct {
	Name   string `json:"name" yaml:"name"`
	Model  string `json:"model" yaml:"model"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	Caveat string `json:"caveat,omitempty" yaml:"caveat,omitempty"`

	Coefficients []Coefficient `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Sigma2       Float         `json:"sigma2" yaml:"sigma2"`
	LogLik       Float         `json:"log_lik" yaml:"log_lik"`
	AIC          Float         `json:"aic" yaml:"aic"`
	AICc         Float         `json:"aicc" yaml:"aicc"`
	BIC          Float         `json:"bic" yaml:"bic"`
	NObs         int           `json:"n_obs" yaml:"n_obs"`

	Pruning       []PruneStep `json:"pruning,omitempty" yaml:"pruning,omitempty"`
	PruneStop     string      `json:"prune_stop,omitempty" yaml:"prune_stop,omitempty"`
	PruneRejected string      `json:"prune_rejected,omitempty" yaml:"prune_rejected,omitempty"`

	Stability    []Polynomial `json:"stability,omitempty" yaml:"stability,omitempty"`
	Diagnostics  []Test       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	WhiteNoise   bool         `json:"white_noise" yaml:"white_noise"`
	DurbinWatson Float        `json:"durbin_watson" yaml:"durbin_watson"`
}

// Coefficient is one estimate with its t-statistic.
type Coefficient struct {
	Name   string `json:"name" yaml:"name"`
	Value  Float  `json:"value" yaml:"value"`
	StdErr Float  `json:"std_err" yaml:"std_err"`
	TStat  Float  `json:"t_stat" yaml:"t_stat"`
	Fixed  bool   `json:"fixed" yaml:"fixed"`
}

// PruneStep is one accepted removal.
type PruneStep struct {
	Round   int    `json:"round" yaml:"round"`
	Removed string `json:"removed,omitempty" yaml:"removed,omitempty"`
	TStat   Float  `json:"t_stat" yaml:"t_stat"`
	AICc    Float  `json:"aicc" yaml:"aicc"`
}

// Polynomial is one stability check.
type Polynomial struct {
	Name       string `json:"name" yaml:"name"`
	MinModulus Float  `json:"min_modulus" yaml:"min_modulus"`
	Stable     bool   `json:"stable" yaml:"stable"`
}

// Test is one residual test.
type Test struct {
	Name      string `json:"name" yaml:"name"`
	Statistic Float  `json:"statistic" yaml:"statistic"`
	PValue    Float  `json:"p_value" yaml:"p_value"`
	DOF       int    `json:"dof,omitempty" yaml:"dof,omitempty"`
}

// Spectral is the frequency-domain evidence.
type Spectral struct {
	DominantPeriod   Float `json:"dominant_period" yaml:"dominant_period"`
	PeriodConfirmed  bool  `json:"period_confirmed" yaml:"period_confirmed"`
	FisherG          Float `json:"fisher_g" yaml:"fisher_g"`
	FisherPValue     Float `json:"fisher_p_value" yaml:"fisher_p_value"`
	SeasonalStrength Float `json:"seasonal_strength" yaml:"seasonal_strength"`
	ResidualMaxDev   Float `json:"residual_max_deviation" yaml:"residual_max_deviation"`
	ResidualBound    Float `json:"residual_bound" yaml:"residual_bound"`
	ResidualWhite    bool  `json:"residual_white" yaml:"residual_white"`
}

// Forecast is one horizon's table.
type Forecast struct {
	Candidate string  `json:"candidate" yaml:"candidate"`
	Horizon   int     `json:"horizon" yaml:"horizon"`
	Lambda    Float   `json:"lambda" yaml:"lambda"`
	Caveat    string  `json:"caveat,omitempty" yaml:"caveat,omitempty"`
	Points    []Point `json:"points" yaml:"points"`
}

// Point is one row of a forecast table.
type Point struct {
	Step          int    `json:"step" yaml:"step"`
	Month         string `json:"month" yaml:"month"`
	Mean          Float  `json:"mean" yaml:"mean"`
	StdErr        Float  `json:"std_err" yaml:"std_err"`
	Lower         Float  `json:"lower" yaml:"lower"`
	Upper         Float  `json:"upper" yaml:"upper"`
	Original      Float  `json:"original" yaml:"original"`
	OriginalLower Float  `json:"original_lower" yaml:"original_lower"`
	OriginalUpper Float  `json:"original_upper" yaml:"original_upper"`
}

// Accuracy is one candidate's held-out score.
type Accuracy struct {
	Candidate string `json:"candidate" yaml:"candidate"`
	N         int    `json:"n" yaml:"n"`
	RMSE      Float  `json:"rmse" yaml:"rmse"`
	MAE       Float  `json:"mae" yaml:"mae"`
	MAPE      Float  `json:"mape" yaml:"mape"`
	Coverage  Float  `json:"coverage" yaml:"coverage"`
}

// Build converts a pipeline result into a Summary.
func Build(res *pipeline.Result) *Summary {
	s := &Summary{
		RunID:    res.RunID,
		Series:   res.Series,
		Started:  res.Started,
		Finished: res.Finished,
	}
	if res.Train != nil && res.Train.Len() > 0 {
		s.TrainStart = res.Train.Start().Format(timeseries.MonthLayout)
		s.TrainEnd = res.Train.End().Format(timeseries.MonthLayout)
	}
	if res.Test != nil && res.Test.Len() > 0 {
		s.TestStart = res.Test.Start().Format(timeseries.MonthLayout)
		s.TestEnd = res.Test.End().Format(timeseries.MonthLayout)
	}

	if tr := res.Transform; tr != nil {
		s.Transform = Transform{
			Lambda:                 Float(tr.Lambda()),
			DiffLag:                tr.Differenced.Lag,
			DiffOrder:              tr.Differenced.Order,
			VarianceRaw:            Float(tr.Variance.Raw),
			VarianceTransformed:    Float(tr.Variance.Transformed),
			VarianceDifferenced:    Float(tr.Variance.Differenced),
			SuggestedOrder:         tr.SuggestedOrder,
			SuggestedSeasonalOrder: tr.SuggestedSeasonalOrder,
			KPSSPValue:             Float(math.NaN()),
			ADFPValue:              Float(math.NaN()),
		}
		if tr.KPSS != nil {
			s.Transform.KPSSPValue = Float(tr.KPSS.PValue)
		}
		if tr.ADF != nil {
			s.Transform.ADFPValue = Float(tr.ADF.PValue)
		}
	}

	if c := res.Correlogram; c != nil {
		s.Correlogram = &Correlogram{
			ACFWithin:    c.ACFWithin,
			ACFSeasonal:  c.ACFSeasonal,
			PACFWithin:   c.PACFWithin,
			PACFSeasonal: c.PACFSeasonal,
		}
	}

	if res.Selection != nil {
		for _, o := range res.Selection.Outcomes {
			s.Candidates = append(s.Candidates, candidate(o))
		}
	}
	if res.Best != nil {
		s.Best = res.Best.Name()
	}

	if sp := res.Spectral; sp != nil {
		s.Spectral = &Spectral{
			DominantPeriod:   Float(sp.DominantPeriod),
			PeriodConfirmed:  sp.PeriodConfirmed,
			FisherG:          Float(math.NaN()),
			FisherPValue:     Float(math.NaN()),
			SeasonalStrength: Float(sp.SeasonalStrength),
			ResidualMaxDev:   Float(math.NaN()),
			ResidualBound:    Float(math.NaN()),
			ResidualWhite:    sp.ResidualWhite,
		}
		if sp.FisherG != nil {
			s.Spectral.FisherG = Float(sp.FisherG.G)
			s.Spectral.FisherPValue = Float(sp.FisherG.PValue)
		}
		if sp.Residual != nil {
			s.Spectral.ResidualMaxDev = Float(sp.Residual.MaxDeviation())
			s.Spectral.ResidualBound = Float(sp.Residual.Bound)
		}
	}

	for _, f := range res.Forecasts {
		s.Forecasts = append(s.Forecasts, Table(f))
	}

	names := make([]string, 0, len(res.Accuracy))
	for name := range res.Accuracy {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := res.Accuracy[name]
		s.Accuracy = append(s.Accuracy, Accuracy{
			Candidate: name,
			N:         a.N,
			RMSE:      Float(a.RMSE),
			MAE:       Float(a.MAE),
			MAPE:      Float(a.MAPE),
			Coverage:  Float(a.Coverage),
		})
	}
	return s
}

// Table converts a forecast into report rows.
func Table(f *forecast.Forecast) Forecast {
	out := Forecast{
		Candidate: f.Candidate,
		Horizon:   f.Horizon,
		Lambda:    Float(f.Lambda),
		Caveat:    f.Caveat,
		Points:    make([]Point, len(f.Points)),
	}
	for i, p := range f.Points {
		out.Points[i] = Point{
			Step:          p.Step,
			Month:         p.Time.Format(timeseries.MonthLayout),
			Mean:          Float(p.Mean),
			StdErr:        Float(p.StdErr),
			Lower:         Float(p.Lower),
			Upper:         Float(p.Upper),
			Original:      Float(p.Original),
			OriginalLower: Float(p.OriginalLower),
			OriginalUpper: Float(p.OriginalUpper),
		}
	}
	return out
}

func candidate(o *selection.Outcome) Candidate {
	c := Candidate{
		Name:   o.Name(),
		Model:  o.Spec.String(),
		Status: string(o.Status),
		Caveat: o.Caveat(),
	}
	if o.Err != nil {
		c.Error = o.Err.Error()
	}
	if m := o.Model; m != nil {
		c.Model = m.Spec().String()
		for _, coef := range m.Coefficients() {
			c.Coefficients = append(c.Coefficients, Coefficient{
				Name:   coef.Name,
				Value:  Float(coef.Value),
				StdErr: Float(coef.StdErr),
				TStat:  Float(coef.TStat()),
				Fixed:  coef.Fixed,
			})
		}
		c.Sigma2 = Float(m.Sigma2())
		c.LogLik = Float(m.LogLik())
		c.AIC = Float(m.AIC())
		c.AICc = Float(m.AICc())
		c.BIC = Float(m.BIC())
		c.NObs = m.NObs()
	}
	if p := o.Pruning; p != nil {
		for _, st := range p.Steps {
			c.Pruning = append(c.Pruning, PruneStep{
				Round:   st.Round,
				Removed: st.Removed,
				TStat:   Float(st.TStat),
				AICc:    Float(st.AICc),
			})
		}
		c.PruneStop = string(p.Stop)
		c.PruneRejected = p.Rejected
	}
	if st := o.Stability; st != nil {
		for _, p := range st.Polynomials {
			c.Stability = append(c.Stability, Polynomial{
				Name:       p.Name,
				MinModulus: Float(p.MinModulus),
				Stable:     p.Stable,
			})
		}
	}
	if d := o.Diagnostics; d != nil {
		for _, t := range d.Tests {
			c.Diagnostics = append(c.Diagnostics, Test{
				Name:      t.Name,
				Statistic: Float(t.Statistic),
				PValue:    Float(t.PValue),
				DOF:       t.DOF,
			})
		}
		c.WhiteNoise = d.WhiteNoise
		c.DurbinWatson = Float(d.DurbinWatson)
	}
	return c
}
