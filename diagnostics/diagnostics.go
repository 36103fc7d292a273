// Package diagnostics runs the residual test battery on a fitted model:
// normality, serial independence and conditional heteroskedasticity.
package diagnostics

import (
	"strings"

	"github.com/asamerry/Time-Series-Project/stats"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Test names as they appear in a Report.
const (
	ShapiroWilk = "shapiro-wilk"
	BoxPierce   = "box-pierce"
	LjungBox    = "ljung-box"
	McLeodLi    = "mcleod-li"
)

// Options configures the battery.
type Options struct {
	Lags  int     `json:"lags" yaml:"lags"`   // portmanteau lag count
	Alpha float64 `json:"alpha" yaml:"alpha"` // rejection level
}

// DefaultOptions uses 22 lags at the 5% level.
func DefaultOptions() Options {
	return Options{Lags: 22, Alpha: 0.05}
}

// Report is the outcome of Diagnose. It is read-only once returned.
type Report struct {
	N            int                `json:"n" yaml:"n"`
	FitDF        int                `json:"fitdf" yaml:"fitdf"`
	Alpha        float64            `json:"alpha" yaml:"alpha"`
	Tests        []stats.TestResult `json:"tests" yaml:"tests"`
	DurbinWatson float64            `json:"durbin_watson" yaml:"durbin_watson"`
	WhiteNoise   bool               `json:"white_noise" yaml:"white_noise"`
	Rejected     []string           `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// Test returns the named test result.
func (r *Report) Test(name string) (stats.TestResult, bool) {
	for _, t := range r.Tests {
		if t.Name == name {
			return t, true
		}
	}
	return stats.TestResult{}, false
}

// Diagnose runs Shapiro-Wilk on the residuals, Box-Pierce and Ljung-Box
// with fitdf degrees of freedom removed, and Ljung-Box on the squared
// residuals with none removed. The residuals count as white noise only if
// no test rejects at opts.Alpha.
//
// When a test rejects, the report is returned together with a
// DiagnosticFailure error. The failure is advisory: forecasts remain valid
// conditional means but their interval coverage is suspect.
func Diagnose(residuals []float64, fitdf int, opts Options) (*Report, error) {
	if opts.Lags <= 0 {
		opts.Lags = DefaultOptions().Lags
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = DefaultOptions().Alpha
	}

	report := &Report{
		N:     len(residuals),
		FitDF: fitdf,
		Alpha: opts.Alpha,
	}

	runs := []func() (*stats.TestResult, error){
		func() (*stats.TestResult, error) { return stats.ShapiroWilk(residuals) },
		func() (*stats.TestResult, error) { return stats.BoxPierce(residuals, opts.Lags, fitdf) },
		func() (*stats.TestResult, error) { return stats.LjungBox(residuals, opts.Lags, fitdf) },
		func() (*stats.TestResult, error) { return stats.McLeodLi(residuals, opts.Lags) },
	}
	for _, run := range runs {
		res, err := run()
		if err != nil {
			return nil, tserr.Wrap(tserr.KindDiagnostic, "diagnostics", err, "residuals cannot be tested")
		}
		report.Tests = append(report.Tests, *res)
		if res.Rejects(opts.Alpha) {
			report.Rejected = append(report.Rejected, res.Name)
		}
	}

	if dw, ok := stats.DurbinWatson(residuals); ok {
		report.DurbinWatson = dw
	}

	report.WhiteNoise = len(report.Rejected) == 0
	if !report.WhiteNoise {
		return report, tserr.New(tserr.KindDiagnostic, "diagnostics",
			"white-noise null rejected at %.2g by %s", opts.Alpha, strings.Join(report.Rejected, ", "))
	}
	return report, nil
}
