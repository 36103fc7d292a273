package selection

import (
	"context"
	"io"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/asamerry/Time-Series-Project/diagnostics"
	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Config holds the candidate set and how each candidate is evaluated.
type Config struct {
	Candidates  []sarima.Spec
	Prune       sarima.PruneOptions
	Diagnostics diagnostics.Options
	Tolerance   float64 // stability tolerance; negative means stability.DefaultTolerance
	Workers     int     // concurrent fits; 0 means GOMAXPROCS
	Criterion   string  // "aicc" (default), "aic" or "bic"
}

// DefaultConfig returns a configuration with no candidates.
func DefaultConfig() Config {
	return Config{
		Prune:       sarima.DefaultPruneOptions(),
		Diagnostics: diagnostics.DefaultOptions(),
		Tolerance:   stability.DefaultTolerance,
		Criterion:   "aicc",
	}
}

// Status is the fate of a candidate.
type Status string

const (
	// StatusAccepted candidates are eligible for forecasting.
	StatusAccepted Status = "accepted"
	// StatusDropped candidates failed to estimate.
	StatusDropped Status = "dropped"
	// StatusExcluded candidates are non-causal or non-invertible.
	StatusExcluded Status = "excluded"
)

// Outcome records everything learned about one candidate.
type Outcome struct {
	Index       int                 `json:"index" yaml:"index"`
	Spec        sarima.Spec         `json:"spec" yaml:"spec"`
	Status      Status              `json:"status" yaml:"status"`
	Pruning     *sarima.PruneResult `json:"pruning,omitempty" yaml:"pruning,omitempty"`
	Model       *sarima.Model       `json:"-" yaml:"-"`
	Stability   *stability.Report   `json:"stability,omitempty" yaml:"stability,omitempty"`
	Diagnostics *diagnostics.Report `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	// Err is why the candidate was dropped or excluded.
	Err error `json:"-" yaml:"-"`
	// Advisory is a DiagnosticFailure on an accepted candidate.
	Advisory error         `json:"-" yaml:"-"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Name returns the candidate name.
func (o *Outcome) Name() string {
	return o.Spec.Name
}

// Accepted reports whether the candidate passed the stability gate.
func (o *Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}

// Caveat describes a failed diagnostic, or returns "".
func (o *Outcome) Caveat() string {
	if o.Advisory == nil {
		return ""
	}
	if o.Diagnostics != nil && len(o.Diagnostics.Rejected) > 0 {
		return "residuals fail white-noise tests (" + strings.Join(o.Diagnostics.Rejected, ", ") +
			"); interval coverage is approximate"
	}
	return "residual diagnostics unavailable: " + o.Advisory.Error()
}

// Result is the outcome of evaluating every configured candidate.
type Result struct {
	Outcomes  []*Outcome `json:"outcomes" yaml:"outcomes"`
	Best      *Outcome   `json:"-" yaml:"-"`
	Criterion string     `json:"criterion" yaml:"criterion"`
	// ModelsEvaluated counts every fit, pruning refits included.
	ModelsEvaluated int `json:"models_evaluated" yaml:"models_evaluated"`
}

// Accepted returns the accepted outcomes in configuration order.
func (r *Result) Accepted() []*Outcome {
	var out []*Outcome
	for _, o := range r.Outcomes {
		if o.Accepted() {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for the named candidate.
func (r *Result) Outcome(name string) (*Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// Evaluator fits, prunes, gates and diagnoses candidate models.
type Evaluator struct {
	config Config
	logger *logrus.Logger
}

// NewEvaluator creates an evaluator. A nil logger discards output.
func NewEvaluator(config Config, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Tolerance < 0 {
		config.Tolerance = stability.DefaultTolerance
	}
	if config.Criterion == "" {
		config.Criterion = "aicc"
	}
	return &Evaluator{config: config, logger: logger}
}

// Evaluate runs every candidate against values, the transformer's
// differenced series, with at most Workers fits in flight. Each candidate
// owns its own state. Estimation and stability failures are recorded on the
// outcome; only a fatal error or cancellation aborts the whole evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, values []float64) (*Result, error) {
	if len(e.config.Candidates) == 0 {
		return nil, tserr.New(tserr.KindData, "selection", "no candidate models configured")
	}
	if err := checkNames(e.config.Candidates); err != nil {
		return nil, err
	}

	outcomes := make([]*Outcome, len(e.config.Candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for i, spec := range e.config.Candidates {
		i, spec := i, spec
		g.Go(func() error {
			out := e.evaluate(gctx, i, spec, values)
			outcomes[i] = out
			if out.Err != nil && tserr.KindOf(out.Err).Fatal() {
				return out.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, tserr.Wrap(tserr.KindEstimation, "selection", err, "evaluation cancelled")
	}

	result := &Result{Outcomes: outcomes, Criterion: e.config.Criterion}
	for _, o := range outcomes {
		if o.Pruning != nil {
			result.ModelsEvaluated += len(o.Pruning.Steps)
			if o.Pruning.Rejected != "" {
				result.ModelsEvaluated++
			}
		}
	}
	result.Best = Best(outcomes, e.config.Criterion)

	fields := logrus.Fields{
		"candidates": len(outcomes),
		"accepted":   len(result.Accepted()),
		"fits":       result.ModelsEvaluated,
	}
	if result.Best != nil {
		fields["best"] = result.Best.Name()
		fields[e.config.Criterion] = criterion(result.Best.Model, e.config.Criterion)
	}
	e.logger.WithFields(fields).Info("Candidate evaluation complete")

	return result, nil
}

func (e *Evaluator) evaluate(ctx context.Context, i int, spec sarima.Spec, values []float64) *Outcome {
	start := time.Now()
	out := &Outcome{Index: i, Spec: spec}
	log := e.logger.WithField("candidate", spec.Name)
	defer func() { out.Elapsed = time.Since(start) }()

	opts := e.config.Prune
	opts.Tolerance = e.config.Tolerance
	pruned, err := sarima.Prune(ctx, values, spec, opts)
	if err != nil {
		out.Err = tserr.WithCandidate(err, spec.Name)
		out.Status = StatusDropped
		log.WithError(out.Err).Warn("Candidate dropped")
		return out
	}
	out.Pruning = pruned
	out.Model = pruned.Final

	log.WithFields(logrus.Fields{
		"model":   out.Model.Spec().String(),
		"removed": len(pruned.Steps) - 1,
		"stop":    pruned.Stop,
		"aicc":    out.Model.AICc(),
	}).Debug("Candidate pruned")

	report, err := stability.Check(out.Model.StabilityInput(), e.config.Tolerance)
	out.Stability = report
	if err != nil {
		out.Err = tserr.WithCandidate(err, spec.Name)
		switch tserr.KindOf(err) {
		case tserr.KindNonCausal, tserr.KindNonInvertible:
			out.Status = StatusExcluded
			log.WithError(out.Err).Warn("Candidate excluded")
		default:
			out.Status = StatusDropped
			log.WithError(out.Err).Warn("Candidate dropped")
		}
		return out
	}
	out.Status = StatusAccepted

	diag, err := diagnostics.Diagnose(out.Model.Residuals(), out.Model.FitDF(), e.config.Diagnostics)
	out.Diagnostics = diag
	if err != nil {
		out.Advisory = tserr.WithCandidate(err, spec.Name)
		log.WithError(out.Advisory).Warn("Residual diagnostics failed")
	}

	log.WithFields(logrus.Fields{
		"aicc":        out.Model.AICc(),
		"white_noise": diag != nil && diag.WhiteNoise,
	}).Info("Candidate accepted")
	return out
}

// Best returns the accepted outcome with the lowest criterion value. Ties
// go to fewer parameters and then to the earlier candidate.
func Best(outcomes []*Outcome, crit string) *Outcome {
	var best *Outcome
	bestValue := math.Inf(1)
	for _, o := range outcomes {
		if o == nil || !o.Accepted() || o.Model == nil {
			continue
		}
		v := criterion(o.Model, crit)
		if math.IsNaN(v) {
			continue
		}
		switch {
		case best == nil, v < bestValue:
		case v == bestValue && o.Model.NumParams() < best.Model.NumParams():
		case v == bestValue && o.Model.NumParams() == best.Model.NumParams() && o.Index < best.Index:
		default:
			continue
		}
		best, bestValue = o, v
	}
	return best
}

func criterion(m *sarima.Model, name string) float64 {
	switch strings.ToLower(name) {
	case "aic":
		return m.AIC()
	case "bic":
		return m.BIC()
	default:
		return m.AICc()
	}
}

func checkNames(specs []sarima.Spec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return tserr.New(tserr.KindData, "selection", "duplicate candidate name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
