package sarima

import (
	"context"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/arima"
	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/stats"
	"github.com/asamerry/Time-Series-Project/transform"
	"github.com/asamerry/Time-Series-Project/tserr"
)

const (
	// penalty is returned for non-stationary or non-invertible trial points.
	penalty = 1e10

	maxEvaluations = 20000
	convergeTol    = 1e-9
	convergeIters  = 200
	restarts       = 1
	simplexSize    = 0.1
)

var hessianSteps = []float64{1e-3, 1e-4}

// ctxRecorder stops the optimiser when the context is cancelled.
type ctxRecorder struct {
	ctx context.Context
}

func (r ctxRecorder) Init() error { return r.ctx.Err() }

func (r ctxRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// problem holds the model-differenced series and the parameter layout of
// one fit.
type problem struct {
	spec  Spec
	free  []slot
	w     []float64
	mean0 float64
	scale float64
	tol   float64
}

// unpack maps an optimiser vector to coefficients and the mean.
func (p *problem) unpack(x []float64) (ar, ma, sar, sma []float64, mu float64) {
	o := p.spec.Order
	ar = make([]float64, o.P)
	ma = make([]float64, o.Q)
	sar = make([]float64, o.SP)
	sma = make([]float64, o.SQ)
	groups := [...][]float64{ar, ma, sar, sma}
	for i, sl := range p.free {
		groups[sl.g][sl.i] = x[i]
	}
	if p.spec.IncludeMean {
		mu = p.mean0 + p.scale*x[len(p.free)]
	}
	return ar, ma, sar, sma, mu
}

func (p *problem) filter(x []float64) (*arima.FilterResult, bool) {
	ar, ma, sar, sma, mu := p.unpack(x)
	in := stability.Input{AR: ar, MA: ma, SAR: sar, SMA: sma, Period: p.spec.Order.Period}
	if !stability.IsStable(in, p.tol) {
		return nil, false
	}
	y := make([]float64, len(p.w))
	for i, v := range p.w {
		y[i] = v - mu
	}
	period := p.spec.Order.Period
	res, err := arima.Likelihood(y, arima.ExpandAR(ar, sar, period), arima.ExpandMA(ma, sma, period))
	if err != nil || res.SSQ <= 0 || math.IsNaN(res.Objective()) || math.IsInf(res.Objective(), 0) {
		return nil, false
	}
	return res, true
}

func (p *problem) objective(x []float64) float64 {
	res, ok := p.filter(x)
	if !ok {
		return penalty
	}
	return res.Objective()
}

func (p *problem) dim() int {
	n := len(p.free)
	if p.spec.IncludeMean {
		n++
	}
	return n
}

// start returns Yule-Walker AR estimates at the free lags, zeros elsewhere.
func (p *problem) start() []float64 {
	x := make([]float64, p.dim())
	o := p.spec.Order
	if o.P == 0 {
		return x
	}
	yw := arima.YuleWalker(p.w, o.P)
	if yw == nil || !stability.IsStable(stability.Input{AR: yw}, p.tol) {
		return x
	}
	for i, sl := range p.free {
		if sl.g == groupAR {
			x[i] = yw[sl.i]
		}
	}
	if p.objective(x) >= penalty {
		return make([]float64, p.dim())
	}
	return x
}

// Fit estimates the model by exact maximum likelihood. values is the series
// on the scale the model describes; the model applies its own d and D
// differences before filtering.
func Fit(ctx context.Context, values []float64, spec Spec) (*Model, error) {
	return fit(ctx, values, spec, stability.DefaultTolerance)
}

func fit(ctx context.Context, values []float64, spec Spec, tol float64) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, tserr.WithCandidate(err, spec.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, tserr.Wrap(tserr.KindEstimation, "fit", err, "cancelled")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, tserr.WithCandidate(
				tserr.New(tserr.KindData, "fit", "non-finite value at index %d", i), spec.Name)
		}
	}

	o := spec.Order
	diffs, w, err := modelDifference(values, o)
	if err != nil {
		return nil, tserr.WithCandidate(err, spec.Name)
	}

	k := spec.NumParams()
	if len(w) <= k+1 {
		return nil, tserr.WithCandidate(tserr.New(tserr.KindData, "fit",
			"%d observations after differencing cannot support %d parameters", len(w), k), spec.Name)
	}

	mean0, sd := stat.MeanStdDev(w, nil)
	if !(sd > 0) {
		sd = 1
	}
	p := &problem{spec: spec, free: spec.freeSlots(), w: w, mean0: mean0, scale: sd, tol: tol}
	if !spec.IncludeMean {
		p.mean0 = 0
	}

	x, evals, err := p.optimize(ctx)
	if err != nil {
		return nil, tserr.WithCandidate(err, spec.Name)
	}

	res, ok := p.filter(x)
	if !ok {
		return nil, tserr.WithCandidate(tserr.New(tserr.KindEstimation, "fit",
			"optimum lies outside the stationary and invertible region"), spec.Name)
	}

	se, err := p.standardErrors(x, len(w))
	if err != nil {
		return nil, tserr.WithCandidate(err, spec.Name)
	}

	ar, ma, sar, sma, mu := p.unpack(x)
	arSE, maSE, sarSE, smaSE, muSE := p.unpack(se)
	if spec.IncludeMean {
		muSE = p.scale * se[len(p.free)]
	}

	sigma2 := res.Sigma2()
	residuals := make([]float64, len(res.Residuals))
	scale := math.Sqrt(sigma2)
	for i, v := range res.Residuals {
		residuals[i] = v * scale
	}

	logLik := res.LogLik()
	return &Model{
		spec:      spec.withFullMask(),
		ar:        ar,
		ma:        ma,
		sar:       sar,
		sma:       sma,
		arSE:      arSE,
		maSE:      maSE,
		sarSE:     sarSE,
		smaSE:     smaSE,
		mean:      mu,
		meanSE:    muSE,
		sigma2:    sigma2,
		logLik:    logLik,
		ic:        stats.CalculateIC(logLik, len(w), k),
		nobs:      len(w),
		residuals: residuals,
		evals:     evals,
		filter:    res,
		diffs:     diffs,
	}, nil
}

func (s Spec) withFullMask() Spec {
	s.Mask = s.fullMask()
	return s
}

// modelDifference applies (1-B)^d then (1-B^s)^D.
func modelDifference(values []float64, o Order) ([]*transform.Differenced, []float64, error) {
	regular, err := transform.Difference(values, 1, o.D)
	if err != nil {
		return nil, nil, err
	}
	diffs := []*transform.Differenced{regular}
	w := regular.Values
	if o.SD > 0 {
		seasonal, err := transform.Difference(w, o.Period, o.SD)
		if err != nil {
			return nil, nil, err
		}
		diffs = append(diffs, seasonal)
		w = seasonal.Values
	}
	return diffs, w, nil
}

// optimize runs Nelder-Mead from the start values, then once more from the
// optimum with a fresh simplex.
func (p *problem) optimize(ctx context.Context) ([]float64, int, error) {
	x := p.start()
	if len(x) == 0 {
		return x, 1, nil
	}

	evals := 0
	for round := 0; round <= restarts; round++ {
		settings := &optimize.Settings{
			FuncEvaluations: maxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   convergeTol,
				Iterations: convergeIters,
			},
			Recorder: ctxRecorder{ctx: ctx},
		}
		result, err := optimize.Minimize(
			optimize.Problem{Func: p.objective},
			x, settings, &optimize.NelderMead{SimplexSize: simplexSize},
		)
		if ctx.Err() != nil {
			return nil, evals, tserr.Wrap(tserr.KindEstimation, "fit", ctx.Err(), "cancelled")
		}
		if err != nil {
			return nil, evals, tserr.Wrap(tserr.KindEstimation, "fit", err, "optimiser failed")
		}
		evals += result.Stats.FuncEvaluations
		if result.Status.Early() {
			return nil, evals, tserr.New(tserr.KindEstimation, "fit",
				"optimiser did not converge: %s after %d evaluations", result.Status, evals)
		}
		if result.F >= penalty {
			return nil, evals, tserr.New(tserr.KindEstimation, "fit", "no admissible parameter values found")
		}
		x = result.X
	}
	return x, evals, nil
}

// standardErrors inverts the observed information n·H, where H is the
// numerical Hessian of the per-observation objective.
func (p *problem) standardErrors(x []float64, n int) ([]float64, error) {
	dim := len(x)
	if dim == 0 {
		return nil, nil
	}

	var lastErr error
	for _, step := range hessianSteps {
		hitPenalty := false
		f := func(v []float64) float64 {
			val := p.objective(v)
			if val >= penalty {
				hitPenalty = true
			}
			return val
		}

		var h mat.SymDense
		fd.Hessian(&h, f, floats.ScaleTo(make([]float64, dim), 1, x), &fd.Settings{
			Formula: fd.Central,
			Step:    step,
		})
		if hitPenalty {
			lastErr = tserr.New(tserr.KindEstimation, "fit", "optimum is too close to the stability boundary for a Hessian")
			continue
		}

		h.ScaleSym(float64(n), &h)
		var chol mat.Cholesky
		if !chol.Factorize(&h) {
			lastErr = tserr.New(tserr.KindEstimation, "fit", "parameter covariance is not positive definite")
			continue
		}
		var cov mat.SymDense
		if err := chol.InverseTo(&cov); err != nil {
			lastErr = tserr.Wrap(tserr.KindEstimation, "fit", err, "inverting information matrix")
			continue
		}

		se := make([]float64, dim)
		for i := range se {
			v := cov.At(i, i)
			if !(v > 0) || math.IsInf(v, 0) {
				return nil, tserr.New(tserr.KindEstimation, "fit", "non-positive variance for parameter %d", i)
			}
			se[i] = math.Sqrt(v)
		}
		return se, nil
	}
	return nil, lastErr
}
