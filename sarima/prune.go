package sarima

import (
	"context"
	"math"

	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// DefaultThreshold is the |t| below which a coefficient is considered
// insignificant.
const DefaultThreshold = 2.0

// PruneOptions controls the pruning loop.
type PruneOptions struct {
	Threshold float64 // |t| below which a coefficient is fixed; default 2
	MaxRounds int     // upper bound on rounds; 0 means the number of coefficients
	Tolerance float64 // stability tolerance used while fitting; negative means the default
}

// DefaultPruneOptions returns options with threshold 2.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{Threshold: DefaultThreshold, Tolerance: stability.DefaultTolerance}
}

// PruneStep is one accepted snapshot of the pruning path.
type PruneStep struct {
	Round   int     `json:"round" yaml:"round"`
	Removed string  `json:"removed,omitempty" yaml:"removed,omitempty"`
	TStat   float64 `json:"t_stat,omitempty" yaml:"t_stat,omitempty"`
	AICc    float64 `json:"aicc" yaml:"aicc"`
	Model   *Model  `json:"-" yaml:"-"`
}

// StopReason says why the loop ended.
type StopReason string

const (
	StopNoneInsignificant StopReason = "no insignificant coefficient"
	StopNoneFree          StopReason = "no free coefficient"
	StopAICcIncreased     StopReason = "removal increased AICc"
	StopRefitFailed       StopReason = "refit failed"
	StopMaxRounds         StopReason = "round limit reached"
)

// PruneResult is the accepted pruning path. Steps[0] is the initial fit;
// AICc is non-increasing along Steps.
type PruneResult struct {
	Steps    []PruneStep `json:"steps" yaml:"steps"`
	Final    *Model      `json:"-" yaml:"-"`
	Stop     StopReason  `json:"stop" yaml:"stop"`
	Rejected string      `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// Prune fits spec and then repeatedly fixes the least significant free
// coefficient at zero, refitting after each removal. A removal is kept only
// if AICc does not increase. At most one coefficient is removed per round.
func Prune(ctx context.Context, values []float64, spec Spec, opts PruneOptions) (*PruneResult, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	tol := opts.Tolerance
	if tol < 0 {
		tol = stability.DefaultTolerance
	}

	current, err := fit(ctx, values, spec, tol)
	if err != nil {
		return nil, err
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = len(spec.slots())
	}

	result := &PruneResult{
		Steps: []PruneStep{{Round: 0, AICc: current.AICc(), Model: current}},
		Final: current,
	}

	for round := 1; ; round++ {
		if round > maxRounds {
			result.Stop = StopMaxRounds
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, tserr.WithCandidate(tserr.Wrap(tserr.KindEstimation, "prune", err, "cancelled"), spec.Name)
		}

		name, t, ok := leastSignificant(current)
		if !ok {
			result.Stop = StopNoneFree
			break
		}
		if math.Abs(t) >= opts.Threshold {
			result.Stop = StopNoneInsignificant
			break
		}

		next, err := current.spec.Fix(name)
		if err != nil {
			return nil, tserr.WithCandidate(err, spec.Name)
		}
		refit, err := fit(ctx, values, next, tol)
		if err != nil {
			if tserr.KindOf(err).Fatal() {
				return nil, err
			}
			result.Stop = StopRefitFailed
			result.Rejected = name
			break
		}
		if refit.AICc() > current.AICc() {
			result.Stop = StopAICcIncreased
			result.Rejected = name
			break
		}

		current = refit
		result.Steps = append(result.Steps, PruneStep{
			Round:   round,
			Removed: name,
			TStat:   t,
			AICc:    refit.AICc(),
			Model:   refit,
		})
		result.Final = refit
	}

	return result, nil
}

// leastSignificant returns the free AR/MA coefficient with the smallest |t|.
// Ties go to the coefficient listed first.
func leastSignificant(m *Model) (string, float64, bool) {
	best := ""
	bestT := math.Inf(1)
	for _, c := range m.Coefficients() {
		if c.Fixed || c.Name == "mean" {
			continue
		}
		if t := math.Abs(c.TStat()); t < bestT {
			best, bestT = c.Name, t
		}
	}
	if best == "" {
		return "", 0, false
	}
	c, _ := m.Coefficient(best)
	return best, c.TStat(), true
}
