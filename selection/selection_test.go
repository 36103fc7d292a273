package selection

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/tserr"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ar1(seed int64, n int, phi float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	prev := 0.0
	for i := -50; i < n; i++ {
		v := phi*prev + rng.NormFloat64()
		if i >= 0 {
			out[i] = v
		}
		prev = v
	}
	return out
}

func mustSpec(t *testing.T, name string, o sarima.Order) sarima.Spec {
	t.Helper()
	s, err := sarima.NewSpec(name, o, false)
	require.NoError(t, err)
	return s
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "aicc", cfg.Criterion)
	assert.Equal(t, sarima.DefaultThreshold, cfg.Prune.Threshold)
	assert.Equal(t, 22, cfg.Diagnostics.Lags)
	assert.Empty(t, cfg.Candidates)
}

func TestNewEvaluatorTolerance(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, stability.DefaultTolerance, NewEvaluator(cfg, nil).config.Tolerance)

	cfg.Tolerance = 0
	assert.Zero(t, NewEvaluator(cfg, nil).config.Tolerance, "zero is an exact unit-circle test")

	cfg.Tolerance = -1
	assert.Equal(t, stability.DefaultTolerance, NewEvaluator(cfg, nil).config.Tolerance)
}

func TestEvaluatePicksAR1(t *testing.T) {
	values := ar1(1, 240, 0.6)

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Candidates = []sarima.Spec{
		mustSpec(t, "ar1", sarima.Order{P: 1}),
		mustSpec(t, "ar2", sarima.Order{P: 2}),
		mustSpec(t, "ma1", sarima.Order{Q: 1}),
		{Name: "invalid", Order: sarima.Order{SP: 1, Period: 1}},
	}

	res, err := NewEvaluator(cfg, quietLogger()).Evaluate(context.Background(), values)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 4)

	for i, o := range res.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, cfg.Candidates[i].Name, o.Name())
	}

	invalid, ok := res.Outcome("invalid")
	require.True(t, ok)
	assert.Equal(t, StatusDropped, invalid.Status)
	assert.ErrorIs(t, invalid.Err, tserr.ErrEstimation)
	assert.Nil(t, invalid.Model)

	accepted := res.Accepted()
	require.Len(t, accepted, 3)
	for _, o := range accepted {
		require.NotNil(t, o.Model)
		require.NotNil(t, o.Stability)
		assert.True(t, o.Stability.Stable())
		require.NotNil(t, o.Diagnostics)
		assert.Equal(t, o.Model.FitDF(), o.Diagnostics.FitDF)
	}

	require.NotNil(t, res.Best)
	assert.NotEqual(t, "ma1", res.Best.Name())
	phi := res.Best.Model.AR()
	require.NotEmpty(t, phi)
	assert.InDelta(t, 0.6, phi[0], 0.12)
	assert.GreaterOrEqual(t, res.ModelsEvaluated, 3)

	ma1, _ := res.Outcome("ma1")
	assert.Less(t, res.Best.Model.AICc(), ma1.Model.AICc())
}

func TestEvaluateFatalError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Candidates = []sarima.Spec{mustSpec(t, "ar2", sarima.Order{P: 2})}

	_, err := NewEvaluator(cfg, nil).Evaluate(context.Background(), []float64{1, 2, 3})
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestEvaluateConfigErrors(t *testing.T) {
	values := ar1(2, 100, 0.5)

	_, err := NewEvaluator(DefaultConfig(), nil).Evaluate(context.Background(), values)
	assert.ErrorIs(t, err, tserr.ErrData)

	cfg := DefaultConfig()
	cfg.Candidates = []sarima.Spec{
		mustSpec(t, "m", sarima.Order{P: 1}),
		mustSpec(t, "m", sarima.Order{Q: 1}),
	}
	_, err = NewEvaluator(cfg, nil).Evaluate(context.Background(), values)
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestEvaluateCancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Candidates = []sarima.Spec{mustSpec(t, "ar1", sarima.Order{P: 1})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEvaluator(cfg, nil).Evaluate(ctx, ar1(3, 100, 0.5))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBestTieBreaks(t *testing.T) {
	values := ar1(4, 200, 0.5)
	model, err := sarima.Fit(context.Background(), values, mustSpec(t, "ar1", sarima.Order{P: 1}))
	require.NoError(t, err)

	outcomes := []*Outcome{
		{Index: 0, Status: StatusExcluded, Model: model},
		{Index: 1, Status: StatusAccepted, Model: model},
		{Index: 2, Status: StatusAccepted, Model: model},
		{Index: 3, Status: StatusDropped},
	}
	best := Best(outcomes, "aicc")
	require.NotNil(t, best)
	assert.Equal(t, 1, best.Index)

	assert.Nil(t, Best(outcomes[3:], "aicc"))
	assert.Nil(t, Best(nil, "bic"))
}

func TestBestByCriterion(t *testing.T) {
	values := ar1(5, 200, 0.7)
	ctx := context.Background()
	m1, err := sarima.Fit(ctx, values, mustSpec(t, "ar1", sarima.Order{P: 1}))
	require.NoError(t, err)
	m3, err := sarima.Fit(ctx, values, mustSpec(t, "ar3", sarima.Order{P: 3}))
	require.NoError(t, err)

	outcomes := []*Outcome{
		{Index: 0, Status: StatusAccepted, Model: m3},
		{Index: 1, Status: StatusAccepted, Model: m1},
	}
	// BIC penalises the two extra parameters hardest.
	assert.Equal(t, 1, Best(outcomes, "bic").Index)
}

func TestCaveat(t *testing.T) {
	o := &Outcome{}
	assert.Empty(t, o.Caveat())

	o.Advisory = tserr.New(tserr.KindDiagnostic, "diagnostics", "too few residuals")
	assert.Contains(t, o.Caveat(), "unavailable")
}
