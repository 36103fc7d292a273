package forecast

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/transform"
	"github.com/asamerry/Time-Series-Project/tserr"
)

var start = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

func seasonalSeries(seed int64, n int) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for t := range values {
		values[t] = 100 + 0.5*float64(t) + 10*math.Sin(2*math.Pi*float64(t)/12) + rng.NormFloat64()
	}
	s := timeseries.NewMonthly(start, values)
	s.Name = "synthetic"
	return s
}

func prepare(t *testing.T, series *timeseries.Series, lambda float64, order sarima.Order, mean bool) (*sarima.Model, *transform.Result) {
	t.Helper()
	cfg := transform.DefaultConfig()
	cfg.Lambda = &lambda
	cfg.DiffOrder = 1
	tr, err := transform.NewTransformer(cfg, nil).Transform(series)
	require.NoError(t, err)

	spec, err := sarima.NewSpec("test", order, mean)
	require.NoError(t, err)
	model, err := sarima.Fit(context.Background(), tr.Differenced.Values, spec)
	require.NoError(t, err)
	return model, tr
}

func TestForecast24Steps(t *testing.T) {
	series := seasonalSeries(1, 240)
	model, tr := prepare(t, series, 1, sarima.Order{Q: 1, SD: 1, SQ: 1, Period: 12}, false)

	f, err := New(model, tr, 24, Options{})
	require.NoError(t, err)

	require.Len(t, f.Points, 24)
	assert.Equal(t, 24, f.Horizon)
	assert.Equal(t, "test", f.Candidate)
	assert.Equal(t, DefaultMultiplier, f.Multiplier)

	last := series.End()
	for h, p := range f.Points {
		assert.Equal(t, h+1, p.Step)
		assert.Equal(t, last.AddDate(0, h+1, 0), p.Time)
		assert.InDelta(t, p.Mean-2*p.StdErr, p.Lower, 1e-9)
		assert.InDelta(t, p.Mean+2*p.StdErr, p.Upper, 1e-9)
		// λ = 1 leaves the scale unchanged
		assert.InDelta(t, p.Mean, p.Original, 1e-9)
		assert.LessOrEqual(t, p.OriginalLower, p.Original)
		assert.GreaterOrEqual(t, p.OriginalUpper, p.Original)
		if h > 0 {
			assert.GreaterOrEqual(t, p.StdErr, f.Points[h-1].StdErr)
		}
	}

	// one month ahead stays close to the trend and season
	expected := 100 + 0.5*240 + 10*math.Sin(2*math.Pi*240/12)
	assert.InDelta(t, expected, f.Points[0].Mean, 5)
	assert.Len(t, f.Means(), 24)
	assert.Len(t, f.StdErrs(), 24)
	assert.Len(t, f.Originals(), 24)
}

func TestForecastNegativeLambda(t *testing.T) {
	series := seasonalSeries(2, 180)
	model, tr := prepare(t, series, -0.18, sarima.Order{P: 1}, true)

	f, err := New(model, tr, 12, Options{Multiplier: 2})
	require.NoError(t, err)

	for _, p := range f.Points {
		assert.InDelta(t, transform.BackTransform(p.Mean, -0.18), p.Original, 1e-9)
		assert.LessOrEqual(t, p.OriginalLower, p.Original)
		assert.GreaterOrEqual(t, p.OriginalUpper, p.Original)
		// bounds swap under a decreasing transform
		assert.InDelta(t, transform.BackTransform(p.Upper, -0.18), p.OriginalLower, 1e-9)
	}
	assert.InDelta(t, 100, transform.BackTransform(transform.Power(100, -0.18), -0.18), 1e-9)
}

func TestForecastLongHorizon(t *testing.T) {
	series := seasonalSeries(3, 120)
	model, tr := prepare(t, series, 0.5, sarima.Order{P: 1}, false)

	f, err := New(model, tr, 600, Options{})
	require.NoError(t, err)
	require.Len(t, f.Points, 600)
	for _, p := range f.Points {
		assert.False(t, math.IsNaN(p.Original))
		assert.False(t, math.IsNaN(p.OriginalLower))
		assert.False(t, math.IsNaN(p.OriginalUpper))
		assert.GreaterOrEqual(t, p.OriginalLower, 0.0)
	}
}

func TestForecastErrors(t *testing.T) {
	series := seasonalSeries(4, 120)
	model, tr := prepare(t, series, 1, sarima.Order{P: 1}, false)

	_, err := New(model, tr, 0, Options{})
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = New(nil, tr, 5, Options{})
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestCaveatAndTruncate(t *testing.T) {
	series := seasonalSeries(5, 120)
	model, tr := prepare(t, series, 1, sarima.Order{P: 1}, false)

	f, err := New(model, tr, 12, Options{})
	require.NoError(t, err)

	c := f.WithCaveat("residuals not white noise")
	assert.Equal(t, "residuals not white noise", c.Caveat)
	assert.Empty(t, f.Caveat)

	short := f.Truncate(6)
	assert.Equal(t, 6, short.Horizon)
	assert.Len(t, short.Points, 6)
	assert.Len(t, f.Points, 12)
	assert.Same(t, f, f.Truncate(12))
}

func TestComputeAccuracy(t *testing.T) {
	acc, err := ComputeAccuracy([]float64{1, 2, 4}, []float64{1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, acc.N)
	assert.InDelta(t, math.Sqrt(5.0/3), acc.RMSE, 1e-12)
	assert.InDelta(t, 1, acc.MAE, 1e-12)
	assert.InDelta(t, 100.0/3, acc.MAPE, 1e-9)

	acc, err = ComputeAccuracy([]float64{0, 1}, []float64{1, 1})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(acc.MAPE))

	_, err = ComputeAccuracy([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, tserr.ErrData)
	_, err = ComputeAccuracy(nil, nil)
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestEvaluate(t *testing.T) {
	full := seasonalSeries(6, 252)
	train := full.Slice(0, 240)
	test := full.Slice(240, 252)

	model, tr := prepare(t, train, 1, sarima.Order{Q: 1, SD: 1, SQ: 1, Period: 12}, false)
	f, err := New(model, tr, 24, Options{})
	require.NoError(t, err)

	acc, err := f.Evaluate(test)
	require.NoError(t, err)
	assert.Equal(t, 12, acc.N)
	assert.Less(t, acc.MAPE, 5.0)
	assert.GreaterOrEqual(t, acc.Coverage, 0.5)

	_, err = f.Evaluate(timeseries.NewMonthly(start, []float64{1, 2}))
	assert.ErrorIs(t, err, tserr.ErrData)
}
