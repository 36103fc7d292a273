package transform

import (
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/tserr"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGrid(t *testing.T) {
	grid := DefaultGrid()

	require.Len(t, grid, 401)
	assert.Equal(t, -2.0, grid[0])
	assert.Equal(t, 2.0, grid[400])
	assert.Equal(t, 0.0, grid[200])
	assert.Nil(t, Grid(1, 0, 0.1))
	assert.Nil(t, Grid(0, 1, 0))
}

func TestPowerRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, lambda := range []float64{0.01, 0.25, 0.5, 1, 1.7, 2, 0} {
		for i := 0; i < 200; i++ {
			x := 0.01 + rng.Float64()*1e4
			got := InversePower(Power(x, lambda), lambda)
			assert.InEpsilon(t, x, got, 1e-9, "lambda=%g x=%g", lambda, x)
		}
	}
}

func TestPowerRoundTripNegativeLambda(t *testing.T) {
	const lambda = -0.18
	y := Power(100, lambda)

	assert.InDelta(t, 100, InversePower(y, lambda), 1e-9)
	assert.InDelta(t, 100, BackTransform(y, lambda), 1e-9)
}

func TestBackTransformDomain(t *testing.T) {
	assert.Equal(t, 0.0, BackTransform(-3, 0.5))
	assert.Equal(t, 0.0, BackTransform(0, 2))
	assert.True(t, math.IsInf(BackTransform(-0.1, -0.18), 1))
	assert.InDelta(t, math.Exp(-1), BackTransform(-1, 0), 1e-12)
	assert.True(t, math.IsNaN(BackTransform(math.NaN(), 0.5)))
}

func TestSelectLambdaExponentialGrowth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		tt := float64(i + 1)
		values[i] = math.Exp(0.02*tt + 0.05*math.Sin(tt))
	}

	params, err := SelectLambda(values, DefaultGrid())
	require.NoError(t, err)

	assert.LessOrEqual(t, math.Abs(params.Lambda), 0.2)
	assert.Len(t, params.Profile, 401)
}

func TestSelectLambdaErrors(t *testing.T) {
	_, err := SelectLambda([]float64{1, 2, -3, 4}, DefaultGrid())
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = SelectLambda([]float64{1, 2}, DefaultGrid())
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = SelectLambda([]float64{1, 2, 3, 5}, nil)
	assert.ErrorIs(t, err, tserr.ErrTransform)

	_, err = SelectLambda([]float64{2, 3, 5, 7, 11}, []float64{math.NaN(), math.Inf(1)})
	assert.ErrorIs(t, err, tserr.ErrTransform)
}

func TestTieBreak(t *testing.T) {
	tests := []struct {
		name       string
		lambda     float64
		bestLambda float64
		want       bool
	}{
		{"smaller magnitude wins", 0.1, -0.2, true},
		{"larger magnitude loses", 0.3, 0.2, false},
		{"equal magnitude prefers negative", -0.5, 0.5, true},
		{"positive does not displace negative", 0.5, -0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, better(-10, tt.lambda, -10, tt.bestLambda))
		})
	}
	assert.True(t, better(-9, 1.5, -10, 0))
}

func TestDifferenceRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 120)
	for i := range values {
		values[i] = float64(i*i) + rng.NormFloat64()
	}

	tests := []struct {
		lag, order int
	}{
		{1, 0}, {1, 1}, {1, 2}, {12, 1}, {3, 2},
	}
	for _, tt := range tests {
		d, err := Difference(values, tt.lag, tt.order)
		require.NoError(t, err)

		assert.Len(t, d.Values, len(values)-tt.lag*tt.order)
		assert.Equal(t, tt.lag*tt.order, d.Dropped())

		back := d.Integrate()
		require.Len(t, back, len(values))
		for i := range values {
			assert.InDelta(t, values[i], back[i], 1e-6, "lag=%d order=%d i=%d", tt.lag, tt.order, i)
		}
	}
}

func TestDifferenceSecondOrderOfQuadratic(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = float64(i * i)
	}
	d, err := Difference(values, 1, 2)
	require.NoError(t, err)

	for _, v := range d.Values {
		assert.Equal(t, 2.0, v)
	}
}

func TestExtendContinuesSeries(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + 3*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12)
	}
	const train = 48

	for _, tt := range []struct{ lag, order int }{{1, 2}, {12, 1}, {1, 1}} {
		full, err := Difference(values, tt.lag, tt.order)
		require.NoError(t, err)
		head, err := Difference(values[:train], tt.lag, tt.order)
		require.NoError(t, err)

		future := full.Values[train-full.Dropped():]
		got := head.Extend(future)

		require.Len(t, got, len(values)-train)
		for i, v := range got {
			assert.InDelta(t, values[train+i], v, 1e-9)
		}
	}
}

func TestDifferenceErrors(t *testing.T) {
	_, err := Difference([]float64{1, 2, 3}, 1, 3)
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = Difference([]float64{1, 2, 3}, 0, 1)
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestTransformerQuadraticTrend(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 480)
	for i := range values {
		tt := float64(i + 1)
		values[i] = tt*tt + 0.1*rng.NormFloat64()
	}
	series := timeseries.New(values)
	series.Name = "quadratic"

	tr := NewTransformer(Config{DiffLag: 1, DiffOrder: 2, Period: 12}, quietLogger())
	result, err := tr.Transform(series)
	require.NoError(t, err)

	assert.Equal(t, 478, result.Series.Len())
	assert.Equal(t, series.Timestamps[2], result.Series.Timestamps[0])
	assert.Greater(t, result.Variance.Raw, 0.0)
	assert.Less(t, result.Variance.Differenced*10, result.Variance.Raw)
	assert.GreaterOrEqual(t, result.Variance.Reduction(), 10.0)
	t.Logf("lambda=%.2f variance raw=%.4g differenced=%.4g", result.Lambda(), result.Variance.Raw, result.Variance.Differenced)
}

func TestTransformerFixedLambda(t *testing.T) {
	values := make([]float64, 36)
	for i := range values {
		values[i] = 50 + float64(i)
	}
	lambda := 1.0
	tr := NewTransformer(Config{Lambda: &lambda, DiffLag: 1, DiffOrder: 1}, nil)

	result, err := tr.Transform(timeseries.New(values))
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Lambda())
	for _, v := range result.Series.Values {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestTransformerRejectsNonPositive(t *testing.T) {
	values := []float64{3, 2, 1, 0, 1, 2, 3, 4}
	tr := NewTransformer(DefaultConfig(), nil)

	_, err := tr.Transform(timeseries.New(values))
	assert.ErrorIs(t, err, tserr.ErrData)
}
