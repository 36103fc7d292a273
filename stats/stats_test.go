package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asamerry/Time-Series-Project/tserr"
)

func ar1(rng *rand.Rand, n int, phi float64) []float64 {
	out := make([]float64, n)
	prev := 0.0
	for i := -100; i < n; i++ {
		prev = phi*prev + rng.NormFloat64()
		if i >= 0 {
			out[i] = prev
		}
	}
	return out
}

func whiteNoise(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func TestACF(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := ar1(rng, 1000, 0.7)

	acf, err := ACF(values, 24)
	require.NoError(t, err)
	require.Len(t, acf, 24)

	assert.Equal(t, 1, acf[0].Lag)
	assert.Equal(t, 24, acf[23].Lag)
	assert.InDelta(t, 0.7, acf[0].Value, 0.08)
	assert.InDelta(t, 0.49, acf[1].Value, 0.1)
	assert.InDelta(t, 1.96/math.Sqrt(1000), acf[0].Bound, 1e-12)
	assert.True(t, acf[0].Significant())
}

func TestPACF(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	values := ar1(rng, 1000, 0.7)

	pacf, err := PACF(values, 10)
	require.NoError(t, err)
	require.Len(t, pacf, 10)

	assert.InDelta(t, 0.7, pacf[0].Value, 0.08)
	for _, row := range pacf[1:] {
		assert.Less(t, math.Abs(row.Value), 0.15, "lag %d", row.Lag)
	}
}

func TestPACFMatchesACFAtLagOne(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9}

	acf, err := ACF(values, 5)
	require.NoError(t, err)
	pacf, err := PACF(values, 5)
	require.NoError(t, err)

	assert.InDelta(t, acf[0].Value, pacf[0].Value, 1e-12)
}

func TestCorrelationErrors(t *testing.T) {
	_, err := ACF([]float64{1, 1, 1, 1}, 2)
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = ACF([]float64{1, 2}, 1)
	assert.ErrorIs(t, err, tserr.ErrData)

	_, err = PACF([]float64{1, 2, 3, 4}, 0)
	assert.ErrorIs(t, err, tserr.ErrData)

	acf, err := ACF([]float64{1, 3, 2, 4}, 10)
	require.NoError(t, err)
	assert.Len(t, acf, 3)
}

func TestSignificantLagsSplitBySeason(t *testing.T) {
	rows := []Correlation{
		{Lag: 1, Value: 0.5, Bound: 0.1},
		{Lag: 2, Value: 0.05, Bound: 0.1},
		{Lag: 3, Value: -0.3, Bound: 0.1},
		{Lag: 12, Value: -0.4, Bound: 0.1},
		{Lag: 13, Value: 0.2, Bound: 0.1},
		{Lag: 24, Value: 0.11, Bound: 0.1},
	}

	lags := SignificantLags(rows)
	assert.Equal(t, []int{1, 3, 12, 13, 24}, lags)

	within, seasonal := SplitBySeason(lags, 12)
	assert.Equal(t, []int{1, 3}, within)
	assert.Equal(t, []int{12, 24}, seasonal)
}

func TestLjungBoxRejectsAutocorrelation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := ar1(rng, 300, 0.6)

	lb, err := LjungBox(values, 22, 0)
	require.NoError(t, err)

	assert.Equal(t, "ljung-box", lb.Name)
	assert.Equal(t, 22, lb.Lags)
	assert.Equal(t, 22, lb.DOF)
	assert.Less(t, lb.PValue, 0.001)
	assert.True(t, lb.Rejects(0.05))
}

func TestPortmanteauWhiteNoiseAcceptance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const trials = 200

	accepted := 0
	for i := 0; i < trials; i++ {
		values := whiteNoise(rng, 200)
		lb, err := LjungBox(values, 22, 0)
		require.NoError(t, err)
		bp, err := BoxPierce(values, 22, 0)
		require.NoError(t, err)

		for _, p := range []float64{lb.PValue, bp.PValue} {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
		if lb.PValue >= 0.05 {
			accepted++
		}
	}
	assert.GreaterOrEqual(t, accepted, trials*9/10)
	t.Logf("Ljung-Box accepted white noise in %d/%d trials", accepted, trials)
}

func TestBoxPierceBelowLjungBox(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := whiteNoise(rng, 120)

	lb, err := LjungBox(values, 22, 2)
	require.NoError(t, err)
	bp, err := BoxPierce(values, 22, 2)
	require.NoError(t, err)

	assert.Less(t, bp.Statistic, lb.Statistic)
	assert.Equal(t, 20, bp.DOF)
}

func TestPortmanteauDOFFloor(t *testing.T) {
	assert.Equal(t, 1, portmanteauDOF(3, 5))
	assert.Equal(t, 19, portmanteauDOF(22, 3))
}

func TestMcLeodLi(t *testing.T) {
	rng := rand.New(rand.NewSource(6))

	// ARCH(1): uncorrelated levels, correlated squares.
	arch := make([]float64, 500)
	prev := 0.0
	for i := range arch {
		sigma := math.Sqrt(0.5 + 0.5*prev*prev)
		arch[i] = sigma * rng.NormFloat64()
		prev = arch[i]
	}

	ml, err := McLeodLi(arch, 22)
	require.NoError(t, err)
	assert.Equal(t, "mcleod-li", ml.Name)
	assert.Equal(t, 22, ml.DOF)
	assert.Less(t, ml.PValue, 0.01)
}

func TestShapiroWilkReference(t *testing.T) {
	// R: shapiro.test(c(148,154,158,160,161,162,166,170,182,195,236))
	values := []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236}

	sw, err := ShapiroWilk(values)
	require.NoError(t, err)

	assert.InDelta(t, 0.78881, sw.Statistic, 1e-4)
	assert.InDelta(t, 0.006704, sw.PValue, 2e-5)
}

func TestShapiroWilk(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	exponential := make([]float64, 200)
	for i := range exponential {
		exponential[i] = rng.ExpFloat64()
	}
	sw, err := ShapiroWilk(exponential)
	require.NoError(t, err)
	assert.Less(t, sw.PValue, 1e-6)

	three, err := ShapiroWilk([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, three.Statistic, 1e-12)
	assert.InDelta(t, 1.0, three.PValue, 1e-12)

	for _, n := range []int{8, 50} {
		ideal := make([]float64, n)
		for i := range ideal {
			ideal[i] = normalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		}
		sw, err := ShapiroWilk(ideal)
		require.NoError(t, err)
		assert.Greater(t, sw.Statistic, 0.99, "n=%d", n)
		assert.Greater(t, sw.PValue, 0.9, "n=%d", n)
	}

	_, err = ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, tserr.ErrData)
	_, err = ShapiroWilk([]float64{4, 4, 4, 4})
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestDurbinWatson(t *testing.T) {
	rng := rand.New(rand.NewSource(8))

	dw, ok := DurbinWatson(whiteNoise(rng, 500))
	require.True(t, ok)
	assert.InDelta(t, 2.0, dw, 0.3)

	dw, ok = DurbinWatson(ar1(rng, 500, 0.8))
	require.True(t, ok)
	assert.Less(t, dw, 1.0)

	_, ok = DurbinWatson([]float64{0, 0, 0})
	assert.False(t, ok)
}
