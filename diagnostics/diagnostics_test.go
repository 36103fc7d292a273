package diagnostics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asamerry/Time-Series-Project/tserr"
)

func TestDiagnoseWhiteNoise(t *testing.T) {
	accepted := 0
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		res := make([]float64, 300)
		for i := range res {
			res[i] = rng.NormFloat64()
		}

		report, err := Diagnose(res, 2, DefaultOptions())
		require.NotNil(t, report)
		require.Len(t, report.Tests, 4)
		for _, test := range report.Tests {
			assert.GreaterOrEqual(t, test.PValue, 0.0)
			assert.LessOrEqual(t, test.PValue, 1.0)
		}
		if err == nil {
			accepted++
			assert.True(t, report.WhiteNoise)
			assert.Empty(t, report.Rejected)
		}
	}
	// four tests at 5% each: P(no rejection) is about 0.8
	assert.GreaterOrEqual(t, accepted, 10)
}

func TestDiagnoseReport(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	res := make([]float64, 200)
	for i := range res {
		res[i] = rng.NormFloat64()
	}

	report, _ := Diagnose(res, 3, Options{Lags: 22, Alpha: 0.05})
	require.NotNil(t, report)
	assert.Equal(t, 200, report.N)
	assert.Equal(t, 3, report.FitDF)

	lb, ok := report.Test(LjungBox)
	require.True(t, ok)
	assert.Equal(t, 22, lb.Lags)
	assert.Equal(t, 19, lb.DOF)

	ml, ok := report.Test(McLeodLi)
	require.True(t, ok)
	assert.Equal(t, 22, ml.DOF)

	bp, ok := report.Test(BoxPierce)
	require.True(t, ok)
	assert.Less(t, bp.Statistic, lb.Statistic)

	_, ok = report.Test(ShapiroWilk)
	assert.True(t, ok)
	assert.InDelta(t, 2, report.DurbinWatson, 0.4)
}

func TestDiagnoseAutocorrelated(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	res := make([]float64, 300)
	prev := 0.0
	for i := range res {
		prev = 0.7*prev + rng.NormFloat64()
		res[i] = prev
	}

	report, err := Diagnose(res, 0, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, tserr.ErrDiagnostic)
	require.NotNil(t, report)
	assert.False(t, report.WhiteNoise)
	assert.Contains(t, report.Rejected, LjungBox)
	assert.Contains(t, report.Rejected, BoxPierce)
	assert.Less(t, report.DurbinWatson, 1.0)
}

func TestDiagnoseNonNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	res := make([]float64, 300)
	for i := range res {
		res[i] = math.Pow(rng.NormFloat64(), 3)
	}

	report, err := Diagnose(res, 0, DefaultOptions())
	assert.ErrorIs(t, err, tserr.ErrDiagnostic)
	require.NotNil(t, report)
	assert.Contains(t, report.Rejected, ShapiroWilk)
}

func TestDiagnoseUntestable(t *testing.T) {
	report, err := Diagnose([]float64{1, 1, 1, 1, 1}, 0, Options{})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, tserr.ErrDiagnostic)

	_, err = Diagnose([]float64{1, 2}, 0, Options{})
	assert.ErrorIs(t, err, tserr.ErrDiagnostic)
}
