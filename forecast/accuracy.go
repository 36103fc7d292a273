package forecast

import (
	"math"

	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Accuracy compares forecasts against held-out observations on the original
// scale.
type Accuracy struct {
	N    int     `json:"n" yaml:"n"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
	MAPE float64 `json:"mape" yaml:"mape"` // percent; NaN if any actual is 0
	// Coverage is the share of actuals inside the original-scale bounds.
	Coverage float64 `json:"coverage" yaml:"coverage"`
}

// ComputeAccuracy returns RMSE, MAE and MAPE of predicted against actual.
func ComputeAccuracy(actual, predicted []float64) (Accuracy, error) {
	if len(actual) != len(predicted) {
		return Accuracy{}, tserr.New(tserr.KindData, "accuracy",
			"length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return Accuracy{}, tserr.New(tserr.KindData, "accuracy", "no observations to compare")
	}

	var sse, sae, sape float64
	zero := false
	for i, a := range actual {
		e := a - predicted[i]
		sse += e * e
		sae += math.Abs(e)
		if a == 0 {
			zero = true
		} else {
			sape += math.Abs(e / a)
		}
	}
	n := float64(len(actual))
	acc := Accuracy{
		N:    len(actual),
		RMSE: math.Sqrt(sse / n),
		MAE:  sae / n,
		MAPE: 100 * sape / n,
	}
	if zero {
		acc.MAPE = math.NaN()
	}
	return acc, nil
}

// Evaluate scores the forecast against a testing window, matching points
// by month. Observations outside the forecast span are ignored.
func (f *Forecast) Evaluate(test *timeseries.Series) (Accuracy, error) {
	byTime := make(map[int64]Point, len(f.Points))
	for _, p := range f.Points {
		byTime[p.Time.Unix()] = p
	}

	var actual, predicted []float64
	covered := 0
	for i, ts := range test.Timestamps {
		p, ok := byTime[timeseries.MonthStart(ts).Unix()]
		if !ok {
			continue
		}
		v := test.Values[i]
		actual = append(actual, v)
		predicted = append(predicted, p.Original)
		if v >= p.OriginalLower && v <= p.OriginalUpper {
			covered++
		}
	}
	acc, err := ComputeAccuracy(actual, predicted)
	if err != nil {
		return Accuracy{}, err
	}
	acc.Coverage = float64(covered) / float64(acc.N)
	return acc, nil
}
