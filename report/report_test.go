package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/asamerry/Time-Series-Project/config"
	"github.com/asamerry/Time-Series-Project/pipeline"
	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/timeseries"
)

func sample() *Summary {
	return &Summary{
		RunID:  "run-1",
		Series: "cpi",
		Transform: Transform{
			Lambda:     -0.18,
			DiffLag:    1,
			DiffOrder:  2,
			KPSSPValue: Float(math.NaN()),
		},
		Candidates: []Candidate{{
			Name:   "sarma",
			Model:  "SARIMA(1,0,1)(1,0,1)[12]",
			Status: "accepted",
			AICc:   -512.5,
			Stability: []Polynomial{
				{Name: "ar", MinModulus: 1.8, Stable: true},
				{Name: "sar", MinModulus: Float(math.Inf(1)), Stable: true},
			},
		}, {
			Name:   "ma",
			Status: "dropped",
			Error:  "estimation: optimizer failed",
			AICc:   Float(math.Inf(1)),
		}},
		Best: "sarma",
		Forecasts: []Forecast{{
			Candidate: "sarma",
			Horizon:   2,
			Lambda:    -0.18,
			Points: []Point{
				{Step: 1, Month: "2016-01", Mean: 4.1, StdErr: 0.1, Lower: 3.9, Upper: 4.3, Original: 100, OriginalLower: 90, OriginalUpper: 111},
				{Step: 2, Month: "2016-02", Mean: 4.2, StdErr: 0.2, Lower: 3.8, Upper: 4.6, Original: 101, OriginalLower: 85, OriginalUpper: Float(math.Inf(1))},
			},
		}},
		Accuracy: []Accuracy{{Candidate: "sarma", N: 2, RMSE: 1, MAE: 1, MAPE: Float(math.NaN()), Coverage: 1}},
	}
}

func TestFloatMarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(-1)), 0})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null,0]", string(b))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "sarma", decoded["best"])

	candidates := decoded["candidates"].([]interface{})
	require.Len(t, candidates, 2)
	dropped := candidates[1].(map[string]interface{})
	assert.Nil(t, dropped["aicc"])
	assert.Equal(t, "estimation: optimizer failed", dropped["error"])

	accepted := candidates[0].(map[string]interface{})
	polys := accepted["stability"].([]interface{})
	assert.Nil(t, polys[1].(map[string]interface{})["min_modulus"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sample()))
	assert.Contains(t, buf.String(), "run_id: run-1")

	var decoded struct {
		Transform struct {
			Lambda     float64 `yaml:"lambda"`
			KPSSPValue float64 `yaml:"kpss_p_value"`
		} `yaml:"transform"`
		Forecasts []struct {
			Horizon int `yaml:"horizon"`
		} `yaml:"forecasts"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.InDelta(t, -0.18, decoded.Transform.Lambda, 1e-12)
	assert.True(t, math.IsNaN(decoded.Transform.KPSSPValue))
	require.Len(t, decoded.Forecasts, 1)
	assert.Equal(t, 2, decoded.Forecasts[0].Horizon)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample().Forecasts[0]))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, forecastHeader, rows[0])
	assert.Equal(t, []string{"1", "2016-01", "4.1", "0.1", "3.9", "4.3", "100", "90", "111"}, rows[1])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.xlsx")
	require.NoError(t, WriteXLSX(path, sample()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"h2", "candidates", "accuracy"}, f.GetSheetList())

	rows, err := f.GetRows("h2")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, forecastHeader, rows[0])
	assert.Equal(t, "2016-02", rows[2][1])

	val, err := f.GetCellValue("candidates", "A3")
	require.NoError(t, err)
	assert.Equal(t, "ma", val)
	val, err = f.GetCellValue("candidates", "D3")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Write(dir, []string{FormatJSON, FormatYAML, FormatCSV, FormatXLSX}, sample())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "summary.json"),
		filepath.Join(dir, "summary.yaml"),
		filepath.Join(dir, "forecast_h2.csv"),
		filepath.Join(dir, "forecast.xlsx"),
	}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = Write(dir, []string{"pdf"}, sample())
	assert.ErrorContains(t, err, "unknown format")
}

func TestBuild(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 180)
	for i := range values {
		values[i] = 50 * math.Exp(0.003*float64(i)) * (1 + 0.08*math.Sin(2*math.Pi*float64(i)/12)) * math.Exp(0.01*rng.NormFloat64())
	}
	series := timeseries.NewMonthly(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), values)
	series.Name = "synthetic"

	cfg := config.Default()
	cfg.Transform.DiffOrder = 1
	cfg.Candidates = []config.Candidate{
		{Name: "airline", Order: sarima.Order{Q: 1, SD: 1, SQ: 1, Period: 12}},
	}
	cfg.Window = config.WindowConfig{
		TrainStart: "2000-01", TrainEnd: "2013-12",
		TestStart: "2014-01", TestEnd: "2014-12",
	}
	cfg.Forecast.Horizons = []int{12}

	res, err := pipeline.Run(context.Background(), cfg, series, nil)
	require.NoError(t, err)

	s := Build(res)
	assert.Equal(t, res.RunID, s.RunID)
	assert.Equal(t, "synthetic", s.Series)
	assert.Equal(t, "2000-01", s.TrainStart)
	assert.Equal(t, "2013-12", s.TrainEnd)
	assert.Equal(t, "2014-01", s.TestStart)
	assert.Equal(t, "airline", s.Best)
	assert.Equal(t, 1, s.Transform.DiffOrder)
	assert.InDelta(t, res.Transform.Lambda(), float64(s.Transform.Lambda), 1e-12)

	require.Len(t, s.Candidates, 1)
	c := s.Candidates[0]
	assert.Equal(t, "accepted", c.Status)
	assert.NotEmpty(t, c.Coefficients)
	assert.NotEmpty(t, c.Pruning)
	assert.NotEmpty(t, c.Diagnostics)
	assert.Equal(t, res.Best.Model.NObs(), c.NObs)

	require.Len(t, s.Forecasts, 1)
	assert.Len(t, s.Forecasts[0].Points, 12)
	assert.Equal(t, "2014-01", s.Forecasts[0].Points[0].Month)

	require.Len(t, s.Accuracy, 1)
	assert.Equal(t, 12, s.Accuracy[0].N)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, s))
	assert.True(t, json.Valid(buf.Bytes()))
}
