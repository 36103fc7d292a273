package timeseries

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/asamerry/Time-Series-Project/tserr"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestNewMonthlyIndex(t *testing.T) {
	s := NewMonthly(time.Date(2019, time.November, 17, 8, 0, 0, 0, time.UTC), []float64{1, 2, 3})

	require.Equal(t, 3, s.Len())
	assert.Equal(t, month(2019, time.November), s.Timestamps[0])
	assert.Equal(t, month(2020, time.January), s.Timestamps[2])
	assert.NoError(t, s.ValidateMonthly())
}

func TestMeanVariance(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 5.0, s.Mean(), 1e-12)
	assert.InDelta(t, 4.571428571428571, s.Variance(), 1e-12)
	assert.InDelta(t, math.Sqrt(4.571428571428571), s.Std(), 1e-12)

	empty := New(nil)
	assert.Equal(t, 0.0, empty.Mean())
	assert.Equal(t, 0.0, empty.Variance())
}

func TestValidateMonthly(t *testing.T) {
	tests := []struct {
		name    string
		series  *Series
		wantErr bool
	}{
		{"consecutive", New([]float64{1, 2, 3}), false},
		{"empty", &Series{}, true},
		{"nan", New([]float64{1, math.NaN(), 3}), true},
		{
			name: "gap",
			series: &Series{
				Timestamps: []time.Time{month(2020, 1), month(2020, 2), month(2020, 4)},
				Values:     []float64{1, 2, 3},
			},
			wantErr: true,
		},
		{
			name: "unsorted",
			series: &Series{
				Timestamps: []time.Time{month(2020, 2), month(2020, 1)},
				Values:     []float64{1, 2},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.ValidateMonthly()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tserr.ErrData))
		})
	}
}

func TestWindow(t *testing.T) {
	s := NewMonthly(month(2000, time.January), make([]float64, 36))
	for i := range s.Values {
		s.Values[i] = float64(i)
	}

	w, err := s.Window(month(2001, time.January), month(2001, time.December))
	require.NoError(t, err)
	assert.Equal(t, 12, w.Len())
	assert.Equal(t, 12.0, w.Values[0])
	assert.Equal(t, 23.0, w.Values[11])

	open, err := s.Window(month(2002, time.June), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 7, open.Len())

	_, err = s.Window(month(2010, time.January), month(2010, time.December))
	assert.ErrorIs(t, err, tserr.ErrData)
}

func TestFutureTimestamps(t *testing.T) {
	s := NewMonthly(month(2020, time.November), []float64{1, 2})
	future := s.FutureTimestamps(3)

	require.Len(t, future, 3)
	assert.Equal(t, month(2021, time.January), future[0])
	assert.Equal(t, month(2021, time.March), future[2])
}

func TestSliceAndCopy(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 5})
	s.Name = "x"

	sub := s.Slice(1, 4)
	assert.Equal(t, []float64{2, 3, 4}, sub.Values)
	assert.Equal(t, "x", sub.Name)

	c := s.Copy()
	c.Values[0] = 100
	assert.Equal(t, 1.0, s.Values[0])
}

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `observation_date,UNRATE
1990-01-01,5.4
1990-02-01,5.3
1990-03-01,5.2
1990-04-01,5.4`

	opts := DefaultLoadOptions()
	opts.ValueColumn = "UNRATE"

	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{5.4, 5.3, 5.2, 5.4}, series.Values)
	assert.Equal(t, month(1990, time.January), series.Timestamps[0])
	assert.NoError(t, series.ValidateMonthly())
}

func TestLoadCSVMonthLabels(t *testing.T) {
	csvData := `month,value
2019-11,"1,200.5"
2019-12,1210
2020-01,1195`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1200.5, 1210, 1195}, series.Values)
	assert.Equal(t, month(2020, time.January), series.Timestamps[2])
}

func TestLoadCSVRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing value", "date,value\n2020-01,1\n2020-02,NA\n"},
		{"bad number", "date,value\n2020-01,abc\n"},
		{"bad date", "date,value\nsomeday,1\n"},
		{"no rows", "date,value\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSVFromReader(strings.NewReader(tt.data), nil)
			assert.ErrorIs(t, err, tserr.ErrData)
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "date"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "value"))
	for i := 0; i < 6; i++ {
		row := i + 2
		dateCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		require.NoError(t, f.SetCellValue("Sheet1", dateCell, month(2018, time.Month(7+i))))
		require.NoError(t, f.SetCellValue("Sheet1", valueCell, 100.0+float64(i)))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	series, err := LoadXLSX(path, nil)
	require.NoError(t, err)

	require.Equal(t, 6, series.Len())
	assert.Equal(t, month(2018, time.July), series.Timestamps[0])
	assert.Equal(t, month(2018, time.December), series.Timestamps[5])
	assert.Equal(t, 105.0, series.Values[5])
	assert.NoError(t, series.ValidateMonthly())
}

func TestLoadXLSXMissingFile(t *testing.T) {
	_, err := LoadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), nil)
	assert.ErrorIs(t, err, tserr.ErrData)
}
