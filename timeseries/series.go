// Package timeseries provides the monthly series type consumed by every stage.
package timeseries

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// PeriodMonthly is the number of observations per seasonal cycle.
const PeriodMonthly = 12

// MonthLayout is the label format for window boundaries and forecast output.
const MonthLayout = "2006-01"

// Series represents a monthly time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// epoch anchors series created without explicit timestamps.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// New creates a monthly series from values, indexed from January 2000.
func New(values []float64) *Series {
	return NewMonthly(epoch, values)
}

// NewMonthly creates a series of consecutive months beginning at start.
func NewMonthly(start time.Time, values []float64) *Series {
	start = MonthStart(start)
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = start.AddDate(0, i, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, tserr.New(tserr.KindData, "load",
			"%d timestamps for %d values", len(timestamps), len(values))
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a "YYYY-MM" label.
func ParseMonth(label string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, label)
	if err != nil {
		return time.Time{}, tserr.Wrap(tserr.KindData, "window", err, "bad month %q", label)
	}
	return t, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the unbiased sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Start returns the first timestamp, or the zero time for an empty series.
func (s *Series) Start() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// End returns the last timestamp, or the zero time for an empty series.
func (s *Series) End() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// ValidateMonthly checks that the series is non-empty, finite, and indexed by
// strictly consecutive months.
func (s *Series) ValidateMonthly() error {
	if len(s.Values) == 0 {
		return tserr.New(tserr.KindData, "load", "series %q is empty", s.Name)
	}
	if len(s.Timestamps) != len(s.Values) {
		return tserr.New(tserr.KindData, "load",
			"series %q has %d timestamps for %d values", s.Name, len(s.Timestamps), len(s.Values))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return tserr.New(tserr.KindData, "load",
				"non-finite value at %s", s.Timestamps[i].Format(MonthLayout))
		}
	}
	for i := 1; i < len(s.Timestamps); i++ {
		want := MonthStart(s.Timestamps[i-1]).AddDate(0, 1, 0)
		if got := MonthStart(s.Timestamps[i]); !got.Equal(want) {
			return tserr.New(tserr.KindData, "load",
				"index gap: %s follows %s, want %s",
				got.Format(MonthLayout), s.Timestamps[i-1].Format(MonthLayout), want.Format(MonthLayout))
		}
	}
	return nil
}

// Window returns the observations whose month lies in [start, end]. A zero
// start or end leaves that side open.
func (s *Series) Window(start, end time.Time) (*Series, error) {
	lo, hi := 0, len(s.Values)
	if !start.IsZero() {
		start = MonthStart(start)
		for lo < hi && MonthStart(s.Timestamps[lo]).Before(start) {
			lo++
		}
	}
	if !end.IsZero() {
		end = MonthStart(end)
		for hi > lo && MonthStart(s.Timestamps[hi-1]).After(end) {
			hi--
		}
	}
	if lo >= hi {
		return nil, tserr.New(tserr.KindData, "window",
			"window %s..%s selects no observations", start.Format(MonthLayout), end.Format(MonthLayout))
	}
	return s.Slice(lo, hi), nil
}

// FutureTimestamps returns the h months following the last observation.
func (s *Series) FutureTimestamps(h int) []time.Time {
	out := make([]time.Time, h)
	last := MonthStart(s.End())
	for i := range out {
		out[i] = last.AddDate(0, i+1, 0)
	}
	return out
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}
