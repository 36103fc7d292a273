package transform

import (
	"github.com/asamerry/Time-Series-Project/tserr"
)

// Differenced is the result of order repeated differences at a fixed lag.
// The first Lag*Order observations of the input are consumed; Heads keeps
// them per level so Integrate can rebuild the input exactly, and Tails keeps
// the last Lag values per level so Extend can continue past the end.
type Differenced struct {
	Values []float64
	Lag    int
	Order  int
	Heads  [][]float64
	Tails  [][]float64
}

// Difference applies (1 - B^lag)^order to values.
func Difference(values []float64, lag, order int) (*Differenced, error) {
	if lag < 1 || order < 0 {
		return nil, tserr.New(tserr.KindData, "difference", "invalid lag %d / order %d", lag, order)
	}
	if len(values) <= lag*order {
		return nil, tserr.New(tserr.KindData, "difference",
			"%d observations cannot be differenced %d times at lag %d", len(values), order, lag)
	}

	d := &Differenced{
		Lag:   lag,
		Order: order,
		Heads: make([][]float64, order),
		Tails: make([][]float64, order),
	}
	cur := append([]float64(nil), values...)
	for k := 0; k < order; k++ {
		d.Heads[k] = append([]float64(nil), cur[:lag]...)
		d.Tails[k] = append([]float64(nil), cur[len(cur)-lag:]...)
		next := make([]float64, len(cur)-lag)
		for i := range next {
			next[i] = cur[i+lag] - cur[i]
		}
		cur = next
	}
	d.Values = cur
	return d, nil
}

// Dropped is the number of leading observations lost to differencing.
func (d *Differenced) Dropped() int {
	return d.Lag * d.Order
}

// Integrate rebuilds the undifferenced series from Values and Heads.
func (d *Differenced) Integrate() []float64 {
	return d.IntegrateValues(d.Values)
}

// IntegrateValues rebuilds a series from differenced values of the same
// length as Values, using the stored Heads as initial conditions.
func (d *Differenced) IntegrateValues(values []float64) []float64 {
	cur := append([]float64(nil), values...)
	for k := d.Order - 1; k >= 0; k-- {
		level := make([]float64, len(cur)+d.Lag)
		copy(level, d.Heads[k])
		for i, v := range cur {
			level[i+d.Lag] = level[i] + v
		}
		cur = level
	}
	return cur
}

// Extend integrates values that continue the differenced series beyond its
// end, returning them on the undifferenced scale.
func (d *Differenced) Extend(future []float64) []float64 {
	cur := append([]float64(nil), future...)
	for k := d.Order - 1; k >= 0; k-- {
		tail := d.Tails[k]
		next := make([]float64, len(cur))
		for i, v := range cur {
			var prev float64
			if i < d.Lag {
				prev = tail[len(tail)-d.Lag+i]
			} else {
				prev = next[i-d.Lag]
			}
			next[i] = prev + v
		}
		cur = next
	}
	return cur
}
