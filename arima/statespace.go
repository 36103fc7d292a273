package arima

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNonStationary is returned when the stationary initial covariance does
// not exist for the given AR coefficients.
var ErrNonStationary = errors.New("arima: AR part is not stationary")

// StateSpace is the Harvey representation of a zero-mean ARMA(p, q)
// process with r = max(p, q+1) states:
//
//	α(t+1) = T α(t) + R e(t+1),  y(t) = α(t)[0]
//
// T has phi down its first column and ones on the superdiagonal;
// R = (1, θ1, ..., θ(r-1)).
type StateSpace struct {
	phi   []float64 // length r, zero padded
	theta []float64 // length r, theta[0] = 1
	r     int
}

// NewStateSpace builds the representation for AR coefficients phi and MA
// coefficients theta in the usual sign conventions.
func NewStateSpace(phi, theta []float64) *StateSpace {
	r := len(phi)
	if len(theta)+1 > r {
		r = len(theta) + 1
	}
	ss := &StateSpace{
		phi:   make([]float64, r),
		theta: make([]float64, r),
		r:     r,
	}
	copy(ss.phi, phi)
	ss.theta[0] = 1
	copy(ss.theta[1:], theta)
	return ss
}

// Dim returns the state dimension r.
func (ss *StateSpace) Dim() int {
	return ss.r
}

func (ss *StateSpace) transition() *mat.Dense {
	t := mat.NewDense(ss.r, ss.r, nil)
	for i := 0; i < ss.r; i++ {
		t.Set(i, 0, ss.phi[i])
		if i+1 < ss.r {
			t.Set(i, i+1, 1)
		}
	}
	return t
}

// InitialCovariance solves P = T P T' + R R' (in units of σ²) with the
// doubling algorithm.
func (ss *StateSpace) InitialCovariance() ([][]float64, error) {
	r := ss.r
	p := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			p.Set(i, j, ss.theta[i]*ss.theta[j])
		}
	}
	a := ss.transition()

	var ap, apa, next, a2 mat.Dense
	const maxIter = 64
	for k := 0; k < maxIter; k++ {
		ap.Mul(a, p)
		apa.Mul(&ap, a.T())
		next.Add(p, &apa)

		delta := 0.0
		scale := 1.0
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := next.At(i, j)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, ErrNonStationary
				}
				delta = math.Max(delta, math.Abs(v-p.At(i, j)))
				scale = math.Max(scale, math.Abs(v))
			}
		}
		p.Copy(&next)
		if delta <= 1e-13*scale {
			return denseRows(p), nil
		}

		a2.Mul(a, a)
		a.Copy(&a2)
	}
	return nil, ErrNonStationary
}

func denseRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// FilterResult holds the output of a Kalman pass over a series.
type FilterResult struct {
	// SSQ is Σ v²/F and SumLogF is Σ log F, both in units of σ².
	SSQ     float64
	SumLogF float64
	N       int
	// Residuals are standardised innovations v/√F.
	Residuals []float64

	ss *StateSpace
	a  []float64   // one-step-ahead state after the last observation
	p  [][]float64 // its covariance
}

// Sigma2 is the concentrated innovation variance SSQ/N.
func (f *FilterResult) Sigma2() float64 {
	return f.SSQ / float64(f.N)
}

// LogLik is the exact Gaussian log-likelihood with σ² concentrated out.
func (f *FilterResult) LogLik() float64 {
	n := float64(f.N)
	return -0.5 * (n*(math.Log(2*math.Pi)+1+math.Log(f.Sigma2())) + f.SumLogF)
}

// Objective is -LogLik/N up to a constant, the quantity minimised when
// fitting.
func (f *FilterResult) Objective() float64 {
	return 0.5 * (math.Log(f.Sigma2()) + f.SumLogF/float64(f.N))
}

// Filter runs the Kalman filter over a zero-mean series y.
func (ss *StateSpace) Filter(y []float64) (*FilterResult, error) {
	if len(y) == 0 {
		return nil, errors.New("arima: empty series")
	}
	p, err := ss.InitialCovariance()
	if err != nil {
		return nil, err
	}

	r := ss.r
	a := make([]float64, r)
	res := &FilterResult{N: len(y), Residuals: make([]float64, len(y)), ss: ss}

	m := newSquare(r)
	next := newSquare(r)
	gain := make([]float64, r)
	steady := false

	for t, yt := range y {
		f := p[0][0]
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, errors.New("arima: non-positive innovation variance")
		}
		v := yt - a[0]
		res.SSQ += v * v / f
		res.SumLogF += math.Log(f)
		res.Residuals[t] = v / math.Sqrt(f)

		// update: a += P[:,0] v/F, P -= P[:,0] P[0,:]/F
		for i := 0; i < r; i++ {
			gain[i] = p[i][0] / f
			a[i] += gain[i] * v
		}

		// predict: a = T a
		a0 := a[0]
		for i := 0; i < r-1; i++ {
			a[i] = ss.phi[i]*a0 + a[i+1]
		}
		a[r-1] = ss.phi[r-1] * a0

		if steady {
			continue
		}

		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				next[i][j] = p[i][j] - gain[i]*p[0][j]
			}
		}
		// M = T P, then P = M T' + R R'
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := ss.phi[i] * next[0][j]
				if i+1 < r {
					v += next[i+1][j]
				}
				m[i][j] = v
			}
		}
		delta := 0.0
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := ss.phi[j]*m[i][0] + ss.theta[i]*ss.theta[j]
				if j+1 < r {
					v += m[i][j+1]
				}
				delta = math.Max(delta, math.Abs(v-p[i][j]))
				next[i][j] = v
			}
		}
		p, next = next, p
		if delta < 1e-12 {
			steady = true
		}
	}

	res.a = a
	res.p = p
	return res, nil
}

// Forecast returns h-step-ahead predictions of the zero-mean series and
// their variances in units of σ².
func (f *FilterResult) Forecast(h int) (mean, variance []float64) {
	ss := f.ss
	r := ss.r
	a := append([]float64(nil), f.a...)
	p := newSquare(r)
	for i := range p {
		copy(p[i], f.p[i])
	}
	m := newSquare(r)

	mean = make([]float64, h)
	variance = make([]float64, h)
	for k := 0; k < h; k++ {
		mean[k] = a[0]
		variance[k] = p[0][0]

		a0 := a[0]
		for i := 0; i < r-1; i++ {
			a[i] = ss.phi[i]*a0 + a[i+1]
		}
		a[r-1] = ss.phi[r-1] * a0

		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := ss.phi[i] * p[0][j]
				if i+1 < r {
					v += p[i+1][j]
				}
				m[i][j] = v
			}
		}
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				v := ss.phi[j]*m[i][0] + ss.theta[i]*ss.theta[j]
				if j+1 < r {
					v += m[i][j+1]
				}
				p[i][j] = v
			}
		}
	}
	return mean, variance
}

func newSquare(r int) [][]float64 {
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, r)
	}
	return out
}
