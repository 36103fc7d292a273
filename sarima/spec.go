package sarima

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, s).
type Order struct {
	P int `json:"p" yaml:"p" mapstructure:"p"` // Non-seasonal AR order
	D int `json:"d" yaml:"d" mapstructure:"d"` // Non-seasonal differencing order
	Q int `json:"q" yaml:"q" mapstructure:"q"` // Non-seasonal MA order
	// Seasonal components
	SP     int `json:"sp" yaml:"sp" mapstructure:"sp"` // Seasonal AR order
	SD     int `json:"sd" yaml:"sd" mapstructure:"sd"` // Seasonal differencing order
	SQ     int `json:"sq" yaml:"sq" mapstructure:"sq"` // Seasonal MA order
	Period int `json:"period" yaml:"period" mapstructure:"period"`
}

func (o Order) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Period)
}

// Seasonal reports whether any seasonal order is non-zero.
func (o Order) Seasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

// Lost is the number of observations consumed by the model's own
// differencing.
func (o Order) Lost() int {
	return o.D + o.SD*o.Period
}

// Mask marks coefficients held at zero. A nil slice means every coefficient
// of that polynomial is free.
type Mask struct {
	AR  []bool `json:"ar,omitempty" yaml:"ar,omitempty"`
	MA  []bool `json:"ma,omitempty" yaml:"ma,omitempty"`
	SAR []bool `json:"sar,omitempty" yaml:"sar,omitempty"`
	SMA []bool `json:"sma,omitempty" yaml:"sma,omitempty"`
}

// Spec is a model specification: orders, the mask of fixed coefficients and
// whether a mean is estimated for the differenced series.
type Spec struct {
	Name        string `json:"name" yaml:"name"`
	Order       Order  `json:"order" yaml:"order"`
	Mask        Mask   `json:"mask" yaml:"mask"`
	IncludeMean bool   `json:"include_mean" yaml:"include_mean"`
}

// NewSpec creates a specification with every coefficient free.
func NewSpec(name string, order Order, includeMean bool) (Spec, error) {
	s := Spec{Name: name, Order: order, IncludeMean: includeMean}
	if s.Name == "" {
		s.Name = order.String()
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	s.Mask = s.fullMask()
	return s, nil
}

// Validate checks orders and mask lengths.
func (s Spec) Validate() error {
	o := s.Order
	for _, v := range []int{o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Period} {
		if v < 0 {
			return tserr.New(tserr.KindEstimation, "spec", "negative order in %s", o)
		}
	}
	if o.Seasonal() && o.Period < 2 {
		return tserr.New(tserr.KindEstimation, "spec", "seasonal orders need a period of at least 2, got %d", o.Period)
	}
	check := func(name string, m []bool, n int) error {
		if m != nil && len(m) != n {
			return tserr.New(tserr.KindEstimation, "spec", "%s mask has %d entries for order %d", name, len(m), n)
		}
		return nil
	}
	if err := check("ar", s.Mask.AR, o.P); err != nil {
		return err
	}
	if err := check("ma", s.Mask.MA, o.Q); err != nil {
		return err
	}
	if err := check("sar", s.Mask.SAR, o.SP); err != nil {
		return err
	}
	return check("sma", s.Mask.SMA, o.SQ)
}

func (s Spec) fullMask() Mask {
	grow := func(m []bool, n int) []bool {
		out := make([]bool, n)
		copy(out, m)
		return out
	}
	return Mask{
		AR:  grow(s.Mask.AR, s.Order.P),
		MA:  grow(s.Mask.MA, s.Order.Q),
		SAR: grow(s.Mask.SAR, s.Order.SP),
		SMA: grow(s.Mask.SMA, s.Order.SQ),
	}
}

// group is one of the four coefficient polynomials.
type group int

const (
	groupAR group = iota
	groupMA
	groupSAR
	groupSMA
)

var groupPrefix = [...]string{"ar", "ma", "sar", "sma"}

func (s Spec) groupMask(m Mask, g group) []bool {
	switch g {
	case groupAR:
		return m.AR
	case groupMA:
		return m.MA
	case groupSAR:
		return m.SAR
	default:
		return m.SMA
	}
}

// slot addresses one coefficient.
type slot struct {
	g group
	i int
}

func (sl slot) name() string {
	return groupPrefix[sl.g] + strconv.Itoa(sl.i+1)
}

// slots lists every coefficient in the canonical order ar, ma, sar, sma.
func (s Spec) slots() []slot {
	m := s.fullMask()
	var out []slot
	for g := groupAR; g <= groupSMA; g++ {
		for i := range s.groupMask(m, g) {
			out = append(out, slot{g, i})
		}
	}
	return out
}

// freeSlots lists the coefficients that are estimated.
func (s Spec) freeSlots() []slot {
	m := s.fullMask()
	var out []slot
	for _, sl := range s.slots() {
		if !s.groupMask(m, sl.g)[sl.i] {
			out = append(out, sl)
		}
	}
	return out
}

// CoefficientNames returns ar1..arP, ma1..maQ, sar1..sarP, sma1..smaQ.
func (s Spec) CoefficientNames() []string {
	slots := s.slots()
	out := make([]string, len(slots))
	for i, sl := range slots {
		out[i] = sl.name()
	}
	return out
}

// NumFree is the number of estimated AR and MA coefficients.
func (s Spec) NumFree() int {
	return len(s.freeSlots())
}

// NumParams is the number of estimated parameters counted by the
// information criteria: free coefficients, the mean if estimated, and σ².
func (s Spec) NumParams() int {
	k := s.NumFree() + 1
	if s.IncludeMean {
		k++
	}
	return k
}

// Fixed returns the names of the coefficients held at zero.
func (s Spec) Fixed() []string {
	m := s.fullMask()
	var out []string
	for _, sl := range s.slots() {
		if s.groupMask(m, sl.g)[sl.i] {
			out = append(out, sl.name())
		}
	}
	return out
}

// IsFixed reports whether the named coefficient is held at zero.
func (s Spec) IsFixed(name string) bool {
	sl, ok := s.lookup(name)
	if !ok {
		return false
	}
	return s.groupMask(s.fullMask(), sl.g)[sl.i]
}

// Fix returns a copy of the specification with the named coefficients held
// at zero. Names are case-insensitive, e.g. "ar2" or "SMA1".
func (s Spec) Fix(names ...string) (Spec, error) {
	out := s
	out.Mask = s.fullMask()
	for _, name := range names {
		sl, ok := s.lookup(name)
		if !ok {
			return Spec{}, tserr.New(tserr.KindEstimation, "spec", "%s has no coefficient %q", s.Order, name)
		}
		out.groupMask(out.Mask, sl.g)[sl.i] = true
	}
	return out, nil
}

func (s Spec) lookup(name string) (slot, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, sl := range s.slots() {
		if sl.name() == name {
			return sl, true
		}
	}
	return slot{}, false
}

func (s Spec) String() string {
	out := s.Name
	if fixed := s.Fixed(); len(fixed) > 0 {
		out += " fixed=" + strings.Join(fixed, ",")
	}
	return out
}
