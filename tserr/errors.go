// Package tserr defines the error taxonomy shared by every pipeline stage.
//
// Each error carries a Kind, the Stage that produced it and, where one is
// involved, the Candidate model name. Kinds compare with errors.Is against
// the exported sentinels:
//
//	if errors.Is(err, tserr.ErrEstimation) {
//	    // drop this candidate only
//	}
package tserr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by how the pipeline must react to it.
type Kind int

const (
	// KindData marks malformed or too-short input.
	KindData Kind = iota + 1
	// KindTransform marks a degenerate variance-stabilisation grid.
	KindTransform
	// KindEstimation marks optimiser failure or a non-positive-definite covariance.
	KindEstimation
	// KindNonCausal marks an AR polynomial with a root on or inside the unit circle.
	KindNonCausal
	// KindNonInvertible marks an MA polynomial with a root on or inside the unit circle.
	KindNonInvertible
	// KindDiagnostic marks residuals that fail a white-noise test. Advisory.
	KindDiagnostic
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "DataError"
	case KindTransform:
		return "TransformError"
	case KindEstimation:
		return "EstimationError"
	case KindNonCausal:
		return "NonCausalModel"
	case KindNonInvertible:
		return "NonInvertibleModel"
	case KindDiagnostic:
		return "DiagnosticFailure"
	default:
		return "UnknownError"
	}
}

// Fatal reports whether an error of this kind must abort the whole run.
func (k Kind) Fatal() bool {
	return k == KindData || k == KindTransform
}

// Sentinels for errors.Is.
var (
	ErrData          = &Error{Kind: KindData}
	ErrTransform     = &Error{Kind: KindTransform}
	ErrEstimation    = &Error{Kind: KindEstimation}
	ErrNonCausal     = &Error{Kind: KindNonCausal}
	ErrNonInvertible = &Error{Kind: KindNonInvertible}
	ErrDiagnostic    = &Error{Kind: KindDiagnostic}
)

// Error is a classified pipeline error.
type Error struct {
	Kind      Kind
	Stage     string
	Candidate string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Stage != "" {
		b.WriteString(" [")
		b.WriteString(e.Stage)
		if e.Candidate != "" {
			b.WriteString(" ")
			b.WriteString(e.Candidate)
		}
		b.WriteString("]")
	} else if e.Candidate != "" {
		b.WriteString(" [")
		b.WriteString(e.Candidate)
		b.WriteString("]")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so sentinels compare by kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns a classified error with a formatted message.
func New(kind Kind, stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, stage string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithCandidate returns err annotated with a candidate name. Errors that are
// not *Error, or that already name a candidate, are returned unchanged.
func WithCandidate(err error, candidate string) error {
	var e *Error
	if !errors.As(err, &e) || e.Candidate != "" {
		return err
	}
	c := *e
	c.Candidate = candidate
	return &c
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
