package tserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New(KindEstimation, "fit", "optimizer stopped after %d evaluations", 5000)

	assert.True(t, errors.Is(err, ErrEstimation))
	assert.False(t, errors.Is(err, ErrData))

	wrapped := fmt.Errorf("candidate loop: %w", err)
	assert.True(t, errors.Is(wrapped, ErrEstimation))
	assert.Equal(t, KindEstimation, KindOf(wrapped))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("singular matrix")
	err := Wrap(KindEstimation, "hessian", cause, "covariance not positive definite")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrEstimation)
	assert.Contains(t, err.Error(), "singular matrix")

	assert.NoError(t, Wrap(KindData, "load", nil, "unused"))
}

func TestWithCandidate(t *testing.T) {
	err := New(KindNonCausal, "stability", "root 0.667 inside unit circle")
	named := WithCandidate(err, "sarima-a")

	var e *Error
	require.True(t, errors.As(named, &e))
	assert.Equal(t, "sarima-a", e.Candidate)
	assert.Equal(t, "", err.Candidate)
	assert.Equal(t, "NonCausalModel [stability sarima-a]: root 0.667 inside unit circle", named.Error())

	// The first candidate annotation wins.
	assert.Equal(t, named, WithCandidate(named, "other"))

	plain := errors.New("plain")
	assert.Equal(t, plain, WithCandidate(plain, "x"))
}

func TestKindFatal(t *testing.T) {
	tests := []struct {
		kind  Kind
		fatal bool
	}{
		{KindData, true},
		{KindTransform, true},
		{KindEstimation, false},
		{KindNonCausal, false},
		{KindNonInvertible, false},
		{KindDiagnostic, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.kind.Fatal())
		})
	}
}
