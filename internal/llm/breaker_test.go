package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	b := NewBreaker()
	boom := errors.New("upstream down")

	for i := 0; i < 5; i++ {
		err := b.Do(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, b.State())

	// Calls are short-circuited while open; fn is not invoked.
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := NewBreaker()

	for i := 0; i < 20; i++ {
		assert.NoError(t, b.Do(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailureCountResetsOnSuccess(t *testing.T) {
	b := NewBreaker()
	boom := errors.New("flaky")

	for i := 0; i < 4; i++ {
		_ = b.Do(func() error { return boom })
	}
	assert.NoError(t, b.Do(func() error { return nil }))

	// The earlier failures no longer count toward the threshold.
	for i := 0; i < 4; i++ {
		_ = b.Do(func() error { return boom })
	}
	assert.Equal(t, StateClosed, b.State())
}
