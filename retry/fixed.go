package retry

import (
	"context"
	"errors"
	"time"
)

// FixedStrategy allows up to MaxAttempts attempts per operation, waiting
// Delay between them. Retryable, when set, vetoes retrying a given failure.
type FixedStrategy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

type fixedToken struct {
	attempt int
}

func (s FixedStrategy) AcquireInitialToken(context.Context, string) (Token, error) {
	return &fixedToken{attempt: 1}, nil
}

func (s FixedStrategy) RefreshToken(_ context.Context, token Token, cause error) (time.Duration, error) {
	t, ok := token.(*fixedToken)
	if !ok {
		return 0, errors.New("retry: foreign token")
	}
	if t.attempt >= s.MaxAttempts {
		return 0, errors.Join(ErrNoRetry, cause)
	}
	if s.Retryable != nil && !s.Retryable(cause) {
		return 0, errors.Join(ErrNoRetry, cause)
	}
	t.attempt++
	return s.Delay, nil
}

func (FixedStrategy) RecordSuccess(Token) {}
