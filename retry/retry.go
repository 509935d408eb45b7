// Package retry defines the boundary to an external retry/rate-limiting
// component. The pipeline carries a [Token] for the duration of one attempt
// and never decides backoff on its own.
package retry

import (
	"context"
	"errors"
	"time"
)

// Token is an opaque permission slot obtained from a [Strategy].
type Token interface{}

// ErrNoRetry is returned by strategies that refuse any further attempt.
var ErrNoRetry = errors.New("retry: no further attempts allowed")

// Strategy hands out retry tokens and decides whether, and after how long, a
// failed attempt may be repeated.
type Strategy interface {
	// AcquireInitialToken is called once before the first attempt.
	AcquireInitialToken(ctx context.Context, partitionID string) (Token, error)

	// RefreshToken is called after a failed attempt. It returns the delay to
	// wait before the next attempt, or an error when no retry is allowed.
	RefreshToken(ctx context.Context, token Token, cause error) (time.Duration, error)

	// RecordSuccess releases the token after a successful attempt.
	RecordSuccess(token Token)
}

// NopStrategy never retries.
type NopStrategy struct{}

type nopToken struct{}

func (NopStrategy) AcquireInitialToken(context.Context, string) (Token, error) {
	return nopToken{}, nil
}

func (NopStrategy) RefreshToken(_ context.Context, _ Token, cause error) (time.Duration, error) {
	return 0, errors.Join(ErrNoRetry, cause)
}

func (NopStrategy) RecordSuccess(Token) {}
