package interceptors_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcosta74/opstack/interceptors"
	kittesting "github.com/mcosta74/opstack/internal/testing"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
	"github.com/mcosta74/opstack/retry"
)

type countingStrategy struct {
	mu        sync.Mutex
	attempts  int
	max       int
	delay     time.Duration
	partition string
	successes int
}

func (s *countingStrategy) AcquireInitialToken(_ context.Context, partitionID string) (retry.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partition = partitionID
	s.attempts = 1
	return s.attempts, nil
}

func (s *countingStrategy) RefreshToken(_ context.Context, _ retry.Token, cause error) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts >= s.max {
		return 0, errors.Join(retry.ErrNoRetry, cause)
	}
	s.attempts++
	return s.delay, nil
}

func (s *countingStrategy) RecordSuccess(retry.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
}

func retryStack(t *testing.T, strategy retry.Strategy, tokens *[]retry.Token) *middleware.Stack[empty, empty] {
	t.Helper()

	s := middleware.NewStack[empty, empty]("Retry")
	require.NoError(t, s.Finalize.InsertAtTail(interceptors.NewRetry[empty](strategy, "widgets")))
	require.NoError(t, s.Finalize.InsertAtTail(middleware.NewMiddleware("attempt", func(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[empty]]) (*middleware.OperationOutput[empty], error) {
		token, _ := middleware.OperationContextFrom(ctx).RetryToken()
		*tokens = append(*tokens, token)
		b.WithHeader("X-Attempt", "1")
		return next.Handle(ctx, b)
	})))
	return s
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	var tokens []retry.Token
	strategy := &countingStrategy{max: 3}
	transport := &kittesting.StubTransport{Errors: []error{errors.New("connection reset"), nil}}
	s := retryStack(t, strategy, &tokens)

	_, err := s.Execute(context.Background(), nil, empty{}, transport)

	require.NoError(t, err)
	assert.Equal(t, "widgets", strategy.partition)
	assert.Equal(t, 1, strategy.successes)
	assert.Len(t, tokens, 2)
	for _, req := range transport.Requests() {
		assert.Equal(t, []string{"1"}, req.Header.Values("X-Attempt"))
	}
}

func TestRetryGivesUp(t *testing.T) {
	var tokens []retry.Token
	failure := errors.New("connection reset")
	strategy := &countingStrategy{max: 2}
	transport := &kittesting.StubTransport{Errors: []error{failure, failure, failure}}
	s := retryStack(t, strategy, &tokens)

	_, err := s.Execute(context.Background(), nil, empty{}, transport)

	assert.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, retry.ErrNoRetry)
	var oe *middleware.OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, middleware.PhaseTransport, oe.Phase)
	assert.Len(t, transport.Requests(), 2)
	assert.Zero(t, strategy.successes)
}

func TestRetryRetriesServiceErrorsWhenAllowed(t *testing.T) {
	var tokens []retry.Token
	strategy := &countingStrategy{max: 2}
	transport := &kittesting.StubTransport{Responses: []*ports.Response{
		kittesting.BuildResponse(http.StatusServiceUnavailable, nil, "busy"),
		kittesting.BuildResponse(http.StatusOK, nil, ""),
	}}
	s := retryStack(t, strategy, &tokens)
	require.NoError(t, s.Deserialize.InsertAtTail(interceptors.NewDeserialize[empty](nil, nil)))

	_, err := s.Execute(context.Background(), nil, empty{}, transport)

	require.NoError(t, err)
	assert.Len(t, transport.Requests(), 2)
}

func TestRetryHonoursCancellationWhileWaiting(t *testing.T) {
	var tokens []retry.Token
	strategy := &countingStrategy{max: 5, delay: time.Hour}
	transport := &kittesting.StubTransport{Errors: []error{errors.New("connection reset")}}
	s := retryStack(t, strategy, &tokens)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Execute(ctx, nil, empty{}, transport)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, middleware.IsClientError(err))
	assert.Len(t, transport.Requests(), 1)
}

func TestRetryWithNopStrategy(t *testing.T) {
	var tokens []retry.Token
	transport := &kittesting.StubTransport{Errors: []error{errors.New("connection reset")}}
	s := retryStack(t, retry.NopStrategy{}, &tokens)

	_, err := s.Execute(context.Background(), nil, empty{}, transport)

	require.Error(t, err)
	assert.Len(t, transport.Requests(), 1)
}
