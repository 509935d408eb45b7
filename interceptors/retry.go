package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
	"github.com/mcosta74/opstack/retry"
)

// Retry repeats the rest of the Finalize step, the transport call and the
// Deserialize step while the strategy allows it. Every attempt works on its own
// copy of the request builder and sees its token in the operation context.
type Retry[Out any] struct {
	strategy    retry.Strategy
	partitionID string
}

// NewRetry returns a Retry middleware. partitionID is handed to the strategy
// to scope its token bucket, usually the service host.
func NewRetry[Out any](strategy retry.Strategy, partitionID string) *Retry[Out] {
	return &Retry[Out]{strategy: strategy, partitionID: partitionID}
}

func (*Retry[Out]) ID() string { return "Retry" }

func (m *Retry[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	opctx := middleware.OperationContextFrom(ctx)

	token, err := m.strategy.AcquireInitialToken(ctx, m.partitionID)
	if err != nil {
		return nil, fmt.Errorf("acquire retry token: %w", err)
	}

	for attempt := 1; ; attempt++ {
		opctx.SetRetryToken(token)

		out, err := next.Handle(ctx, b.Clone())
		if err == nil {
			m.strategy.RecordSuccess(token)
			return out, nil
		}

		delay, refreshErr := m.strategy.RefreshToken(ctx, token, err)
		if refreshErr != nil {
			return nil, err
		}

		opctx.Logger().LogAttrs(ctx, slog.LevelInfo, "retrying operation",
			slog.String("operation", opctx.OperationName()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err", err.Error()),
		)

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
