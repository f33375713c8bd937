package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

// JSON-RPC codes that describe a malformed call. Repeating the call cannot
// fix them.
var permanentRPCCodes = map[int]struct{}{
	-32600: {}, // invalid request
	-32601: {}, // method not found
	-32602: {}, // invalid params
}

// retrier re-runs a node call with doubling backoff, capped at
// maxRetryDelay.
type retrier struct {
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

func newRetrier(maxRetries int, delay time.Duration, logger *zap.Logger) retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retrier{attempts: maxRetries + 1, delay: delay, logger: logger}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		_, permanent := permanentRPCCodes[rpcErr.ErrorCode()]
		return !permanent
	}
	return true
}

func (r retrier) do(ctx context.Context, call string, fn func(context.Context) error) error {
	delay := r.delay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("rpc call recovered", zap.String("call", call), zap.Int("attempt", attempt))
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempt >= r.attempts {
			return err
		}

		r.logger.Warn("rpc call failed, retrying",
			zap.String("call", call),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
