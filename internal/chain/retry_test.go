package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type codedError struct{ code int }

func (e codedError) Error() string  { return "rpc error" }
func (e codedError) ErrorCode() int { return e.code }

func TestRetrierEventuallySucceeds(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := newRetrier(3, time.Millisecond, zap.New(core))

	calls := 0
	err := r.do(context.Background(), "header", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	entries := logs.FilterMessage("rpc call failed, retrying").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 retry logs, got %d", len(entries))
	}
	for i, entry := range entries {
		fields := entry.ContextMap()
		if fields["attempt"] != int64(i+1) {
			t.Fatalf("log %d attempt = %v", i, fields["attempt"])
		}
		if fields["delay"] != time.Millisecond<<i {
			t.Fatalf("log %d delay = %v", i, fields["delay"])
		}
	}
}

func TestRetrierGivesUp(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := newRetrier(2, time.Millisecond, nil).do(context.Background(), "header", func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := newRetrier(5, time.Millisecond, nil).do(context.Background(), "header", func(context.Context) error {
		calls++
		return codedError{code: -32601}
	})
	var coded codedError
	if !errors.As(err, &coded) || coded.code != -32601 {
		t.Fatalf("expected method-not-found error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetrierStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := newRetrier(5, time.Hour, nil).do(ctx, "header", func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("connection reset"), true},
		{codedError{code: -32000}, true},
		{codedError{code: -32602}, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Fatalf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBlockTime(t *testing.T) {
	ts, err := blockTime(&types.Header{Time: 1_700_000_000})
	if err != nil || ts != 1_700_000_000 {
		t.Fatalf("blockTime = %d, %v", ts, err)
	}
	if _, err := blockTime(&types.Header{Time: 1 << 63}); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := blockTime(nil); err == nil {
		t.Fatalf("expected nil header error")
	}
}
