package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type classifiedErr struct {
	msg       string
	retryable bool
}

func (e *classifiedErr) Error() string     { return e.msg }
func (e *classifiedErr) IsRetryable() bool { return e.retryable }

func TestSuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestSuccessShortCircuitsRemainingAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	cause := errors.New("gateway down")
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return cause
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("terminal error should wrap the last failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Fatalf("unexpected terminal message: %v", err)
	}
}

func TestNonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	cause := &classifiedErr{msg: "deterministic rejection", retryable: false}
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return cause
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for non-retryable failure, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrappedNonRetryableAbortsImmediately(t *testing.T) {
	// Classification must survive fmt.Errorf %w wrapping by callers.
	calls := 0
	cause := &classifiedErr{msg: "deterministic rejection", retryable: false}
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("initialize failed: %w", cause)
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for wrapped non-retryable failure, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRetryableClassifiedErrorIsRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		calls++
		return &classifiedErr{msg: "timeout", retryable: true}
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected terminal error")
	}
}

func TestDelayBetweenAttempts(t *testing.T) {
	const delay = 20 * time.Millisecond
	start := time.Now()
	_ = Do(context.Background(), 3, delay, func(ctx context.Context) error {
		return errors.New("transient")
	})
	// Two inter-attempt waits for three attempts.
	if elapsed := time.Since(start); elapsed < 2*delay {
		t.Fatalf("expected at least %s elapsed, got %s", 2*delay, elapsed)
	}
}

func TestContextCancellationAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, 3, time.Minute, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
