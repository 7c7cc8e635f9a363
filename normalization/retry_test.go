package normalization

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("rate limit exceeded"), true},
		{errors.New("HTTP 429 Too Many Requests"), true},
		{errors.New("connection refused"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("database is locked"), true},
		{errors.New("invalid NIP format"), false},
		{errors.New("no results found"), false},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.retryable {
			t.Errorf("IsRetryableError(%v) = %v, expected %v", tt.err, got, tt.retryable)
		}
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	}

	config := RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2.0}
	if err := Retry(context.Background(), fn, config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return errors.New("invalid credentials")
	}

	config := RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2.0}
	if err := Retry(context.Background(), fn, config); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func() error { return errors.New("timeout") }

	config := RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2.0}
	err := Retry(ctx, fn, config)
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
