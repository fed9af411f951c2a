package retry

import (
	"errors"
	"testing"
	"time"

	errs "liscraper/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			delay := backoff.NextDelay(test.attempt)
			if delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	// Test that jitter adds randomness
	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delay := backoff.NextDelay(2)
		delays[delay] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{BaseDelay: 50 * time.Millisecond}

	for attempt := 1; attempt <= 4; attempt++ {
		if delay := backoff.NextDelay(attempt); delay != 50*time.Millisecond {
			t.Errorf("Attempt %d: expected fixed delay, got %v", attempt, delay)
		}
	}

	if delay := backoff.NextDelay(0); delay != 0 {
		t.Errorf("Expected zero delay for attempt 0, got %v", delay)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &LinearBackoff{BaseDelay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
	}

	err := Do(op, cfg)
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &LinearBackoff{BaseDelay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := errs.New(errs.ErrorTypeAuth, "login rejected")

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &LinearBackoff{BaseDelay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
	}

	err := Do(op, cfg)
	if err != authError {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for auth error), got %d", attempts)
	}
}

func TestRetryWithRetryableChannelError(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errs.New(errs.ErrorTypeChannel, "feed did not render")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &LinearBackoff{BaseDelay: 5 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts for retryable channel error, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &LinearBackoff{BaseDelay: 5 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected result 42, got %d", result)
	}
}
